package radio

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// demoTemplates are canned advertisements for demo mode, one per
// device family worth showing off. Payloads follow the over-the-air
// element format: Flags, manufacturer data, optional service UUID.
var demoTemplates = []struct {
	name    string
	payload []byte
}{
	{"airtag", []byte{0x02, 0x01, 0x06, 0x07, 0xFF, 0x4C, 0x00, 0x07, 0x19, 0xA3, 0x51}},
	{"smarttag", []byte{0x02, 0x01, 0x06, 0x07, 0xFF, 0x75, 0x00, 0x42, 0x09, 0x01, 0x1C}},
	{"tile", []byte{0x02, 0x01, 0x06, 0x07, 0xFF, 0xEC, 0xFE, 0xEC, 0xFE, 0x90, 0x44}},
	{"rayban", []byte{0x02, 0x01, 0x06, 0x07, 0xFF, 0xAB, 0x01, 0x2E, 0x77, 0x08, 0xD0}},
	{"dexcom", []byte{0x02, 0x01, 0x06, 0x07, 0xFF, 0xD1, 0x00, 0x33, 0x90, 0x21, 0x7B, 0x03, 0x03, 0xBC, 0xFE}},
	{"fitbit", []byte{0x02, 0x01, 0x06, 0x07, 0xFF, 0x24, 0x02, 0x61, 0x0F, 0x52, 0x99}},
}

type demoDevice struct {
	addr      [6]byte
	payload   []byte
	baseRSSI  float64
	phase     float64
	amplitude float64
}

// DemoFeeder periodically injects canned advertisements into a mock
// driver so the full pipeline runs without Bluetooth hardware.
type DemoFeeder struct {
	driver  *MockDriver
	devices []demoDevice
	cancel  context.CancelFunc
}

// NewDemoFeeder picks a spread of fake nearby devices.
func NewDemoFeeder(driver *MockDriver) *DemoFeeder {
	devices := make([]demoDevice, 0, len(demoTemplates)+2)
	for _, tmpl := range demoTemplates {
		devices = append(devices, demoDevice{
			addr:      demoAddr(),
			payload:   tmpl.payload,
			baseRSSI:  -45 - rand.Float64()*40, // -45 to -85 dBm
			phase:     rand.Float64() * 2 * math.Pi,
			amplitude: 3 + rand.Float64()*6,
		})
	}
	// A second AirTag and Tile so the list shows multiple instances.
	devices = append(devices,
		demoDevice{addr: demoAddr(), payload: demoTemplates[0].payload, baseRSSI: -70, amplitude: 5},
		demoDevice{addr: demoAddr(), payload: demoTemplates[2].payload, baseRSSI: -62, amplitude: 4},
	)
	return &DemoFeeder{driver: driver, devices: devices}
}

// Start begins the feeder loop.
func (f *DemoFeeder) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	go f.loop(ctx)
}

func (f *DemoFeeder) loop(ctx context.Context) {
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	t := 0.0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t += 0.3
			for i := range f.devices {
				d := &f.devices[i]
				rssi := d.baseRSSI + d.amplitude*math.Sin(t*0.5+d.phase) + (rand.Float64()-0.5)*4
				f.driver.InjectAdvertisement(d.payload, int8(rssi), d.addr)
			}
		}
	}
}

// Stop halts the feeder.
func (f *DemoFeeder) Stop() {
	if f.cancel != nil {
		f.cancel()
	}
}

func demoAddr() [6]byte {
	var a [6]byte
	for i := range a {
		a[i] = byte(rand.Intn(256))
	}
	a[0] |= 0x02
	a[0] &^= 0x01
	return a
}
