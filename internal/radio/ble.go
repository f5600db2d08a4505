package radio

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"
)

// BLEDriver implements Driver and Scanner on top of the host Bluetooth
// stack. Advertising is best effort: BlueZ owns the controller address,
// so SetRandomAddress records the request without enforcing it, and the
// raw payload is mapped back onto the adapter's advertisement options.
type BLEDriver struct {
	adapter *bluetooth.Adapter

	mu       sync.Mutex
	rng      *rand.Rand
	adv      *bluetooth.Advertisement
	options  bluetooth.AdvertisementOptions
	scanning bool
}

// NewBLEDriver wraps the default adapter. Enable is called once here;
// it needs CAP_NET_ADMIN or root on Linux.
func NewBLEDriver() (*BLEDriver, error) {
	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("failed to enable BLE adapter: %w (try running with sudo or setcap cap_net_admin+ep)", err)
	}
	return &BLEDriver{
		adapter: adapter,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// SetRandomAddress accepts the requested broadcast address. BlueZ owns
// the controller address, so the request is not enforced here.
func (d *BLEDriver) SetRandomAddress(mac [6]byte) error {
	return nil
}

// ConfigureAdvData maps a raw advertising payload onto the adapter's
// advertisement options by re-walking its elements.
func (d *BLEDriver) ConfigureAdvData(data []byte) error {
	opts := bluetooth.AdvertisementOptions{}

	i := 0
	for i < len(data) {
		l := int(data[i])
		if l == 0 || i+1+l > len(data) {
			break
		}
		typ := data[i+1]
		field := data[i+2 : i+1+l]
		switch typ {
		case 0xFF:
			if len(field) >= 2 {
				opts.ManufacturerData = append(opts.ManufacturerData, bluetooth.ManufacturerDataElement{
					CompanyID: uint16(field[0]) | uint16(field[1])<<8,
					Data:      append([]byte(nil), field[2:]...),
				})
			}
		case 0x02, 0x03:
			for j := 0; j+2 <= len(field); j += 2 {
				uuid := uint16(field[j]) | uint16(field[j+1])<<8
				opts.ServiceUUIDs = append(opts.ServiceUUIDs, bluetooth.New16BitUUID(uuid))
			}
		}
		i += 1 + l
	}

	d.mu.Lock()
	d.options = opts
	d.mu.Unlock()
	return nil
}

// StartAdvertising begins one burst with the configured payload.
func (d *BLEDriver) StartAdvertising(p Params) error {
	d.mu.Lock()
	opts := d.options
	d.mu.Unlock()

	opts.Interval = bluetooth.NewDuration(time.Duration(p.IntervalMinMs) * time.Millisecond)

	adv := d.adapter.DefaultAdvertisement()
	if err := adv.Configure(opts); err != nil {
		return fmt.Errorf("configure advertisement: %w", err)
	}
	if err := adv.Start(); err != nil {
		return fmt.Errorf("start advertisement: %w", err)
	}
	d.mu.Lock()
	d.adv = adv
	d.mu.Unlock()
	return nil
}

// StopAdvertising ends the burst.
func (d *BLEDriver) StopAdvertising() error {
	d.mu.Lock()
	adv := d.adv
	d.mu.Unlock()
	if adv == nil {
		return nil
	}
	return adv.Stop()
}

// Random16 returns 16 random bits.
func (d *BLEDriver) Random16() uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return uint16(d.rng.Intn(1 << 16))
}

// RandomBytes fills p with random bytes.
func (d *BLEDriver) RandomBytes(p []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rng.Read(p)
}

// StartScan begins delivering raw advertisements to cb. The underlying
// Scan call blocks, so it runs in its own goroutine.
func (d *BLEDriver) StartScan(cb ScanCallback) error {
	d.mu.Lock()
	d.scanning = true
	d.mu.Unlock()

	go func() {
		_ = d.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			d.mu.Lock()
			active := d.scanning
			d.mu.Unlock()
			if !active {
				return
			}

			addr, ok := parseMAC(result.Address.String())
			if !ok {
				return
			}

			raw := result.AdvertisementPayload.Bytes()
			if raw == nil {
				// Some platforms expose only pre-parsed fields;
				// rebuild a manufacturer-data element so the matcher
				// still has something to chew on.
				for _, m := range result.ManufacturerData() {
					if len(m.Data) > 26 {
						continue
					}
					raw = append(raw, byte(3+len(m.Data)), 0xFF,
						byte(m.CompanyID), byte(m.CompanyID>>8))
					raw = append(raw, m.Data...)
				}
			}
			cb(raw, int8(clampRSSI(result.RSSI)), addr)
		})
	}()
	return nil
}

// StopScan halts delivery and stops the adapter scan.
func (d *BLEDriver) StopScan() error {
	d.mu.Lock()
	d.scanning = false
	d.mu.Unlock()
	return d.adapter.StopScan()
}

func clampRSSI(rssi int16) int16 {
	if rssi < -127 {
		return -127
	}
	if rssi > 20 {
		return 20
	}
	return rssi
}

func parseMAC(s string) ([6]byte, bool) {
	var addr [6]byte
	if len(s) != 17 {
		return addr, false
	}
	for i := 0; i < 6; i++ {
		hi, ok1 := hexVal(s[i*3])
		lo, ok2 := hexVal(s[i*3+1])
		if !ok1 || !ok2 {
			return addr, false
		}
		if i < 5 && s[i*3+2] != ':' {
			return addr, false
		}
		addr[i] = hi<<4 | lo
	}
	return addr, true
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
