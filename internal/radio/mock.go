package radio

import (
	"math/rand"
	"sync"
)

// TxRecord is one frame handed to the mock driver.
type TxRecord struct {
	Addr [6]byte
	Data []byte
}

// MockDriver implements Driver and Scanner in memory for demo mode and
// tests. It records every transmitted frame and lets tests inject
// received advertisements.
type MockDriver struct {
	mu          sync.Mutex
	rng         *rand.Rand
	addr        [6]byte
	advData     []byte
	advertising bool
	txLog       []TxRecord
	scanCb      ScanCallback
	scanning    bool
}

// NewMockDriver creates a mock driver seeded deterministically.
func NewMockDriver(seed int64) *MockDriver {
	return &MockDriver{rng: rand.New(rand.NewSource(seed))}
}

// SetRandomAddress records the broadcast address for subsequent frames.
func (d *MockDriver) SetRandomAddress(mac [6]byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.addr = mac
	return nil
}

// ConfigureAdvData records the payload for the next burst.
func (d *MockDriver) ConfigureAdvData(data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.advData = append(d.advData[:0], data...)
	return nil
}

// StartAdvertising logs one (address, payload) burst.
func (d *MockDriver) StartAdvertising(p Params) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.advertising = true
	frame := make([]byte, len(d.advData))
	copy(frame, d.advData)
	d.txLog = append(d.txLog, TxRecord{Addr: d.addr, Data: frame})
	return nil
}

// StopAdvertising ends the burst.
func (d *MockDriver) StopAdvertising() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.advertising = false
	return nil
}

// Random16 returns 16 random bits.
func (d *MockDriver) Random16() uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return uint16(d.rng.Intn(1 << 16))
}

// RandomBytes fills p with random bytes.
func (d *MockDriver) RandomBytes(p []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rng.Read(p)
}

// StartScan registers the callback for injected advertisements.
func (d *MockDriver) StartScan(cb ScanCallback) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scanCb = cb
	d.scanning = true
	return nil
}

// StopScan detaches the callback.
func (d *MockDriver) StopScan() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scanning = false
	return nil
}

// InjectAdvertisement delivers a raw frame to the scan callback, as if
// it had been received over the air.
func (d *MockDriver) InjectAdvertisement(raw []byte, rssi int8, addr [6]byte) {
	d.mu.Lock()
	cb, active := d.scanCb, d.scanning
	d.mu.Unlock()
	if active && cb != nil {
		cb(raw, rssi, addr)
	}
}

// TxLog returns copies of all recorded frames.
func (d *MockDriver) TxLog() []TxRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]TxRecord, len(d.txLog))
	for i, rec := range d.txLog {
		data := make([]byte, len(rec.Data))
		copy(data, rec.Data)
		out[i] = TxRecord{Addr: rec.Addr, Data: data}
	}
	return out
}

// ResetTxLog discards recorded frames.
func (d *MockDriver) ResetTxLog() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.txLog = nil
}
