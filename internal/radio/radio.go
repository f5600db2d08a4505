// Package radio defines the thin contract between the core and the
// underlying BLE hardware, plus the drivers that implement it.
package radio

// Mode is the radio's single-owner state. Scanning and advertising are
// mutually exclusive; the host enforces the transition rules.
type Mode int

const (
	ModeIdle Mode = iota
	ModeScanning
	ModeAdvertising
)

func (m Mode) String() string {
	switch m {
	case ModeScanning:
		return "SCANNING"
	case ModeAdvertising:
		return "ADVERTISING"
	default:
		return "IDLE"
	}
}

// Params configures one advertising burst.
type Params struct {
	IntervalMinMs uint16
	IntervalMaxMs uint16
	Connectable   bool
}

// DefaultParams is the short non-connectable burst the scheduler uses:
// a 20-40 ms window on all three advertising channels.
func DefaultParams() Params {
	return Params{IntervalMinMs: 20, IntervalMaxMs: 40}
}

// Driver is the transmit side of the radio. Calls are expected to be
// blocking and quick (a few milliseconds).
type Driver interface {
	SetRandomAddress(mac [6]byte) error
	ConfigureAdvData(data []byte) error
	StartAdvertising(p Params) error
	StopAdvertising() error

	// Random16 and RandomBytes produce unbiased output; a hardware RNG
	// is acceptable, cryptographic strength is not required.
	Random16() uint16
	RandomBytes(p []byte)
}

// ScanCallback receives one raw advertisement with its signal
// indicator. The raw slice is only valid for the duration of the call.
type ScanCallback func(raw []byte, rssi int8, addr [6]byte)

// Scanner is the receive side of the radio.
type Scanner interface {
	StartScan(cb ScanCallback) error
	StopScan() error
}
