package console

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/haxorthematrix/BLEPTD/internal/adv"
	"github.com/haxorthematrix/BLEPTD/internal/detect"
)

// lineWriter serializes whole lines onto the serial channel so
// telemetry events never interleave with command responses mid-line.
type lineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lineWriter) WriteLine(s string) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	fmt.Fprintln(lw.w, s)
}

// detectEvent is the JSON-mode detection record, one object per line.
type detectEvent struct {
	Event     string `json:"event"`
	TS        uint32 `json:"ts"`
	Device    string `json:"device"`
	MAC       string `json:"mac"`
	RSSI      int8   `json:"rssi"`
	Category  string `json:"category"`
	CompanyID string `json:"company_id"`
}

type txEvent struct {
	Event       string  `json:"event"`
	TS          uint32  `json:"ts"`
	Device      string  `json:"device"`
	IntervalMs  uint32  `json:"interval_ms,omitempty"`
	Count       *int32  `json:"count,omitempty"`
	PacketsSent *uint32 `json:"packets_sent,omitempty"`
}

// Telemetry streams detection and TX lifecycle events in text or
// JSON-lines form.
type Telemetry struct {
	lw  *lineWriter
	now func() uint32

	mu       sync.Mutex
	jsonMode bool
}

// NewTelemetry writes events to w, timestamping with now.
func NewTelemetry(w io.Writer, now func() uint32) *Telemetry {
	return &Telemetry{lw: &lineWriter{w: w}, now: now}
}

// SetJSON toggles JSON-lines output.
func (t *Telemetry) SetJSON(on bool) {
	t.mu.Lock()
	t.jsonMode = on
	t.mu.Unlock()
}

// JSON reports the current output mode.
func (t *Telemetry) JSON() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.jsonMode
}

// Detect emits one detection event.
func (t *Telemetry) Detect(rec detect.Record) {
	mac := adv.FormatAddr(rec.Addr)
	if t.JSON() {
		t.emitJSON(detectEvent{
			Event:     "detect",
			TS:        t.now(),
			Device:    rec.Name,
			MAC:       mac,
			RSSI:      rec.RSSI,
			Category:  rec.Category.Tag(),
			CompanyID: fmt.Sprintf("0x%04X", rec.CompanyID),
		})
		return
	}
	t.lw.WriteLine(fmt.Sprintf("[%d] DETECT %s MAC=%s RSSI=%d CAT=%s",
		t.now(), rec.Name, mac, rec.RSSI, rec.Category.Tag()))
}

// TxStart emits a session-start event.
func (t *Telemetry) TxStart(device string, intervalMs uint32, count int32) {
	if t.JSON() {
		t.emitJSON(txEvent{
			Event:      "tx_start",
			TS:         t.now(),
			Device:     device,
			IntervalMs: intervalMs,
			Count:      &count,
		})
		return
	}
	t.lw.WriteLine(fmt.Sprintf("[%d] TX_START device=%s interval=%d count=%d",
		t.now(), device, intervalMs, count))
}

// TxStop emits a session-stop event, explicit or budget-exhausted.
func (t *Telemetry) TxStop(device string, sent uint32) {
	if t.JSON() {
		t.emitJSON(txEvent{
			Event:       "tx_stop",
			TS:          t.now(),
			Device:      device,
			PacketsSent: &sent,
		})
		return
	}
	t.lw.WriteLine(fmt.Sprintf("[%d] TX_STOP device=%s packets_sent=%d",
		t.now(), device, sent))
}

func (t *Telemetry) emitJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	t.lw.WriteLine(string(b))
}
