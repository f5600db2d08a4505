// Package host runs the cooperative core loop. Exactly one goroutine
// touches the registry, the scheduler, and the radio mode; scan
// callbacks and control-surface calls are funneled into it over
// channels, which is what serializes them.
package host

import (
	"context"
	"time"

	"github.com/haxorthematrix/BLEPTD/internal/adv"
	"github.com/haxorthematrix/BLEPTD/internal/config"
	"github.com/haxorthematrix/BLEPTD/internal/detect"
	"github.com/haxorthematrix/BLEPTD/internal/radio"
	"github.com/haxorthematrix/BLEPTD/internal/sig"
	"github.com/haxorthematrix/BLEPTD/internal/txsched"
)

type frame struct {
	raw  []byte
	rssi int8
	addr [6]byte
}

// Host ties the listener path (radio → parser → matcher → registry)
// to the transmit path (scheduler → radio) and arbitrates the radio
// between them: scanning pauses while any session or the confusion
// broadcaster is active.
type Host struct {
	db       *sig.DB
	registry *detect.Registry
	sched    *txsched.Scheduler
	driver   radio.Driver
	scanner  radio.Scanner

	start  time.Time
	calls  chan func()
	frames chan frame

	mode     radio.Mode
	scanWant bool
	screen   int
	message  string

	onDetect func(rec detect.Record)
	onTxStop func(name string, sent uint32)
}

// New wires a host over the given parts. Scanning starts enabled.
func New(db *sig.DB, registry *detect.Registry, sched *txsched.Scheduler,
	driver radio.Driver, scanner radio.Scanner) *Host {
	h := &Host{
		db:       db,
		registry: registry,
		sched:    sched,
		driver:   driver,
		scanner:  scanner,
		start:    time.Now(),
		calls:    make(chan func(), 16),
		frames:   make(chan frame, 64),
		scanWant: true,
	}
	sched.SetExhaustedFunc(func(name string, sent uint32) {
		if h.onTxStop != nil {
			h.onTxStop(name, sent)
		}
	})
	return h
}

// SetDetectFunc installs the new-detection telemetry hook. Call before Run.
func (h *Host) SetDetectFunc(fn func(rec detect.Record)) { h.onDetect = fn }

// SetTxStopFunc installs the budget-exhaustion telemetry hook. Call before Run.
func (h *Host) SetTxStopFunc(fn func(name string, sent uint32)) { h.onTxStop = fn }

// Now returns milliseconds since boot. Wraps after ~49 days; all
// interval comparisons use unsigned subtraction so the wrap is benign.
func (h *Host) Now() uint32 {
	return uint32(time.Since(h.start).Milliseconds())
}

// HandleAdvertisement is the scan-side entry point. Safe to call from
// any goroutine; the frame is copied and handed to the host loop. Full
// queue drops the frame, malformed wire input is expected and non-fatal.
func (h *Host) HandleAdvertisement(raw []byte, rssi int8, addr [6]byte) {
	cp := make([]byte, len(raw))
	copy(cp, raw)
	select {
	case h.frames <- frame{raw: cp, rssi: rssi, addr: addr}:
	default:
	}
}

// Run drives the host loop until the context is cancelled.
func (h *Host) Run(ctx context.Context) {
	if h.scanWant {
		if err := h.scanner.StartScan(h.HandleAdvertisement); err == nil {
			h.mode = radio.ModeScanning
		}
	}

	ticker := time.NewTicker(config.TickIntervalMs * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.sched.StopAll()
			if h.mode == radio.ModeScanning {
				_ = h.scanner.StopScan()
			}
			return
		case fn := <-h.calls:
			fn()
		case fr := <-h.frames:
			h.handleFrame(fr)
		case <-ticker.C:
			h.tick()
		}
	}
}

func (h *Host) tick() {
	txActive := h.sched.ActiveCount() > 0 || h.sched.ConfusionActive()

	// Radio is single-owner: no scanning while anything transmits.
	if txActive && h.mode == radio.ModeScanning {
		_ = h.scanner.StopScan()
		h.mode = radio.ModeIdle
	}

	if txActive {
		h.mode = radio.ModeAdvertising
		_ = h.sched.Process(h.Now())
		// Process may have retired the last session this tick.
		txActive = h.sched.ActiveCount() > 0 || h.sched.ConfusionActive()
	}

	if !txActive {
		if h.scanWant && h.mode != radio.ModeScanning {
			if err := h.scanner.StartScan(h.HandleAdvertisement); err == nil {
				h.mode = radio.ModeScanning
			}
		} else if !h.scanWant && h.mode == radio.ModeScanning {
			_ = h.scanner.StopScan()
			h.mode = radio.ModeIdle
		} else if h.mode == radio.ModeAdvertising {
			h.mode = radio.ModeIdle
		}
	}
}

func (h *Host) handleFrame(fr frame) {
	if !h.scanWant {
		return
	}
	p := adv.Parse(fr.raw, fr.rssi, fr.addr)
	m := sig.Match(h.db, &p)
	if m == nil {
		return
	}
	now := h.Now()
	out := h.registry.Observe(&p, m, now)
	if out == detect.New && h.onDetect != nil {
		h.onDetect(detect.Record{
			Name:      m.Name,
			Sig:       m,
			Addr:      p.Addr,
			RSSI:      p.RSSI,
			Category:  m.Category,
			CompanyID: m.CompanyID,
			Threat:    m.Threat,
			Hits:      1,
			FirstSeen: now,
			LastSeen:  now,
		})
	}
}

// do runs fn on the host loop and waits for it.
func (h *Host) do(fn func()) {
	done := make(chan struct{})
	h.calls <- func() {
		fn()
		close(done)
	}
	<-done
}

// DB returns the read-only signature view.
func (h *Host) DB() *sig.DB { return h.db }

// SetScanning flips the listener's user intent; the radio reacts on
// the next tick.
func (h *Host) SetScanning(on bool) {
	h.do(func() { h.scanWant = on })
}

// Scanning reports the listener's user intent.
func (h *Host) Scanning() bool {
	var v bool
	h.do(func() { v = h.scanWant })
	return v
}

// Mode returns the current radio mode.
func (h *Host) Mode() radio.Mode {
	var m radio.Mode
	h.do(func() { m = h.mode })
	return m
}

// Detections snapshots registry records matching the mask.
func (h *Host) Detections(filter sig.Category) []detect.Record {
	var out []detect.Record
	h.do(func() { out = h.registry.Snapshot(filter) })
	return out
}

// DetectionCount returns the registry record count.
func (h *Host) DetectionCount() int {
	var n int
	h.do(func() { n = h.registry.Count() })
	return n
}

// ClearDetections empties the registry.
func (h *Host) ClearDetections() {
	h.do(func() { h.registry.Clear() })
}

// SetFilter replaces the detection category mask.
func (h *Host) SetFilter(f sig.Category) {
	h.do(func() { h.registry.SetFilter(f) })
}

// Filter returns the detection category mask.
func (h *Host) Filter() sig.Category {
	var f sig.Category
	h.do(func() { f = h.registry.Filter() })
	return f
}

// SetRSSIThreshold replaces the minimum accepted signal.
func (h *Host) SetRSSIThreshold(min int8) {
	h.do(func() { h.registry.SetRSSIThreshold(min) })
}

// RSSIThreshold returns the minimum accepted signal.
func (h *Host) RSSIThreshold() int8 {
	var v int8
	h.do(func() { v = h.registry.RSSIThreshold() })
	return v
}

// StartTx starts a broadcast session.
func (h *Host) StartTx(name string, intervalMs uint32, count int32, randomPerFrame bool) (int, error) {
	var (
		slot int
		err  error
	)
	h.do(func() { slot, err = h.sched.Start(name, intervalMs, count, randomPerFrame) })
	return slot, err
}

// StopTx stops the named session and returns its final state.
func (h *Host) StopTx(name string) (txsched.Session, error) {
	var (
		sess txsched.Session
		err  error
	)
	h.do(func() { sess, err = h.sched.Stop(name) })
	return sess, err
}

// StopAllTx stops every session and the confusion broadcaster.
func (h *Host) StopAllTx() {
	h.do(func() { h.sched.StopAll() })
}

// TxSnapshot returns copies of all session slots.
func (h *Host) TxSnapshot() []txsched.Session {
	var out []txsched.Session
	h.do(func() { out = h.sched.Snapshot() })
	return out
}

// ActiveTxCount returns the number of active sessions.
func (h *Host) ActiveTxCount() int {
	var n int
	h.do(func() { n = h.sched.ActiveCount() })
	return n
}

// TotalSent returns the lifetime frame counter.
func (h *Host) TotalSent() uint32 {
	var n uint32
	h.do(func() { n = h.sched.TotalSent() })
	return n
}

// ConfuseAdd adds or updates a confusion entry.
func (h *Host) ConfuseAdd(name string, instances uint8) (int, error) {
	var (
		slot int
		err  error
	)
	h.do(func() { slot, err = h.sched.ConfuseAdd(name, instances) })
	return slot, err
}

// ConfuseRemove disables a confusion entry.
func (h *Host) ConfuseRemove(name string) error {
	var err error
	h.do(func() { err = h.sched.ConfuseRemove(name) })
	return err
}

// ConfuseClear empties the confusion list and stops the broadcaster.
func (h *Host) ConfuseClear() {
	h.do(func() { h.sched.ConfuseClear() })
}

// ConfuseStart arms the confusion broadcaster.
func (h *Host) ConfuseStart() (int, error) {
	var (
		n   int
		err error
	)
	h.do(func() { n, err = h.sched.ConfuseStart() })
	return n, err
}

// ConfuseStop disarms the confusion broadcaster.
func (h *Host) ConfuseStop() {
	h.do(func() { h.sched.ConfuseStop() })
}

// ConfusionActive reports whether the broadcaster is armed.
func (h *Host) ConfusionActive() bool {
	var v bool
	h.do(func() { v = h.sched.ConfusionActive() })
	return v
}

// ConfusionEntries snapshots the enabled confusion entries.
func (h *Host) ConfusionEntries() []txsched.ConfusionEntry {
	var out []txsched.ConfusionEntry
	h.do(func() { out = h.sched.ConfusionEntries() })
	return out
}

// SetScreen selects the UI screen (0=Scan 1=Filter 2=TX 3=Settings).
func (h *Host) SetScreen(n int) {
	h.do(func() {
		if n >= 0 && n <= 3 {
			h.screen = n
		}
	})
}

// Screen returns the selected UI screen.
func (h *Host) Screen() int {
	var n int
	h.do(func() { n = h.screen })
	return n
}

// SetMessage stores a display overlay message.
func (h *Host) SetMessage(msg string) {
	h.do(func() { h.message = msg })
}

// Message returns the display overlay message.
func (h *Host) Message() string {
	var s string
	h.do(func() { s = h.message })
	return s
}
