// Package txsched owns the fixed pool of broadcast sessions and the
// confusion rotation queue. It is cooperative and single-threaded: the
// host loop drives it through Process and is the only caller of any
// method here.
package txsched

import (
	"errors"
	"strings"

	"github.com/haxorthematrix/BLEPTD/internal/adv"
	"github.com/haxorthematrix/BLEPTD/internal/config"
	"github.com/haxorthematrix/BLEPTD/internal/radio"
	"github.com/haxorthematrix/BLEPTD/internal/sig"
)

var (
	// ErrUnknownDevice: no transmittable signature matches the name.
	ErrUnknownDevice = errors.New("txsched: unknown device")
	// ErrDuplicate: a session already targets this signature.
	ErrDuplicate = errors.New("txsched: session already active")
	// ErrSessionsFull: every session slot is active.
	ErrSessionsFull = errors.New("txsched: no free session slots")
	// ErrConfusionFull: the confusion list has no free entry.
	ErrConfusionFull = errors.New("txsched: confusion list full")
	// ErrNoEntries: confuseStart with zero enabled entries.
	ErrNoEntries = errors.New("txsched: no confusion entries")
	// ErrNotFound: stop/remove for a name with no active binding.
	ErrNotFound = errors.New("txsched: not found")
)

// Unbounded is the frame-budget sentinel: any negative count means the
// session emits until stopped. A zero budget is terminal on the first
// tick without emitting.
const Unbounded int32 = -1

// Session is one slot in the transmission pool.
type Session struct {
	Name               string
	Sig                *sig.Signature
	IntervalMs         uint32
	Remaining          int32 // <0 unbounded
	Sent               uint32
	LastTxTime         uint32
	Addr               [6]byte
	RandomAddrPerFrame bool
	Active             bool
}

// ConfusionEntry is one slot in the decoy rotation list.
type ConfusionEntry struct {
	Name      string
	Sig       *sig.Signature
	Instances uint8
	Enabled   bool
}

// Scheduler owns the session pool, the confusion queue, and the
// lifetime frame counter.
type Scheduler struct {
	db     *sig.DB
	driver radio.Driver

	sessions  [config.TxMaxConcurrent]Session
	confusion [config.ConfusionMaxDevices]ConfusionEntry

	confusionActive bool
	confusionIndex  int
	confusionServed uint8 // consecutive ticks served to the cursor entry
	lastConfuse     uint32

	totalSent uint32

	// onExhausted fires when a session retires itself by running out
	// of frame budget. Explicit stops do not fire it; their caller
	// already knows.
	onExhausted func(name string, sent uint32)
}

// New creates a scheduler over the given signature view and radio.
func New(db *sig.DB, driver radio.Driver) *Scheduler {
	return &Scheduler{db: db, driver: driver}
}

// SetExhaustedFunc installs the budget-exhaustion notification hook.
func (s *Scheduler) SetExhaustedFunc(fn func(name string, sent uint32)) {
	s.onExhausted = fn
}

// Start binds a free session slot to the named transmittable signature
// and returns its slot index. The first frame goes out on the next tick.
func (s *Scheduler) Start(name string, intervalMs uint32, count int32, randomPerFrame bool) (int, error) {
	signature := s.db.FindTransmittable(name)
	if signature == nil {
		return -1, ErrUnknownDevice
	}
	if s.findSessionExact(signature.Name) != nil {
		return -1, ErrDuplicate
	}
	slot := s.findFreeSlot()
	if slot < 0 {
		return -1, ErrSessionsFull
	}
	if intervalMs < config.TxMinIntervalMs {
		intervalMs = config.TxMinIntervalMs
	}

	sess := &s.sessions[slot]
	*sess = Session{
		Name:               signature.Name,
		Sig:                signature,
		IntervalMs:         intervalMs,
		Remaining:          count,
		RandomAddrPerFrame: randomPerFrame,
		Active:             true,
	}
	sess.Addr = s.generateAddr()
	return slot, nil
}

// Stop deactivates the session bound to the named signature. A second
// stop for the same name reports ErrNotFound.
func (s *Scheduler) Stop(name string) (Session, error) {
	sess := s.findSession(name)
	if sess == nil {
		return Session{}, ErrNotFound
	}
	sess.Active = false
	return *sess, nil
}

// StopAll deactivates every session and the confusion broadcaster.
func (s *Scheduler) StopAll() {
	for i := range s.sessions {
		s.sessions[i].Active = false
	}
	s.confusionActive = false
}

// ActiveCount returns the number of active sessions.
func (s *Scheduler) ActiveCount() int {
	n := 0
	for i := range s.sessions {
		if s.sessions[i].Active {
			n++
		}
	}
	return n
}

// Snapshot returns copies of all session slots in index order.
func (s *Scheduler) Snapshot() []Session {
	out := make([]Session, len(s.sessions))
	copy(out, s.sessions[:])
	return out
}

// TotalSent returns the lifetime frame counter.
func (s *Scheduler) TotalSent() uint32 { return s.totalSent }

// ConfuseAdd binds or updates a confusion entry for the named
// transmittable signature.
func (s *Scheduler) ConfuseAdd(name string, instances uint8) (int, error) {
	signature := s.db.FindTransmittable(name)
	if signature == nil {
		return -1, ErrUnknownDevice
	}
	if instances == 0 {
		instances = 1
	}
	for i := range s.confusion {
		e := &s.confusion[i]
		if e.Enabled && strings.EqualFold(e.Name, signature.Name) {
			e.Instances = instances
			return i, nil
		}
	}
	for i := range s.confusion {
		e := &s.confusion[i]
		if !e.Enabled {
			*e = ConfusionEntry{
				Name:      signature.Name,
				Sig:       signature,
				Instances: instances,
				Enabled:   true,
			}
			return i, nil
		}
	}
	return -1, ErrConfusionFull
}

// ConfuseRemove disables the entry for the named device. Exact name
// matches win over substring matches, like every other name lookup.
func (s *Scheduler) ConfuseRemove(name string) error {
	for i := range s.confusion {
		e := &s.confusion[i]
		if e.Enabled && strings.EqualFold(e.Name, name) {
			e.Enabled = false
			return nil
		}
	}
	lower := strings.ToLower(name)
	for i := range s.confusion {
		e := &s.confusion[i]
		if e.Enabled && strings.Contains(strings.ToLower(e.Name), lower) {
			e.Enabled = false
			return nil
		}
	}
	return ErrNotFound
}

// ConfuseClear disables every entry and stops the broadcaster.
func (s *Scheduler) ConfuseClear() {
	for i := range s.confusion {
		s.confusion[i].Enabled = false
	}
	s.confusionActive = false
}

// ConfuseStart arms the broadcaster and returns the enabled entry
// count. Fails with ErrNoEntries when the list is empty.
func (s *Scheduler) ConfuseStart() (int, error) {
	n := s.ConfusionCount()
	if n == 0 {
		return 0, ErrNoEntries
	}
	s.confusionActive = true
	s.confusionIndex = 0
	s.confusionServed = 0
	return n, nil
}

// ConfuseStop disarms the broadcaster; entries are retained.
func (s *Scheduler) ConfuseStop() {
	s.confusionActive = false
}

// ConfusionActive reports whether the broadcaster is armed.
func (s *Scheduler) ConfusionActive() bool { return s.confusionActive }

// ConfusionCount returns the number of enabled entries.
func (s *Scheduler) ConfusionCount() int {
	n := 0
	for i := range s.confusion {
		if s.confusion[i].Enabled {
			n++
		}
	}
	return n
}

// ConfusionEntries returns copies of the enabled entries in slot order.
func (s *Scheduler) ConfusionEntries() []ConfusionEntry {
	var out []ConfusionEntry
	for i := range s.confusion {
		if s.confusion[i].Enabled {
			out = append(out, s.confusion[i])
		}
	}
	return out
}

// Process is the scheduling tick. now is milliseconds since boot;
// comparisons are unsigned so a 32-bit wrap is benign. Radio failures
// skip the frame without advancing the session clock and are reported
// to the caller; the session retries on the next tick.
func (s *Scheduler) Process(now uint32) error {
	var firstErr error

	for i := range s.sessions {
		sess := &s.sessions[i]
		if !sess.Active {
			continue
		}
		if sess.Remaining == 0 {
			// Zero-budget session: terminal without emitting.
			sess.Active = false
			if s.onExhausted != nil {
				s.onExhausted(sess.Name, sess.Sent)
			}
			continue
		}
		if sess.LastTxTime != 0 && now-sess.LastTxTime < sess.IntervalMs {
			continue
		}
		if err := s.transmit(sess, now); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if s.confusionActive && (s.lastConfuse == 0 || now-s.lastConfuse >= config.ConfuseIntervalMs) {
		if err := s.transmitConfusion(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.lastConfuse = now
	}

	return firstErr
}

func (s *Scheduler) transmit(sess *Session, now uint32) error {
	if sess.RandomAddrPerFrame {
		sess.Addr = s.generateAddr()
	}
	if err := s.emit(sess.Sig, sess.Addr); err != nil {
		return err
	}

	sess.Sent++
	sess.LastTxTime = now
	s.totalSent++

	if sess.Remaining > 0 {
		sess.Remaining--
		if sess.Remaining == 0 {
			sess.Active = false
			if s.onExhausted != nil {
				s.onExhausted(sess.Name, sess.Sent)
			}
		}
	}
	return nil
}

func (s *Scheduler) transmitConfusion() error {
	for c := 0; c < len(s.confusion); c++ {
		idx := (s.confusionIndex + c) % len(s.confusion)
		entry := &s.confusion[idx]
		if !entry.Enabled {
			continue
		}
		// A count carried over from a removed entry must not shorten
		// this entry's quota.
		if idx != s.confusionIndex {
			s.confusionServed = 0
		}
		s.confusionIndex = idx

		// Decoys always use a fresh address.
		err := s.emit(entry.Sig, s.generateAddr())
		if err == nil {
			s.totalSent++
		}

		// The instance multiplier biases the cursor: an entry with
		// instances=k serves k consecutive confusion ticks.
		s.confusionServed++
		if s.confusionServed >= entry.Instances {
			s.confusionIndex = (idx + 1) % len(s.confusion)
			s.confusionServed = 0
		}
		return err
	}
	return nil
}

// emit builds and broadcasts one frame for the signature. Oversized
// builds and radio failures surface as errors; the caller decides
// whether to advance its clock.
func (s *Scheduler) emit(signature *sig.Signature, addr [6]byte) error {
	payload, err := adv.Build(adv.BuildSpec{
		CompanyID:   signature.CompanyID,
		Pattern:     signature.Pattern,
		PatternOff:  signature.PatternOff,
		ServiceUUID: signature.ServiceUUID,
	}, s.driver)
	if err != nil {
		return err
	}
	if err := s.driver.SetRandomAddress(addr); err != nil {
		return err
	}
	if err := s.driver.ConfigureAdvData(payload); err != nil {
		return err
	}
	if err := s.driver.StartAdvertising(radio.DefaultParams()); err != nil {
		return err
	}
	return s.driver.StopAdvertising()
}

// generateAddr returns six random bytes forced locally-administered
// and unicast.
func (s *Scheduler) generateAddr() [6]byte {
	var addr [6]byte
	s.driver.RandomBytes(addr[:])
	addr[0] |= 0x02
	addr[0] &^= 0x01
	return addr
}

func (s *Scheduler) findFreeSlot() int {
	for i := range s.sessions {
		if !s.sessions[i].Active {
			return i
		}
	}
	return -1
}

func (s *Scheduler) findSessionExact(name string) *Session {
	for i := range s.sessions {
		sess := &s.sessions[i]
		if sess.Active && strings.EqualFold(sess.Name, name) {
			return sess
		}
	}
	return nil
}

func (s *Scheduler) findSession(name string) *Session {
	if sess := s.findSessionExact(name); sess != nil {
		return sess
	}
	lower := strings.ToLower(name)
	for i := range s.sessions {
		sess := &s.sessions[i]
		if sess.Active && strings.Contains(strings.ToLower(sess.Name), lower) {
			return sess
		}
	}
	return nil
}
