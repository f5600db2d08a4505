// Package detect keeps the bounded set of recently seen device
// instances. The registry is owned by the host loop; all access is
// serialized there, so it carries no locking of its own. External
// readers get copies via Snapshot.
package detect

import (
	"github.com/haxorthematrix/BLEPTD/internal/adv"
	"github.com/haxorthematrix/BLEPTD/internal/sig"
)

// Outcome reports what an observation did to the registry.
type Outcome int

const (
	// New: a record was appended for a previously unseen address.
	New Outcome = iota
	// Refreshed: an existing record was updated in place.
	Refreshed
	// Dropped: the registry is full; the observation was lost.
	Dropped
	// Filtered: the category mask or RSSI threshold rejected it.
	Filtered
)

func (o Outcome) String() string {
	switch o {
	case New:
		return "new"
	case Refreshed:
		return "refreshed"
	case Dropped:
		return "dropped"
	default:
		return "filtered"
	}
}

// Record is one detected device instance, keyed by its full 6-byte
// broadcast address.
type Record struct {
	Name      string
	Sig       *sig.Signature
	Addr      [6]byte
	RSSI      int8
	Category  sig.Category
	CompanyID uint16
	Threat    uint8
	Hits      uint32
	FirstSeen uint32 // ms since boot
	LastSeen  uint32
}

// Registry is a bounded insertion-ordered collection of Records.
type Registry struct {
	records  []Record
	index    map[[6]byte]int
	capacity int
	filter   sig.Category
	minRSSI  int8
}

// NewRegistry creates an empty registry holding at most capacity
// records, with the default category filter and RSSI threshold.
func NewRegistry(capacity int, filter sig.Category, minRSSI int8) *Registry {
	return &Registry{
		records:  make([]Record, 0, capacity),
		index:    make(map[[6]byte]int, capacity),
		capacity: capacity,
		filter:   filter,
		minRSSI:  minRSSI,
	}
}

// Observe folds one matched advertisement into the registry.
func (r *Registry) Observe(p *adv.Packet, s *sig.Signature, now uint32) Outcome {
	if s.Category&r.filter == 0 || p.RSSI < r.minRSSI {
		return Filtered
	}

	if i, ok := r.index[p.Addr]; ok {
		rec := &r.records[i]
		rec.RSSI = p.RSSI
		rec.LastSeen = now
		rec.Hits++
		return Refreshed
	}

	if len(r.records) >= r.capacity {
		// Overflow is a documented loss; no eviction.
		return Dropped
	}

	r.records = append(r.records, Record{
		Name:      s.Name,
		Sig:       s,
		Addr:      p.Addr,
		RSSI:      p.RSSI,
		Category:  s.Category,
		CompanyID: s.CompanyID,
		Threat:    s.Threat,
		Hits:      1,
		FirstSeen: now,
		LastSeen:  now,
	})
	r.index[p.Addr] = len(r.records) - 1
	return New
}

// Clear resets the registry to empty.
func (r *Registry) Clear() {
	r.records = r.records[:0]
	r.index = make(map[[6]byte]int, r.capacity)
}

// Snapshot returns copies of the records whose category is in the
// given mask, in insertion order.
func (r *Registry) Snapshot(filter sig.Category) []Record {
	out := make([]Record, 0, len(r.records))
	for i := range r.records {
		if r.records[i].Category&filter != 0 {
			out = append(out, r.records[i])
		}
	}
	return out
}

// Count returns the number of records held.
func (r *Registry) Count() int { return len(r.records) }

// SetFilter replaces the category mask applied before insertion.
func (r *Registry) SetFilter(f sig.Category) { r.filter = f }

// Filter returns the current category mask.
func (r *Registry) Filter() sig.Category { return r.filter }

// SetRSSIThreshold replaces the minimum signal accepted.
func (r *Registry) SetRSSIThreshold(min int8) { r.minRSSI = min }

// RSSIThreshold returns the current minimum signal.
func (r *Registry) RSSIThreshold() int8 { return r.minRSSI }
