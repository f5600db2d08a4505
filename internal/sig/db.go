package sig

import "strings"

// DB is a read-only view over an ordered signature table. The matcher
// and scheduler are parametric over the view so user-supplied tables
// can be swapped in without touching either.
type DB struct {
	entries []Signature
}

// NewDB wraps an ordered signature slice. The slice is not copied; the
// caller must not mutate it afterwards.
func NewDB(entries []Signature) *DB {
	return &DB{entries: entries}
}

// Len returns the number of signatures in the table.
func (db *DB) Len() int { return len(db.entries) }

// At returns the signature at declaration index i.
func (db *DB) At(i int) *Signature { return &db.entries[i] }

// Transmittables returns the signatures the scheduler may impersonate,
// in declaration order.
func (db *DB) Transmittables() []*Signature {
	var out []*Signature
	for i := range db.entries {
		if db.entries[i].Transmittable() {
			out = append(out, &db.entries[i])
		}
	}
	return out
}

// FindTransmittable locates a transmittable signature by name:
// case-insensitive exact match first, then case-insensitive substring.
// Returns nil if nothing matches.
func (db *DB) FindTransmittable(name string) *Signature {
	for i := range db.entries {
		s := &db.entries[i]
		if s.Transmittable() && strings.EqualFold(s.Name, name) {
			return s
		}
	}
	lower := strings.ToLower(name)
	for i := range db.entries {
		s := &db.entries[i]
		if s.Transmittable() && strings.Contains(strings.ToLower(s.Name), lower) {
			return s
		}
	}
	return nil
}

// Validate checks every entry in the table.
func (db *DB) Validate() error {
	for i := range db.entries {
		if err := db.entries[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
