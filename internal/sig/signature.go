package sig

import (
	"errors"
	"fmt"
)

// Category classifies a device family. Values are a bitmask so the
// detection filter can combine them.
type Category uint8

const (
	CategoryUnknown  Category = 0x00
	CategoryTracker  Category = 0x01
	CategoryGlasses  Category = 0x02
	CategoryMedical  Category = 0x04
	CategoryWearable Category = 0x08
	CategoryAudio    Category = 0x10
	CategoryAll      Category = 0xFF
)

// DefaultFilter excludes medical devices by default.
const DefaultFilter = CategoryTracker | CategoryGlasses | CategoryWearable | CategoryAudio

// Tag returns the uppercase telemetry tag for the category.
func (c Category) Tag() string {
	switch c {
	case CategoryTracker:
		return "TRACKER"
	case CategoryGlasses:
		return "GLASSES"
	case CategoryMedical:
		return "MEDICAL"
	case CategoryWearable:
		return "WEARABLE"
	case CategoryAudio:
		return "AUDIO"
	default:
		return "UNKNOWN"
	}
}

func (c Category) String() string { return c.Tag() }

// Threat severity ratings.
const (
	ThreatNone     uint8 = 0
	ThreatLow      uint8 = 1
	ThreatMedium   uint8 = 2
	ThreatHigh     uint8 = 3
	ThreatSevere   uint8 = 4
	ThreatCritical uint8 = 5
)

// Flags select which fields of a Signature participate in matching and
// how the device may be handled.
type Flags uint16

const (
	FlagMatchCompany  Flags = 0x0001 // Match on company ID
	FlagMatchPattern  Flags = 0x0002 // Match on payload byte pattern
	FlagMatchService  Flags = 0x0004 // Match on 16-bit service UUID
	FlagMatchName     Flags = 0x0008 // Match on advertised local name
	FlagRequireAll    Flags = 0x0010 // All selected fields must match
	FlagTransmittable Flags = 0x0020 // May be impersonated by the scheduler
	FlagMedical       Flags = 0x0040 // Medical device, excluded from TX
)

// Has reports whether all bits of f are set.
func (fl Flags) Has(f Flags) bool { return fl&f == f }

// AnyOffset marks a pattern that may occur at any position in the payload.
const AnyOffset = -1

// MaxPatternLen is the longest payload pattern a signature may carry.
const MaxPatternLen = 8

// MaxNameLen bounds signature display names.
const MaxNameLen = 31

// Signature is an immutable descriptor of a known device family.
type Signature struct {
	Name        string
	Category    Category
	CompanyID   uint16 // 0 = unused
	Pattern     []byte // nil or 1..8 bytes
	PatternOff  int8   // byte index, or AnyOffset
	ServiceUUID uint16 // 0 = unused
	Threat      uint8  // 1..5
	Flags       Flags
}

var (
	errNameLen       = errors.New("sig: name exceeds 31 bytes")
	errPatternLen    = errors.New("sig: match-pattern set but pattern length not in 1..8")
	errAnyOffset     = errors.New("sig: any-position offset requires match-pattern")
	errMedicalTx     = errors.New("sig: transmittable may not be set on medical devices")
	errThreatRange   = errors.New("sig: threat rating out of range 1..5")
	errUnprintable   = errors.New("sig: name contains non-printable bytes")
	errPatternExcess = errors.New("sig: pattern exceeds 8 bytes")
)

// Validate checks the structural invariants of a signature.
func (s *Signature) Validate() error {
	if len(s.Name) > MaxNameLen {
		return errNameLen
	}
	for i := 0; i < len(s.Name); i++ {
		if s.Name[i] < 0x20 || s.Name[i] > 0x7E {
			return errUnprintable
		}
	}
	if len(s.Pattern) > MaxPatternLen {
		return errPatternExcess
	}
	if s.Flags.Has(FlagMatchPattern) {
		if len(s.Pattern) < 1 || len(s.Pattern) > MaxPatternLen {
			return errPatternLen
		}
	} else if s.PatternOff == AnyOffset {
		return errAnyOffset
	}
	if s.Flags.Has(FlagTransmittable) && s.Flags.Has(FlagMedical) {
		return errMedicalTx
	}
	if s.Threat < ThreatLow || s.Threat > ThreatCritical {
		return fmt.Errorf("%w: %d", errThreatRange, s.Threat)
	}
	return nil
}

// Transmittable reports whether the scheduler may impersonate this device.
func (s *Signature) Transmittable() bool {
	return s.Flags.Has(FlagTransmittable)
}
