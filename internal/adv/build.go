package adv

import "errors"

// ByteSource supplies random filler bytes for synthesized frames.
type ByteSource interface {
	RandomBytes(p []byte)
}

// ErrFrameTooLarge is returned when a synthesized frame would exceed
// the 31-byte advertising payload limit. Truncation is never attempted.
var ErrFrameTooLarge = errors.New("adv: frame exceeds 31 bytes")

// mfgFillerLen is how many payload bytes beyond the company ID a
// synthesized manufacturer element carries when the pattern does not
// supply the whole element.
const mfgFillerLen = 4

// BuildSpec is the subset of a device signature the builder needs.
type BuildSpec struct {
	CompanyID   uint16
	Pattern     []byte
	PatternOff  int8
	ServiceUUID uint16
}

// Build synthesizes an advertising payload impersonating the given
// device family: a Flags element, an optional manufacturer-specific
// element, and an optional 16-bit service UUID element.
func Build(spec BuildSpec, rnd ByteSource) ([]byte, error) {
	buf := make([]byte, 0, MaxFrameLen)

	// Flags: LE General Discoverable, BR/EDR not supported.
	buf = append(buf, 0x02, TypeFlags, 0x06)

	if spec.CompanyID != 0 {
		if len(spec.Pattern) > 0 && spec.PatternOff == 0 && patternCarriesCompany(spec) {
			// Pattern already starts with the company ID bytes; the
			// element payload is the pattern verbatim.
			buf = append(buf, byte(len(spec.Pattern)+1), TypeMfgData)
			buf = append(buf, spec.Pattern...)
		} else {
			buf = append(buf, byte(2+mfgFillerLen+1), TypeMfgData,
				byte(spec.CompanyID), byte(spec.CompanyID>>8))
			filler := make([]byte, mfgFillerLen)
			rnd.RandomBytes(filler)
			// copy truncates a pattern longer than the filler.
			copy(filler, spec.Pattern)
			buf = append(buf, filler...)
		}
	}

	if spec.ServiceUUID != 0 {
		buf = append(buf, 0x03, TypeAllUUID16,
			byte(spec.ServiceUUID), byte(spec.ServiceUUID>>8))
	}

	if len(buf) > MaxFrameLen {
		return nil, ErrFrameTooLarge
	}
	return buf, nil
}

func patternCarriesCompany(spec BuildSpec) bool {
	return len(spec.Pattern) >= 2 &&
		uint16(spec.Pattern[0])|uint16(spec.Pattern[1])<<8 == spec.CompanyID
}
