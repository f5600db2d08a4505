package sig

import (
	"bytes"

	"github.com/haxorthematrix/BLEPTD/internal/adv"
)

// Match returns the first signature in the table whose selected
// predicates are satisfied by the parsed advertisement, or nil.
//
// With RequireAll set, every flagged predicate must hold. Otherwise any
// one flagged predicate suffices, except that a company-flagged
// signature is skipped outright when the advertisement carries no
// company ID; without that rule such signatures would degenerate-match
// devices that advertise nothing manufacturer-specific.
func Match(db *DB, p *adv.Packet) *Signature {
	for i := 0; i < db.Len(); i++ {
		s := db.At(i)
		if matchOne(s, p) {
			return s
		}
	}
	return nil
}

func matchOne(s *Signature, p *adv.Packet) bool {
	wantCompany := s.Flags.Has(FlagMatchCompany)
	wantPattern := s.Flags.Has(FlagMatchPattern)
	wantService := s.Flags.Has(FlagMatchService)
	if !wantCompany && !wantPattern && !wantService {
		return false
	}

	companyOK := p.HasCompanyID && p.CompanyID == s.CompanyID
	patternOK := wantPattern && patternMatches(s, p.Raw)
	serviceOK := wantService && p.HasService(s.ServiceUUID)

	if s.Flags.Has(FlagRequireAll) {
		if wantCompany && !companyOK {
			return false
		}
		if wantPattern && !patternOK {
			return false
		}
		if wantService && !serviceOK {
			return false
		}
		return true
	}

	if wantCompany && !p.HasCompanyID {
		return false
	}
	return (wantCompany && companyOK) || patternOK || serviceOK
}

func patternMatches(s *Signature, payload []byte) bool {
	n := len(s.Pattern)
	if n == 0 {
		return false
	}
	if s.PatternOff >= 0 {
		off := int(s.PatternOff)
		return off+n <= len(payload) && bytes.Equal(payload[off:off+n], s.Pattern)
	}
	return bytes.Index(payload, s.Pattern) >= 0
}
