// Package adv decodes and builds BLE advertising payloads. A payload is
// a run of length-type-value elements: one length byte counting the type
// and data, one type byte, then length-1 data bytes.
package adv

import "fmt"

// Element types used by the monitor.
const (
	TypeFlags      = 0x01
	TypeSomeUUID16 = 0x02
	TypeAllUUID16  = 0x03
	TypeMfgData    = 0xFF
)

// MaxFrameLen is the legacy advertising payload limit.
const MaxFrameLen = 31

// Packet is an ephemeral view over one received advertisement. The Raw
// slice aliases the input buffer; callers that retain a Packet past the
// scan callback must copy it.
type Packet struct {
	Addr         [6]byte
	RSSI         int8
	Raw          []byte
	CompanyID    uint16
	HasCompanyID bool
	ServiceUUIDs []uint16
}

// Parse walks the element list of a raw advertising payload. Malformed
// elements (zero length or truncated) terminate the walk; fields
// extracted up to that point remain valid. Parse never fails.
func Parse(raw []byte, rssi int8, addr [6]byte) Packet {
	p := Packet{Addr: addr, RSSI: rssi, Raw: raw}

	i := 0
	for i < len(raw) {
		l := int(raw[i])
		if l == 0 || i+1+l > len(raw) {
			break
		}
		typ := raw[i+1]
		data := raw[i+2 : i+1+l]

		switch typ {
		case TypeMfgData:
			if !p.HasCompanyID && len(data) >= 2 {
				p.CompanyID = uint16(data[0]) | uint16(data[1])<<8
				p.HasCompanyID = true
			}
		case TypeSomeUUID16, TypeAllUUID16:
			for j := 0; j+2 <= len(data); j += 2 {
				p.ServiceUUIDs = append(p.ServiceUUIDs, uint16(data[j])|uint16(data[j+1])<<8)
			}
		}
		i += 1 + l
	}
	return p
}

// HasService reports whether the advertisement carries the given
// 16-bit service UUID.
func (p *Packet) HasService(uuid uint16) bool {
	for _, u := range p.ServiceUUIDs {
		if u == uuid {
			return true
		}
	}
	return false
}

// FormatAddr renders a broadcast address as colon-separated hex.
func FormatAddr(addr [6]byte) string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X",
		addr[0], addr[1], addr[2], addr[3], addr[4], addr[5])
}
