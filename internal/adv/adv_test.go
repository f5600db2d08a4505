package adv

import (
	"bytes"
	"testing"
)

func TestParse(t *testing.T) {
	addr := [6]byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66}

	tests := []struct {
		name        string
		payload     []byte
		wantCompany uint16
		wantHas     bool
		wantUUIDs   []uint16
	}{
		{
			name:        "airtag style",
			payload:     []byte{0x02, 0x01, 0x06, 0x07, 0xFF, 0x4C, 0x00, 0x07, 0x19, 0x00, 0x00, 0x00},
			wantCompany: 0x004C,
			wantHas:     true,
		},
		{
			name:        "mfg data first",
			payload:     []byte{0x05, 0xFF, 0xEC, 0xFE, 0xAA, 0xBB, 0x02, 0x01, 0x06},
			wantCompany: 0xFEEC,
			wantHas:     true,
		},
		{
			name:        "service uuids",
			payload:     []byte{0x02, 0x01, 0x06, 0x05, 0x03, 0xBC, 0xFE, 0x30, 0x18},
			wantUUIDs:   []uint16{0xFEBC, 0x1830},
		},
		{
			name:        "incomplete uuid list type",
			payload:     []byte{0x03, 0x02, 0x0F, 0x18},
			wantUUIDs:   []uint16{0x180F},
		},
		{
			name:    "empty payload",
			payload: nil,
		},
		{
			name:    "zero length terminates",
			payload: []byte{0x00, 0xFF, 0x4C, 0x00},
		},
		{
			name:        "truncated element keeps earlier fields",
			payload:     []byte{0x03, 0xFF, 0xD1, 0x00, 0x10, 0x03, 0xBC},
			wantCompany: 0x00D1,
			wantHas:     true,
		},
		{
			name:    "mfg data too short for company",
			payload: []byte{0x02, 0xFF, 0x4C},
		},
		{
			name:        "first mfg element wins",
			payload:     []byte{0x03, 0xFF, 0x4C, 0x00, 0x03, 0xFF, 0x75, 0x00},
			wantCompany: 0x004C,
			wantHas:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Parse(tt.payload, -60, addr)
			if p.HasCompanyID != tt.wantHas {
				t.Fatalf("HasCompanyID = %v, want %v", p.HasCompanyID, tt.wantHas)
			}
			if p.CompanyID != tt.wantCompany {
				t.Errorf("CompanyID = 0x%04X, want 0x%04X", p.CompanyID, tt.wantCompany)
			}
			if len(p.ServiceUUIDs) != len(tt.wantUUIDs) {
				t.Fatalf("ServiceUUIDs = %v, want %v", p.ServiceUUIDs, tt.wantUUIDs)
			}
			for i, u := range tt.wantUUIDs {
				if p.ServiceUUIDs[i] != u {
					t.Errorf("ServiceUUIDs[%d] = 0x%04X, want 0x%04X", i, p.ServiceUUIDs[i], u)
				}
			}
			if p.Addr != addr {
				t.Errorf("Addr = %v, want %v", p.Addr, addr)
			}
			if p.RSSI != -60 {
				t.Errorf("RSSI = %d, want -60", p.RSSI)
			}
		})
	}
}

func TestHasService(t *testing.T) {
	p := Parse([]byte{0x03, 0x03, 0xBC, 0xFE}, -50, [6]byte{})
	if !p.HasService(0xFEBC) {
		t.Error("HasService(0xFEBC) = false, want true")
	}
	if p.HasService(0x1830) {
		t.Error("HasService(0x1830) = true, want false")
	}
}

func TestFormatAddr(t *testing.T) {
	got := FormatAddr([6]byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66})
	if got != "11:22:33:44:55:66" {
		t.Errorf("FormatAddr = %q", got)
	}
}

// zeroSource fills random padding with zeros so tests are exact.
type zeroSource struct{}

func (zeroSource) RandomBytes(p []byte) {
	for i := range p {
		p[i] = 0
	}
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name string
		spec BuildSpec
		want []byte
	}{
		{
			name: "pattern carries company at offset zero",
			spec: BuildSpec{CompanyID: 0x004C, Pattern: []byte{0x4C, 0x00, 0x07, 0x19}, PatternOff: 0},
			want: []byte{0x02, 0x01, 0x06, 0x05, 0xFF, 0x4C, 0x00, 0x07, 0x19},
		},
		{
			name: "company with short pattern padded to four filler bytes",
			spec: BuildSpec{CompanyID: 0xFEEC, Pattern: []byte{0xEC, 0xFE}, PatternOff: -1},
			want: []byte{0x02, 0x01, 0x06, 0x07, 0xFF, 0xEC, 0xFE, 0xEC, 0xFE, 0x00, 0x00},
		},
		{
			name: "long pattern without company bytes truncates into the filler",
			spec: BuildSpec{CompanyID: 0x1234, Pattern: []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}, PatternOff: -1},
			want: []byte{0x02, 0x01, 0x06, 0x07, 0xFF, 0x34, 0x12, 0xAA, 0xBB, 0xCC, 0xDD},
		},
		{
			name: "company only",
			spec: BuildSpec{CompanyID: 0x01AB},
			want: []byte{0x02, 0x01, 0x06, 0x07, 0xFF, 0xAB, 0x01, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name: "company and service uuid",
			spec: BuildSpec{CompanyID: 0x00D1, ServiceUUID: 0xFEBC},
			want: []byte{0x02, 0x01, 0x06, 0x07, 0xFF, 0xD1, 0x00, 0x00, 0x00, 0x00, 0x00, 0x03, 0x03, 0xBC, 0xFE},
		},
		{
			name: "flags only",
			spec: BuildSpec{},
			want: []byte{0x02, 0x01, 0x06},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Build(tt.spec, zeroSource{})
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Build() = % X, want % X", got, tt.want)
			}
			if len(got) > MaxFrameLen {
				t.Errorf("frame length %d exceeds %d", len(got), MaxFrameLen)
			}
			checkElementBrackets(t, got)
		})
	}
}

// checkElementBrackets verifies that element length prefixes exactly
// cover the payload.
func checkElementBrackets(t *testing.T, payload []byte) {
	t.Helper()
	i := 0
	for i < len(payload) {
		l := int(payload[i])
		if l == 0 {
			t.Fatalf("zero-length element at %d", i)
		}
		if i+1+l > len(payload) {
			t.Fatalf("element at %d overruns payload (len=%d, total=%d)", i, l, len(payload))
		}
		i += 1 + l
	}
	if i != len(payload) {
		t.Fatalf("elements cover %d of %d bytes", i, len(payload))
	}
}
