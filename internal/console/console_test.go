package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/haxorthematrix/BLEPTD/internal/config"
	"github.com/haxorthematrix/BLEPTD/internal/detect"
	"github.com/haxorthematrix/BLEPTD/internal/host"
	"github.com/haxorthematrix/BLEPTD/internal/radio"
	"github.com/haxorthematrix/BLEPTD/internal/sig"
	"github.com/haxorthematrix/BLEPTD/internal/txsched"
)

func newTestConsole(t *testing.T) (*Console, *host.Host, *bytes.Buffer) {
	t.Helper()
	db := sig.Builtin()
	mock := radio.NewMockDriver(1)
	reg := detect.NewRegistry(config.DetectedDevicesMax, sig.DefaultFilter, config.RSSIThresholdDef)
	sched := txsched.New(db, mock)
	h := host.New(db, reg, sched, mock, mock)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)

	var buf bytes.Buffer
	tel := NewTelemetry(&buf, h.Now)
	return New(h, tel, strings.NewReader("")), h, &buf
}

// exec runs one command and returns the response lines.
func exec(c *Console, buf *bytes.Buffer, line string) []string {
	buf.Reset()
	c.Execute(line)
	out := strings.TrimRight(buf.String(), "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func isTerminator(line string) bool {
	return line == "OK" || strings.HasPrefix(line, "OK ") || strings.HasPrefix(line, "ERROR ")
}

// Every command yields exactly one terminating OK or ERROR line, and it
// comes last.
func TestSingleTerminatorLine(t *testing.T) {
	c, _, buf := newTestConsole(t)

	for _, cmd := range []string{
		"HELP",
		"VERSION",
		"STATUS",
		"SCAN START",
		"SCAN STOP",
		"SCAN LIST",
		"TX LIST",
		"TX STATUS",
		"CONFUSE LIST",
		"JSON ON",
		"JSON OFF",
		"DISPLAY SCREEN 2",
		"BOGUS",
		"TX START Nope",
	} {
		t.Run(cmd, func(t *testing.T) {
			lines := exec(c, buf, cmd)
			if len(lines) == 0 {
				t.Fatal("no output")
			}
			terminators := 0
			for _, l := range lines {
				if isTerminator(l) {
					terminators++
				}
			}
			if terminators != 1 {
				t.Errorf("%d terminating lines in %q, want 1", terminators, lines)
			}
			if !isTerminator(lines[len(lines)-1]) {
				t.Errorf("last line %q is not a terminator", lines[len(lines)-1])
			}
		})
	}
}

func TestBlankLineIgnored(t *testing.T) {
	c, _, buf := newTestConsole(t)
	if lines := exec(c, buf, "   \r"); lines != nil {
		t.Errorf("blank line produced output: %q", lines)
	}
}

func TestUnknownCommand(t *testing.T) {
	c, _, buf := newTestConsole(t)
	lines := exec(c, buf, "FROBNICATE")
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "ERROR 100") {
		t.Errorf("unknown command response = %q, want ERROR 100", lines)
	}
}

func TestCaseInsensitive(t *testing.T) {
	c, _, buf := newTestConsole(t)

	lines := exec(c, buf, "scan start")
	if last := lines[len(lines)-1]; last != "OK Scanning started" {
		t.Errorf("lowercase command response = %q", last)
	}
	lines = exec(c, buf, "Tx LiSt")
	if last := lines[len(lines)-1]; last != "OK" {
		t.Errorf("mixed-case TX LIST response = %q", last)
	}
}

func TestTxLifecycle(t *testing.T) {
	c, h, buf := newTestConsole(t)

	lines := exec(c, buf, "TX START Tile")
	last := lines[len(lines)-1]
	if last != "OK TX started: Tile slot=0" {
		t.Fatalf("start response = %q", last)
	}
	if !strings.Contains(lines[0], "TX_START device=Tile interval=100 count=-1") {
		t.Errorf("start telemetry = %q", lines[0])
	}
	if got := h.ActiveTxCount(); got != 1 {
		t.Fatalf("ActiveTxCount() = %d, want 1", got)
	}

	lines = exec(c, buf, "TX STOP Tile")
	last = lines[len(lines)-1]
	if last != "OK TX stopped: Tile" {
		t.Fatalf("stop response = %q", last)
	}
	if !strings.Contains(lines[0], "TX_STOP device=Tile") {
		t.Errorf("stop telemetry = %q", lines[0])
	}

	lines = exec(c, buf, "TX STOP Tile")
	if !strings.HasPrefix(lines[0], "ERROR 103") {
		t.Errorf("second stop response = %q, want ERROR 103", lines[0])
	}
}

func TestTxStartMultiWordName(t *testing.T) {
	c, _, buf := newTestConsole(t)

	lines := exec(c, buf, "TX START samsung smarttag2 50 10")
	last := lines[len(lines)-1]
	if last != "OK TX started: Samsung SmartTag2 slot=0" {
		t.Fatalf("response = %q", last)
	}
	if !strings.Contains(lines[0], "interval=50 count=10") {
		t.Errorf("telemetry = %q", lines[0])
	}
}

func TestTxStartErrors(t *testing.T) {
	c, _, buf := newTestConsole(t)

	tests := []struct {
		cmd  string
		want string
	}{
		{"TX START", "ERROR 102"},
		{"TX START 100 5", "ERROR 102"}, // numbers only, no device
		{"TX START NoSuchDevice", "ERROR 103"},
		{"TX START Tile 0", "ERROR 101"},
	}
	for _, tt := range tests {
		lines := exec(c, buf, tt.cmd)
		if got := lines[len(lines)-1]; !strings.HasPrefix(got, tt.want) {
			t.Errorf("%q response = %q, want prefix %q", tt.cmd, got, tt.want)
		}
	}

	exec(c, buf, "TX START Tile")
	lines := exec(c, buf, "TX START Tile")
	if got := lines[len(lines)-1]; !strings.HasPrefix(got, "ERROR 101") {
		t.Errorf("duplicate start response = %q, want ERROR 101", got)
	}
}

func TestTxStopAll(t *testing.T) {
	c, h, buf := newTestConsole(t)

	exec(c, buf, "TX START Tile")
	exec(c, buf, "TX START Chipolo")

	lines := exec(c, buf, "TX STOP ALL")
	last := lines[len(lines)-1]
	if last != "OK All TX stopped" {
		t.Fatalf("response = %q", last)
	}
	stops := 0
	for _, l := range lines {
		if strings.Contains(l, "TX_STOP") {
			stops++
		}
	}
	if stops != 2 {
		t.Errorf("TX_STOP telemetry lines = %d, want 2", stops)
	}
	if got := h.ActiveTxCount(); got != 0 {
		t.Errorf("ActiveTxCount() = %d, want 0", got)
	}
}

func TestTxSessionsExhausted(t *testing.T) {
	c, _, buf := newTestConsole(t)

	for _, name := range []string{
		"AirTag (Registered)", "AirTag (Unregistered)",
		"Samsung SmartTag", "Samsung SmartTag2",
		"Tile", "Tile (Alt)", "Chipolo", "Meta Ray-Ban",
	} {
		lines := exec(c, buf, "TX START "+name)
		if got := lines[len(lines)-1]; !strings.HasPrefix(got, "OK") {
			t.Fatalf("TX START %s response = %q", name, got)
		}
	}
	lines := exec(c, buf, "TX START Snap Spectacles")
	if got := lines[len(lines)-1]; !strings.HasPrefix(got, "ERROR 105") {
		t.Errorf("ninth start response = %q, want ERROR 105", got)
	}
}

func TestConfuseCommands(t *testing.T) {
	c, h, buf := newTestConsole(t)

	lines := exec(c, buf, "CONFUSE START")
	if got := lines[0]; !strings.HasPrefix(got, "ERROR 104") {
		t.Errorf("start on empty list = %q, want ERROR 104", got)
	}

	lines = exec(c, buf, "CONFUSE ADD Tile 3")
	if got := lines[len(lines)-1]; got != "OK Confusion entry added: Tile x3" {
		t.Fatalf("add response = %q", got)
	}
	lines = exec(c, buf, "CONFUSE ADD Tile 300")
	if got := lines[0]; !strings.HasPrefix(got, "ERROR 101") {
		t.Errorf("oversized instances = %q, want ERROR 101", got)
	}
	lines = exec(c, buf, "CONFUSE ADD NoSuchDevice")
	if got := lines[0]; !strings.HasPrefix(got, "ERROR 103") {
		t.Errorf("unknown device = %q, want ERROR 103", got)
	}

	exec(c, buf, "CONFUSE ADD Meta Ray-Ban")
	lines = exec(c, buf, "CONFUSE LIST")
	if got := lines[len(lines)-2]; got != "Total: 2 entries" {
		t.Errorf("list total = %q, want Total: 2 entries", got)
	}

	lines = exec(c, buf, "CONFUSE START")
	if got := lines[len(lines)-1]; got != "OK Confusion started with 2 devices" {
		t.Fatalf("start response = %q", got)
	}
	if !h.ConfusionActive() {
		t.Error("broadcaster not armed after CONFUSE START")
	}

	exec(c, buf, "CONFUSE STOP")
	if h.ConfusionActive() {
		t.Error("broadcaster still armed after CONFUSE STOP")
	}

	lines = exec(c, buf, "CONFUSE REMOVE Tile")
	if got := lines[len(lines)-1]; !strings.HasPrefix(got, "OK") {
		t.Errorf("remove response = %q", got)
	}
	lines = exec(c, buf, "CONFUSE REMOVE Tile")
	if got := lines[0]; !strings.HasPrefix(got, "ERROR 103") {
		t.Errorf("second remove = %q, want ERROR 103", got)
	}

	exec(c, buf, "CONFUSE CLEAR")
	if got := len(h.ConfusionEntries()); got != 0 {
		t.Errorf("entries after clear = %d, want 0", got)
	}
}

func TestJSONToggle(t *testing.T) {
	c, _, buf := newTestConsole(t)

	exec(c, buf, "JSON ON")
	if !c.t.JSON() {
		t.Error("JSON mode not enabled")
	}
	exec(c, buf, "JSON OFF")
	if c.t.JSON() {
		t.Error("JSON mode not disabled")
	}
	lines := exec(c, buf, "JSON MAYBE")
	if got := lines[0]; !strings.HasPrefix(got, "ERROR 101") {
		t.Errorf("bad argument = %q, want ERROR 101", got)
	}
}

func TestDisplayCommands(t *testing.T) {
	c, h, buf := newTestConsole(t)

	exec(c, buf, "DISPLAY SCREEN 2")
	if got := h.Screen(); got != 2 {
		t.Errorf("Screen() = %d, want 2", got)
	}
	lines := exec(c, buf, "DISPLAY SCREEN 9")
	if got := lines[0]; !strings.HasPrefix(got, "ERROR 101") {
		t.Errorf("out-of-range screen = %q, want ERROR 101", got)
	}

	exec(c, buf, "DISPLAY MESSAGE Hello World")
	if got := h.Message(); got != "Hello World" {
		t.Errorf("Message() = %q, want casing preserved", got)
	}
	lines = exec(c, buf, "DISPLAY MESSAGE")
	if got := lines[0]; !strings.HasPrefix(got, "ERROR 102") {
		t.Errorf("empty message = %q, want ERROR 102", got)
	}
}

func TestSplitDeviceArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		maxNums  int
		device   string
		nums     []int64
		wantErr  bool
	}{
		{"name only", []string{"Tile"}, 2, "Tile", nil, false},
		{"name and both numbers", []string{"Tile", "100", "5"}, 2, "Tile", []int64{100, 5}, false},
		{"multi-word name", []string{"Samsung", "SmartTag2"}, 2, "Samsung SmartTag2", nil, false},
		{"multi-word name with number", []string{"Meta", "Ray-Ban", "50"}, 2, "Meta Ray-Ban", []int64{50}, false},
		{"numeric-looking tail stays bounded", []string{"Tile", "1", "2", "3"}, 2, "Tile 1", []int64{2, 3}, false},
		{"numbers only", []string{"100", "5"}, 2, "", nil, true},
		{"empty", nil, 2, "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device, nums, err := splitDeviceArgs(tt.args, tt.maxNums)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if device != tt.device {
				t.Errorf("device = %q, want %q", device, tt.device)
			}
			if len(nums) != len(tt.nums) {
				t.Fatalf("nums = %v, want %v", nums, tt.nums)
			}
			for i := range nums {
				if nums[i] != tt.nums[i] {
					t.Errorf("nums[%d] = %d, want %d", i, nums[i], tt.nums[i])
				}
			}
		})
	}
}

func TestRestAfter(t *testing.T) {
	if got := restAfter("DISPLAY MESSAGE  Mixed Case Text", 2); got != "Mixed Case Text" {
		t.Errorf("restAfter = %q", got)
	}
	if got := restAfter("DISPLAY MESSAGE", 2); got != "" {
		t.Errorf("restAfter with no remainder = %q", got)
	}
}
