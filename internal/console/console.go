// Package console implements the line-oriented serial control and
// telemetry channel. Commands are CR/LF terminated and case
// insensitive; every command yields exactly one terminating line
// starting with OK or ERROR. Telemetry events stream independently and
// may interleave between responses, never within a line.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/haxorthematrix/BLEPTD/internal/config"
	"github.com/haxorthematrix/BLEPTD/internal/host"
	"github.com/haxorthematrix/BLEPTD/internal/sig"
	"github.com/haxorthematrix/BLEPTD/internal/txsched"
)

// Protocol error codes.
const (
	codeUnknownCommand = 100
	codeInvalidArg     = 101
	codeMissingArg     = 102
	codeNotFound       = 103
	codeNoEntries      = 104
	codeExhausted      = 105
)

// Console binds the control surface to a host over a serial-style
// reader/writer pair.
type Console struct {
	host *host.Host
	t    *Telemetry
	r    io.Reader
}

// New creates a console reading commands from r and responding through
// the telemetry writer, so responses and events share one line lock.
func New(h *host.Host, t *Telemetry, r io.Reader) *Console {
	return &Console{host: h, t: t, r: r}
}

// Banner prints the startup header.
func (c *Console) Banner() {
	c.line("=================================")
	c.line(fmt.Sprintf("%s v%s", config.AppName, config.AppVersion))
	c.line("BLE Privacy Threat Detector")
	c.line("=================================")
	c.line("Type HELP for commands")
}

// Run reads and executes commands until EOF or cancellation.
func (c *Console) Run(ctx context.Context) {
	scanner := bufio.NewScanner(c.r)
	scanner.Buffer(make([]byte, config.CmdBufferSize), config.CmdBufferSize)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		c.Execute(scanner.Text())
	}
}

// Execute runs one command line.
func (c *Console) Execute(line string) {
	line = strings.TrimRight(line, "\r\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	fields := strings.Fields(line)

	switch strings.ToUpper(fields[0]) {
	case "HELP":
		c.cmdHelp()
	case "VERSION":
		c.line(fmt.Sprintf("%s v%s", config.AppName, config.AppVersion))
		c.ok("")
	case "STATUS":
		c.cmdStatus()
	case "SCAN":
		c.cmdScan(fields[1:])
	case "TX":
		c.cmdTx(fields[1:])
	case "CONFUSE":
		c.cmdConfuse(fields[1:])
	case "JSON":
		c.cmdJSON(fields[1:])
	case "DISPLAY":
		c.cmdDisplay(line, fields[1:])
	default:
		c.errf(codeUnknownCommand, "Unknown command: %s", fields[0])
	}
}

func (c *Console) cmdHelp() {
	for _, l := range []string{
		"BLEPTD Commands:",
		"  HELP                              - Show this help",
		"  VERSION                           - Show firmware version",
		"  STATUS                            - Current status",
		"  SCAN START|STOP|CLEAR|LIST        - Control BLE scanning",
		"  TX LIST                           - List transmittable devices",
		"  TX START <device> [interval] [count]",
		"  TX STOP <device|ALL>",
		"  TX STATUS                         - Active session slots",
		"  CONFUSE ADD <device> [instances]",
		"  CONFUSE REMOVE <device>",
		"  CONFUSE LIST|START|STOP|CLEAR",
		"  JSON ON|OFF                       - Toggle JSON telemetry",
		"  DISPLAY SCREEN <0..3>",
		"  DISPLAY MESSAGE <text>",
	} {
		c.line(l)
	}
	c.ok("")
}

func (c *Console) cmdStatus() {
	c.line(fmt.Sprintf("Scanning: %s", onOff(c.host.Scanning())))
	c.line(fmt.Sprintf("Radio: %s", c.host.Mode()))
	c.line(fmt.Sprintf("TX sessions: %d/%d", c.host.ActiveTxCount(), config.TxMaxConcurrent))
	c.line(fmt.Sprintf("Confusion: %s (%d entries)", onOff(c.host.ConfusionActive()), len(c.host.ConfusionEntries())))
	c.line(fmt.Sprintf("Detected: %d devices", c.host.DetectionCount()))
	c.line(fmt.Sprintf("Filter: 0x%02X", uint8(c.host.Filter())))
	c.line(fmt.Sprintf("RSSI threshold: %d dBm", c.host.RSSIThreshold()))
	c.line(fmt.Sprintf("JSON: %s", onOff(c.t.JSON())))
	c.line(fmt.Sprintf("Frames sent: %d", c.host.TotalSent()))
	c.ok("")
}

func (c *Console) cmdScan(args []string) {
	if len(args) == 0 {
		c.errf(codeMissingArg, "SCAN requires START, STOP, CLEAR or LIST")
		return
	}
	switch strings.ToUpper(args[0]) {
	case "START":
		c.host.SetScanning(true)
		c.ok("Scanning started")
	case "STOP":
		c.host.SetScanning(false)
		c.ok("Scanning stopped")
	case "CLEAR":
		c.host.ClearDetections()
		c.ok("Devices cleared")
	case "LIST":
		recs := c.host.Detections(sig.CategoryAll)
		for _, rec := range recs {
			c.t.Detect(rec)
		}
		c.line(fmt.Sprintf("Total: %d devices", len(recs)))
		c.ok("")
	default:
		c.errf(codeInvalidArg, "Unknown SCAN subcommand: %s", args[0])
	}
}

func (c *Console) cmdTx(args []string) {
	if len(args) == 0 {
		c.errf(codeMissingArg, "TX requires LIST, START, STOP or STATUS")
		return
	}
	switch strings.ToUpper(args[0]) {
	case "LIST":
		for i, s := range c.host.DB().Transmittables() {
			c.line(fmt.Sprintf("%d: %s company=0x%04X cat=%s", i, s.Name, s.CompanyID, s.Category.Tag()))
		}
		c.ok("")
	case "START":
		c.cmdTxStart(args[1:])
	case "STOP":
		c.cmdTxStop(args[1:])
	case "STATUS":
		c.cmdTxStatus()
	default:
		c.errf(codeInvalidArg, "Unknown TX subcommand: %s", args[0])
	}
}

func (c *Console) cmdTxStart(args []string) {
	device, nums, err := splitDeviceArgs(args, 2)
	if err != nil {
		c.errf(codeMissingArg, "TX START requires a device name")
		return
	}
	interval := int64(config.TxDefaultIntervalMs)
	count := int64(txsched.Unbounded)
	if len(nums) >= 1 {
		interval = nums[0]
	}
	if len(nums) >= 2 {
		count = nums[1]
	}
	if interval <= 0 || interval > 1<<31 {
		c.errf(codeInvalidArg, "Invalid interval: %d", interval)
		return
	}

	slot, err := c.host.StartTx(device, uint32(interval), int32(count), false)
	if err != nil {
		c.schedErr(err, device)
		return
	}
	sess := c.host.TxSnapshot()[slot]
	c.t.TxStart(sess.Name, sess.IntervalMs, sess.Remaining)
	c.ok(fmt.Sprintf("TX started: %s slot=%d", sess.Name, slot))
}

func (c *Console) cmdTxStop(args []string) {
	if len(args) == 0 {
		c.errf(codeMissingArg, "TX STOP requires a device name or ALL")
		return
	}
	device := strings.Join(args, " ")
	if strings.EqualFold(device, "ALL") {
		for _, s := range c.host.TxSnapshot() {
			if s.Active {
				c.t.TxStop(s.Name, s.Sent)
			}
		}
		c.host.StopAllTx()
		c.ok("All TX stopped")
		return
	}

	sess, err := c.host.StopTx(device)
	if err != nil {
		c.schedErr(err, device)
		return
	}
	c.t.TxStop(sess.Name, sess.Sent)
	c.ok(fmt.Sprintf("TX stopped: %s", sess.Name))
}

func (c *Console) cmdTxStatus() {
	active := 0
	for i, s := range c.host.TxSnapshot() {
		if !s.Active {
			continue
		}
		active++
		c.line(fmt.Sprintf("slot=%d device=%s sent=%d interval=%d remaining=%d",
			i, s.Name, s.Sent, s.IntervalMs, s.Remaining))
	}
	c.line(fmt.Sprintf("Active: %d/%d", active, config.TxMaxConcurrent))
	c.ok("")
}

func (c *Console) cmdConfuse(args []string) {
	if len(args) == 0 {
		c.errf(codeMissingArg, "CONFUSE requires ADD, REMOVE, LIST, START, STOP or CLEAR")
		return
	}
	switch strings.ToUpper(args[0]) {
	case "ADD":
		device, nums, err := splitDeviceArgs(args[1:], 1)
		if err != nil {
			c.errf(codeMissingArg, "CONFUSE ADD requires a device name")
			return
		}
		instances := int64(1)
		if len(nums) >= 1 {
			instances = nums[0]
		}
		if instances < 1 || instances > 255 {
			c.errf(codeInvalidArg, "Invalid instance count: %d", instances)
			return
		}
		if _, err := c.host.ConfuseAdd(device, uint8(instances)); err != nil {
			c.schedErr(err, device)
			return
		}
		c.ok(fmt.Sprintf("Confusion entry added: %s x%d", device, instances))
	case "REMOVE":
		if len(args) < 2 {
			c.errf(codeMissingArg, "CONFUSE REMOVE requires a device name")
			return
		}
		device := strings.Join(args[1:], " ")
		if err := c.host.ConfuseRemove(device); err != nil {
			c.schedErr(err, device)
			return
		}
		c.ok(fmt.Sprintf("Confusion entry removed: %s", device))
	case "LIST":
		entries := c.host.ConfusionEntries()
		for _, e := range entries {
			c.line(fmt.Sprintf("%s x%d", e.Name, e.Instances))
		}
		c.line(fmt.Sprintf("Total: %d entries", len(entries)))
		c.ok("")
	case "START":
		n, err := c.host.ConfuseStart()
		if err != nil {
			c.schedErr(err, "")
			return
		}
		c.ok(fmt.Sprintf("Confusion started with %d devices", n))
	case "STOP":
		c.host.ConfuseStop()
		c.ok("Confusion stopped")
	case "CLEAR":
		c.host.ConfuseClear()
		c.ok("Confusion list cleared")
	default:
		c.errf(codeInvalidArg, "Unknown CONFUSE subcommand: %s", args[0])
	}
}

func (c *Console) cmdJSON(args []string) {
	if len(args) == 0 {
		c.errf(codeMissingArg, "JSON requires ON or OFF")
		return
	}
	switch strings.ToUpper(args[0]) {
	case "ON":
		c.t.SetJSON(true)
		c.ok("JSON output enabled")
	case "OFF":
		c.t.SetJSON(false)
		c.ok("JSON output disabled")
	default:
		c.errf(codeInvalidArg, "JSON requires ON or OFF")
	}
}

func (c *Console) cmdDisplay(line string, args []string) {
	if len(args) == 0 {
		c.errf(codeMissingArg, "DISPLAY requires SCREEN or MESSAGE")
		return
	}
	switch strings.ToUpper(args[0]) {
	case "SCREEN":
		if len(args) < 2 {
			c.errf(codeMissingArg, "DISPLAY SCREEN requires 0..3")
			return
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 || n > 3 {
			c.errf(codeInvalidArg, "Invalid screen: %s", args[1])
			return
		}
		c.host.SetScreen(n)
		c.ok("")
	case "MESSAGE":
		msg := restAfter(line, 2)
		if msg == "" {
			c.errf(codeMissingArg, "DISPLAY MESSAGE requires text")
			return
		}
		c.host.SetMessage(msg)
		c.ok("")
	default:
		c.errf(codeInvalidArg, "Unknown DISPLAY subcommand: %s", args[0])
	}
}

func (c *Console) schedErr(err error, device string) {
	switch {
	case errors.Is(err, txsched.ErrUnknownDevice):
		c.errf(codeNotFound, "Unknown device: %s", device)
	case errors.Is(err, txsched.ErrNotFound):
		c.errf(codeNotFound, "Not found: %s", device)
	case errors.Is(err, txsched.ErrDuplicate):
		c.errf(codeInvalidArg, "Already transmitting: %s", device)
	case errors.Is(err, txsched.ErrSessionsFull), errors.Is(err, txsched.ErrConfusionFull):
		c.errf(codeExhausted, "No free slots")
	case errors.Is(err, txsched.ErrNoEntries):
		c.errf(codeNoEntries, "No confusion entries configured")
	default:
		c.errf(codeInvalidArg, "%v", err)
	}
}

func (c *Console) line(s string) { c.t.lw.WriteLine(s) }

func (c *Console) ok(msg string) {
	if msg == "" {
		c.line("OK")
		return
	}
	c.line("OK " + msg)
}

func (c *Console) errf(code int, format string, args ...any) {
	c.line(fmt.Sprintf("ERROR %d %s", code, fmt.Sprintf(format, args...)))
}

func onOff(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}

// splitDeviceArgs separates a multi-word device name from up to
// maxNums trailing integer arguments.
func splitDeviceArgs(args []string, maxNums int) (string, []int64, error) {
	nums := make([]int64, 0, maxNums)
	end := len(args)
	for end > 0 && len(nums) < maxNums {
		n, err := strconv.ParseInt(args[end-1], 10, 64)
		if err != nil {
			break
		}
		nums = append([]int64{n}, nums...)
		end--
	}
	if end == 0 {
		return "", nil, errors.New("console: missing device name")
	}
	return strings.Join(args[:end], " "), nums, nil
}

// restAfter returns the remainder of line after skipping n
// whitespace-separated tokens, preserving the original casing.
func restAfter(line string, n int) string {
	rest := strings.TrimSpace(line)
	for i := 0; i < n; i++ {
		idx := strings.IndexAny(rest, " \t")
		if idx < 0 {
			return ""
		}
		rest = strings.TrimSpace(rest[idx:])
	}
	return rest
}
