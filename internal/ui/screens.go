package ui

import (
	"fmt"
	"strings"

	"github.com/haxorthematrix/BLEPTD/internal/adv"
	"github.com/haxorthematrix/BLEPTD/internal/config"
	"github.com/haxorthematrix/BLEPTD/internal/detect"
	"github.com/haxorthematrix/BLEPTD/internal/sig"
	"github.com/haxorthematrix/BLEPTD/internal/txsched"
)

// RenderScanScreen lists detected devices in insertion order.
func RenderScanScreen(records []detect.Record, height, scroll int) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("DETECTED DEVICES"))
	b.WriteString(DimStyle.Render(fmt.Sprintf("  [%d]", len(records))))
	b.WriteString("\n\n")

	rows := height - 3
	if rows < 1 {
		rows = 1
	}
	if scroll > len(records)-1 {
		scroll = len(records) - 1
	}
	if scroll < 0 {
		scroll = 0
	}
	end := scroll + rows
	if end > len(records) {
		end = len(records)
	}

	for _, rec := range records[scroll:end] {
		cat := CategoryStyle(rec.Category)
		b.WriteString(fmt.Sprintf("%s %s %s %s\n",
			cat.Render("●"),
			TextStyle.Render(fmt.Sprintf("%-26s", rec.Name)),
			DimStyle.Render(fmt.Sprintf("%s %4d dBm x%-4d", adv.FormatAddr(rec.Addr), rec.RSSI, rec.Hits)),
			AlertStyle.Render(ThreatGlyph(rec.Threat)),
		))
	}
	if len(records) == 0 {
		b.WriteString(DimStyle.Render("  listening..."))
	}
	return b.String()
}

// RenderFilterScreen shows the category mask and RSSI threshold.
func RenderFilterScreen(filter sig.Category, minRSSI int8) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("DETECTION FILTER"))
	b.WriteString("\n\n")

	for _, row := range []struct {
		key string
		cat sig.Category
	}{
		{"t", sig.CategoryTracker},
		{"g", sig.CategoryGlasses},
		{"m", sig.CategoryMedical},
		{"w", sig.CategoryWearable},
		{"a", sig.CategoryAudio},
	} {
		mark := InactiveStyle.Render("[ ]")
		if filter&row.cat != 0 {
			mark = ActiveStyle.Render("[x]")
		}
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			mark,
			CategoryStyle(row.cat).Render(fmt.Sprintf("%-9s", row.cat.Tag())),
			DimStyle.Render("("+row.key+")"),
		))
	}
	b.WriteString("\n")
	b.WriteString(TextStyle.Render(fmt.Sprintf("  RSSI threshold: %d dBm", minRSSI)))
	b.WriteString(DimStyle.Render("  (-/+)"))
	return b.String()
}

// RenderTxScreen shows session slots and the confusion list.
func RenderTxScreen(sessions []txsched.Session, entries []txsched.ConfusionEntry, confusionActive bool) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("TX SESSIONS"))
	b.WriteString("\n\n")

	active := 0
	for i, s := range sessions {
		if !s.Active {
			continue
		}
		active++
		b.WriteString(fmt.Sprintf("  %d %s %s\n",
			i,
			TextStyle.Render(fmt.Sprintf("%-26s", s.Name)),
			DimStyle.Render(fmt.Sprintf("sent=%d ivl=%dms rem=%d", s.Sent, s.IntervalMs, s.Remaining)),
		))
	}
	if active == 0 {
		b.WriteString(DimStyle.Render("  no active sessions"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	state := InactiveStyle.Render("OFF")
	if confusionActive {
		state = ActiveStyle.Render("ON")
	}
	b.WriteString(TitleStyle.Render("CONFUSION"))
	b.WriteString(" " + state + "\n\n")
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("  %s x%d\n", TextStyle.Render(e.Name), e.Instances))
	}
	if len(entries) == 0 {
		b.WriteString(DimStyle.Render("  list empty"))
	}
	return b.String()
}

// RenderSettingsScreen shows the compile-time configuration.
func RenderSettingsScreen(jsonMode bool) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("SETTINGS"))
	b.WriteString("\n\n")
	for _, row := range [][2]string{
		{"Version", config.AppVersion},
		{"Scan interval", fmt.Sprintf("%d/%d ms", config.ScanIntervalMs, config.ScanWindowMs)},
		{"TX default interval", fmt.Sprintf("%d ms", config.TxDefaultIntervalMs)},
		{"TX slots", fmt.Sprintf("%d", config.TxMaxConcurrent)},
		{"Confusion capacity", fmt.Sprintf("%d", config.ConfusionMaxDevices)},
		{"Detection capacity", fmt.Sprintf("%d", config.DetectedDevicesMax)},
		{"Serial baud", fmt.Sprintf("%d", config.SerialBaudRate)},
		{"JSON telemetry", onOffLabel(jsonMode)},
	} {
		b.WriteString(fmt.Sprintf("  %s %s\n",
			DimStyle.Render(fmt.Sprintf("%-20s", row[0])),
			TextStyle.Render(row[1]),
		))
	}
	return b.String()
}

func onOffLabel(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}
