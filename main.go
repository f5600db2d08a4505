package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/haxorthematrix/BLEPTD/internal/app"
	"github.com/haxorthematrix/BLEPTD/internal/config"
	"github.com/haxorthematrix/BLEPTD/internal/console"
	"github.com/haxorthematrix/BLEPTD/internal/detect"
	"github.com/haxorthematrix/BLEPTD/internal/host"
	"github.com/haxorthematrix/BLEPTD/internal/radio"
	"github.com/haxorthematrix/BLEPTD/internal/sig"
	"github.com/haxorthematrix/BLEPTD/internal/txsched"
)

var (
	flagDemo     bool
	flagHeadless bool
	flagAdapter  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bleptd",
		Short: "BLEPTD - BLE privacy threat detector and counter-broadcaster",
		Long: `BLEPTD listens for BLE advertisements from privacy-relevant devices
(trackers, smart glasses, medical implants, wearables, audio gear),
matches them against a signature database, and can impersonate the same
device families to test third-party detectors or flood the channel with
decoys.

Requires sudo or CAP_NET_ADMIN capability for real Bluetooth scanning.
Use --demo for demonstration mode without Bluetooth hardware.`,
		RunE: run,
	}

	rootCmd.Flags().BoolVar(&flagDemo, "demo", false, "Run with a mock radio and fake nearby devices")
	rootCmd.Flags().BoolVar(&flagHeadless, "headless", false, "Serial console on stdin/stdout instead of the TUI")
	rootCmd.Flags().StringVar(&flagAdapter, "adapter", "hci0", "Bluetooth adapter to use")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	db := sig.Builtin()
	if err := db.Validate(); err != nil {
		return fmt.Errorf("signature table: %w", err)
	}
	registry := detect.NewRegistry(config.DetectedDevicesMax, sig.DefaultFilter, config.RSSIThresholdDef)

	var (
		driver  radio.Driver
		scanner radio.Scanner
		feeder  *radio.DemoFeeder
	)
	if flagDemo {
		mock := radio.NewMockDriver(time.Now().UnixNano())
		driver, scanner = mock, mock
		feeder = radio.NewDemoFeeder(mock)
	} else {
		ble, err := radio.NewBLEDriver()
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nError: %v\n\n", err)
			fmt.Fprintln(os.Stderr, "Bluetooth access requires elevated permissions.")
			fmt.Fprintln(os.Stderr, "Try one of:")
			fmt.Fprintln(os.Stderr, "  sudo ./bleptd")
			fmt.Fprintln(os.Stderr, "  sudo setcap cap_net_admin+ep ./bleptd")
			fmt.Fprintln(os.Stderr, "  ./bleptd --demo    (demo mode, no hardware needed)")
			return err
		}
		driver, scanner = ble, ble
	}

	sched := txsched.New(db, driver)
	h := host.New(db, registry, sched, driver, scanner)

	// In TUI mode telemetry lines would tear the screen; events are
	// visible on the scan screen instead.
	telemetryOut := io.Discard
	if flagHeadless {
		telemetryOut = os.Stdout
	}
	t := console.NewTelemetry(telemetryOut, h.Now)
	h.SetDetectFunc(t.Detect)
	h.SetTxStopFunc(t.TxStop)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	if feeder != nil {
		feeder.Start()
		defer feeder.Stop()
	}

	if flagHeadless {
		c := console.New(h, t, os.Stdin)
		c.Banner()
		c.Run(ctx)
		return nil
	}

	model := app.New(h, t.JSON)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
