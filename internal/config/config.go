package config

const (
	// Scanning
	ScanDurationMs   = 1000 // One scan burst per host loop pass
	ScanIntervalMs   = 100  // Advertising-channel dwell interval
	ScanWindowMs     = 99   // Listen window within each interval
	RSSIThresholdDef = -80  // Default minimum signal (dBm)

	// Transmission
	TxDefaultIntervalMs = 100 // Default per-session frame interval
	TxMinIntervalMs     = 20  // Floor accepted by the radio driver
	TxMaxConcurrent     = 8   // Session pool size
	ConfusionMaxDevices = 16  // Confusion rotation list capacity
	ConfuseIntervalMs   = 20  // Confusion frame pacing (50 frames/s max)

	// Detection
	DetectedDevicesMax = 64 // Registry capacity; overflow observations drop

	// Serial console
	SerialBaudRate = 115200
	CmdBufferSize  = 256

	// Host loop
	TickIntervalMs = 10 // Scheduler tick granularity

	// App
	AppName    = "BLEPTD"
	AppVersion = "1.0.0"
)
