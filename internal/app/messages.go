package app

import "time"

// TickMsg triggers a snapshot refresh.
type TickMsg time.Time
