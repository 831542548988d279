package constants

import "time"

const (
	ProbeTimeout       = 2500 * time.Millisecond
	ExternalAPITimeout = 10 * time.Second
	ImportTimeout      = 30 * time.Second
)

const (
	// LookupCalls is the longest chain of FACEIT calls behind one command.
	LookupCalls          = 3
	RequestTimeoutMargin = 5 * time.Second
)

const (
	Game          = "cs2"
	HistoryWindow = 24 * time.Hour
	HistoryLimit  = 100
)

const (
	RosterPageSize    = 5
	RosterSessionTTL  = 5 * time.Minute
	MaxCommandChoices = 25
)

const (
	DBMaxOpenConns    = 4
	DBMaxIdleConns    = 2
	DBConnMaxLifetime = 1 * time.Hour
)

const (
	ShutdownTimeout = 5 * time.Second
)
