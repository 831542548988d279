package service

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Stage is a step of a stats lookup. A lookup only moves forward; any step may
// end it in StageFailed.
type Stage int

const (
	StageIdle Stage = iota
	StageResolvingProfile
	StageFetchingLifetime
	StageFetchingHistory
	StageReconciling
	StageFetchingMatchDetail
	StageDone
	StageFailed
)

var stageNames = [...]string{
	StageIdle:                "idle",
	StageResolvingProfile:    "resolving_profile",
	StageFetchingLifetime:    "fetching_lifetime",
	StageFetchingHistory:     "fetching_history",
	StageReconciling:         "reconciling",
	StageFetchingMatchDetail: "fetching_match_detail",
	StageDone:                "done",
	StageFailed:              "failed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// StageError is returned by every failed lookup. errors.Is sees through it to
// the domain sentinel.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

type lookup struct {
	stage   Stage
	started time.Time
	logger  zerolog.Logger
}

func newLookup(logger zerolog.Logger) *lookup {
	return &lookup{stage: StageIdle, started: time.Now(), logger: logger}
}

func (l *lookup) enter(next Stage) {
	l.logger.Debug().Stringer("from", l.stage).Stringer("to", next).Msg("stage transition")
	l.stage = next
}

// fail records the failing stage and moves the lookup to StageFailed.
func (l *lookup) fail(err error) error {
	failed := l.stage
	l.enter(StageFailed)
	l.logger.Warn().Err(err).Stringer("stage", failed).Dur("elapsed", time.Since(l.started)).Msg("lookup failed")
	return &StageError{Stage: failed, Err: err}
}

func (l *lookup) done() {
	l.enter(StageDone)
	l.logger.Info().Dur("elapsed", time.Since(l.started)).Msg("lookup completed")
}
