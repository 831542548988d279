package domain

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrUpstreamTimeout       = errors.New("upstream timed out")
	ErrUpstream              = errors.New("unexpected upstream response")
	ErrNoStats               = errors.New("player has no stats for this game")
	ErrMalformedUpstreamData = errors.New("malformed upstream data")
	ErrConfigUnavailable     = errors.New("server roster unavailable")
	ErrNoHistory             = errors.New("player has no match history")
	ErrMatchStatsUnavailable = errors.New("match stats unavailable")
	ErrPlayerNotInMatch      = errors.New("stats not found for this match")
	ErrMissingAPIKey         = errors.New("stats api key not configured")
)
