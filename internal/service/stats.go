package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cs2-tracker/internal/config"
	"cs2-tracker/internal/constants"
	"cs2-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type StatsAPI interface {
	Configured() bool
	GetPlayerByNickname(ctx context.Context, nickname, game string) (*domain.PlayerProfile, error)
	GetLifetimeStats(ctx context.Context, playerID, game string) (*domain.LifetimeStats, error)
	GetHistory(ctx context.Context, playerID, game string, from time.Time, limit int) ([]domain.MatchSummary, error)
	GetMatchStats(ctx context.Context, matchID string) (*domain.MatchDetailStats, error)
}

type StatsService struct {
	api     StatsAPI
	timeout time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

func NewStatsService(cfg *config.Config, api StatsAPI, logger zerolog.Logger) *StatsService {
	return &StatsService{
		api:     api,
		timeout: cfg.FaceitTimeout,
		now:     time.Now,
		logger:  logger.With().Str("component", "stats").Logger(),
	}
}

// AggregatePlayerStats resolves nickname, reads lifetime stats and tallies
// wins and losses over the trailing window. Each call waits for the
// previous one; the first failure ends the lookup.
func (s *StatsService) AggregatePlayerStats(ctx context.Context, nickname string) (*domain.PlayerSummary, error) {
	l := newLookup(s.logger.With().Str("nickname", nickname).Str("op", "aggregate").Logger())

	if !s.api.Configured() {
		return nil, l.fail(domain.ErrMissingAPIKey)
	}

	profile, err := s.resolveProfile(ctx, l, nickname)
	if err != nil {
		return nil, err
	}
	l.logger = l.logger.With().Str("player_id", profile.PlayerID).Logger()

	l.enter(StageFetchingLifetime)
	lifetime, err := s.lifetime(ctx, profile.PlayerID)
	if err != nil {
		return nil, l.fail(err)
	}

	l.enter(StageFetchingHistory)
	from := s.now().Add(-constants.HistoryWindow)
	matches, err := s.history(ctx, profile.PlayerID, from, constants.HistoryLimit)
	if err != nil {
		return nil, l.fail(err)
	}

	l.enter(StageReconciling)
	record := Reconcile(profile.PlayerID, matches, l.logger)

	l.logger.Debug().
		Int("matches", len(matches)).
		Int("wins", record.Wins).
		Int("losses", record.Losses).
		Msg("window reconciled")
	l.done()

	return &domain.PlayerSummary{
		Profile:     *profile,
		Lifetime:    *lifetime,
		Last24h:     record,
		Window:      constants.HistoryWindow,
		MatchesSeen: len(matches),
	}, nil
}

// LastMatchDetail reports the player's own numbers for their most recent
// match, whenever it was played.
func (s *StatsService) LastMatchDetail(ctx context.Context, nickname string) (*domain.LastMatch, error) {
	l := newLookup(s.logger.With().Str("nickname", nickname).Str("op", "last_match").Logger())

	if !s.api.Configured() {
		return nil, l.fail(domain.ErrMissingAPIKey)
	}

	profile, err := s.resolveProfile(ctx, l, nickname)
	if err != nil {
		return nil, err
	}
	l.logger = l.logger.With().Str("player_id", profile.PlayerID).Logger()

	l.enter(StageFetchingHistory)
	matches, err := s.history(ctx, profile.PlayerID, time.Time{}, 1)
	if err != nil {
		return nil, l.fail(err)
	}
	if len(matches) == 0 || matches[0].MatchID == "" {
		return nil, l.fail(fmt.Errorf("%w: %s", domain.ErrNoHistory, profile.Nickname))
	}
	last := matches[0]
	l.logger = l.logger.With().Str("match_id", last.MatchID).Logger()

	l.enter(StageFetchingMatchDetail)
	detail, err := s.matchStats(ctx, last.MatchID)
	if err != nil {
		return nil, l.fail(err)
	}

	stats, faction, ok := detail.Locate(profile.PlayerID)
	if !ok {
		return nil, l.fail(fmt.Errorf("%w: player %s in match %s", domain.ErrPlayerNotInMatch, profile.Nickname, last.MatchID))
	}
	l.done()

	return &domain.LastMatch{
		Profile:  *profile,
		MatchID:  last.MatchID,
		MatchURL: last.URL,
		MapName:  detail.MapName,
		Score:    detail.Score,
		Stats:    stats,
		Won:      faction.Won,
	}, nil
}

func (s *StatsService) resolveProfile(ctx context.Context, l *lookup, nickname string) (*domain.PlayerProfile, error) {
	l.enter(StageResolvingProfile)

	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, l.fail(fmt.Errorf("%w: empty nickname", domain.ErrNotFound))
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	profile, err := s.api.GetPlayerByNickname(callCtx, nickname, constants.Game)
	if err != nil {
		return nil, l.fail(fmt.Errorf("failed to resolve %q: %w", nickname, err))
	}
	return profile, nil
}

func (s *StatsService) lifetime(ctx context.Context, playerID string) (*domain.LifetimeStats, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stats, err := s.api.GetLifetimeStats(callCtx, playerID, constants.Game)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("%w: player %s", domain.ErrNoStats, playerID)
	case err != nil:
		return nil, fmt.Errorf("failed to fetch lifetime stats: %w", err)
	}
	return stats, nil
}

// history treats an unknown history as an empty one.
func (s *StatsService) history(ctx context.Context, playerID string, from time.Time, limit int) ([]domain.MatchSummary, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	matches, err := s.api.GetHistory(callCtx, playerID, constants.Game, from, limit)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to fetch match history: %w", err)
	}
	return matches, nil
}

func (s *StatsService) matchStats(ctx context.Context, matchID string) (*domain.MatchDetailStats, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	detail, err := s.api.GetMatchStats(callCtx, matchID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("%w: %s", domain.ErrMatchStatsUnavailable, matchID)
	case err != nil:
		return nil, fmt.Errorf("failed to fetch match stats: %w", err)
	}
	return detail, nil
}

// Reconcile counts finished matches the player's faction won or lost. A match
// without a resolvable faction for the player, or without a declared winner,
// counts for neither.
func Reconcile(playerID string, matches []domain.MatchSummary, logger zerolog.Logger) domain.Record {
	var record domain.Record

	for _, m := range matches {
		if m.Status != domain.MatchStatusFinished {
			logger.Debug().Str("match_id", m.MatchID).Stringer("status", m.Status).Msg("ignoring unfinished match")
			continue
		}

		faction, found := FactionOf(playerID, m)
		if !found {
			logger.Debug().Str("match_id", m.MatchID).Msg("player faction not found")
			continue
		}
		if m.WinningFaction == "" {
			logger.Debug().Str("match_id", m.MatchID).Msg("match has no winner")
			continue
		}

		if faction == m.WinningFaction {
			record.Wins++
		} else {
			record.Losses++
		}
	}

	return record
}

// FactionOf returns the first faction, in listed order, whose roster holds
// playerID. Later factions are not consulted.
func FactionOf(playerID string, m domain.MatchSummary) (string, bool) {
	for _, f := range m.Factions {
		for _, entry := range f.Roster {
			if entry.Is(playerID) {
				return f.Name, true
			}
		}
	}
	return "", false
}
