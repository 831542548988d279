package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"cs2-tracker/internal/config"
	"cs2-tracker/internal/domain"
	"cs2-tracker/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Prober interface {
	Probe(ctx context.Context, host string, port int) (*domain.ServerInfo, error)
}

type RosterService struct {
	source       repository.EndpointSource
	prober       Prober
	probeTimeout time.Duration
	logger       zerolog.Logger
}

func NewRosterService(cfg *config.Config, source repository.EndpointSource, prober Prober, logger zerolog.Logger) *RosterService {
	return &RosterService{
		source:       source,
		prober:       prober,
		probeTimeout: cfg.ProbeTimeout,
		logger:       logger.With().Str("component", "roster").Logger(),
	}
}

// FetchRoster probes every endpoint matching q at once and waits for all of
// them. Online servers come back sorted by latency; full ones are left out.
func (s *RosterService) FetchRoster(ctx context.Context, q domain.RosterQuery) *domain.Roster {
	start := time.Now()
	endpoints := FilterEndpoints(s.load(ctx), q)

	statuses := make([]domain.ServerStatus, len(endpoints))
	g := new(errgroup.Group)
	for i, ep := range endpoints {
		g.Go(func() error {
			statuses[i] = s.probe(ctx, ep)
			return nil
		})
	}
	_ = g.Wait()

	roster := Classify(statuses)

	s.logger.Info().
		Str("type", q.GameType).
		Str("owner", q.Owner).
		Int("probed", len(endpoints)).
		Int("online", len(roster.Online)).
		Int("offline", len(roster.Offline)).
		Int("full", roster.Dropped).
		Dur("elapsed", time.Since(start)).
		Msg("roster fetched")

	return roster
}

// GameTypes lists the distinct game types of the roster, sorted.
func (s *RosterService) GameTypes(ctx context.Context) []string {
	return distinct(s.load(ctx), func(e domain.ServerEndpoint) string { return e.GameType })
}

func (s *RosterService) Owners(ctx context.Context) []string {
	return distinct(s.load(ctx), func(e domain.ServerEndpoint) string { return e.OwnerTag })
}

func (s *RosterService) load(ctx context.Context) []domain.ServerEndpoint {
	endpoints, err := s.source.Load(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("roster source unavailable, using empty roster")
		return nil
	}
	return endpoints
}

func (s *RosterService) probe(ctx context.Context, ep domain.ServerEndpoint) domain.ServerStatus {
	probeCtx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	start := time.Now()
	info, err := s.prober.Probe(probeCtx, ep.Host, ep.Port)
	latency := time.Since(start)

	if err == nil && probeCtx.Err() != nil {
		err = probeCtx.Err()
	}
	if err != nil || info == nil {
		s.logger.Debug().Err(err).Str("endpoint", ep.Address()).Msg("server unreachable")
		return domain.ServerStatus{Endpoint: ep}
	}

	return domain.ServerStatus{
		Endpoint:  ep,
		Reachable: true,
		Info:      info,
		Latency:   latency,
	}
}

// FilterEndpoints applies the owner filter (substring of the display name) and
// the type filter (exact match), both case-insensitive.
func FilterEndpoints(endpoints []domain.ServerEndpoint, q domain.RosterQuery) []domain.ServerEndpoint {
	out := make([]domain.ServerEndpoint, 0, len(endpoints))
	owner := strings.ToLower(strings.TrimSpace(q.Owner))
	gameType := strings.TrimSpace(q.GameType)

	for _, e := range endpoints {
		if !domain.IsUnfiltered(q.Owner) && !strings.Contains(strings.ToLower(e.DisplayName), owner) {
			continue
		}
		if !domain.IsUnfiltered(q.GameType) && !strings.EqualFold(e.GameType, gameType) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Classify partitions probe results. The order of statuses breaks latency ties.
func Classify(statuses []domain.ServerStatus) *domain.Roster {
	roster := &domain.Roster{
		Online:  []domain.ServerStatus{},
		Offline: []domain.ServerStatus{},
	}
	for _, st := range statuses {
		switch {
		case !st.Reachable:
			roster.Offline = append(roster.Offline, st)
		case st.HasRoom():
			roster.Online = append(roster.Online, st)
		default:
			roster.Dropped++
		}
	}

	sort.SliceStable(roster.Online, func(i, j int) bool {
		return roster.Online[i].Latency < roster.Online[j].Latency
	})
	return roster
}

func distinct(endpoints []domain.ServerEndpoint, key func(domain.ServerEndpoint) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range endpoints {
		k := strings.TrimSpace(key(e))
		if k == "" || seen[strings.ToLower(k)] {
			continue
		}
		seen[strings.ToLower(k)] = true
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
