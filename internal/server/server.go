package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cs2-tracker/internal/config"
	"cs2-tracker/internal/constants"
	"cs2-tracker/internal/domain"
	"cs2-tracker/internal/middleware"
	"cs2-tracker/internal/pagination"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

type RosterFetcher interface {
	FetchRoster(ctx context.Context, q domain.RosterQuery) *domain.Roster
}

type StatsAggregator interface {
	AggregatePlayerStats(ctx context.Context, nickname string) (*domain.PlayerSummary, error)
	LastMatchDetail(ctx context.Context, nickname string) (*domain.LastMatch, error)
}

// Server exposes the roster and stats lookups over plain JSON routes and as
// a connect service.
type Server struct {
	roster  RosterFetcher
	stats   StatsAggregator
	timeout time.Duration
	logger  zerolog.Logger
}

func New(cfg *config.Config, roster RosterFetcher, stats StatsAggregator, logger zerolog.Logger) *Server {
	return &Server{
		roster:  roster,
		stats:   stats,
		timeout: cfg.RequestTimeout(),
		logger:  logger.With().Str("component", "http").Logger(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.healthz)
	mux.HandleFunc("GET /v1/roster", s.getRoster)
	mux.HandleFunc("GET /v1/players/{nickname}", s.getPlayer)
	mux.HandleFunc("GET /v1/players/{nickname}/last-match", s.getLastMatch)
	mux.Handle(TrackerServicePath, s.rpcHandler())

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
	})

	return middleware.RequestID(s.logger)(middleware.Recover(c.Handler(mux)))
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getRoster(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := 1
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "page must be a number")
			return
		}
		page = n
	}

	query := domain.RosterQuery{GameType: q.Get("type"), Owner: q.Get("owner")}
	writeJSON(w, http.StatusOK, s.rosterPage(r.Context(), query, page))
}

func (s *Server) getPlayer(w http.ResponseWriter, r *http.Request) {
	resp, err := s.lookupPlayer(r.Context(), r.PathValue("nickname"))
	if err != nil {
		writeError(w, r, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getLastMatch(w http.ResponseWriter, r *http.Request) {
	resp, err := s.lookupLastMatch(r.Context(), r.PathValue("nickname"))
	if err != nil {
		writeError(w, r, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) rosterPage(ctx context.Context, query domain.RosterQuery, page int) rosterResponse {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	roster := s.roster.FetchRoster(ctx, query)

	p := pagination.New(len(roster.Online), constants.RosterPageSize)
	p.Goto(page)
	return newRosterResponse(query, roster, p)
}

func (s *Server) lookupPlayer(ctx context.Context, nickname string) (playerResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	summary, err := s.stats.AggregatePlayerStats(ctx, strings.TrimSpace(nickname))
	if err != nil {
		logLookupError(ctx, err)
		return playerResponse{}, err
	}
	return newPlayerResponse(summary), nil
}

func (s *Server) lookupLastMatch(ctx context.Context, nickname string) (lastMatchResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	last, err := s.stats.LastMatchDetail(ctx, strings.TrimSpace(nickname))
	if err != nil {
		logLookupError(ctx, err)
		return lastMatchResponse{}, err
	}
	return newLastMatchResponse(last), nil
}

func logLookupError(ctx context.Context, err error) {
	status := statusFor(err)
	logger := zerolog.Ctx(ctx)
	if status >= http.StatusInternalServerError {
		logger.Warn().Err(err).Int("status", status).Msg("lookup failed")
	} else {
		logger.Debug().Err(err).Int("status", status).Msg("lookup failed")
	}
}

// statusFor maps lookup failures onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrNoStats),
		errors.Is(err, domain.ErrNoHistory),
		errors.Is(err, domain.ErrPlayerNotInMatch):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrMissingAPIKey):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, RequestID: middleware.GetRequestID(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
