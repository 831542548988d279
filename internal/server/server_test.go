package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cs2-tracker/internal/config"
	"cs2-tracker/internal/constants"
	"cs2-tracker/internal/domain"
	"cs2-tracker/internal/middleware"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRoster struct {
	mock.Mock
}

func (m *mockRoster) FetchRoster(ctx context.Context, q domain.RosterQuery) *domain.Roster {
	return m.Called(ctx, q).Get(0).(*domain.Roster)
}

type mockStats struct {
	mock.Mock
}

func (m *mockStats) AggregatePlayerStats(ctx context.Context, nickname string) (*domain.PlayerSummary, error) {
	args := m.Called(ctx, nickname)
	summary, _ := args.Get(0).(*domain.PlayerSummary)
	return summary, args.Error(1)
}

func (m *mockStats) LastMatchDetail(ctx context.Context, nickname string) (*domain.LastMatch, error) {
	args := m.Called(ctx, nickname)
	last, _ := args.Get(0).(*domain.LastMatch)
	return last, args.Error(1)
}

var testConfig = &config.Config{FaceitTimeout: time.Second, ProbeTimeout: time.Second}

func serve(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func onlineServers(n int) []domain.ServerStatus {
	out := make([]domain.ServerStatus, n)
	for i := range out {
		out[i] = domain.ServerStatus{
			Endpoint:  domain.ServerEndpoint{DisplayName: fmt.Sprintf("srv%d", i), OwnerTag: "TUGA ARMY", GameType: "Retakes", Host: "10.0.0.1", Port: 27000 + i},
			Reachable: true,
			Info:      &domain.ServerInfo{ServerName: fmt.Sprintf("Server %d", i), PlayerCount: 1, MaxPlayers: 10, MapName: "de_dust2"},
			Latency:   time.Duration(i+1) * time.Millisecond,
		}
	}
	return out
}

func TestHealthz(t *testing.T) {
	h := New(testConfig, new(mockRoster), new(mockStats), zerolog.Nop()).Handler()

	rec, body := serve(t, h, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestGetRoster(t *testing.T) {
	roster := new(mockRoster)
	roster.On("FetchRoster", mock.Anything, domain.RosterQuery{GameType: "Retakes", Owner: ""}).Return(&domain.Roster{
		Online:  onlineServers(7),
		Offline: []domain.ServerStatus{{Endpoint: domain.ServerEndpoint{DisplayName: "down", Host: "10.0.0.9", Port: 27015}}},
		Dropped: 2,
	})
	h := New(testConfig, roster, new(mockStats), zerolog.Nop()).Handler()

	rec, body := serve(t, h, "/v1/roster?type=Retakes&page=2")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Retakes", body["type"])
	assert.Equal(t, "all", body["owner"])
	assert.EqualValues(t, 2, body["page"])
	assert.EqualValues(t, 2, body["total_pages"])
	assert.EqualValues(t, 7, body["online_count"])
	assert.EqualValues(t, 2, body["full_count"])

	online := body["online"].([]any)
	require.Len(t, online, 2)
	first := online[0].(map[string]any)
	assert.Equal(t, "Server 5", first["name"])
	assert.Equal(t, "connect 10.0.0.1:27005", first["connect"])

	offline := body["offline"].([]any)
	require.Len(t, offline, 1)
	assert.Equal(t, "10.0.0.9:27015", offline[0].(map[string]any)["address"])

	roster.AssertExpectations(t)
}

func TestGetRosterPageClamped(t *testing.T) {
	roster := new(mockRoster)
	roster.On("FetchRoster", mock.Anything, mock.Anything).Return(&domain.Roster{})
	h := New(testConfig, roster, new(mockStats), zerolog.Nop()).Handler()

	rec, body := serve(t, h, "/v1/roster?page=40")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["page"])
	assert.EqualValues(t, 1, body["total_pages"])
	assert.Empty(t, body["online"])
}

func TestGetRosterBadPage(t *testing.T) {
	h := New(testConfig, new(mockRoster), new(mockStats), zerolog.Nop()).Handler()

	rec, body := serve(t, h, "/v1/roster?page=two")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, body["request_id"])
}

func TestGetPlayer(t *testing.T) {
	stats := new(mockStats)
	stats.On("AggregatePlayerStats", mock.Anything, "Bichoblamef").Return(&domain.PlayerSummary{
		Profile:     domain.PlayerProfile{PlayerID: "P1", Nickname: "Bichoblamef", Elo: 2104, SkillLevel: 10},
		Lifetime:    domain.LifetimeStats{KDRatio: "1.21"},
		Last24h:     domain.Record{Wins: 3, Losses: 1},
		Window:      24 * time.Hour,
		MatchesSeen: 5,
	}, nil)
	h := New(testConfig, new(mockRoster), stats, zerolog.Nop()).Handler()

	rec, body := serve(t, h, "/v1/players/Bichoblamef")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "P1", body["player_id"])
	assert.EqualValues(t, 2104, body["elo"])
	assert.Equal(t, "1.21", body["lifetime"].(map[string]any)["kd_ratio"])
	recent := body["recent"].(map[string]any)
	assert.EqualValues(t, 24, recent["window_hours"])
	assert.EqualValues(t, 3, recent["wins"])
	assert.EqualValues(t, 1, recent["losses"])
	assert.EqualValues(t, 5, recent["matches_seen"])
	stats.AssertExpectations(t)
}

func TestGetLastMatch(t *testing.T) {
	stats := new(mockStats)
	stats.On("LastMatchDetail", mock.Anything, "Bichoblamef").Return(&domain.LastMatch{
		Profile: domain.PlayerProfile{PlayerID: "P1", Nickname: "Bichoblamef"},
		MatchID: "1-aaa",
		MapName: "de_nuke",
		Stats:   domain.PlayerMatchStats{Kills: "22"},
		Won:     true,
	}, nil)
	h := New(testConfig, new(mockRoster), stats, zerolog.Nop()).Handler()

	rec, body := serve(t, h, "/v1/players/Bichoblamef/last-match")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1-aaa", body["match_id"])
	assert.Equal(t, true, body["won"])
	assert.Equal(t, "22", body["stats"].(map[string]any)["kills"])
	assert.Equal(t, "P1", body["player"].(map[string]any)["player_id"])
}

func TestLookupErrorStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "notFound", err: domain.ErrNotFound, expected: http.StatusNotFound},
		{name: "noStats", err: domain.ErrNoStats, expected: http.StatusNotFound},
		{name: "noHistory", err: domain.ErrNoHistory, expected: http.StatusNotFound},
		{name: "notInMatch", err: domain.ErrPlayerNotInMatch, expected: http.StatusNotFound},
		{name: "timeout", err: domain.ErrUpstreamTimeout, expected: http.StatusGatewayTimeout},
		{name: "missingKey", err: domain.ErrMissingAPIKey, expected: http.StatusServiceUnavailable},
		{name: "upstream", err: domain.ErrUpstream, expected: http.StatusBadGateway},
		{name: "malformed", err: domain.ErrMalformedUpstreamData, expected: http.StatusBadGateway},
		{name: "matchStats", err: domain.ErrMatchStatsUnavailable, expected: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := new(mockStats)
			wrapped := fmt.Errorf("failed to resolve %q: %w", "nick", tt.err)
			stats.On("AggregatePlayerStats", mock.Anything, "nick").Return(nil, wrapped)
			stats.On("LastMatchDetail", mock.Anything, "nick").Return(nil, wrapped)
			h := New(testConfig, new(mockRoster), stats, zerolog.Nop()).Handler()

			rec, body := serve(t, h, "/v1/players/nick")
			assert.Equal(t, tt.expected, rec.Code)
			assert.Equal(t, wrapped.Error(), body["error"])

			rec, _ = serve(t, h, "/v1/players/nick/last-match")
			assert.Equal(t, tt.expected, rec.Code)
		})
	}
}

func TestCORS(t *testing.T) {
	h := New(testConfig, new(mockRoster), new(mockStats), zerolog.Nop()).Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestLookupDeadlineFollowsFaceitTimeout(t *testing.T) {
	cfg := &config.Config{FaceitTimeout: 20 * time.Second, ProbeTimeout: time.Second}

	longDeadline := mock.MatchedBy(func(ctx context.Context) bool {
		deadline, ok := ctx.Deadline()
		return ok && time.Until(deadline) > constants.LookupCalls*cfg.FaceitTimeout
	})
	stats := new(mockStats)
	stats.On("AggregatePlayerStats", longDeadline, "nick").Return(&domain.PlayerSummary{}, nil)
	h := New(cfg, new(mockRoster), stats, zerolog.Nop()).Handler()

	rec, _ := serve(t, h, "/v1/players/nick")

	assert.Equal(t, http.StatusOK, rec.Code)
	stats.AssertExpectations(t)
}
