package service

import (
	"context"
	"testing"
	"time"

	"cs2-tracker/internal/config"
	"cs2-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

func verifyAllMocks(t *testing.T, mocks ...any) {
	t.Helper()

	for _, m := range mocks {
		if mockObj, ok := m.(interface{ AssertExpectations(mock.TestingT) bool }); ok {
			mockObj.AssertExpectations(t)
		}
	}
}

type mockEndpointSource struct {
	mock.Mock
}

func (m *mockEndpointSource) Load(ctx context.Context) ([]domain.ServerEndpoint, error) {
	args := m.Called(ctx)
	endpoints, _ := args.Get(0).([]domain.ServerEndpoint)
	return endpoints, args.Error(1)
}

func (m *mockEndpointSource) Close() error {
	return nil
}

type mockProber struct {
	mock.Mock
}

func (m *mockProber) Probe(ctx context.Context, host string, port int) (*domain.ServerInfo, error) {
	args := m.Called(ctx, host, port)
	info, _ := args.Get(0).(*domain.ServerInfo)
	return info, args.Error(1)
}

type mockStatsAPI struct {
	mock.Mock
	unconfigured bool
}

func (m *mockStatsAPI) Configured() bool {
	return !m.unconfigured
}

func (m *mockStatsAPI) GetPlayerByNickname(ctx context.Context, nickname, game string) (*domain.PlayerProfile, error) {
	args := m.Called(ctx, nickname, game)
	profile, _ := args.Get(0).(*domain.PlayerProfile)
	return profile, args.Error(1)
}

func (m *mockStatsAPI) GetLifetimeStats(ctx context.Context, playerID, game string) (*domain.LifetimeStats, error) {
	args := m.Called(ctx, playerID, game)
	stats, _ := args.Get(0).(*domain.LifetimeStats)
	return stats, args.Error(1)
}

func (m *mockStatsAPI) GetHistory(ctx context.Context, playerID, game string, from time.Time, limit int) ([]domain.MatchSummary, error) {
	args := m.Called(ctx, playerID, game, from, limit)
	matches, _ := args.Get(0).([]domain.MatchSummary)
	return matches, args.Error(1)
}

func (m *mockStatsAPI) GetMatchStats(ctx context.Context, matchID string) (*domain.MatchDetailStats, error) {
	args := m.Called(ctx, matchID)
	detail, _ := args.Get(0).(*domain.MatchDetailStats)
	return detail, args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{
		FaceitTimeout: 200 * time.Millisecond,
		ProbeTimeout:  100 * time.Millisecond,
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
