package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"cs2-tracker/internal/config"
	"cs2-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// EndpointSource yields the configured game servers in their configured order.
// Failures wrap domain.ErrConfigUnavailable.
type EndpointSource interface {
	Load(ctx context.Context) ([]domain.ServerEndpoint, error)
	Close() error
}

func NewEndpointSource(cfg *config.Config, logger zerolog.Logger) EndpointSource {
	if cfg.RosterDriver == config.RosterDriverSQLite {
		return NewSQLiteEndpointSource(cfg.RosterDBPath, logger)
	}
	return NewJSONEndpointSource(cfg.ServersFile, logger)
}

// JSONEndpointSource rereads the file on every Load so edits apply without a restart.
type JSONEndpointSource struct {
	path   string
	logger zerolog.Logger
}

func NewJSONEndpointSource(path string, logger zerolog.Logger) *JSONEndpointSource {
	return &JSONEndpointSource{path: path, logger: logger}
}

func (s *JSONEndpointSource) Load(ctx context.Context) ([]domain.ServerEndpoint, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Error().Str("path", s.path).Msg("servers file not found")
		} else {
			s.logger.Error().Err(err).Str("path", s.path).Msg("failed to read servers file")
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigUnavailable, err)
	}

	var records []endpointRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("servers file is malformed")
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrConfigUnavailable, s.path, err)
	}

	raw := make([]domain.ServerEndpoint, len(records))
	for i, r := range records {
		raw[i] = r.endpoint()
	}

	endpoints := validEndpoints(raw, s.logger)
	if len(raw) > 0 && len(endpoints) == 0 {
		s.logger.Warn().
			Str("path", s.path).
			Int("entries", len(raw)).
			Msg("servers file has entries but none are usable, expected keys are name, owner, type, host and port")
	}
	return endpoints, nil
}

// endpointRecord is one servers.json entry. The older nome, ip, porta and
// tipo keys are still read when the current ones are absent.
type endpointRecord struct {
	domain.ServerEndpoint
	Nome  string `json:"nome"`
	IP    string `json:"ip"`
	Porta int    `json:"porta"`
	Tipo  string `json:"tipo"`
}

func (r endpointRecord) endpoint() domain.ServerEndpoint {
	e := r.ServerEndpoint
	if e.DisplayName == "" {
		e.DisplayName = r.Nome
	}
	if e.Host == "" {
		e.Host = r.IP
	}
	if e.Port == 0 {
		e.Port = r.Porta
	}
	if e.GameType == "" {
		e.GameType = r.Tipo
	}
	return e
}

func (s *JSONEndpointSource) Close() error {
	return nil
}

func validEndpoints(in []domain.ServerEndpoint, logger zerolog.Logger) []domain.ServerEndpoint {
	out := make([]domain.ServerEndpoint, 0, len(in))
	for i, e := range in {
		e.Host = strings.TrimSpace(e.Host)
		if e.Host == "" || e.Port <= 0 || e.Port > 65535 {
			logger.Warn().
				Int("index", i).
				Str("name", e.DisplayName).
				Str("host", e.Host).
				Int("port", e.Port).
				Msg("skipping endpoint with invalid address")
			continue
		}
		if e.DisplayName == "" {
			e.DisplayName = e.Address()
		}
		out = append(out, e)
	}
	return out
}
