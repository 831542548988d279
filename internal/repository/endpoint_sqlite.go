package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"

	"cs2-tracker/internal/database"
	"cs2-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// SQLiteEndpointSource reads the roster from a SQLite file filled by Import.
// The database is opened on first use. Load never creates the file: a missing
// file is ErrConfigUnavailable, the same as a missing servers.json.
type SQLiteEndpointSource struct {
	path   string
	logger zerolog.Logger

	mu sync.Mutex
	db *sql.DB
}

func NewSQLiteEndpointSource(path string, logger zerolog.Logger) *SQLiteEndpointSource {
	return &SQLiteEndpointSource{path: path, logger: logger}
}

func (s *SQLiteEndpointSource) conn(create bool) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db, nil
	}
	if !create {
		if _, err := os.Stat(s.path); err != nil {
			return nil, fmt.Errorf("roster database %s: %w", s.path, err)
		}
	}
	db, err := database.Open(s.path, s.logger)
	if err != nil {
		return nil, err
	}
	s.db = db
	return db, nil
}

func (s *SQLiteEndpointSource) Load(ctx context.Context) ([]domain.ServerEndpoint, error) {
	db, err := s.conn(false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigUnavailable, err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT display_name, owner_tag, game_type, host, port
		FROM server_endpoints
		ORDER BY id`)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to query server endpoints")
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigUnavailable, err)
	}
	defer rows.Close()

	var endpoints []domain.ServerEndpoint
	for rows.Next() {
		var e domain.ServerEndpoint
		if err := rows.Scan(&e.DisplayName, &e.OwnerTag, &e.GameType, &e.Host, &e.Port); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrConfigUnavailable, err)
		}
		endpoints = append(endpoints, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigUnavailable, err)
	}

	return validEndpoints(endpoints, s.logger), nil
}

// Import upserts endpoints keyed by host and port. New endpoints keep the
// order they are given in.
func (s *SQLiteEndpointSource) Import(ctx context.Context, endpoints []domain.ServerEndpoint) (int, error) {
	db, err := s.conn(true)
	if err != nil {
		return 0, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO server_endpoints (display_name, owner_tag, game_type, host, port)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (host, port) DO UPDATE SET
			display_name = excluded.display_name,
			owner_tag    = excluded.owner_tag,
			game_type    = excluded.game_type`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, e := range endpoints {
		if _, err := stmt.ExecContext(ctx, e.DisplayName, e.OwnerTag, e.GameType, e.Host, e.Port); err != nil {
			return 0, fmt.Errorf("failed to upsert %s: %w", e.Address(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit roster import: %w", err)
	}

	s.logger.Info().Int("count", len(endpoints)).Msg("roster imported")
	return len(endpoints), nil
}

func (s *SQLiteEndpointSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
