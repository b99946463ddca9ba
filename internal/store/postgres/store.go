// Package postgres provides the durable player state store. State is kept
// as one JSONB document per player: the engine is the source of truth while
// running, the database only needs to survive restarts.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Khim-khaos/CraftMastery-sub001/internal/domain"
)

const (
	queryLoadPlayer = `SELECT state FROM player_progression WHERE player_id = $1`

	queryUpsertPlayer = `
INSERT INTO player_progression (player_id, state, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (player_id)
DO UPDATE SET state = EXCLUDED.state, updated_at = NOW()`

	queryDeletePlayer = `DELETE FROM player_progression WHERE player_id = $1`
)

// Store persists player progression state in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Postgres-backed player store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Load fetches the player's state. Returns domain.ErrPlayerNotFound for
// players never saved.
func (s *Store) Load(ctx context.Context, player domain.PlayerID) (*domain.PlayerState, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, queryLoadPlayer, string(player)).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to load player %s: %w", player, err)
	}

	state := domain.NewPlayerState(player)
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to decode player %s state: %w", player, err)
	}
	state.Player = player
	return state, nil
}

// Save upserts the player's state document.
func (s *Store) Save(ctx context.Context, state *domain.PlayerState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode player %s state: %w", state.Player, err)
	}

	if _, err := s.pool.Exec(ctx, queryUpsertPlayer, string(state.Player), data); err != nil {
		return fmt.Errorf("failed to save player %s: %w", state.Player, err)
	}
	return nil
}

// Delete removes the player's state. Deleting an unknown player is a no-op.
func (s *Store) Delete(ctx context.Context, player domain.PlayerID) error {
	if _, err := s.pool.Exec(ctx, queryDeletePlayer, string(player)); err != nil {
		return fmt.Errorf("failed to delete player %s: %w", player, err)
	}
	return nil
}
