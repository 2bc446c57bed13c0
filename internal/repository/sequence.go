package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pickclub/platform/internal/domain"
)

type sequenceRepo struct{}

// NewSequenceRepository returns a pgx-backed SequenceRepository.
func NewSequenceRepository() SequenceRepository {
	return &sequenceRepo{}
}

func (r *sequenceRepo) FindByGame(ctx context.Context, db DBTX, gameID uuid.UUID) (*domain.WinningSequence, error) {
	var s domain.WinningSequence
	err := db.QueryRow(ctx, `
		SELECT game_id, numbers, published_at
		FROM winning_sequences WHERE game_id = $1`, gameID).
		Scan(&s.GameID, &s.Numbers, &s.PublishedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan winning sequence: %w", err)
	}
	return &s, nil
}

// Insert fails with a unique violation (23505) when a sequence already
// exists for the game. The caller maps that to the already-published error.
func (r *sequenceRepo) Insert(ctx context.Context, db DBTX, seq *domain.WinningSequence) error {
	_, err := db.Exec(ctx, `
		INSERT INTO winning_sequences (game_id, numbers, published_at)
		VALUES ($1, $2, $3)`,
		seq.GameID, seq.Numbers, seq.PublishedAt)
	if err != nil {
		return fmt.Errorf("insert winning sequence: %w", err)
	}
	return nil
}
