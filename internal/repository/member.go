package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pickclub/platform/internal/domain"
	"github.com/pickclub/platform/internal/infra"
)

type memberRepo struct{}

// NewMemberRepository returns a pgx-backed MemberRepository.
func NewMemberRepository() MemberRepository {
	return &memberRepo{}
}

func (r *memberRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Member, error) {
	row := db.QueryRow(ctx, `
		SELECT id, balance, currency, created_at, updated_at
		FROM members WHERE id = $1`, id)
	return scanMember(row)
}

func (r *memberRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Member, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, balance, currency, created_at, updated_at
		FROM members WHERE id = $1 FOR UPDATE`, id)
	return scanMember(row)
}

func (r *memberRepo) Create(ctx context.Context, db DBTX, member *domain.Member) error {
	_, err := db.Exec(ctx, `
		INSERT INTO members (id, balance, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		member.ID,
		infra.CreditsToNumeric(member.Balance),
		member.Currency,
		member.CreatedAt,
		member.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

// ApplyDelta uses server-side arithmetic so the cached balance never goes
// through a read-modify-write in Go.
func (r *memberRepo) ApplyDelta(ctx context.Context, tx pgx.Tx, memberID uuid.UUID, delta int64, at time.Time) (*domain.Member, error) {
	row := tx.QueryRow(ctx, `
		UPDATE members SET balance = balance + $1, updated_at = $2
		WHERE id = $3
		RETURNING id, balance, currency, created_at, updated_at`,
		infra.CreditsToNumeric(delta), at, memberID)
	return scanMember(row)
}

func scanMember(row pgx.Row) (*domain.Member, error) {
	var m domain.Member
	var balNum pgtype.Numeric
	err := row.Scan(&m.ID, &balNum, &m.Currency, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan member: %w", err)
	}

	m.Balance, err = infra.CreditsFromNumeric(balNum)
	if err != nil {
		return nil, fmt.Errorf("convert balance: %w", err)
	}
	return &m, nil
}
