package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pickclub/platform/internal/domain"
	"github.com/pickclub/platform/internal/infra"
)

// Sort fields are whitelisted per source and mapped to column names here, so
// no caller-supplied string ever reaches the ORDER BY clause directly.

var transactionSortColumns = map[string]string{
	"":           "t.created_at",
	"created_at": "t.created_at",
	"delta":      "t.delta",
	"type":       "t.type",
}

var boardSortColumns = map[string]string{
	"":           "b.created_at",
	"created_at": "b.created_at",
	"tier":       "b.tier",
}

var balanceSortColumns = map[string]string{
	"":      "t.created_at",
	"as_of": "t.created_at",
}

var gameSortColumns = map[string]string{
	"":           "g.closes_at",
	"closes_at":  "g.closes_at",
	"created_at": "g.created_at",
	"name":       "g.name",
}

func orderClause(columns map[string]string, field, idColumn string, desc bool) (string, error) {
	col, ok := columns[field]
	if !ok {
		return "", domain.ErrValidation(fmt.Sprintf("cannot sort by %q", field))
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	// The id tiebreak keeps ties stable across pages.
	return fmt.Sprintf("ORDER BY %s %s, %s %s", col, dir, idColumn, dir), nil
}

// rangeClause renders the shared from/to predicate for a timestamp column.
// Inclusive lower bound, exclusive upper, matching TimeRange.Contains.
func rangeClause(column string, fromIdx, toIdx int) string {
	return fmt.Sprintf(
		"($%d::timestamptz IS NULL OR %s >= $%d) AND ($%d::timestamptz IS NULL OR %s < $%d)",
		fromIdx, column, fromIdx, toIdx, column, toIdx)
}

// TransactionHistory pages one member's ledger entries.
type TransactionHistory struct {
	db       DBTX
	memberID uuid.UUID
	rng      domain.TimeRange
}

// NewTransactionHistory returns a history source over a member's transactions
// posted inside rng.
func NewTransactionHistory(db DBTX, memberID uuid.UUID, rng domain.TimeRange) *TransactionHistory {
	return &TransactionHistory{db: db, memberID: memberID, rng: rng}
}

func (s *TransactionHistory) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions t WHERE t.member_id = $1 AND `+rangeClause("t.created_at", 2, 3),
		s.memberID, s.rng.From, s.rng.To).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (s *TransactionHistory) Page(ctx context.Context, sortField string, desc bool, limit, offset int) ([]domain.Transaction, error) {
	order, err := orderClause(transactionSortColumns, sortField, "t.id", desc)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT t.id, t.member_id, t.type, t.delta, t.balance_after,
		       t.external_transaction_id, t.game_id, t.purchase_id, t.metadata, t.created_at
		FROM transactions t
		WHERE t.member_id = $1 AND `+rangeClause("t.created_at", 2, 3)+`
		`+order+`
		LIMIT $4 OFFSET $5`, s.memberID, s.rng.From, s.rng.To, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query transaction page: %w", err)
	}
	defer rows.Close()

	items, err := collectTransactions(rows)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Transaction{}
	}
	return items, nil
}

// BoardHistory pages one member's boards. Each row is joined against the
// game's winning sequence when one exists, and scored on the way out.
type BoardHistory struct {
	db       DBTX
	memberID uuid.UUID
	gameID   *uuid.UUID
	rng      domain.TimeRange
}

// NewBoardHistory returns a history source over a member's boards purchased
// inside rng. A non-nil gameID restricts the set to one game.
func NewBoardHistory(db DBTX, memberID uuid.UUID, gameID *uuid.UUID, rng domain.TimeRange) *BoardHistory {
	return &BoardHistory{db: db, memberID: memberID, gameID: gameID, rng: rng}
}

func (s *BoardHistory) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM boards b
		WHERE b.member_id = $1 AND ($2::uuid IS NULL OR b.game_id = $2)
		  AND `+rangeClause("b.created_at", 3, 4),
		s.memberID, s.gameID, s.rng.From, s.rng.To).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count boards: %w", err)
	}
	return n, nil
}

func (s *BoardHistory) Page(ctx context.Context, sortField string, desc bool, limit, offset int) ([]domain.BoardView, error) {
	order, err := orderClause(boardSortColumns, sortField, "b.id", desc)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT b.id, b.game_id, b.member_id, b.purchase_id, b.numbers, b.tier, b.settled_at, b.created_at,
		       ws.numbers
		FROM boards b
		LEFT JOIN winning_sequences ws ON ws.game_id = b.game_id
		WHERE b.member_id = $1 AND ($2::uuid IS NULL OR b.game_id = $2)
		  AND `+rangeClause("b.created_at", 3, 4)+`
		`+order+`
		LIMIT $5 OFFSET $6`, s.memberID, s.gameID, s.rng.From, s.rng.To, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query board page: %w", err)
	}
	defer rows.Close()

	views := []domain.BoardView{}
	for rows.Next() {
		var v domain.BoardView
		var winning []int32
		err := rows.Scan(&v.ID, &v.GameID, &v.MemberID, &v.PurchaseID, &v.Numbers,
			&v.Tier, &v.SettledAt, &v.CreatedAt, &winning)
		if err != nil {
			return nil, fmt.Errorf("scan board view: %w", err)
		}
		if winning != nil {
			matches := domain.MatchCount(v.Numbers, winning)
			v.Matches = &matches
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// GameHistory pages all games with their published sequence and sales count.
// The time range applies to closes_at, the field games are listed by.
type GameHistory struct {
	db  DBTX
	rng domain.TimeRange
}

// NewGameHistory returns a history source over games closing inside rng.
func NewGameHistory(db DBTX, rng domain.TimeRange) *GameHistory {
	return &GameHistory{db: db, rng: rng}
}

func (s *GameHistory) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM games g WHERE `+rangeClause("g.closes_at", 1, 2),
		s.rng.From, s.rng.To).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count games: %w", err)
	}
	return n, nil
}

func (s *GameHistory) Page(ctx context.Context, sortField string, desc bool, limit, offset int) ([]domain.GameResult, error) {
	order, err := orderClause(gameSortColumns, sortField, "g.id", desc)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT g.id, g.name, g.opens_at, g.closes_at, g.cost_per_board,
		       g.numbers_per_board, g.max_number, g.tiers, g.prizes, g.status, g.settled_at, g.created_at,
		       ws.numbers, ws.published_at,
		       (SELECT COUNT(*) FROM boards b WHERE b.game_id = g.id) AS boards_sold
		FROM games g
		LEFT JOIN winning_sequences ws ON ws.game_id = g.id
		WHERE `+rangeClause("g.closes_at", 1, 2)+`
		`+order+`
		LIMIT $3 OFFSET $4`, s.rng.From, s.rng.To, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query game page: %w", err)
	}
	defer rows.Close()

	results := []domain.GameResult{}
	for rows.Next() {
		var res domain.GameResult
		var costNum pgtype.Numeric
		var tiers, prizes []byte
		var wsNumbers []int32
		var wsPublishedAt pgtype.Timestamptz
		err := rows.Scan(
			&res.Game.ID, &res.Game.Name, &res.Game.OpensAt, &res.Game.ClosesAt, &costNum,
			&res.Game.NumbersPerBoard, &res.Game.MaxNumber, &tiers, &prizes,
			&res.Game.Status, &res.Game.SettledAt, &res.Game.CreatedAt,
			&wsNumbers, &wsPublishedAt, &res.BoardsSold,
		)
		if err != nil {
			return nil, fmt.Errorf("scan game result: %w", err)
		}
		if res.Game.CostPerBoard, err = infra.CreditsFromNumeric(costNum); err != nil {
			return nil, fmt.Errorf("convert cost_per_board: %w", err)
		}
		if err := unmarshalGameConfig(tiers, prizes, &res.Game); err != nil {
			return nil, err
		}
		if wsNumbers != nil && wsPublishedAt.Valid {
			res.Sequence = &domain.WinningSequence{
				GameID:      res.Game.ID,
				Numbers:     wsNumbers,
				PublishedAt: wsPublishedAt.Time,
			}
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// BalanceHistory pages a member's balance over time, one snapshot per ledger
// entry. The balance_after column already carries the running balance, so no
// fold is needed at read time.
type BalanceHistory struct {
	db       DBTX
	memberID uuid.UUID
	rng      domain.TimeRange
}

// NewBalanceHistory returns a history source over a member's balance
// snapshots inside rng.
func NewBalanceHistory(db DBTX, memberID uuid.UUID, rng domain.TimeRange) *BalanceHistory {
	return &BalanceHistory{db: db, memberID: memberID, rng: rng}
}

func (s *BalanceHistory) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions t WHERE t.member_id = $1 AND `+rangeClause("t.created_at", 2, 3),
		s.memberID, s.rng.From, s.rng.To).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count balance snapshots: %w", err)
	}
	return n, nil
}

func (s *BalanceHistory) Page(ctx context.Context, sortField string, desc bool, limit, offset int) ([]domain.BalanceSnapshot, error) {
	order, err := orderClause(balanceSortColumns, sortField, "t.id", desc)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT t.member_id, t.created_at, t.balance_after
		FROM transactions t
		WHERE t.member_id = $1 AND `+rangeClause("t.created_at", 2, 3)+`
		`+order+`
		LIMIT $4 OFFSET $5`, s.memberID, s.rng.From, s.rng.To, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query balance page: %w", err)
	}
	defer rows.Close()

	snapshots := []domain.BalanceSnapshot{}
	for rows.Next() {
		var snap domain.BalanceSnapshot
		if err := rows.Scan(&snap.MemberID, &snap.AsOf, &snap.Balance); err != nil {
			return nil, fmt.Errorf("scan balance snapshot: %w", err)
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}
