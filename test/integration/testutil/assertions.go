//go:build integration

package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
)

// DecodeJSON reads and decodes a JSON response body into dst.
func DecodeJSON(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
}

// AssertStatus checks that the response has the expected HTTP status code.
func AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// AssertErrorCode checks that the response body carries the expected error code.
func AssertErrorCode(t *testing.T, resp *http.Response, expectedCode string) {
	t.Helper()
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	DecodeJSON(t, resp, &errResp)
	if errResp.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, errResp.Code, errResp.Message)
	}
}

// AssertBalance queries the members table and asserts the stored balance.
func AssertBalance(t *testing.T, env *TestEnv, memberID uuid.UUID, expected int64) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var balance int64
	err := env.Pool.QueryRow(ctx,
		"SELECT balance FROM members WHERE id = $1", memberID).Scan(&balance)
	if err != nil {
		t.Fatalf("AssertBalance: query: %v", err)
	}
	if balance != expected {
		t.Errorf("balance: expected %d, got %d", expected, balance)
	}
}

// CountTransactions returns the number of ledger entries for a member.
func CountTransactions(t *testing.T, env *TestEnv, memberID uuid.UUID) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	err := env.Pool.QueryRow(ctx,
		"SELECT count(*) FROM transactions WHERE member_id = $1", memberID).Scan(&count)
	if err != nil {
		t.Fatalf("CountTransactions: %v", err)
	}
	return count
}

// AssertLedgerChain walks a member's ledger in insertion order and checks
// that every balance_after equals the previous snapshot plus the delta.
func AssertLedgerChain(t *testing.T, env *TestEnv, memberID uuid.UUID) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rows, err := env.Pool.Query(ctx,
		"SELECT delta, balance_after FROM transactions WHERE member_id = $1 ORDER BY created_at ASC, id ASC",
		memberID)
	if err != nil {
		t.Fatalf("AssertLedgerChain: query: %v", err)
	}
	defer rows.Close()

	var prev int64
	i := 0
	for rows.Next() {
		var delta, after int64
		if err := rows.Scan(&delta, &after); err != nil {
			t.Fatalf("AssertLedgerChain: scan: %v", err)
		}
		if after != prev+delta {
			t.Errorf("ledger entry %d: balance_after %d, want %d (prev %d + delta %d)",
				i, after, prev+delta, prev, delta)
		}
		if after < 0 {
			t.Errorf("ledger entry %d: negative balance_after %d", i, after)
		}
		prev = after
		i++
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("AssertLedgerChain: rows: %v", err)
	}
}
