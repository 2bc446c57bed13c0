//go:build integration

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pickclub/platform/internal/auth"
	"github.com/pickclub/platform/internal/domain"
)

// GET performs an unauthenticated GET request.
func (env *TestEnv) GET(path string) *http.Response {
	env.t.Helper()
	resp, err := http.Get(env.Server.URL + path)
	if err != nil {
		env.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// POST performs a POST request with optional auth token.
func (env *TestEnv) POST(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("POST %s: encode: %v", path, err)
		}
	}
	req, err := http.NewRequest("POST", env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("POST %s: new request: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

// AuthGET performs an authenticated GET request.
func (env *TestEnv) AuthGET(path, token string) *http.Response {
	env.t.Helper()
	req, err := http.NewRequest("GET", env.Server.URL+path, nil)
	if err != nil {
		env.t.Fatalf("AuthGET %s: new request: %v", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("AuthGET %s: %v", path, err)
	}
	return resp
}

// AuthPOST performs an authenticated POST request.
func (env *TestEnv) AuthPOST(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	return env.POST(path, body, token)
}

// AdminToken generates a JWT for the admin realm.
func (env *TestEnv) AdminToken() string {
	env.t.Helper()
	token, err := env.JWTMgr.GenerateToken(auth.RealmAdmin, uuid.New(), "admin")
	if err != nil {
		env.t.Fatalf("AdminToken: %v", err)
	}
	return token
}

// MemberToken generates a JWT for an existing member.
func (env *TestEnv) MemberToken(memberID uuid.UUID) string {
	env.t.Helper()
	token, err := env.JWTMgr.GenerateToken(auth.RealmMember, memberID, "member")
	if err != nil {
		env.t.Fatalf("MemberToken: %v", err)
	}
	return token
}

// CreateMember creates a member via the admin API and returns a member
// token and the member ID.
func (env *TestEnv) CreateMember(currency string) (token string, memberID uuid.UUID) {
	env.t.Helper()
	body := map[string]string{}
	if currency != "" {
		body["currency"] = currency
	}

	resp := env.AuthPOST("/admin/members", body, env.AdminToken())
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		env.t.Fatalf("CreateMember: expected 201, got %d", resp.StatusCode)
	}

	var member domain.Member
	if err := json.NewDecoder(resp.Body).Decode(&member); err != nil {
		env.t.Fatalf("CreateMember: decode: %v", err)
	}
	return env.MemberToken(member.ID), member.ID
}

// Credit adds credits to a member via the admin API with a random request ID.
func (env *TestEnv) Credit(memberID uuid.UUID, amount int64) {
	env.t.Helper()
	resp := env.AuthPOST(
		fmt.Sprintf("/admin/members/%s/credit", memberID),
		map[string]interface{}{
			"amount":     amount,
			"request_id": fmt.Sprintf("test_credit_%s", uuid.New().String()[:8]),
			"reason":     "test seed",
		},
		env.AdminToken(),
	)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		env.t.Fatalf("Credit: expected 201, got %d", resp.StatusCode)
	}
}

// SeedGame inserts a pick-5-of-42 game directly into the database with
// three match tiers paying 500, 10000, and 1000000.
func (env *TestEnv) SeedGame(costPerBoard int64, opensAt, closesAt time.Time) uuid.UUID {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	gameID := uuid.New()
	_, err := env.Pool.Exec(ctx, `
		INSERT INTO games (id, name, opens_at, closes_at, cost_per_board, numbers_per_board, max_number, tiers, prizes, status)
		VALUES ($1, $2, $3, $4, $5, 5, 42,
			'[{"min_matches":3,"tier":1},{"min_matches":4,"tier":2},{"min_matches":5,"tier":3}]',
			'[{"tier":1,"amount":500},{"tier":2,"amount":10000},{"tier":3,"amount":1000000}]',
			'open')`,
		gameID, fmt.Sprintf("Test Game %s", gameID.String()[:8]), opensAt, closesAt, costPerBoard)
	if err != nil {
		env.t.Fatalf("SeedGame: %v", err)
	}
	return gameID
}

// ForceClose moves a game's closes_at into the past so it stops accepting
// purchases without waiting for wall-clock time.
func (env *TestEnv) ForceClose(gameID uuid.UUID) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tag, err := env.Pool.Exec(ctx,
		"UPDATE games SET closes_at = now() - interval '1 minute', opens_at = now() - interval '1 hour' WHERE id = $1",
		gameID)
	if err != nil {
		env.t.Fatalf("ForceClose: %v", err)
	}
	if tag.RowsAffected() != 1 {
		env.t.Fatalf("ForceClose: game %s not found", gameID)
	}
}

// Purchase buys boards for the given selections and returns the decoded result.
func (env *TestEnv) Purchase(token string, gameID uuid.UUID, selections [][]int32, requestID string) PurchaseResult {
	env.t.Helper()
	resp := env.AuthPOST("/purchases", map[string]interface{}{
		"game_id":    gameID,
		"selections": selections,
		"request_id": requestID,
	}, token)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		env.t.Fatalf("Purchase: expected 201 or 200, got %d", resp.StatusCode)
	}

	var result PurchaseResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		env.t.Fatalf("Purchase: decode: %v", err)
	}
	return result
}

// FakeUUID returns a random UUID string for test placeholders.
func FakeUUID() string {
	return uuid.New().String()
}

// PurchaseResult mirrors the purchase endpoint response body.
type PurchaseResult struct {
	PurchaseID       uuid.UUID   `json:"purchase_id"`
	BoardIDs         []uuid.UUID `json:"board_ids"`
	TotalDebited     int64       `json:"total_debited"`
	RemainingBalance int64       `json:"remaining_balance"`
}
