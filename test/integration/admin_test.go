//go:build integration

package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pickclub/platform/test/integration/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth_Open(t *testing.T) {
	env := testutil.NewTestEnv(t)
	resp := env.GET("/health")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdmin_CreateMember(t *testing.T) {
	env := testutil.NewTestEnv(t)

	resp := env.AuthPOST("/admin/members", map[string]string{"currency": "GBP"}, env.AdminToken())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var member struct {
		ID       uuid.UUID `json:"id"`
		Balance  int64     `json:"balance"`
		Currency string    `json:"currency"`
	}
	testutil.DecodeJSON(t, resp, &member)
	assert.NotEqual(t, uuid.Nil, member.ID)
	assert.Equal(t, int64(0), member.Balance)
	assert.Equal(t, "GBP", member.Currency)
}

func TestAdmin_CreateMemberDefaultsCurrency(t *testing.T) {
	env := testutil.NewTestEnv(t)

	resp := env.AuthPOST("/admin/members", map[string]string{}, env.AdminToken())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var member struct {
		Currency string `json:"currency"`
	}
	testutil.DecodeJSON(t, resp, &member)
	assert.Equal(t, "EUR", member.Currency)
}

func TestAdmin_CreateMemberEmitsEvent(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, memberID := env.CreateMember("EUR")

	var count int
	require.NoError(t, env.Pool.QueryRow(t.Context(),
		"SELECT count(*) FROM event_outbox WHERE event_type = 'club.member.created' AND aggregate_id = $1",
		memberID.String()).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestAdmin_CreateGame(t *testing.T) {
	env := testutil.NewTestEnv(t)

	body := map[string]interface{}{
		"name":              "Saturday Pick 5",
		"opens_at":          time.Now().Add(time.Hour).Format(time.RFC3339),
		"closes_at":         time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		"cost_per_board":    250,
		"numbers_per_board": 5,
		"max_number":        42,
		"tiers": []map[string]int{
			{"min_matches": 3, "tier": 1},
			{"min_matches": 4, "tier": 2},
			{"min_matches": 5, "tier": 3},
		},
		"prizes": []map[string]int{
			{"tier": 1, "amount": 500},
			{"tier": 2, "amount": 10000},
			{"tier": 3, "amount": 1000000},
		},
	}

	resp := env.AuthPOST("/admin/games", body, env.AdminToken())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var game struct {
		ID     uuid.UUID `json:"id"`
		Name   string    `json:"name"`
		Status string    `json:"status"`
	}
	testutil.DecodeJSON(t, resp, &game)
	assert.NotEqual(t, uuid.Nil, game.ID)
	assert.Equal(t, "Saturday Pick 5", game.Name)
	assert.Equal(t, "open", game.Status)
}

func TestAdmin_CreateGameRejectsBadConfig(t *testing.T) {
	env := testutil.NewTestEnv(t)

	base := func() map[string]interface{} {
		return map[string]interface{}{
			"name":              "Bad Game",
			"opens_at":          time.Now().Format(time.RFC3339),
			"closes_at":         time.Now().Add(time.Hour).Format(time.RFC3339),
			"cost_per_board":    250,
			"numbers_per_board": 5,
			"max_number":        42,
			"tiers":             []map[string]int{{"min_matches": 3, "tier": 1}},
			"prizes":            []map[string]int{{"tier": 1, "amount": 500}},
		}
	}

	for name, mutate := range map[string]func(map[string]interface{}){
		"window inverted":    func(b map[string]interface{}) { b["closes_at"] = b["opens_at"] },
		"zero cost":          func(b map[string]interface{}) { b["cost_per_board"] = 0 },
		"board too large":    func(b map[string]interface{}) { b["numbers_per_board"] = 50 },
		"zero board numbers": func(b map[string]interface{}) { b["numbers_per_board"] = 0 },
	} {
		t.Run(name, func(t *testing.T) {
			body := base()
			mutate(body)
			resp := env.AuthPOST("/admin/games", body, env.AdminToken())
			testutil.AssertStatus(t, resp, http.StatusBadRequest)
			testutil.AssertErrorCode(t, resp, "VALIDATION_ERROR")
		})
	}
}

func TestAdmin_RoutesRequireAdminRealm(t *testing.T) {
	env := testutil.NewTestEnv(t)
	memberToken, _ := env.CreateMember("EUR")

	paths := []string{
		"/admin/members",
		"/admin/games",
	}
	for _, path := range paths {
		noAuth := env.POST(path, map[string]string{}, "")
		noAuth.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, noAuth.StatusCode, "unauthenticated %s", path)

		memberAuth := env.POST(path, map[string]string{}, memberToken)
		memberAuth.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, memberAuth.StatusCode, "member token on %s", path)
	}
}
