//go:build integration

package integration

import (
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pickclub/platform/test/integration/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish_StoresSequenceAndClosesGame(t *testing.T) {
	env := testutil.NewTestEnv(t)
	gameID := env.SeedGame(500, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	env.ForceClose(gameID)

	resp := env.AuthPOST("/admin/games/"+gameID.String()+"/publish", map[string]interface{}{
		"numbers": []int32{3, 11, 22, 33, 42},
	}, env.AdminToken())

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var seq struct {
		GameID  uuid.UUID `json:"game_id"`
		Numbers []int32   `json:"numbers"`
	}
	testutil.DecodeJSON(t, resp, &seq)
	assert.Equal(t, gameID, seq.GameID)
	assert.Equal(t, []int32{3, 11, 22, 33, 42}, seq.Numbers)

	var status string
	require.NoError(t, env.Pool.QueryRow(t.Context(),
		"SELECT status FROM games WHERE id = $1", gameID).Scan(&status))
	assert.Equal(t, "closed", status)
}

func TestPublish_WriteOnce(t *testing.T) {
	env := testutil.NewTestEnv(t)
	gameID := env.SeedGame(500, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	env.ForceClose(gameID)

	first := env.AuthPOST("/admin/games/"+gameID.String()+"/publish", map[string]interface{}{
		"numbers": []int32{1, 2, 3, 4, 5},
	}, env.AdminToken())
	first.Body.Close()
	require.Equal(t, http.StatusCreated, first.StatusCode)

	second := env.AuthPOST("/admin/games/"+gameID.String()+"/publish", map[string]interface{}{
		"numbers": []int32{6, 7, 8, 9, 10},
	}, env.AdminToken())
	testutil.AssertStatus(t, second, http.StatusConflict)
	testutil.AssertErrorCode(t, second, "ALREADY_PUBLISHED")

	// The first sequence survives untouched.
	var numbers []int32
	require.NoError(t, env.Pool.QueryRow(t.Context(),
		"SELECT numbers FROM winning_sequences WHERE game_id = $1", gameID).Scan(&numbers))
	assert.Equal(t, []int32{1, 2, 3, 4, 5}, numbers)
}

func TestPublish_ConcurrentAttemptsSinglePublisher(t *testing.T) {
	env := testutil.NewTestEnv(t)
	gameID := env.SeedGame(500, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	env.ForceClose(gameID)

	var wg sync.WaitGroup
	statuses := make([]int, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp := env.AuthPOST("/admin/games/"+gameID.String()+"/publish", map[string]interface{}{
				"numbers": []int32{int32(i + 1), 10, 20, 30, 40},
			}, env.AdminToken())
			resp.Body.Close()
			statuses[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	sort.Ints(statuses)
	assert.Equal(t, []int{http.StatusCreated, http.StatusConflict, http.StatusConflict, http.StatusConflict}, statuses)

	var count int
	require.NoError(t, env.Pool.QueryRow(t.Context(),
		"SELECT count(*) FROM winning_sequences WHERE game_id = $1", gameID).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestPublish_GameStillOpen(t *testing.T) {
	env := testutil.NewTestEnv(t)
	gameID := env.SeedGame(500, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))

	resp := env.AuthPOST("/admin/games/"+gameID.String()+"/publish", map[string]interface{}{
		"numbers": []int32{1, 2, 3, 4, 5},
	}, env.AdminToken())
	testutil.AssertStatus(t, resp, http.StatusConflict)
	testutil.AssertErrorCode(t, resp, "GAME_STILL_OPEN")
}

func TestPublish_InvalidNumbers(t *testing.T) {
	env := testutil.NewTestEnv(t)
	gameID := env.SeedGame(500, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	env.ForceClose(gameID)

	for _, numbers := range [][]int32{
		{1, 2, 3, 4},
		{1, 2, 3, 4, 43},
		{1, 2, 3, 4, 4},
	} {
		resp := env.AuthPOST("/admin/games/"+gameID.String()+"/publish", map[string]interface{}{
			"numbers": numbers,
		}, env.AdminToken())
		testutil.AssertStatus(t, resp, http.StatusBadRequest)
		testutil.AssertErrorCode(t, resp, "VALIDATION_ERROR")
	}
}

func TestPublish_RequiresAdmin(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.CreateMember("EUR")
	gameID := env.SeedGame(500, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	env.ForceClose(gameID)

	resp := env.AuthPOST("/admin/games/"+gameID.String()+"/publish", map[string]interface{}{
		"numbers": []int32{1, 2, 3, 4, 5},
	}, token)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDraw_GeneratesAndPublishes(t *testing.T) {
	env := testutil.NewTestEnv(t)
	gameID := env.SeedGame(500, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	env.ForceClose(gameID)

	resp := env.AuthPOST("/admin/games/"+gameID.String()+"/draw", nil, env.AdminToken())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var seq struct {
		GameID  uuid.UUID `json:"game_id"`
		Numbers []int32   `json:"numbers"`
	}
	testutil.DecodeJSON(t, resp, &seq)
	assert.Equal(t, gameID, seq.GameID)
	require.Len(t, seq.Numbers, 5)
	seen := map[int32]bool{}
	for _, n := range seq.Numbers {
		assert.GreaterOrEqual(t, n, int32(1))
		assert.LessOrEqual(t, n, int32(42))
		assert.False(t, seen[n])
		seen[n] = true
	}

	// Drawing twice is still write-once.
	again := env.AuthPOST("/admin/games/"+gameID.String()+"/draw", nil, env.AdminToken())
	testutil.AssertStatus(t, again, http.StatusConflict)
	testutil.AssertErrorCode(t, again, "ALREADY_PUBLISHED")
}

func TestSettle_PaysWinners(t *testing.T) {
	env := testutil.NewTestEnv(t)
	winnerTok, winnerID := env.CreateMember("EUR")
	loserTok, loserID := env.CreateMember("EUR")
	env.Credit(winnerID, 10000)
	env.Credit(loserID, 10000)

	gameID := env.SeedGame(500, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))

	// Full match (tier 3, 1000000), 3 matches (tier 1, 500), and no prize.
	env.Purchase(winnerTok, gameID, [][]int32{
		{1, 2, 3, 4, 5},
		{1, 2, 3, 40, 41},
	}, "settle_winner")
	loserResult := env.Purchase(loserTok, gameID, [][]int32{{30, 31, 32, 33, 34}}, "settle_loser")

	env.ForceClose(gameID)
	pub := env.AuthPOST("/admin/games/"+gameID.String()+"/publish", map[string]interface{}{
		"numbers": []int32{1, 2, 3, 4, 5},
	}, env.AdminToken())
	pub.Body.Close()
	require.Equal(t, http.StatusCreated, pub.StatusCode)

	resp := env.AuthPOST("/admin/games/"+gameID.String()+"/settle", nil, env.AdminToken())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		GameID       uuid.UUID `json:"game_id"`
		BoardsScored int       `json:"boards_scored"`
		Winners      int       `json:"winners"`
		TotalPaid    int64     `json:"total_paid"`
	}
	testutil.DecodeJSON(t, resp, &result)
	assert.Equal(t, gameID, result.GameID)
	assert.Equal(t, 3, result.BoardsScored)
	assert.Equal(t, 2, result.Winners)
	assert.Equal(t, int64(1000500), result.TotalPaid)

	// 10000 - 1000 purchase + 1000000 + 500 payouts.
	testutil.AssertBalance(t, env, winnerID, 1009500)
	testutil.AssertBalance(t, env, loserID, 9500)
	testutil.AssertLedgerChain(t, env, winnerID)

	// All boards stamped, tiers recorded, game marked settled.
	var unsettled int
	require.NoError(t, env.Pool.QueryRow(t.Context(),
		"SELECT count(*) FROM boards WHERE game_id = $1 AND settled_at IS NULL", gameID).Scan(&unsettled))
	assert.Equal(t, 0, unsettled)

	var loserTier *int
	require.NoError(t, env.Pool.QueryRow(t.Context(),
		"SELECT tier FROM boards WHERE id = $1", loserResult.BoardIDs[0]).Scan(&loserTier))
	require.NotNil(t, loserTier)
	assert.Equal(t, 0, *loserTier)

	var status string
	require.NoError(t, env.Pool.QueryRow(t.Context(),
		"SELECT status FROM games WHERE id = $1", gameID).Scan(&status))
	assert.Equal(t, "settled", status)
}

func TestSettle_SecondRunConflictsWithoutDoublePay(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, memberID := env.CreateMember("EUR")
	env.Credit(memberID, 10000)

	gameID := env.SeedGame(500, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	env.Purchase(token, gameID, [][]int32{{1, 2, 3, 4, 5}}, "settle_twice")

	env.ForceClose(gameID)
	pub := env.AuthPOST("/admin/games/"+gameID.String()+"/publish", map[string]interface{}{
		"numbers": []int32{1, 2, 3, 4, 5},
	}, env.AdminToken())
	pub.Body.Close()

	first := env.AuthPOST("/admin/games/"+gameID.String()+"/settle", nil, env.AdminToken())
	first.Body.Close()
	require.Equal(t, http.StatusOK, first.StatusCode)

	second := env.AuthPOST("/admin/games/"+gameID.String()+"/settle", nil, env.AdminToken())
	testutil.AssertStatus(t, second, http.StatusConflict)
	testutil.AssertErrorCode(t, second, "CONFLICT")

	// Paid once: 10000 - 500 + 1000000.
	testutil.AssertBalance(t, env, memberID, 1009500)
	assert.Equal(t, 3, testutil.CountTransactions(t, env, memberID))
}

func TestSettle_RequiresPublishedSequence(t *testing.T) {
	env := testutil.NewTestEnv(t)
	gameID := env.SeedGame(500, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	env.ForceClose(gameID)

	resp := env.AuthPOST("/admin/games/"+gameID.String()+"/settle", nil, env.AdminToken())
	testutil.AssertStatus(t, resp, http.StatusConflict)
	testutil.AssertErrorCode(t, resp, "CONFLICT")
}

func TestSettle_UnknownGame(t *testing.T) {
	env := testutil.NewTestEnv(t)
	resp := env.AuthPOST("/admin/games/"+testutil.FakeUUID()+"/settle", nil, env.AdminToken())
	testutil.AssertStatus(t, resp, http.StatusNotFound)
	testutil.AssertErrorCode(t, resp, "NOT_FOUND")
}
