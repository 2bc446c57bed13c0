//go:build integration

package integration

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/pickclub/platform/test/integration/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalance_NewMemberZero(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.CreateMember("EUR")

	resp := env.AuthGET("/credits/balance", token)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var bal struct {
		Balance  int64  `json:"balance"`
		Currency string `json:"currency"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&bal))
	assert.Equal(t, int64(0), bal.Balance)
	assert.Equal(t, "EUR", bal.Currency)
}

func TestBalance_RequiresAuth(t *testing.T) {
	env := testutil.NewTestEnv(t)
	resp := env.GET("/credits/balance")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBalance_RejectsAdminToken(t *testing.T) {
	env := testutil.NewTestEnv(t)
	resp := env.AuthGET("/credits/balance", env.AdminToken())
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCredit_IncreasesBalance(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, memberID := env.CreateMember("EUR")

	env.Credit(memberID, 5000)
	env.Credit(memberID, 2500)

	testutil.AssertBalance(t, env, memberID, 7500)
	assert.Equal(t, 2, testutil.CountTransactions(t, env, memberID))
	testutil.AssertLedgerChain(t, env, memberID)
}

func TestCredit_IdempotentReplay(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, memberID := env.CreateMember("EUR")

	body := map[string]interface{}{
		"amount":     5000,
		"request_id": "credit_replay_1",
		"reason":     "promo",
	}

	first := env.AuthPOST("/admin/members/"+memberID.String()+"/credit", body, env.AdminToken())
	first.Body.Close()
	assert.Equal(t, http.StatusCreated, first.StatusCode)

	second := env.AuthPOST("/admin/members/"+memberID.String()+"/credit", body, env.AdminToken())
	second.Body.Close()
	assert.Equal(t, http.StatusOK, second.StatusCode)

	testutil.AssertBalance(t, env, memberID, 5000)
	assert.Equal(t, 1, testutil.CountTransactions(t, env, memberID))
}

func TestCredit_RejectsNonPositiveAmount(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, memberID := env.CreateMember("EUR")

	resp := env.AuthPOST("/admin/members/"+memberID.String()+"/credit", map[string]interface{}{
		"amount":     -100,
		"request_id": "credit_neg_1",
	}, env.AdminToken())

	testutil.AssertStatus(t, resp, http.StatusBadRequest)
	testutil.AssertErrorCode(t, resp, "VALIDATION_ERROR")
}

func TestCredit_UnknownMember(t *testing.T) {
	env := testutil.NewTestEnv(t)

	resp := env.AuthPOST("/admin/members/"+testutil.FakeUUID()+"/credit", map[string]interface{}{
		"amount":     100,
		"request_id": "credit_missing_1",
	}, env.AdminToken())

	testutil.AssertStatus(t, resp, http.StatusNotFound)
	testutil.AssertErrorCode(t, resp, "NOT_FOUND")
}

func TestDebit_InsufficientCreditsLeavesLedgerIntact(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, memberID := env.CreateMember("EUR")
	env.Credit(memberID, 100)

	gameID := env.SeedGame(30, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))

	// Three boards at 30 fit in 100, the fourth must be rejected whole.
	env.Purchase(token, gameID, [][]int32{{1, 2, 3, 4, 5}}, "dep_1")
	env.Purchase(token, gameID, [][]int32{{6, 7, 8, 9, 10}}, "dep_2")
	env.Purchase(token, gameID, [][]int32{{11, 12, 13, 14, 15}}, "dep_3")

	resp := env.AuthPOST("/purchases", map[string]interface{}{
		"game_id":    gameID,
		"selections": [][]int32{{16, 17, 18, 19, 20}},
		"request_id": "dep_4",
	}, token)
	testutil.AssertStatus(t, resp, http.StatusBadRequest)
	testutil.AssertErrorCode(t, resp, "INSUFFICIENT_CREDITS")

	testutil.AssertBalance(t, env, memberID, 10)
	// 1 credit + 3 purchase debits, no entry for the rejected attempt.
	assert.Equal(t, 4, testutil.CountTransactions(t, env, memberID))
	testutil.AssertLedgerChain(t, env, memberID)
}

func TestLedger_ConcurrentPurchasesSerialize(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, memberID := env.CreateMember("EUR")
	env.Credit(memberID, 100)

	gameID := env.SeedGame(30, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))

	selections := [][]int32{
		{1, 2, 3, 4, 5},
		{6, 7, 8, 9, 10},
		{11, 12, 13, 14, 15},
		{16, 17, 18, 19, 20},
		{21, 22, 23, 24, 25},
	}

	var wg sync.WaitGroup
	statuses := make([]int, len(selections))
	for i, sel := range selections {
		wg.Add(1)
		go func(i int, sel []int32) {
			defer wg.Done()
			resp := env.AuthPOST("/purchases", map[string]interface{}{
				"game_id":    gameID,
				"selections": [][]int32{sel},
				"request_id": "conc_" + testutil.FakeUUID(),
			}, token)
			resp.Body.Close()
			statuses[i] = resp.StatusCode
		}(i, sel)
	}
	wg.Wait()

	succeeded := 0
	for _, status := range statuses {
		if status == http.StatusCreated {
			succeeded++
		}
	}
	// 100 credits buy exactly three boards at 30 each.
	assert.Equal(t, 3, succeeded)

	testutil.AssertBalance(t, env, memberID, 10)
	testutil.AssertLedgerChain(t, env, memberID)
}

func TestLedger_IsolatedBetweenMembers(t *testing.T) {
	env := testutil.NewTestEnv(t)
	tokenA, memberA := env.CreateMember("EUR")
	tokenB, _ := env.CreateMember("EUR")
	env.Credit(memberA, 7500)

	respA := env.AuthGET("/credits/balance", tokenA)
	var balA struct {
		Balance int64 `json:"balance"`
	}
	testutil.DecodeJSON(t, respA, &balA)
	assert.Equal(t, int64(7500), balA.Balance)

	respB := env.AuthGET("/credits/balance", tokenB)
	var balB struct {
		Balance int64 `json:"balance"`
	}
	testutil.DecodeJSON(t, respB, &balB)
	assert.Equal(t, int64(0), balB.Balance)
}

func TestReconcile_AllChecksPassAfterActivity(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, memberID := env.CreateMember("EUR")
	env.Credit(memberID, 10000)

	gameID := env.SeedGame(500, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	env.Purchase(token, gameID, [][]int32{{1, 2, 3, 4, 5}, {6, 7, 8, 9, 10}}, "recon_1")

	resp := env.AuthGET("/admin/members/"+memberID.String()+"/reconcile", env.AdminToken())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		MemberID         string `json:"member_id"`
		TransactionCount int    `json:"transaction_count"`
		CachedBalance    int64  `json:"cached_balance"`
		FoldedBalance    int64  `json:"folded_balance"`
		AllPassed        bool   `json:"all_passed"`
		Checks           []struct {
			Name   string `json:"name"`
			Passed bool   `json:"passed"`
		} `json:"checks"`
	}
	testutil.DecodeJSON(t, resp, &result)

	assert.True(t, result.AllPassed)
	assert.Equal(t, 2, result.TransactionCount)
	assert.Equal(t, int64(9000), result.CachedBalance)
	assert.Equal(t, result.CachedBalance, result.FoldedBalance)
	assert.Len(t, result.Checks, 4)
	names := make([]string, 0, len(result.Checks))
	for _, check := range result.Checks {
		assert.True(t, check.Passed, "check %s failed", check.Name)
		names = append(names, check.Name)
	}
	assert.Equal(t, []string{"fold_parity", "chain_consistent", "balance_non_negative", "sum_parity"}, names)
}

func TestReconcile_UnknownMember(t *testing.T) {
	env := testutil.NewTestEnv(t)
	resp := env.AuthGET("/admin/members/"+testutil.FakeUUID()+"/reconcile", env.AdminToken())
	testutil.AssertStatus(t, resp, http.StatusNotFound)
	testutil.AssertErrorCode(t, resp, "NOT_FOUND")
}

func TestLedger_OutboxRowPerEntry(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, memberID := env.CreateMember("EUR")
	env.Credit(memberID, 1000)
	env.Credit(memberID, 2000)

	var count int
	err := env.Pool.QueryRow(t.Context(),
		"SELECT count(*) FROM event_outbox WHERE event_type = 'club.ledger.transaction.posted' AND partition_key = $1",
		memberID.String()).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
