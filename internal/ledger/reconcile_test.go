package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/pickclub/platform/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(delta, after int64) domain.Transaction {
	return domain.Transaction{ID: uuid.New(), Delta: delta, BalanceAfter: after}
}

func TestFoldDeltas(t *testing.T) {
	assert.Equal(t, int64(0), FoldDeltas(nil))

	entries := []domain.Transaction{
		entry(100, 100),
		entry(-30, 70),
		entry(-30, 40),
		entry(-30, 10),
	}
	assert.Equal(t, int64(10), FoldDeltas(entries))
}

func TestVerifyChain_Valid(t *testing.T) {
	entries := []domain.Transaction{
		entry(100, 100),
		entry(-30, 70),
		entry(50, 120),
	}
	require.NoError(t, VerifyChain(entries))
}

func TestVerifyChain_Empty(t *testing.T) {
	require.NoError(t, VerifyChain(nil))
}

func TestVerifyChain_BrokenSnapshot(t *testing.T) {
	entries := []domain.Transaction{
		entry(100, 100),
		entry(-30, 80), // should be 70
	}
	err := VerifyChain(entries)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry 1")
	assert.Contains(t, err.Error(), "want 70")
}

func TestVerifyChain_DetectsSkippedEntry(t *testing.T) {
	// Simulates a fold that lost an intermediate entry.
	entries := []domain.Transaction{
		entry(100, 100),
		entry(-30, 40), // the -30 entry between was dropped
	}
	assert.Error(t, VerifyChain(entries))
}
