package draw

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pickclub/platform/internal/domain"
)

// DrawSource produces the winning numbers for a game: count distinct
// integers in [1, maxNumber].
type DrawSource interface {
	DrawNumbers(ctx context.Context, count, maxNumber int) ([]int32, error)
}

// RandomOrgSource draws true random numbers from RANDOM.ORG with CSPRNG
// fallback when the API key is unset or the service is unavailable.
type RandomOrgSource struct {
	apiKey string
	logger *slog.Logger
	client *http.Client
}

// NewRandomOrgSource creates a RANDOM.ORG draw source.
func NewRandomOrgSource(apiKey string, logger *slog.Logger) *RandomOrgSource {
	return &RandomOrgSource{
		apiKey: apiKey,
		logger: logger,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// DrawNumbers returns count distinct integers in [1, maxNumber], ascending.
func (s *RandomOrgSource) DrawNumbers(ctx context.Context, count, maxNumber int) ([]int32, error) {
	if count < 1 || maxNumber < count {
		return nil, fmt.Errorf("cannot draw %d distinct numbers from [1, %d]", count, maxNumber)
	}

	var numbers []int32
	var err error
	if s.apiKey == "" {
		s.logger.Debug("random.org api key not set, using CSPRNG fallback")
		numbers, err = csprngDistinct(count, maxNumber)
	} else {
		numbers, err = s.fetchFromAPI(ctx, count, maxNumber)
		if err != nil {
			s.logger.Warn("random.org unavailable, falling back to CSPRNG", "error", err)
			numbers, err = csprngDistinct(count, maxNumber)
		}
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	return numbers, nil
}

func (s *RandomOrgSource) fetchFromAPI(ctx context.Context, count, maxNumber int) ([]int32, error) {
	reqBody := map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  "generateIntegers",
		"params": map[string]interface{}{
			"apiKey": s.apiKey,
			"n":      count,
			"min":    1,
			"max":    maxNumber,
			// Distinct numbers, like a physical draw machine.
			"replacement": false,
		},
		"id": 1,
	}

	body, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://api.random.org/json-rpc/4/invoke", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api returned %d", resp.StatusCode)
	}

	var response struct {
		Result struct {
			Random struct {
				Data []int32 `json:"data"`
			} `json:"random"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if response.Error != nil {
		return nil, fmt.Errorf("api error: %s", response.Error.Message)
	}
	if len(response.Result.Random.Data) != count {
		return nil, fmt.Errorf("expected %d numbers, got %d", count, len(response.Result.Random.Data))
	}
	return response.Result.Random.Data, nil
}

// csprngDistinct samples count distinct integers from [1, maxNumber] with
// crypto/rand rejection sampling.
func csprngDistinct(count, maxNumber int) ([]int32, error) {
	rangeSize := big.NewInt(int64(maxNumber))
	seen := make(map[int32]bool, count)
	result := make([]int32, 0, count)

	for len(result) < count {
		r, err := rand.Int(rand.Reader, rangeSize)
		if err != nil {
			return nil, fmt.Errorf("csprng: %w", err)
		}
		n := int32(r.Int64()) + 1
		if seen[n] {
			continue
		}
		seen[n] = true
		result = append(result, n)
	}
	return result, nil
}

// Draw generates winning numbers from the engine's draw source and publishes
// them in one step. Same write-once rules as Publish.
func (e *Engine) Draw(ctx context.Context, gameID uuid.UUID) (*domain.WinningSequence, error) {
	game, err := e.games.FindByID(ctx, e.pool, gameID)
	if err != nil {
		return nil, domain.ErrInternal("load game", err)
	}
	if game == nil {
		return nil, domain.ErrNotFound("game", gameID.String())
	}

	numbers, err := e.source.DrawNumbers(ctx, game.NumbersPerBoard, game.MaxNumber)
	if err != nil {
		return nil, domain.ErrInternal("draw numbers", err)
	}
	return e.Publish(ctx, gameID, numbers)
}
