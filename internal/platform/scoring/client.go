package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/bankrecon-engine/internal/config"
	"github.com/bankrecon-engine/internal/engine"
)

// Client calls an external scoring service that rates bank-line to internal
// transaction pairings. The pipeline treats it as best effort; any failure
// here degrades the run to rule-based passes only.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient returns nil when no scoring URL is configured, which disables
// the suggestion pass entirely.
func NewClient(logger *slog.Logger, cfg *config.ScoringConfig) *Client {
	if cfg.URL == "" {
		logger.Info("Scoring service URL is not configured. Suggestion pass will be disabled.")
		return nil
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.URL,
		logger:     logger,
	}
}

type scoreRequest struct {
	Pairs []engine.CandidatePair `json:"pairs"`
}

type scoreResponse struct {
	Scores []engine.ScoredPair `json:"scores"`
}

// ScoreCandidatePairs implements engine.Scorer.
func (c *Client) ScoreCandidatePairs(ctx context.Context, pairs []engine.CandidatePair) ([]engine.ScoredPair, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(scoreRequest{Pairs: pairs})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scoring request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/score", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build scoring request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scoring service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("scoring service returned status %d: %s", resp.StatusCode, string(snippet))
	}

	var decoded scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode scoring response: %w", err)
	}

	scored := make([]engine.ScoredPair, 0, len(decoded.Scores))
	for _, s := range decoded.Scores {
		if s.Score < 0 || s.Score > 1 {
			c.logger.Warn("Scoring service returned out-of-range score, skipping pair",
				"bank_line_id", s.BankLineID,
				"internal_txn_id", s.InternalTxnID,
				"score", s.Score,
			)
			continue
		}
		scored = append(scored, s)
	}
	return scored, nil
}
