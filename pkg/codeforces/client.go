// Package codeforces implements the Codeforces public API client used for
// profile synchronization. All fetchers return typed results with an explicit
// error so callers can tell "no data" apart from "call failed"; the sync
// orchestrator degrades both to a no-op for the affected category.
package codeforces

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the public Codeforces API endpoint.
	DefaultBaseURL = "https://codeforces.com/api"

	// contestHistoryCap bounds fetched contest history to the most recent entries.
	contestHistoryCap = 100

	// submissionFetchCount is how many recent submissions one sync inspects.
	submissionFetchCount = 1000
)

// Config contains configuration for the Codeforces client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is the Codeforces API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a Codeforces client with a timeout-bound HTTP transport.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "codeforces_client").Logger(),
	}
}

// FetchRating returns the current and max rating for a handle. A nil error
// with nil rating fields means the account exists but is unrated.
func (c *Client) FetchRating(ctx context.Context, handle string) (Rating, error) {
	var users []userInfoDTO
	if err := c.get(ctx, "user.info", url.Values{"handles": {handle}}, &users); err != nil {
		return Rating{}, err
	}

	if len(users) == 0 {
		return Rating{}, fmt.Errorf("user.info returned no entries for %q", handle)
	}

	return Rating{Current: users[0].Rating, Max: users[0].MaxRating}, nil
}

// FetchContestHistory returns the student's rated contests in upstream order,
// capped at the most recent entries.
func (c *Client) FetchContestHistory(ctx context.Context, handle string) ([]ContestResult, error) {
	var changes []ratingChangeDTO
	if err := c.get(ctx, "user.rating", url.Values{"handle": {handle}}, &changes); err != nil {
		return nil, err
	}

	if len(changes) > contestHistoryCap {
		changes = changes[len(changes)-contestHistoryCap:]
	}

	results := make([]ContestResult, 0, len(changes))
	for _, change := range changes {
		results = append(results, ContestResult{
			ContestID:    change.ContestID,
			ContestName:  change.ContestName,
			Rank:         change.Rank,
			RatingChange: change.NewRating - change.OldRating,
			NewRating:    change.NewRating,
			Date:         time.Unix(change.RatingUpdateTimeSeconds, 0).UTC(),
		})
	}

	return results, nil
}

// FetchSubmissions returns the student's recent submission events, accepted
// and otherwise, in no guaranteed order.
func (c *Client) FetchSubmissions(ctx context.Context, handle string) ([]Submission, error) {
	params := url.Values{
		"handle": {handle},
		"from":   {"1"},
		"count":  {fmt.Sprintf("%d", submissionFetchCount)},
	}

	var raw []submissionDTO
	if err := c.get(ctx, "user.status", params, &raw); err != nil {
		return nil, err
	}

	submissions := make([]Submission, 0, len(raw))
	for _, dto := range raw {
		submissions = append(submissions, Submission{
			ID:          dto.ID,
			ContestID:   dto.Problem.ContestID,
			Index:       dto.Problem.Index,
			ProblemName: dto.Problem.Name,
			Rating:      dto.Problem.Rating,
			Verdict:     dto.Verdict,
			CreatedAt:   time.Unix(dto.CreationTimeSeconds, 0).UTC(),
		})
	}

	return submissions, nil
}

type apiEnvelope struct {
	Status  string          `json:"status"`
	Comment string          `json:"comment"`
	Result  json.RawMessage `json:"result"`
}

func (c *Client) get(ctx context.Context, method string, params url.Values, out interface{}) error {
	fullURL := fmt.Sprintf("%s/%s?%s", c.baseURL, method, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug().Str("method", method).Int("status", resp.StatusCode).Msg("upstream returned non-200")
		return fmt.Errorf("%s failed with status %d", method, resp.StatusCode)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("parse %s response: %w", method, err)
	}

	if envelope.Status != "OK" {
		return fmt.Errorf("%s rejected by upstream: %s", method, envelope.Comment)
	}

	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("parse %s result: %w", method, err)
	}

	return nil
}
