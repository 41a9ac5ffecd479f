// Package rerank implements the Reranker (spec §4.G): it scores
// (query, document) pairs via an external cross-encoder, caches results,
// and degrades gracefully to similarity ordering on failure.
package rerank

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"legisrag/cache"
)

// Candidate is one (query, document) pair to be scored.
type Candidate struct {
	ID                string
	Content           string
	OriginalSimilarity float64
	RerankScore        float64
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model,omitempty"`
}

type rerankResponse struct {
	Results []struct {
		Index int     `json:"index"`
		Score float64 `json:"relevance_score"`
	} `json:"results"`
}

// Client calls the external cross-encoder reranker, grounded on
// llmclient.Client's retry/backoff HTTP shape (same pattern as embedclient).
type Client struct {
	host           string
	httpClient     *http.Client
	logger         *zap.Logger
	cache          *cache.TTLCache
	minRerankScore float64
	maxRetries     int
	retryDelay     time.Duration
}

// New builds a reranker client. ttl is the 1-hour reranker cache window
// (spec §4.G.1); minRerankScore is MIN_RERANK_SCORE (spec §4.G.2).
func New(host string, timeout time.Duration, maxRetries int, retryDelay time.Duration, ttl time.Duration, minRerankScore float64, logger *zap.Logger) (*Client, error) {
	c, err := cache.New(2048, ttl)
	if err != nil {
		return nil, err
	}
	return &Client{
		host:           host,
		httpClient:     &http.Client{Timeout: timeout},
		logger:         logger,
		cache:          c,
		minRerankScore: minRerankScore,
		maxRetries:     maxRetries,
		retryDelay:     retryDelay,
	}, nil
}

// Rerank reorders candidates by cross-encoder relevance, keeping at most
// topN, and drops entries scoring below MIN_RERANK_SCORE (spec §4.G.1,
// §4.G.2). modelVariant selects the language-preferred cross-encoder model
// (spec §4.J step 3); pass "" for the default.
func (c *Client) Rerank(ctx context.Context, query string, candidates []Candidate, topN int, modelVariant string) []Candidate {
	if len(candidates) == 0 {
		return nil
	}

	key := cacheKey(query, candidates, topN, modelVariant)
	if v, ok := c.cache.Get(key); ok {
		return v.([]Candidate)
	}

	scored, err := c.rerankRemote(ctx, query, candidates, modelVariant)
	if err != nil {
		if c.logger != nil {
			c.logger.Debug("reranker call failed, falling back to similarity order", zap.Error(err))
		}
		scored = fallbackToSimilarity(candidates)
	}

	filtered := scored[:0:0]
	for _, s := range scored {
		if s.RerankScore >= c.minRerankScore {
			filtered = append(filtered, s)
		}
	}
	if len(filtered) > topN {
		filtered = filtered[:topN]
	}

	c.cache.Set(key, filtered)
	return filtered
}

func fallbackToSimilarity(candidates []Candidate) []Candidate {
	out := append([]Candidate(nil), candidates...)
	for i := range out {
		out[i].RerankScore = out[i].OriginalSimilarity
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OriginalSimilarity > out[j].OriginalSimilarity
	})
	return out
}

func (c *Client) rerankRemote(ctx context.Context, query string, candidates []Candidate, modelVariant string) ([]Candidate, error) {
	docs := make([]string, len(candidates))
	for i, cand := range candidates {
		docs[i] = cand.Content
	}
	reqBody := rerankRequest{Query: query, Documents: docs, Model: modelVariant}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/rerank", strings.TrimRight(c.host, "/"))
	var resp *http.Response
	var lastErr error
	attempts := c.maxRetries
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
		if err != nil {
			return nil, fmt.Errorf("create rerank request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		r, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if r.StatusCode == http.StatusServiceUnavailable {
			io.Copy(io.Discard, r.Body)
			r.Body.Close()
			c.backoffSleep(ctx, attempt)
			continue
		}
		resp = r
		break
	}
	if resp == nil {
		return nil, fmt.Errorf("no response from reranker: %w", lastErr)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read rerank response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reranker status %s: %s", resp.Status, string(bodyBytes))
	}

	var parsed rerankResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal rerank response: %w", err)
	}

	out := append([]Candidate(nil), candidates...)
	for _, r := range parsed.Results {
		if r.Index < 0 || r.Index >= len(out) {
			continue
		}
		out[r.Index].RerankScore = r.Score
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RerankScore > out[j].RerankScore
	})
	return out, nil
}

func (c *Client) backoffSleep(ctx context.Context, attempt int) {
	base := c.retryDelay
	if base <= 0 {
		base = time.Second
	}
	d := base * time.Duration(1<<uint(attempt))
	const maxWait = 30 * time.Second
	if d > maxWait {
		d = maxWait
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// cacheKey hashes the query plus every candidate identifier plus topN, per
// spec §4.G.1.
func cacheKey(query string, candidates []Candidate, topN int, modelVariant string) string {
	h := sha1.New()
	h.Write([]byte(query))
	h.Write([]byte("|"))
	h.Write([]byte(modelVariant))
	h.Write([]byte("|"))
	h.Write([]byte(strconv.Itoa(topN)))
	for _, c := range candidates {
		h.Write([]byte("|"))
		h.Write([]byte(c.ID))
	}
	return hex.EncodeToString(h.Sum(nil))
}
