// Package embedclient implements the Embedder Client (spec §4.C): it calls
// an external multilingual embedding model and caches results by SHA-1 of
// the input text for 24 hours.
package embedclient

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"legisrag/cache"
	"legisrag/legiserrors"
)

// Dims is the embedding vector's fixed dimensionality (spec §3.3).
const Dims = 1024

type embeddingRequest struct {
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
}

type embeddingResponse []struct {
	Embedding [][]float32 `json:"embedding"`
}

// Client requests dense embeddings for legislation text, grounded on
// llmclient.Client's retry/503-backoff HTTP shape.
type Client struct {
	host       string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
	cache      *cache.TTLCache

	maxRetries        int
	retryDelay        time.Duration
}

// New builds an embedder client. ttl is the embedding cache window,
// normally 24 hours (§4.C).
func New(host, model string, timeout time.Duration, maxRetries int, retryDelay time.Duration, ttl time.Duration, logger *zap.Logger) (*Client, error) {
	c, err := cache.New(8192, ttl)
	if err != nil {
		return nil, err
	}
	return &Client{
		host:       host,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		cache:      c,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}, nil
}

// Embed returns the 1024-dim embedding for text, serving from the SHA-1
// cache when available (spec §4.C).
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	key := hashText(text)
	if v, ok := c.cache.Get(key); ok {
		return v.([]float32), nil
	}

	vec, err := c.embedRemote(ctx, text)
	if err != nil {
		return nil, legiserrors.WrapErrorf(legiserrors.ErrUpstreamUnavailable, err, "embed text")
	}
	c.cache.Set(key, vec)
	return vec, nil
}

func hashText(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

func (c *Client) embedRemote(ctx context.Context, text string) ([]float32, error) {
	reqBody := embeddingRequest{Content: text, Model: c.model}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/embeddings", strings.TrimRight(c.host, "/"))

	var resp *http.Response
	var lastErr error
	attempts := c.maxRetries
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
		if err != nil {
			return nil, fmt.Errorf("create embedding request: %w", err)
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
			if c.logger != nil {
				c.logger.Warn("embedding model loading, retrying")
			}
			c.backoffSleep(ctx, attempt)
			continue
		}

		resp = r
		break
	}
	if resp == nil {
		return nil, fmt.Errorf("no response from embedding server: %w", lastErr)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding server status %s: %s", resp.Status, string(bodyBytes))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal embedding response: %w", err)
	}
	if len(parsed) == 0 || len(parsed[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedding response contained no vectors")
	}
	return parsed[0].Embedding[0], nil
}

// backoffSleep implements exponential backoff with jitter, grounded on
// llmclient.Client.backoffSleep.
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
	jitter := d / 10
	wait := d - jitter + time.Duration(time.Now().UnixNano()%int64(2*jitter+1))

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
