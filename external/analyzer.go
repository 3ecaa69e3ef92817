// Analyzer API client for the external text-analysis service.
//
// The analyzer is the engine's only boundary: it computes real
// embeddings and similarity scores upstream. When it is unreachable or
// answers with an error status the caller falls back to fully local
// computation — ErrUnavailable is a degraded-mode trigger, never a
// fatal condition.
//
// FIELD COMPATIBILITY: Older analyzer builds name the hierarchical
// block "sliding_window" and the semantic scores "word_similarity" /
// "sentence_similarity". Responses are remapped to canonical names
// from a finite alias list before decoding; the client never probes
// unknown response shapes.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ErrUnavailable signals that the analyzer could not serve the request
// and local computation should take over.
var ErrUnavailable = errors.New("analyzer unavailable")

const (
	// DefaultTimeout for analyzer calls.
	DefaultTimeout = 15 * time.Second

	// maxResponseSize prevents OOM on unexpectedly large responses (10MB).
	maxResponseSize = 10 * 1024 * 1024
)

// fieldAliases is the finite legacy → canonical rename list applied to
// responses before decoding.
var fieldAliases = [][2]string{
	{"sliding_window", "hierarchical"},
	{"semantic.word_similarity", "semantic.sliding_window_similarity"},
	{"semantic.sentence_similarity", "semantic.sbert_similarity"},
}

// Request is the analyzer request contract.
type Request struct {
	Text       string `json:"text"`
	MaxLength  int    `json:"max_length"`
	WindowSize int    `json:"window_size"`
}

// Metrics mirrors the analyzer's text measurement block.
type Metrics struct {
	Length        int `json:"length"`
	WordCount     int `json:"word_count"`
	SentenceCount int `json:"sentence_count"`
	TokenEstimate int `json:"token_estimate"`
}

// Pooling mirrors the analyzer's pooling score block.
type Pooling struct {
	MeanPooling      float64 `json:"mean_pooling"`
	AttentionPooling float64 `json:"attention_pooling"`
}

// Hierarchical mirrors the analyzer's hierarchical truncation block.
type Hierarchical struct {
	TruncatedText    string  `json:"truncated_text"`
	ReductionPercent int     `json:"reduction_percent"`
	Pooling          Pooling `json:"pooling_metrics"`
}

// Chunking mirrors the analyzer's chunking block.
type Chunking struct {
	Chunks           []string    `json:"chunks"`
	Embeddings       [][]float64 `json:"embeddings"`
	SummaryText      string      `json:"summary_text"`
	ReductionPercent int         `json:"reduction_percent"`
}

// Scores mirrors the analyzer's semantic score block.
type Scores struct {
	SlidingWindow float64 `json:"sliding_window_similarity"`
	SBERT         float64 `json:"sbert_similarity"`
}

// Response is the analyzer response after alias normalization.
type Response struct {
	Original     Metrics      `json:"original"`
	Hierarchical Hierarchical `json:"hierarchical"`
	Chunking     Chunking     `json:"chunking"`
	Semantic     Scores       `json:"semantic"`
}

// Client calls the analyzer service.
type Client struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient creates a client for the analyzer at endpoint. A zero
// timeout gets DefaultTimeout.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{},
		timeout:    timeout,
	}
}

// Analyze posts the request and decodes the normalized response. Every
// transport failure, non-2xx status, and malformed body comes back
// wrapping ErrUnavailable.
func (c *Client) Analyze(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	raw, err = normalizeAliases(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return &out, nil
}

// normalizeAliases remaps legacy field names to canonical ones. The
// canonical field always wins when both are present.
func normalizeAliases(raw []byte) ([]byte, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("invalid JSON body")
	}

	var err error
	for _, alias := range fieldAliases {
		legacy, canonical := alias[0], alias[1]
		v := gjson.GetBytes(raw, legacy)
		if !v.Exists() {
			continue
		}
		if !gjson.GetBytes(raw, canonical).Exists() {
			raw, err = sjson.SetRawBytes(raw, canonical, []byte(v.Raw))
			if err != nil {
				return nil, fmt.Errorf("remap %s: %v", legacy, err)
			}
		}
		raw, err = sjson.DeleteBytes(raw, legacy)
		if err != nil {
			return nil, fmt.Errorf("drop %s: %v", legacy, err)
		}
	}
	return raw, nil
}
