package external_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compresr/truncation-engine/external"
)

const canonicalBody = `{
	"original": {"length": 55, "word_count": 10, "sentence_count": 5, "token_estimate": 10},
	"hierarchical": {
		"truncated_text": "Alpha one....",
		"reduction_percent": 76,
		"pooling_metrics": {"mean_pooling": 0.61, "attention_pooling": 0.79}
	},
	"chunking": {
		"chunks": ["Alpha one.", "Beta two."],
		"embeddings": [[0.1, 0.2], [0.3, 0.4]],
		"summary_text": "Alpha one. Beta two.",
		"reduction_percent": 64
	},
	"semantic": {"sliding_window_similarity": 0.71, "sbert_similarity": 0.88}
}`

// legacyBody is the same analysis as emitted by older analyzer builds:
// "sliding_window" for the hierarchical block, "word_similarity" and
// "sentence_similarity" for the semantic scores.
const legacyBody = `{
	"original": {"length": 55, "word_count": 10, "sentence_count": 5, "token_estimate": 10},
	"sliding_window": {
		"truncated_text": "Alpha one....",
		"reduction_percent": 76,
		"pooling_metrics": {"mean_pooling": 0.61, "attention_pooling": 0.79}
	},
	"chunking": {
		"chunks": ["Alpha one.", "Beta two."],
		"embeddings": [[0.1, 0.2], [0.3, 0.4]],
		"summary_text": "Alpha one. Beta two.",
		"reduction_percent": 64
	},
	"semantic": {"word_similarity": 0.71, "sentence_similarity": 0.88}
}`

func analyzerServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req external.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.Text)

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func testRequest() external.Request {
	return external.Request{Text: "Alpha one. Beta two.", MaxLength: 40, WindowSize: 5}
}

// =============================================================================
// ANALYZE TESTS
// =============================================================================

func TestClient_Analyze_CanonicalResponse(t *testing.T) {
	srv := analyzerServer(t, http.StatusOK, canonicalBody)
	defer srv.Close()

	client := external.NewClient(srv.URL, time.Second)
	resp, err := client.Analyze(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, 55, resp.Original.Length)
	assert.Equal(t, "Alpha one....", resp.Hierarchical.TruncatedText)
	assert.Equal(t, 76, resp.Hierarchical.ReductionPercent)
	assert.Equal(t, 0.79, resp.Hierarchical.Pooling.AttentionPooling)
	assert.Equal(t, []string{"Alpha one.", "Beta two."}, resp.Chunking.Chunks)
	assert.Equal(t, 0.71, resp.Semantic.SlidingWindow)
	assert.Equal(t, 0.88, resp.Semantic.SBERT)
}

func TestClient_Analyze_LegacyFieldsRemapped(t *testing.T) {
	srv := analyzerServer(t, http.StatusOK, legacyBody)
	defer srv.Close()

	client := external.NewClient(srv.URL, time.Second)
	resp, err := client.Analyze(context.Background(), testRequest())
	require.NoError(t, err)

	// Legacy and canonical responses decode identically.
	assert.Equal(t, "Alpha one....", resp.Hierarchical.TruncatedText)
	assert.Equal(t, 0.61, resp.Hierarchical.Pooling.MeanPooling)
	assert.Equal(t, 0.71, resp.Semantic.SlidingWindow)
	assert.Equal(t, 0.88, resp.Semantic.SBERT)
}

func TestClient_Analyze_CanonicalWinsOverLegacy(t *testing.T) {
	body := `{
		"hierarchical": {"truncated_text": "canonical", "reduction_percent": 1},
		"sliding_window": {"truncated_text": "legacy", "reduction_percent": 2}
	}`
	srv := analyzerServer(t, http.StatusOK, body)
	defer srv.Close()

	client := external.NewClient(srv.URL, time.Second)
	resp, err := client.Analyze(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, "canonical", resp.Hierarchical.TruncatedText)
}

// =============================================================================
// FAILURE MODE TESTS
// =============================================================================

func TestClient_Analyze_ErrorStatus(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusInternalServerError, http.StatusBadGateway} {
		srv := analyzerServer(t, status, `{"error": "boom"}`)

		client := external.NewClient(srv.URL, time.Second)
		_, err := client.Analyze(context.Background(), testRequest())

		assert.ErrorIs(t, err, external.ErrUnavailable, "status %d", status)
		srv.Close()
	}
}

func TestClient_Analyze_MalformedBody(t *testing.T) {
	srv := analyzerServer(t, http.StatusOK, `{not json at all`)
	defer srv.Close()

	client := external.NewClient(srv.URL, time.Second)
	_, err := client.Analyze(context.Background(), testRequest())

	assert.ErrorIs(t, err, external.ErrUnavailable)
}

func TestClient_Analyze_ConnectionRefused(t *testing.T) {
	srv := analyzerServer(t, http.StatusOK, canonicalBody)
	srv.Close() // endpoint exists but nothing listens

	client := external.NewClient(srv.URL, time.Second)
	_, err := client.Analyze(context.Background(), testRequest())

	assert.ErrorIs(t, err, external.ErrUnavailable)
}

func TestClient_Analyze_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := external.NewClient(srv.URL, 20*time.Millisecond)
	_, err := client.Analyze(context.Background(), testRequest())

	assert.ErrorIs(t, err, external.ErrUnavailable)
}
