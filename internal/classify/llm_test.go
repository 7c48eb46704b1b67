package classify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func chatReply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func newTestLLM(url string) *LLMClassifier {
	return NewLLMClassifier(url, "test-model", "sk-test", 20, 5*time.Second, slog.Default())
}

func TestLLMClassifierParsesVerdicts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		chatReply(t, w, `[
			{"idx": 1, "exclude": false, "region": "middle-east"},
			{"idx": 2, "exclude": true, "region": "americas"},
			{"idx": 3, "exclude": false, "region": "ukraine-russia"}
		]`)
	}))
	defer srv.Close()

	cls, err := newTestLLM(srv.URL).ClassifyBatch(context.Background(), []string{
		"Will Israel strike Lebanon on February 10?",
		"Will Bitcoin reach $100k?",
		"Will Russia capture Pokrovsk by March 31?",
	})
	require.NoError(t, err)
	require.Len(t, cls, 3)

	require.True(t, cls[0].Geopolitical)
	require.Equal(t, "mideast", cls[0].Cluster)
	require.False(t, cls[1].Geopolitical)
	require.True(t, cls[2].Geopolitical)
	require.Equal(t, "ukraine", cls[2].Cluster)
}

func TestLLMClassifierStripsMarkdownFences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		chatReply(t, w, "```json\n[{\"idx\": 1, \"exclude\": false, \"region\": \"asia\"}]\n```")
	}))
	defer srv.Close()

	cls, err := newTestLLM(srv.URL).Classify(context.Background(), "Will China invade Taiwan?")
	require.NoError(t, err)
	require.True(t, cls.Geopolitical)
	require.Equal(t, "china", cls.Cluster)
}

func TestLLMClassifierFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	// The keyword fallback still classifies the batch.
	cls, err := newTestLLM(srv.URL).ClassifyBatch(context.Background(), []string{
		"Will Russia capture Kyiv by March?",
		"Taylor Swift new album?",
	})
	require.NoError(t, err)
	require.True(t, cls[0].Geopolitical)
	require.Equal(t, "ukraine", cls[0].Cluster)
	require.False(t, cls[1].Geopolitical)
}

func TestLLMClassifierFillsMissingIdx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Second market dropped by the model.
		chatReply(t, w, `[{"idx": 1, "exclude": true, "region": "other"}]`)
	}))
	defer srv.Close()

	cls, err := newTestLLM(srv.URL).ClassifyBatch(context.Background(), []string{
		"Will Bitcoin reach $100k?",
		"Will China invade Taiwan?",
	})
	require.NoError(t, err)
	require.False(t, cls[0].Geopolitical)
	// Gap filled by keyword classification.
	require.True(t, cls[1].Geopolitical)
	require.Equal(t, "china", cls[1].Cluster)
}

func TestParseVerdictsRejectsProse(t *testing.T) {
	_, err := parseVerdicts("I could not classify these markets.")
	require.Error(t, err)
}
