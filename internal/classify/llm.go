package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geostrat/paperbot/internal/domain"
)

const systemPrompt = `You are a geopolitical market classifier for a prediction-market trading bot.

The bot bets NO on geopolitical markets, exploiting salience bias: the public overestimates the probability of dramatic events.

For each market, decide:
- exclude=false (trade it): wars, strikes, invasions, territorial control, nuclear tests, terrorism, regime change, coups, ceasefires, sanctions, tariffs, treaty crises, border clashes.
- exclude=true (skip it): sports, crypto, entertainment, science, finance, word-mention bets, meme markets, pure domestic politics, elections and polls.

Also assign region: "ukraine-russia", "middle-east", "asia", "americas", "europe", or "other".

Return ONLY a JSON array, no markdown:
[{"idx": 1, "exclude": false, "region": "middle-east"}, {"idx": 2, "exclude": true, "region": "americas"}]

Always include idx matching the market number.`

// regionToCluster maps the LLM's region vocabulary onto the cluster
// labels used for exposure caps.
var regionToCluster = map[string]string{
	"ukraine-russia": "ukraine",
	"middle-east":    "mideast",
	"asia":           "china",
	"americas":       "other",
	"europe":         "other",
	"other":          "other",
}

// LLMClassifier classifies market questions in batches through an
// OpenAI-compatible chat completions endpoint. Transport or parse
// failures fall back to the keyword classifier rather than failing the
// run.
type LLMClassifier struct {
	endpoint  string
	model     string
	apiKey    string
	batchSize int
	client    *http.Client
	fallback  *KeywordClassifier
	logger    *slog.Logger
}

// NewLLMClassifier creates a batch LLM classifier.
func NewLLMClassifier(endpoint, model, apiKey string, batchSize int, timeout time.Duration, logger *slog.Logger) *LLMClassifier {
	if batchSize < 1 {
		batchSize = 20
	}
	return &LLMClassifier{
		endpoint:  endpoint,
		model:     model,
		apiKey:    apiKey,
		batchSize: batchSize,
		client:    &http.Client{Timeout: timeout},
		fallback:  NewKeywordClassifier(),
		logger:    logger.With(slog.String("component", "llm_classifier")),
	}
}

// Classify classifies a single question.
func (l *LLMClassifier) Classify(ctx context.Context, question string) (domain.Classification, error) {
	out, err := l.ClassifyBatch(ctx, []string{question})
	if err != nil {
		return domain.Classification{}, err
	}
	return out[0], nil
}

// ClassifyBatch classifies all questions, splitting the work into
// batches of the configured size. A failed batch degrades to keyword
// classification for that batch only.
func (l *LLMClassifier) ClassifyBatch(ctx context.Context, questions []string) ([]domain.Classification, error) {
	out := make([]domain.Classification, 0, len(questions))
	for start := 0; start < len(questions); start += l.batchSize {
		end := start + l.batchSize
		if end > len(questions) {
			end = len(questions)
		}
		batch := questions[start:end]

		cls, err := l.classifyOnce(ctx, batch)
		if err != nil {
			l.logger.Warn("llm batch failed, using keyword fallback",
				slog.Int("batch_size", len(batch)),
				slog.String("error", err.Error()))
			cls, _ = l.fallback.ClassifyBatch(ctx, batch)
		}
		out = append(out, cls...)
	}
	return out, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type verdict struct {
	Idx     int    `json:"idx"`
	Exclude bool   `json:"exclude"`
	Region  string `json:"region"`
}

func (l *LLMClassifier) classifyOnce(ctx context.Context, questions []string) ([]domain.Classification, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Classify these %d markets:\n\n", len(questions))
	for i, q := range questions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, q)
	}

	reqBody, err := json.Marshal(chatRequest{
		Model: l.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: sb.String()},
		},
		Temperature: 0,
		MaxTokens:   len(questions) * 60,
	})
	if err != nil {
		return nil, fmt.Errorf("classify: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("classify: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+l.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classify: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("classify: status %d: %s", resp.StatusCode, string(body))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("classify: decode response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("classify: empty choices")
	}

	verdicts, err := parseVerdicts(cr.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	byIdx := make(map[int]verdict, len(verdicts))
	for _, v := range verdicts {
		byIdx[v.Idx] = v
	}

	out := make([]domain.Classification, len(questions))
	for i := range questions {
		v, ok := byIdx[i+1]
		if !ok {
			// Missing idx: the model dropped an item. Treat as tradable
			// with keyword clustering so one gap does not poison the batch.
			out[i] = classifyText(questions[i])
			continue
		}
		if v.Exclude {
			out[i] = domain.Classification{Cluster: "other"}
			continue
		}
		cluster, ok := regionToCluster[v.Region]
		if !ok {
			cluster = "other"
		}
		out[i] = domain.Classification{Geopolitical: true, Cluster: cluster}
	}
	return out, nil
}

// parseVerdicts extracts the JSON array from the model output,
// tolerating markdown fences.
func parseVerdicts(content string) ([]verdict, error) {
	text := strings.TrimSpace(content)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimPrefix(text, "json")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	var out []verdict
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("classify: parse verdicts: %w", err)
	}
	return out, nil
}

// Compile-time interface check.
var _ domain.Classifier = (*LLMClassifier)(nil)
