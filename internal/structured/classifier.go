package structured

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/BCVRaj/Emitrr/pkg/types"
)

// Classifier abstracts the local sentiment model so tests can supply a
// stub. The returned label follows the binary POSITIVE/NEGATIVE convention
// of sentence classifiers; score is the probability of that label.
type Classifier interface {
	ClassifySentiment(ctx context.Context, text string) (label string, score float64, err error)
}

// HTTPClassifier calls a local model server wrapping the sentiment
// classifier.
type HTTPClassifier struct {
	Endpoint string
	Client   *http.Client
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ClassifySentiment posts the text and returns the top label and score.
func (h *HTTPClassifier) ClassifySentiment(ctx context.Context, text string) (string, float64, error) {
	body, err := json.Marshal(classifyRequest{Text: text})
	if err != nil {
		return "", 0, fmt.Errorf("marshaling classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("creating classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("calling classifier: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", 0, fmt.Errorf("classifier returned %d: %s", resp.StatusCode, string(msg))
	}

	var parsed classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", 0, fmt.Errorf("decoding classifier response: %w", err)
	}
	return parsed.Label, parsed.Score, nil
}

// mapSentiment translates a binary classifier result into the medical
// sentiment taxonomy. Scores below both thresholds land on Neutral.
func mapSentiment(label string, score float64, cfg types.SentimentConfig) string {
	switch strings.ToUpper(label) {
	case "POSITIVE":
		if score >= cfg.PositiveThreshold {
			return "Reassured"
		}
	case "NEGATIVE":
		if score >= cfg.NegativeThreshold {
			return "Anxious"
		}
	}
	return defaultSentiment
}
