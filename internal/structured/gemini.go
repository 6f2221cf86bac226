// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package structured

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/BCVRaj/Emitrr/internal/httputil"
	"github.com/BCVRaj/Emitrr/pkg/types"
)

// geminiAPIBase is the Generative Language API endpoint. Package-level var
// for test substitution.
var geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta"

// GeminiBackend calls the Gemini generateContent API. It implements
// Generator; one call turns one prompt into raw model text. Retry policy is
// not handled here: the extractor owns it, so backends stay single-shot and
// testable.
type GeminiBackend struct {
	Cfg    types.GenerativeConfig
	Client *http.Client
}

// geminiRequest is the generateContent request body.
type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
}

// geminiResponse is the generateContent response body.
type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Generate sends one prompt and returns the model's text. The call is
// bounded by the configured timeout; rate-limit responses are retried with
// backoff inside the HTTP layer.
func (g *GeminiBackend) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenConfig{
			Temperature:     g.Cfg.Temperature,
			MaxOutputTokens: g.Cfg.MaxTokens,
			TopP:            g.Cfg.TopP,
			TopK:            g.Cfg.TopK,
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling generate request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", geminiAPIBase, g.Cfg.Model)

	ctx, cancel := context.WithTimeout(ctx, g.Cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.Cfg.APIKey)

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, g.Cfg.MaxRetries)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &types.CapabilityError{Capability: "generative", Timeout: true, Err: err}
		}
		return "", &types.CapabilityError{Capability: "generative", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", &types.CapabilityError{
			Capability: "generative",
			Status:     resp.StatusCode,
			Err:        fmt.Errorf("gemini API returned %d: %s", resp.StatusCode, string(msg)),
		}
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &types.CapabilityError{Capability: "generative", Err: fmt.Errorf("decoding response: %w", err)}
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", &types.CapabilityError{Capability: "generative", Err: fmt.Errorf("empty candidate list")}
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
