package entity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/BCVRaj/Emitrr/pkg/types"
)

// HTTPLabeler calls a local model server that wraps the biomedical NER
// model and returns aggregated spans. The wire format follows the usual
// token-classification output: word, entity_group, score, start, end.
type HTTPLabeler struct {
	Endpoint string
	Client   *http.Client
}

// labelRequest is the request body sent to the model server.
type labelRequest struct {
	Text string `json:"text"`
}

// labelResponse is the model server's response.
type labelResponse struct {
	Entities []labeledSpan `json:"entities"`
}

// labeledSpan is one span in the model server's response.
type labeledSpan struct {
	Word        string  `json:"word"`
	EntityGroup string  `json:"entity_group"`
	Score       float64 `json:"score"`
	Start       int     `json:"start"`
	End         int     `json:"end"`
}

// LabelSpans posts the text to the model server and converts the response.
func (h *HTTPLabeler) LabelSpans(ctx context.Context, text string) ([]types.RawEntitySpan, error) {
	body, err := json.Marshal(labelRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling label request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating label request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling model server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("model server returned %d: %s", resp.StatusCode, string(msg))
	}

	var parsed labelResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding model server response: %w", err)
	}

	spans := make([]types.RawEntitySpan, 0, len(parsed.Entities))
	for _, e := range parsed.Entities {
		spans = append(spans, types.RawEntitySpan{
			Text:       e.Word,
			Label:      e.EntityGroup,
			Confidence: e.Score,
			Start:      e.Start,
			End:        e.End,
		})
	}
	return spans, nil
}
