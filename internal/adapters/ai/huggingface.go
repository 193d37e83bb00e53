package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"marketplace/pkg/errors"
	"marketplace/pkg/logger"
)

const huggingFaceMaxNewTokens = 1024

// HuggingFaceGenerator calls the Hugging Face text-generation inference API
type HuggingFaceGenerator struct {
	apiKey      string
	endpoint    string
	temperature float64
	httpClient  *http.Client
	log         *logger.Logger
}

// NewHuggingFaceGenerator creates a generator for model served under baseURL
func NewHuggingFaceGenerator(apiKey, baseURL, model string, temperature float64, timeout time.Duration) (*HuggingFaceGenerator, error) {
	if apiKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "huggingface API key is required")
	}

	return &HuggingFaceGenerator{
		apiKey:      apiKey,
		endpoint:    strings.TrimRight(baseURL, "/") + "/" + model,
		temperature: temperature,
		httpClient:  &http.Client{Timeout: timeout},
		log:         logger.Get().With("component", "huggingface_generator", "model", model),
	}, nil
}

func (g *HuggingFaceGenerator) Name() string { return ProviderHuggingFace.String() }

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	Temperature  float64 `json:"temperature"`
	MaxNewTokens int     `json:"max_new_tokens"`
	DoSample     bool    `json:"do_sample"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}

// Generate posts prompt and returns the generated continuation with the echoed prompt removed
func (g *HuggingFaceGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(hfRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			Temperature:  g.temperature,
			MaxNewTokens: huggingFaceMaxNewTokens,
			DoSample:     true,
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "marshal huggingface request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "create huggingface request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", errors.NewGenerationError(g.Name(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.NewGenerationError(g.Name(), errors.Wrap(err, "read response"))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.log.Warnw("Hugging Face API error", "status", resp.StatusCode)
		return "", errors.NewGenerationError(g.Name(), fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(payload), 200)))
	}

	generated, err := decodeHFGeneration(payload)
	if err != nil {
		return "", errors.NewGenerationError(g.Name(), err)
	}

	text := strings.TrimSpace(strings.ReplaceAll(generated, prompt, ""))
	if text == "" {
		return "", errors.NewGenerationError(g.Name(), errors.ErrEmptyResponse)
	}

	return text, nil
}

// decodeHFGeneration accepts both the list and the single-object response shapes
func decodeHFGeneration(payload []byte) (string, error) {
	var list []hfGeneration
	if err := json.Unmarshal(payload, &list); err == nil {
		if len(list) == 0 {
			return "", errors.ErrEmptyResponse
		}
		return list[0].GeneratedText, nil
	}

	var single map[string]json.RawMessage
	if err := json.Unmarshal(payload, &single); err != nil {
		return "", errors.Wrap(err, "unexpected response format")
	}
	raw, ok := single["generated_text"]
	if !ok {
		return "", errors.New("unexpected response format")
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", errors.Wrap(err, "unexpected response format")
	}
	return text, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
