package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/pkg/errors"
)

func TestHuggingFaceGenerator(t *testing.T) {
	const prompt = "Price this phone"

	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr error
	}{
		{
			name:   "list response strips echoed prompt",
			status: http.StatusOK,
			body:   `[{"generated_text": "Price this phone {\"min\": 1}"}]`,
			want:   `{"min": 1}`,
		},
		{
			name:   "object response",
			status: http.StatusOK,
			body:   `{"generated_text": "answer"}`,
			want:   "answer",
		},
		{
			name:    "echo only is empty",
			status:  http.StatusOK,
			body:    `[{"generated_text": "Price this phone   "}]`,
			wantErr: errors.ErrEmptyResponse,
		},
		{
			name:    "non-2xx",
			status:  http.StatusServiceUnavailable,
			body:    `{"error": "Model is loading"}`,
			wantErr: errors.ErrGeneration,
		},
		{
			name:    "unexpected shape",
			status:  http.StatusOK,
			body:    `{"foo": "bar"}`,
			wantErr: errors.ErrGeneration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/models/test-model", r.URL.Path)
				assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

				var req hfRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, prompt, req.Inputs)
				assert.Equal(t, huggingFaceMaxNewTokens, req.Parameters.MaxNewTokens)

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			gen, err := NewHuggingFaceGenerator("secret", srv.URL+"/models/", "test-model", 0.1, 5*time.Second)
			require.NoError(t, err)

			got, err := gen.Generate(context.Background(), prompt)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.True(t, errors.Is(err, errors.ErrGeneration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
