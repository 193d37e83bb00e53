package api

import (
	"context"
	"encoding/json"
	"net/http"

	"marketplace/internal/agents/moderation"
	"marketplace/internal/agents/pricing"
	"marketplace/internal/services/marketplace"
	"marketplace/pkg/errors"
	"marketplace/pkg/logger"
)

// maxBodyBytes bounds request bodies, batches included
const maxBodyBytes = 1 << 20

// Service is the application layer the handlers call
type Service interface {
	SuggestPrice(ctx context.Context, req pricing.Request) pricing.Result
	ModerateMessage(ctx context.Context, req moderation.Request) (*moderation.Result, error)
	BatchSuggest(ctx context.Context, items []marketplace.PriceInput) marketplace.BatchResult[pricing.Result]
	BatchModerate(ctx context.Context, items []marketplace.ModerationInput) marketplace.BatchResult[moderation.Result]
	Statistics() marketplace.Stats
}

var _ Service = (*marketplace.Service)(nil)

// Handlers serves the agent endpoints
type Handlers struct {
	svc          Service
	maxBatchSize int
	log          *logger.Logger
}

// NewHandlers creates the agent endpoint handlers
func NewHandlers(svc Service, maxBatchSize int) *Handlers {
	return &Handlers{
		svc:          svc,
		maxBatchSize: maxBatchSize,
		log:          logger.Get().With("component", "http_api"),
	}
}

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Success           bool              `json:"success"`
	Error             string            `json:"error"`
	Field             string            `json:"field,omitempty"`
	ActionRecommended moderation.Action `json:"action_recommended,omitempty"`
	TraceID           string            `json:"trace_id,omitempty"`
}

type resultEnvelope[T any] struct {
	Success bool `json:"success"`
	Result  T    `json:"result"`
}

type batchEnvelope[T any] struct {
	Success bool `json:"success"`
	marketplace.BatchResult[T]
}

// Negotiate handles POST /negotiate
func (h *Handlers) Negotiate(w http.ResponseWriter, r *http.Request) {
	var in marketplace.PriceInput
	if !h.decode(w, r, &in) {
		return
	}

	req, err := in.Request()
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	result := h.svc.SuggestPrice(r.Context(), req)
	writeJSON(w, http.StatusOK, resultEnvelope[pricing.Result]{Success: true, Result: result})
}

// Moderate handles POST /moderate. A message the agent could not classify
// answers 502 with a review recommendation so the caller holds it.
func (h *Handlers) Moderate(w http.ResponseWriter, r *http.Request) {
	var in marketplace.ModerationInput
	if !h.decode(w, r, &in) {
		return
	}

	req, err := in.Request()
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	result, err := h.svc.ModerateMessage(r.Context(), req)
	if err != nil {
		if errors.Is(err, errors.ErrInvalidInput) {
			h.badRequest(w, r, err)
			return
		}
		writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:             "moderation unavailable: " + err.Error(),
			ActionRecommended: moderation.ActionReview,
			TraceID:           logger.TraceID(r.Context()),
		})
		return
	}

	writeJSON(w, http.StatusOK, resultEnvelope[*moderation.Result]{Success: true, Result: result})
}

// BatchNegotiate handles POST /batch/negotiate
func (h *Handlers) BatchNegotiate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Items []marketplace.PriceInput `json:"items"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	if body.Items == nil {
		h.badRequest(w, r, errors.NewValidationError("items", "missing or invalid items array", nil))
		return
	}
	if !h.checkBatchSize(w, r, "items", len(body.Items)) {
		return
	}

	out := h.svc.BatchSuggest(r.Context(), body.Items)
	writeJSON(w, http.StatusOK, batchEnvelope[pricing.Result]{Success: true, BatchResult: out})
}

// BatchModerate handles POST /batch/moderate
func (h *Handlers) BatchModerate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Messages []marketplace.ModerationInput `json:"messages"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	if body.Messages == nil {
		h.badRequest(w, r, errors.NewValidationError("messages", "missing or invalid messages array", nil))
		return
	}
	if !h.checkBatchSize(w, r, "messages", len(body.Messages)) {
		return
	}

	out := h.svc.BatchModerate(r.Context(), body.Messages)
	writeJSON(w, http.StatusOK, batchEnvelope[moderation.Result]{Success: true, BatchResult: out})
}

// Stats handles GET /stats
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Statistics())
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.badRequest(w, r, errors.NewValidationError("body", "invalid JSON: "+err.Error(), nil))
		return false
	}
	return true
}

func (h *Handlers) checkBatchSize(w http.ResponseWriter, r *http.Request, field string, n int) bool {
	if h.maxBatchSize > 0 && n > h.maxBatchSize {
		h.badRequest(w, r, errors.NewValidationError(field, "batch too large", n))
		return false
	}
	return true
}

func (h *Handlers) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{Error: err.Error(), TraceID: logger.TraceID(r.Context())}

	var verr *errors.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
	}

	h.log.Warnw("Rejected request", "path", r.URL.Path, "trace_id", resp.TraceID, "error", err)
	writeJSON(w, http.StatusBadRequest, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
