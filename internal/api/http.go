package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lextriage/lextriage/internal/guidance"
	"github.com/lextriage/lextriage/internal/ledger"
	"github.com/lextriage/lextriage/internal/storage"
	"github.com/lextriage/lextriage/internal/triage"
)

const maxRequestBodySize = 1 << 20 // 1MB

type ClassifyRequest struct {
	Query     string `json:"query"`
	Feedback  string `json:"feedback,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

type ClassifyResponse struct {
	ConsultationID string `json:"consultation_id"`
	triage.Result
	Guidance *GuidanceResponse `json:"guidance,omitempty"`
}

type GuidanceResponse struct {
	Domain string             `json:"domain"`
	Route  guidance.RouteInfo `json:"route"`
	Steps  []string           `json:"steps"`
}

type FeedbackRequest struct {
	ConsultationID string `json:"consultation_id,omitempty"`
	Query          string `json:"query,omitempty"`
	Domain         string `json:"domain,omitempty"`
	Feedback       string `json:"feedback"`
}

type StatsResponse struct {
	ledger.Stats
	TotalConsultations int            `json:"total_consultations"`
	DomainCounts       map[string]int `json:"domain_counts,omitempty"`
}

// AppDeps carries everything the HTTP handlers need. Logger defaults to
// slog.Default when nil.
type AppDeps struct {
	Triage   *triage.Service
	Store    *storage.Store
	Guide    *guidance.Guide
	Token    string
	PageSize int
	Logger   *slog.Logger
}

func NewAppHandler(deps AppDeps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.PageSize <= 0 {
		deps.PageSize = 20
	}

	r := chi.NewRouter()

	// Health stays unauthenticated so start/status probes work without the
	// bearer token.
	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/classify", handleClassify(deps))
		r.Post("/feedback", handleFeedback(deps))
		r.Get("/stats", handleStats(deps))
		r.Post("/reset", handleReset(deps))
		r.Get("/history", handleListHistory(deps))
		r.Get("/history/{id}", handleGetHistory(deps))
		r.Delete("/history/{id}", handleDeleteHistory(deps))
		r.Get("/domains", handleDomains(deps))
		r.Get("/guidance/{domain}", handleGuidance(deps))
		r.Get("/glossary", handleGlossary(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleClassify(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req ClassifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if strings.TrimSpace(req.Query) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "query is required")
			return
		}

		result := deps.Triage.ClassifyWithLearning(req.Query, req.Feedback, req.SessionID)

		// The history row is best-effort: a failed insert must not fail
		// the classification.
		c := storage.Consultation{
			ID:             uuid.New().String(),
			SessionID:      result.SessionID,
			CreatedAt:      result.Timestamp,
			Query:          req.Query,
			Domain:         result.Domain,
			Confidence:     result.Confidence,
			BaseDomain:     result.BaseDomain,
			BaseConfidence: result.BaseConfidence,
			Overrode:       result.Overrode,
		}
		if req.Feedback != "" {
			c.Feedback = req.Feedback
			c.Polarity = string(ledger.ClassifyFeedback(req.Feedback))
		}
		if err := deps.Store.SaveConsultation(c); err != nil {
			deps.Logger.Warn("recording consultation failed", "error", err)
		}

		resp := ClassifyResponse{
			ConsultationID: c.ID,
			Result:         result,
			Guidance: &GuidanceResponse{
				Domain: result.Domain,
				Route:  deps.Guide.Lookup(result.Domain),
				Steps:  deps.Guide.ProcessSteps(result.Domain),
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func handleFeedback(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req FeedbackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if strings.TrimSpace(req.Feedback) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "feedback is required")
			return
		}

		query, domain := req.Query, req.Domain
		if req.ConsultationID != "" {
			c, err := deps.Store.GetConsultation(req.ConsultationID)
			if errors.Is(err, storage.ErrNotFound) {
				httpError(w, http.StatusNotFound, "not_found", "consultation not found")
				return
			}
			if err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "failed to get consultation: %v", err)
				return
			}
			query, domain = c.Query, c.Domain
		}
		if query == "" || domain == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "either consultation_id or both query and domain are required")
			return
		}

		polarity := deps.Triage.SubmitFeedback(query, domain, req.Feedback)

		if req.ConsultationID != "" {
			if err := deps.Store.UpdateConsultationFeedback(req.ConsultationID, req.Feedback, string(polarity)); err != nil {
				deps.Logger.Warn("updating consultation feedback failed", "id", req.ConsultationID, "error", err)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":   "recorded",
			"polarity": string(polarity),
			"domain":   domain,
		})
	}
}

func handleStats(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatsResponse{Stats: deps.Triage.Stats()}

		total, err := deps.Store.CountConsultations()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to count consultations: %v", err)
			return
		}
		resp.TotalConsultations = total

		counts, err := deps.Store.DomainCounts()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to count domains: %v", err)
			return
		}
		resp.DomainCounts = counts

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func handleReset(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req struct {
			Confirm bool `json:"confirm"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if !req.Confirm {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reset is irreversible; pass \"confirm\": true")
			return
		}

		if err := deps.Triage.ResetLearning(); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to reset learning state: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "reset"})
	}
}

func handleListHistory(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", deps.PageSize, 100)
		offset := parseIntParam(r, "offset", 0, 0)

		consultations, err := deps.Store.ListConsultations(limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list consultations: %v", err)
			return
		}

		if consultations == nil {
			consultations = []storage.Consultation{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(consultations)
	}
}

func handleGetHistory(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		c, err := deps.Store.GetConsultation(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "consultation not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get consultation: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(c)
	}
}

func handleDeleteHistory(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := deps.Store.DeleteConsultation(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "consultation not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete consultation: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}

func handleDomains(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string][]string{"domains": deps.Triage.Domains()})
	}
}

func handleGuidance(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		domain := chi.URLParam(r, "domain")

		resp := GuidanceResponse{
			Domain: domain,
			Route:  deps.Guide.Lookup(domain),
			Steps:  deps.Guide.ProcessSteps(domain),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func handleGlossary(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		text := r.URL.Query().Get("text")
		if text == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "text query parameter is required")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"terms": deps.Guide.FindTerms(text)})
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
