// Package api exposes the HTTP boundary for the link and sync operations.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"example.com/stravasync/internal/domain"
)

// IdentityResolver turns an Authorization header into a user id.
type IdentityResolver interface {
	ResolveBearer(header string) (string, error)
}

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service  *domain.Service
	identity IdentityResolver
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, identity IdentityResolver) *Handler {
	return &Handler{service: service, identity: identity}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/strava/link", h.link)
	mux.HandleFunc("/v1/strava/sync", h.sync)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// LinkRequest is the payload for POST /v1/strava/link.
type LinkRequest struct {
	Code string `json:"code"`
}

// LinkResponse confirms a successful link.
type LinkResponse struct {
	Connected bool  `json:"connected"`
	AthleteID int64 `json:"athlete_id"`
}

// SyncResponse reports reconciliation counts.
type SyncResponse struct {
	Synced int `json:"synced"`
	Total  int `json:"total"`
}

func (h *Handler) link(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		preflight(w)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "unsupported method")
		return
	}

	userID, err := h.authenticate(r)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	var req LinkRequest
	// An absent body falls through to the missing-code check below.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "unable to parse body")
		return
	}

	result, err := h.service.Link(r.Context(), userID, req.Code)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, LinkResponse{Connected: true, AthleteID: result.AthleteID})
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		preflight(w)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "unsupported method")
		return
	}

	userID, err := h.authenticate(r)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	result, err := h.service.Sync(r.Context(), userID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SyncResponse{Synced: result.Synced, Total: result.Total})
}

// authenticate resolves the caller before any provider or store work, folding
// identity failures into the shared taxonomy.
func (h *Handler) authenticate(r *http.Request) (string, error) {
	userID, err := h.identity.ResolveBearer(r.Header.Get("Authorization"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	return userID, nil
}

// statusFor maps the failure taxonomy to HTTP statuses. This is the only
// place errors become responses; unrecognised faults pass through as 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrNotConnected),
		errors.Is(err, domain.ErrProviderRejected):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrProviderUnavailable),
		errors.Is(err, domain.ErrProviderContract):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrPersistence):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// setCORSHeaders applies the fixed permissive cross-origin headers to every
// response from these endpoints.
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, X-Api-Key, Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
}

// preflight answers OPTIONS uniformly with 200 and a plain-text body,
// bypassing authentication.
func preflight(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"error": detail})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
