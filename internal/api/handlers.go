/**
 * @description
 * This file contains the HTTP handler functions for the card service.
 * Handlers parse incoming requests, call the service layer, and map the
 * typed error taxonomy onto HTTP statuses.
 */
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/Ghavvvo/pulpy/internal/app"
	"github.com/Ghavvvo/pulpy/internal/domain"
	"github.com/Ghavvvo/pulpy/pkg/whatsapp"
)

// Handler holds the application service and the pieces handlers need.
type Handler struct {
	service *app.Service
	tokens  *app.TokenManager
	support whatsapp.Support
}

// NewHandler creates a new Handler.
func NewHandler(service *app.Service, tokens *app.TokenManager, support whatsapp.Support) *Handler {
	return &Handler{service: service, tokens: tokens, support: support}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleSignup registers a new profile and logs it in.
func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Signup(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, result)
}

// handleLogin authenticates an email/password pair.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// handleMe returns the authenticated user's full bundle.
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	profileID, ok := GetProfileID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	bundle, err := h.service.Bundle(r.Context(), profileID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, bundle)
}

// handleUpdateProfile applies a partial profile update and responds with the
// refetched authoritative bundle.
func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	profileID, ok := GetProfileID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var patch domain.ProfilePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	bundle, err := h.service.UpdateProfile(r.Context(), profileID, patch)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, bundle)
}

type upgradeRequest struct {
	BillingCycle     domain.BillingCycle `json:"billing_cycle"`
	PaymentReference string              `json:"payment_reference"`
}

type upgradeResponse struct {
	Bundle      *domain.Bundle `json:"bundle"`
	WhatsAppURL string         `json:"whatsapp_url"`
}

// handleUpgrade moves the subscription to premium/pending and returns the
// messaging handoff link for the manual payment.
func (h *Handler) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	profileID, ok := GetProfileID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req upgradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	bundle, err := h.service.RequestUpgrade(r.Context(), profileID, req.PaymentReference, req.BillingCycle)
	if err != nil {
		h.writeError(w, err)
		return
	}

	plan := domain.Plans[domain.PlanPremium]
	handoff := h.support.PaymentURL(whatsapp.PaymentRequest{
		Reference:    bundle.Subscription.PaymentReference,
		PlanName:     plan.Name,
		BillingCycle: bundle.Subscription.BillingCycle,
		Amount:       plan.Price(bundle.Subscription.BillingCycle),
		UserName:     bundle.Profile.Name,
	})

	respondWithJSON(w, http.StatusOK, upgradeResponse{Bundle: bundle, WhatsAppURL: handoff})
}

// handlePublicProfile resolves a handle to its public projection. Works the
// same whether or not the viewer is authenticated.
func (h *Handler) handlePublicProfile(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")

	view, err := h.service.ResolvePublicProfile(r.Context(), handle)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

// handleDashboard is the route guard for /{handle}/dashboard. Unauthenticated
// visitors are redirected to the public profile with a login prompt and the
// intended destination; an authenticated user on someone else's dashboard is
// redirected to their own.
func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")

	profileID, ok := authenticatedProfileID(r, h.tokens)
	if !ok {
		dest := "/" + handle + "/dashboard"
		target := "/" + handle + "?login_prompt=true&next=" + url.QueryEscape(dest)
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	bundle, err := h.service.Bundle(r.Context(), profileID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if bundle.Profile.Handle != handle {
		http.Redirect(w, r, "/"+bundle.Profile.Handle, http.StatusFound)
		return
	}

	respondWithJSON(w, http.StatusOK, bundle)
}

// writeError maps the error taxonomy onto HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, domain.ErrDuplicateEmail), errors.Is(err, domain.ErrDuplicateHandle):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Profile not found")
	case errors.As(err, &ve):
		respondWithError(w, http.StatusBadRequest, ve.Error())
	case domain.IsStoreError(err):
		respondWithError(w, http.StatusBadGateway, "Temporary storage failure, please retry")
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON is a helper function to write JSON responses.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
