package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"replygate/core"
	"replygate/models"
	"replygate/services"
)

// AdminHandler exposes the operational HTTP surface: pending reviews, review
// resolution, per-guild settings and usage accounting.
type AdminHandler struct {
	apiKey               string
	reviewsService       services.ReviewsService
	guildSettingsService services.GuildSettingsService
	usageCostService     services.UsageCostService
	replyTrackerService  services.ReplyTrackerService
}

func NewAdminHandler(
	apiKey string,
	reviewsService services.ReviewsService,
	guildSettingsService services.GuildSettingsService,
	usageCostService services.UsageCostService,
	replyTrackerService services.ReplyTrackerService,
) *AdminHandler {
	return &AdminHandler{
		apiKey:               apiKey,
		reviewsService:       reviewsService,
		guildSettingsService: guildSettingsService,
		usageCostService:     usageCostService,
		replyTrackerService:  replyTrackerService,
	}
}

// RegisterRoutes mounts the admin API under /api
func (h *AdminHandler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api").Subrouter()
	api.Use(h.requireAPIKey)

	api.HandleFunc("/reviews", h.handleListReviews).Methods(http.MethodGet)
	api.HandleFunc("/reviews/{id}/resolve", h.handleResolveReview).Methods(http.MethodPost)
	api.HandleFunc("/guilds/{guildID}/settings", h.handleGetGuildSettings).Methods(http.MethodGet)
	api.HandleFunc("/guilds/{guildID}/settings", h.handleUpsertGuildSettings).Methods(http.MethodPut)
	api.HandleFunc("/guilds/{guildID}/usage", h.handleGetGuildUsage).Methods(http.MethodGet)
	api.HandleFunc("/tracker/stats", h.handleGetTrackerStats).Methods(http.MethodGet)
}

func (h *AdminHandler) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		provided := r.Header.Get("X-Admin-Key")
		if h.apiKey == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(h.apiKey)) != 1 {
			respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *AdminHandler) handleListReviews(w http.ResponseWriter, r *http.Request) {
	pending := h.reviewsService.ListPending()
	respondJSON(w, http.StatusOK, map[string]any{"reviews": pending})
}

type resolveReviewRequest struct {
	Action        string `json:"action"`
	ActingUserTag string `json:"acting_user_tag"`
}

func (h *AdminHandler) handleResolveReview(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !core.IsValidULID(id) {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid review id"})
		return
	}

	var req resolveReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.ActingUserTag == "" {
		req.ActingUserTag = "admin-api"
	}

	resolution := h.reviewsService.Resolve(r.Context(), id, models.ReviewAction(req.Action), req.ActingUserTag)

	status := http.StatusOK
	switch resolution.Status {
	case models.ReviewResolutionInvalidAction:
		status = http.StatusBadRequest
	case models.ReviewResolutionNoLongerPending:
		status = http.StatusConflict
	}
	respondJSON(w, status, resolution)
}

func (h *AdminHandler) handleGetGuildSettings(w http.ResponseWriter, r *http.Request) {
	guildID := mux.Vars(r)["guildID"]

	settings, err := h.guildSettingsService.GetEffectiveSettings(r.Context(), guildID)
	if err != nil {
		log.Printf("❌ Failed to get settings for guild %s: %v", guildID, err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get guild settings"})
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

func (h *AdminHandler) handleUpsertGuildSettings(w http.ResponseWriter, r *http.Request) {
	guildID := mux.Vars(r)["guildID"]

	var settings models.GuildSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	settings.GuildID = guildID

	updated, err := h.guildSettingsService.UpsertGuildSettings(r.Context(), &settings)
	if err != nil {
		log.Printf("❌ Failed to upsert settings for guild %s: %v", guildID, err)
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *AdminHandler) handleGetGuildUsage(w http.ResponseWriter, r *http.Request) {
	guildID := mux.Vars(r)["guildID"]

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	usage, err := h.usageCostService.GetRecentUsage(r.Context(), guildID, limit)
	if err != nil {
		log.Printf("❌ Failed to get usage for guild %s: %v", guildID, err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get guild usage"})
		return
	}

	total, err := h.usageCostService.GetTotalSpend(r.Context(), guildID)
	if err != nil {
		log.Printf("❌ Failed to get total spend for guild %s: %v", guildID, err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get guild usage"})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"usage": usage, "total_cost_usd": total})
}

func (h *AdminHandler) handleGetTrackerStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.replyTrackerService.Stats())
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("⚠️ Failed to encode JSON response: %v", err)
	}
}
