package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Khim-khaos/CraftMastery-sub001/internal/domain"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/logger"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/progression"
)

// ProgressionHandlers contains HTTP handlers for the progression engine
type ProgressionHandlers struct {
	service progression.Service
}

// NewProgressionHandlers creates new progression handlers
func NewProgressionHandlers(service progression.Service) *ProgressionHandlers {
	return &ProgressionHandlers{service: service}
}

// StudyRequest targets one node or tab for a player
type StudyRequest struct {
	Player string `json:"player" validate:"required"`
	NodeID string `json:"node_id,omitempty"`
	TabID  string `json:"tab_id,omitempty"`
}

// ExperienceReport is an inbound experience gain from the game adapter
type ExperienceReport struct {
	Player string  `json:"player" validate:"required"`
	Type   string  `json:"type" validate:"required"`
	Amount float64 `json:"amount" validate:"gte=0"`
}

// decodeRequest decodes and validates a JSON body, responding on failure.
func decodeRequest(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	log := logger.FromContext(r.Context())
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		log.Warn("Invalid JSON body", "error", err)
		respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
		return false
	}
	if err := GetValidator().ValidateStruct(req); err != nil {
		log.Warn("Request validation failed", "error", err)
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return false
	}
	return true
}

// HandleStudyNode unlocks a node for the player
func (h *ProgressionHandlers) HandleStudyNode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req StudyRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if req.NodeID == "" {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
			return
		}

		result, err := h.service.StudyNode(r.Context(), domain.PlayerID(req.Player), req.NodeID)
		if err != nil {
			log.Warn("Study node: service error", "error", err, "player", req.Player, "node", req.NodeID)
			respondServiceError(w, err)
			return
		}

		message := MsgNodeStudiedSuccess
		if result.AlreadyStudied {
			message = MsgAlreadyStudied
		}
		respondJSON(w, http.StatusOK, DataResponse{Message: message, Data: result})
	}
}

// HandleStudyTab unlocks a tab for the player
func (h *ProgressionHandlers) HandleStudyTab() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req StudyRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if req.TabID == "" {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
			return
		}

		result, err := h.service.StudyTab(r.Context(), domain.PlayerID(req.Player), req.TabID)
		if err != nil {
			log.Warn("Study tab: service error", "error", err, "player", req.Player, "tab", req.TabID)
			respondServiceError(w, err)
			return
		}

		message := MsgTabStudiedSuccess
		if result.AlreadyStudied {
			message = MsgAlreadyStudied
		}
		respondJSON(w, http.StatusOK, DataResponse{Message: message, Data: result})
	}
}

// HandleResetNode forgets a studied node
func (h *ProgressionHandlers) HandleResetNode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req StudyRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if req.NodeID == "" {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
			return
		}

		result, err := h.service.ResetNode(r.Context(), domain.PlayerID(req.Player), req.NodeID)
		if err != nil {
			log.Warn("Reset node: service error", "error", err, "player", req.Player, "node", req.NodeID)
			respondServiceError(w, err)
			return
		}

		message := MsgNodeResetSuccess
		if !result.Applied {
			message = MsgNothingToReset
		}
		respondJSON(w, http.StatusOK, DataResponse{Message: message, Data: result})
	}
}

// HandleResetTab forgets a studied tab and its nodes
func (h *ProgressionHandlers) HandleResetTab() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req StudyRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if req.TabID == "" {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
			return
		}

		result, err := h.service.ResetTab(r.Context(), domain.PlayerID(req.Player), req.TabID)
		if err != nil {
			log.Warn("Reset tab: service error", "error", err, "player", req.Player, "tab", req.TabID)
			respondServiceError(w, err)
			return
		}

		message := MsgTabResetSuccess
		if !result.Applied {
			message = MsgNothingToReset
		}
		respondJSON(w, http.StatusOK, DataResponse{Message: message, Data: result})
	}
}

// playerParam extracts the required player query parameter.
func playerParam(w http.ResponseWriter, r *http.Request) (domain.PlayerID, bool) {
	player := r.URL.Query().Get("player")
	if player == "" {
		respondError(w, http.StatusBadRequest, fmt.Sprintf(ErrMsgMissingQueryParam, "player"))
		return "", false
	}
	return domain.PlayerID(player), true
}

// HandleGetTabs returns every tab with its availability for the player
func (h *ProgressionHandlers) HandleGetTabs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, ok := playerParam(w, r)
		if !ok {
			return
		}

		tabs, err := h.service.AvailableTabs(r.Context(), player)
		if err != nil {
			logger.FromContext(r.Context()).Error("Get tabs: service error", "error", err, "player", player)
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, DataResponse{Data: tabs})
	}
}

// HandleGetNodes returns nodes with availability, optionally scoped to a tab
func (h *ProgressionHandlers) HandleGetNodes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, ok := playerParam(w, r)
		if !ok {
			return
		}
		tabID := r.URL.Query().Get("tab")

		nodes, err := h.service.AvailableNodes(r.Context(), player, tabID)
		if err != nil {
			logger.FromContext(r.Context()).Error("Get nodes: service error", "error", err, "player", player, "tab", tabID)
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, DataResponse{Data: nodes})
	}
}

// HandleGetPlayer returns the full player projection
func (h *ProgressionHandlers) HandleGetPlayer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, ok := playerParam(w, r)
		if !ok {
			return
		}

		snapshot, err := h.service.PlayerSnapshot(r.Context(), player)
		if err != nil {
			logger.FromContext(r.Context()).Error("Get player: service error", "error", err, "player", player)
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, DataResponse{Data: snapshot})
	}
}

// HandleReportExperience records a typed experience gain
func (h *ProgressionHandlers) HandleReportExperience() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req ExperienceReport
		if !decodeRequest(w, r, &req) {
			return
		}

		result, err := h.service.ReportExperience(r.Context(), domain.PlayerID(req.Player), domain.ExperienceType(req.Type), req.Amount)
		if err != nil {
			log.Warn("Report experience: service error", "error", err, "player", req.Player, "type", req.Type)
			respondServiceError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, DataResponse{Message: MsgExperienceRecorded, Data: result})
	}
}

// CraftCheckResponse answers the synchronous craft-permission question
type CraftCheckResponse struct {
	Player   string `json:"player"`
	RecipeID string `json:"recipe_id"`
	Allowed  bool   `json:"allowed"`
}

// HandleCheckCraft answers whether the player may use a recipe
func (h *ProgressionHandlers) HandleCheckCraft() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, ok := playerParam(w, r)
		if !ok {
			return
		}
		recipeID := r.URL.Query().Get("recipe")
		if recipeID == "" {
			respondError(w, http.StatusBadRequest, fmt.Sprintf(ErrMsgMissingQueryParam, "recipe"))
			return
		}

		allowed, err := h.service.CanUseRecipe(r.Context(), player, recipeID)
		if err != nil {
			logger.FromContext(r.Context()).Error("Craft check: service error", "error", err, "player", player, "recipe", recipeID)
			respondServiceError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, CraftCheckResponse{
			Player:   string(player),
			RecipeID: recipeID,
			Allowed:  allowed,
		})
	}
}
