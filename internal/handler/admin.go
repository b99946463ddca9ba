package handler

import (
	"net/http"

	"github.com/Khim-khaos/CraftMastery-sub001/internal/configstore"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/domain"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/logger"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/permission"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/progression"
)

// AdminHandlers contains the administrative HTTP surface: points and
// experience overrides, force studies, tree editing, and permission
// management. Every request names an actor; the engine authorizes the actor,
// not the transport.
type AdminHandlers struct {
	service  progression.Service
	cfg      *configstore.Store
	resolver *permission.Resolver
}

// NewAdminHandlers creates new admin handlers
func NewAdminHandlers(service progression.Service, cfg *configstore.Store, resolver *permission.Resolver) *AdminHandlers {
	return &AdminHandlers{service: service, cfg: cfg, resolver: resolver}
}

// PointsRequest adjusts one currency balance for a player
type PointsRequest struct {
	Actor    string `json:"actor" validate:"required"`
	Player   string `json:"player" validate:"required"`
	Currency string `json:"currency" validate:"required"`
	Amount   int    `json:"amount"`
}

// HandleGrantPoints credits a currency
func (h *AdminHandlers) HandleGrantPoints() http.HandlerFunc {
	return h.pointsOp(func(r *http.Request, req PointsRequest) error {
		return h.service.GrantPoints(r.Context(), domain.PlayerID(req.Actor), domain.PlayerID(req.Player), domain.PointsType(req.Currency), req.Amount)
	})
}

// HandleTakePoints debits a currency
func (h *AdminHandlers) HandleTakePoints() http.HandlerFunc {
	return h.pointsOp(func(r *http.Request, req PointsRequest) error {
		return h.service.TakePoints(r.Context(), domain.PlayerID(req.Actor), domain.PlayerID(req.Player), domain.PointsType(req.Currency), req.Amount)
	})
}

// HandleSetPoints overwrites a currency balance
func (h *AdminHandlers) HandleSetPoints() http.HandlerFunc {
	return h.pointsOp(func(r *http.Request, req PointsRequest) error {
		return h.service.SetPoints(r.Context(), domain.PlayerID(req.Actor), domain.PlayerID(req.Player), domain.PointsType(req.Currency), req.Amount)
	})
}

func (h *AdminHandlers) pointsOp(op func(r *http.Request, req PointsRequest) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PointsRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if err := op(r, req); err != nil {
			logger.FromContext(r.Context()).Warn("Points operation failed", "error", err,
				"actor", req.Actor, "player", req.Player, "currency", req.Currency)
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgPointsApplied})
	}
}

// ForceStudyRequest bypasses structural and economic checks for one player
type ForceStudyRequest struct {
	Actor  string `json:"actor" validate:"required"`
	Player string `json:"player" validate:"required"`
	NodeID string `json:"node_id,omitempty"`
	TabID  string `json:"tab_id,omitempty"`
}

// HandleForceStudyNode unlocks a node without checks
func (h *AdminHandlers) HandleForceStudyNode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ForceStudyRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if req.NodeID == "" {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
			return
		}

		result, err := h.service.ForceStudyNode(r.Context(), domain.PlayerID(req.Actor), domain.PlayerID(req.Player), req.NodeID)
		if err != nil {
			logger.FromContext(r.Context()).Warn("Force study node failed", "error", err,
				"actor", req.Actor, "player", req.Player, "node", req.NodeID)
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, DataResponse{Message: MsgNodeStudiedSuccess, Data: result})
	}
}

// HandleForceStudyTab unlocks a tab without checks
func (h *AdminHandlers) HandleForceStudyTab() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ForceStudyRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if req.TabID == "" {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
			return
		}

		result, err := h.service.ForceStudyTab(r.Context(), domain.PlayerID(req.Actor), domain.PlayerID(req.Player), req.TabID)
		if err != nil {
			logger.FromContext(r.Context()).Warn("Force study tab failed", "error", err,
				"actor", req.Actor, "player", req.Player, "tab", req.TabID)
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, DataResponse{Message: MsgTabStudiedSuccess, Data: result})
	}
}

// PlayerTargetRequest names an actor and a target player
type PlayerTargetRequest struct {
	Actor  string `json:"actor" validate:"required"`
	Player string `json:"player" validate:"required"`
}

// HandleResetPlayer wipes a player back to a fresh state
func (h *AdminHandlers) HandleResetPlayer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlayerTargetRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		if err := h.service.ResetPlayer(r.Context(), domain.PlayerID(req.Actor), domain.PlayerID(req.Player)); err != nil {
			logger.FromContext(r.Context()).Warn("Reset player failed", "error", err,
				"actor", req.Actor, "player", req.Player)
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgPlayerResetSuccess})
	}
}

// SetExperienceRequest overwrites one experience category
type SetExperienceRequest struct {
	Actor  string  `json:"actor" validate:"required"`
	Player string  `json:"player" validate:"required"`
	Type   string  `json:"type" validate:"required"`
	Value  float64 `json:"value" validate:"gte=0"`
}

// HandleSetExperience overwrites experience without conversion
func (h *AdminHandlers) HandleSetExperience() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SetExperienceRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		err := h.service.SetExperience(r.Context(), domain.PlayerID(req.Actor), domain.PlayerID(req.Player), domain.ExperienceType(req.Type), req.Value)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgExperienceUpdated})
	}
}

// SetLevelRequest overwrites a player's level
type SetLevelRequest struct {
	Actor  string `json:"actor" validate:"required"`
	Player string `json:"player" validate:"required"`
	Level  int    `json:"level" validate:"required,gte=1"`
}

// HandleSetLevel overwrites the level without awards
func (h *AdminHandlers) HandleSetLevel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SetLevelRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		err := h.service.SetLevel(r.Context(), domain.PlayerID(req.Actor), domain.PlayerID(req.Player), req.Level)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgExperienceUpdated})
	}
}

// RateRequest hot-swaps a process-wide experience setting
type RateRequest struct {
	Actor string  `json:"actor" validate:"required"`
	Type  string  `json:"type" validate:"required"`
	Value float64 `json:"value" validate:"gte=0"`
}

// HandleSetMultiplier hot-swaps a category multiplier
func (h *AdminHandlers) HandleSetMultiplier() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RateRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		err := h.service.SetExperienceMultiplier(r.Context(), domain.PlayerID(req.Actor), domain.ExperienceType(req.Type), req.Value)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgExperienceUpdated})
	}
}

// HandleSetConversionRate hot-swaps a category conversion rate
func (h *AdminHandlers) HandleSetConversionRate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RateRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		err := h.service.SetConversionRate(r.Context(), domain.PlayerID(req.Actor), domain.ExperienceType(req.Type), req.Value)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgExperienceUpdated})
	}
}
