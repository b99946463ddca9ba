package handler

import (
	"net/http"

	"github.com/Khim-khaos/CraftMastery-sub001/internal/domain"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/logger"
)

// Permission management routes. All require manage_permissions on the actor.

func (h *AdminHandlers) requireManagePermissions(w http.ResponseWriter, actor string) bool {
	if err := h.resolver.Require(domain.PlayerID(actor), domain.PermManagePermissions); err != nil {
		respondServiceError(w, err)
		return false
	}
	return true
}

// SetRoleRequest assigns a role level to a player
type SetRoleRequest struct {
	Actor  string `json:"actor" validate:"required"`
	Player string `json:"player" validate:"required"`
	Role   string `json:"role" validate:"required,oneof=player operator admin"`
}

// HandleSetRole assigns a player's role level
func (h *AdminHandlers) HandleSetRole() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SetRoleRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if !h.requireManagePermissions(w, req.Actor) {
			return
		}

		h.resolver.SetRole(domain.PlayerID(req.Player), domain.ParseRoleLevel(req.Role))
		logger.FromContext(r.Context()).Info("Role assigned", "actor", req.Actor, "player", req.Player, "role", req.Role)
		respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgPermissionUpdated})
	}
}

// AssignGroupRequest places a player in a permission group
type AssignGroupRequest struct {
	Actor  string `json:"actor" validate:"required"`
	Player string `json:"player" validate:"required"`
	Group  string `json:"group"` // empty clears the membership
}

// HandleAssignGroup places a player in a group (empty group clears it)
func (h *AdminHandlers) HandleAssignGroup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AssignGroupRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if !h.requireManagePermissions(w, req.Actor) {
			return
		}

		h.resolver.AssignGroup(domain.PlayerID(req.Player), req.Group)
		respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgPermissionUpdated})
	}
}

// OverrideRequest sets one permission override for a player or group
type OverrideRequest struct {
	Actor  string `json:"actor" validate:"required"`
	Player string `json:"player,omitempty"`
	Group  string `json:"group,omitempty"`
	Key    string `json:"key" validate:"required"`
	Value  bool   `json:"value"`
}

// HandleSetPlayerOverride sets a per-player permission override
func (h *AdminHandlers) HandleSetPlayerOverride() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req OverrideRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if req.Player == "" {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
			return
		}
		if !h.requireManagePermissions(w, req.Actor) {
			return
		}

		if err := h.resolver.SetPlayerOverride(domain.PlayerID(req.Player), domain.PermissionKey(req.Key), req.Value); err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgPermissionUpdated})
	}
}

// HandleSetGroupOverride sets a per-group permission override
func (h *AdminHandlers) HandleSetGroupOverride() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req OverrideRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if req.Group == "" {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
			return
		}
		if !h.requireManagePermissions(w, req.Actor) {
			return
		}

		if err := h.resolver.SetGroupOverride(req.Group, domain.PermissionKey(req.Key), req.Value); err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgPermissionUpdated})
	}
}

// ClearOverridesRequest drops every override for a player or group
type ClearOverridesRequest struct {
	Actor  string `json:"actor" validate:"required"`
	Player string `json:"player,omitempty"`
	Group  string `json:"group,omitempty"`
}

// HandleClearOverrides drops all overrides for the named player or group
func (h *AdminHandlers) HandleClearOverrides() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ClearOverridesRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if req.Player == "" && req.Group == "" {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
			return
		}
		if !h.requireManagePermissions(w, req.Actor) {
			return
		}

		if req.Player != "" {
			h.resolver.ClearPlayerOverrides(domain.PlayerID(req.Player))
		}
		if req.Group != "" {
			h.resolver.ClearGroupOverrides(req.Group)
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgPermissionUpdated})
	}
}

// HandleGetPermissions returns a player's effective permission set
func (h *AdminHandlers) HandleGetPermissions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, ok := playerParam(w, r)
		if !ok {
			return
		}
		respondJSON(w, http.StatusOK, DataResponse{Data: h.resolver.Effective(player)})
	}
}
