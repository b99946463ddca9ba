package handler

import (
	"net/http"

	"github.com/Khim-khaos/CraftMastery-sub001/internal/configstore"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/domain"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/logger"
)

// Tree editing routes. Tab edits require manage_tabs, node edits require
// create_recipes, reload requires admin_settings.

// UpsertTabRequest adds or replaces one tab definition
type UpsertTabRequest struct {
	Actor string                   `json:"actor" validate:"required"`
	Tab   configstore.TabDefinition `json:"tab" validate:"required"`
}

// HandleUpsertTab adds or replaces a tab definition
func (h *AdminHandlers) HandleUpsertTab() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpsertTabRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if err := h.resolver.Require(domain.PlayerID(req.Actor), domain.PermManageTabs); err != nil {
			respondServiceError(w, err)
			return
		}

		if err := h.cfg.UpsertTab(r.Context(), req.Tab); err != nil {
			logger.FromContext(r.Context()).Warn("Upsert tab failed", "error", err, "tab", req.Tab.ID)
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgTreeUpdatedSuccess})
	}
}

// RemoveTabRequest removes one tab, cascading its nodes to the default tab
type RemoveTabRequest struct {
	Actor string `json:"actor" validate:"required"`
	TabID string `json:"tab_id" validate:"required"`
}

// HandleRemoveTab removes a tab with cascade
func (h *AdminHandlers) HandleRemoveTab() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RemoveTabRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if err := h.resolver.Require(domain.PlayerID(req.Actor), domain.PermManageTabs); err != nil {
			respondServiceError(w, err)
			return
		}

		if err := h.cfg.RemoveTab(r.Context(), req.TabID); err != nil {
			logger.FromContext(r.Context()).Warn("Remove tab failed", "error", err, "tab", req.TabID)
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgTreeUpdatedSuccess})
	}
}

// UpsertNodeRequest adds or replaces one node definition
type UpsertNodeRequest struct {
	Actor string                     `json:"actor" validate:"required"`
	Node  configstore.NodeDefinition `json:"node" validate:"required"`
}

// HandleUpsertNode adds or replaces a node definition
func (h *AdminHandlers) HandleUpsertNode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpsertNodeRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if err := h.resolver.Require(domain.PlayerID(req.Actor), domain.PermCreateRecipes); err != nil {
			respondServiceError(w, err)
			return
		}

		if err := h.cfg.UpsertNode(r.Context(), req.Node); err != nil {
			logger.FromContext(r.Context()).Warn("Upsert node failed", "error", err, "node", req.Node.ID)
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgTreeUpdatedSuccess})
	}
}

// RemoveNodeRequest removes one node, pruning references to it
type RemoveNodeRequest struct {
	Actor  string `json:"actor" validate:"required"`
	NodeID string `json:"node_id" validate:"required"`
}

// HandleRemoveNode removes a node and prunes references
func (h *AdminHandlers) HandleRemoveNode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RemoveNodeRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if err := h.resolver.Require(domain.PlayerID(req.Actor), domain.PermCreateRecipes); err != nil {
			respondServiceError(w, err)
			return
		}

		if err := h.cfg.RemoveNode(r.Context(), req.NodeID); err != nil {
			logger.FromContext(r.Context()).Warn("Remove node failed", "error", err, "node", req.NodeID)
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgTreeUpdatedSuccess})
	}
}

// RemoveLinkRequest drops one prerequisite edge
type RemoveLinkRequest struct {
	Actor        string `json:"actor" validate:"required"`
	NodeID       string `json:"node_id" validate:"required"`
	Prerequisite string `json:"prerequisite" validate:"required"`
}

// HandleRemoveLink drops one prerequisite edge between nodes
func (h *AdminHandlers) HandleRemoveLink() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RemoveLinkRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if err := h.resolver.Require(domain.PlayerID(req.Actor), domain.PermCreateRecipes); err != nil {
			respondServiceError(w, err)
			return
		}

		if err := h.cfg.RemoveLink(r.Context(), req.NodeID, req.Prerequisite); err != nil {
			logger.FromContext(r.Context()).Warn("Remove link failed", "error", err,
				"node", req.NodeID, "prerequisite", req.Prerequisite)
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgTreeUpdatedSuccess})
	}
}

// ActorRequest names only the acting player
type ActorRequest struct {
	Actor string `json:"actor" validate:"required"`
}

// HandleReloadTree re-reads the tree definition file
func (h *AdminHandlers) HandleReloadTree() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ActorRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if err := h.resolver.Require(domain.PlayerID(req.Actor), domain.PermAdminSettings); err != nil {
			respondServiceError(w, err)
			return
		}

		if err := h.cfg.Reload(r.Context()); err != nil {
			logger.FromContext(r.Context()).Error("Tree reload failed", "error", err)
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgTreeReloadedSuccess})
	}
}

// HandleGetTree returns the current tree definitions
func (h *AdminHandlers) HandleGetTree() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, DataResponse{Data: h.cfg.Definitions()})
	}
}
