package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"kintree/application/queries"
	"kintree/application/services"
	"kintree/domain/core/entities"
	"kintree/pkg/common"
)

// TreeHandler serves the ego-centric tree projection.
type TreeHandler struct {
	projector *queries.TreeProjector
	sync      *services.SyncService
	logger    *zap.Logger
}

// NewTreeHandler creates a new tree handler.
func NewTreeHandler(projector *queries.TreeProjector, sync *services.SyncService, logger *zap.Logger) *TreeHandler {
	return &TreeHandler{
		projector: projector,
		sync:      sync,
		logger:    logger,
	}
}

// TreeResponse carries the layout projection. Ancestor generations are
// ordered oldest first, descendant generations youngest first. Empty slices
// mean the tree is not loaded yet, not an error.
type TreeResponse struct {
	EgoID       string               `json:"ego_id,omitempty"`
	Ancestors   [][]*entities.Person `json:"ancestors"`
	Descendants [][]*entities.Person `json:"descendants"`
}

// GetTree handles GET /tree.
func (h *TreeHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	egoID := h.sync.EgoID()
	ancestors, descendants := h.projector.Generations(egoID)

	common.RespondJSON(w, http.StatusOK, TreeResponse{
		EgoID:       egoID.String(),
		Ancestors:   ancestors,
		Descendants: descendants,
	})
}
