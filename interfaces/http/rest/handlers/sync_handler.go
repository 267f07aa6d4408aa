package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"kintree/application/services"
	"kintree/domain/core/entities"
	"kintree/domain/core/validators"
	"kintree/pkg/common"
)

// SyncHandler handles session hydration and ego resolution.
type SyncHandler struct {
	sync   *services.SyncService
	logger *zap.Logger
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(sync *services.SyncService, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		sync:   sync,
		logger: logger,
	}
}

// Sync handles POST /sync: a full-graph hydration for the authenticated
// actor. Overlapping calls collapse into the in-flight one.
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	actorID := common.GetActorID(r.Context())
	if actorID == "" {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sync requires an authenticated actor")
		return
	}

	if err := h.sync.SyncFamilyTree(r.Context(), actorID); err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]string{
		"status": string(h.sync.Status()),
		"ego_id": h.sync.EgoID().String(),
	})
}

// Status handles GET /sync/status.
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": string(h.sync.Status())}
	if err := h.sync.LastError(); err != nil {
		resp["error"] = err.Error()
	}
	common.RespondJSON(w, http.StatusOK, resp)
}

// GetEgo handles GET /ego: the focal person for the session, if identified.
func (h *SyncHandler) GetEgo(w http.ResponseWriter, r *http.Request) {
	ego, ok := h.sync.Ego()
	if !ok {
		common.RespondError(w, http.StatusNotFound, "NOT_FOUND", "ego not identified")
		return
	}
	common.RespondJSON(w, http.StatusOK, ego)
}

// InitializeEgo handles POST /ego: creates the authenticated user's own node
// during onboarding and records it as ego.
func (h *SyncHandler) InitializeEgo(w http.ResponseWriter, r *http.Request) {
	actorID := common.GetActorID(r.Context())
	if actorID == "" {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "onboarding requires an authenticated actor")
		return
	}

	var data entities.PersonData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body: "+err.Error())
		return
	}
	if err := validators.ValidateStruct(data); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	id, err := h.sync.InitializeEgo(r.Context(), data, actorID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}
