package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"kintree/application/services"
	"kintree/domain/core/entities"
	"kintree/domain/core/validators"
	"kintree/domain/core/valueobjects"
	"kintree/pkg/common"
)

// RelationshipHandler handles relationship-creation HTTP requests.
type RelationshipHandler struct {
	rels   *services.RelationshipService
	logger *zap.Logger
}

// NewRelationshipHandler creates a new relationship handler.
func NewRelationshipHandler(rels *services.RelationshipService, logger *zap.Logger) *RelationshipHandler {
	return &RelationshipHandler{
		rels:   rels,
		logger: logger,
	}
}

// CreateRelationshipRequest declares what person two is to person one:
// type "parent" means person two is person one's parent.
type CreateRelationshipRequest struct {
	PersonOneID string `json:"person_one_id" validate:"required"`
	PersonTwoID string `json:"person_two_id" validate:"required"`
	Type        string `json:"relationship_type" validate:"required,oneof=parent child spouse sibling"`
}

// CreateRelationship handles POST /relationships. Invalid graph conditions
// (unknown person, self-relation, duplicate edge) are treated as no-ops by
// the engine; only a persistence failure is surfaced as an error.
func (h *RelationshipHandler) CreateRelationship(w http.ResponseWriter, r *http.Request) {
	var req CreateRelationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body: "+err.Error())
		return
	}

	if err := validators.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	kind, err := entities.ParseRelationKind(req.Type)
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	err = h.rels.AddRelation(
		r.Context(),
		kind,
		valueobjects.PersonID(req.PersonOneID),
		valueobjects.PersonID(req.PersonTwoID),
		common.GetActorID(r.Context()),
	)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, map[string]string{"message": "relationship recorded"})
}
