package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"kintree/application/services"
	"kintree/domain/core/entities"
	"kintree/domain/core/validators"
	"kintree/domain/core/valueobjects"
	"kintree/pkg/common"
)

// PersonHandler handles person-related HTTP requests.
type PersonHandler struct {
	store  *services.EntityStore
	rels   *services.RelationshipService
	logger *zap.Logger
}

// NewPersonHandler creates a new person handler.
func NewPersonHandler(store *services.EntityStore, rels *services.RelationshipService, logger *zap.Logger) *PersonHandler {
	return &PersonHandler{
		store:  store,
		rels:   rels,
		logger: logger,
	}
}

// CreatePersonResponse is the response for creating a person.
type CreatePersonResponse struct {
	ID string `json:"id"`
}

// CreatePerson handles POST /people. The person is visible immediately under
// a temporary ID; persistence and ID reconciliation happen in the background.
func (h *PersonHandler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var data entities.PersonData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body: "+err.Error())
		return
	}

	if err := validators.ValidateStruct(data); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	id, err := h.store.AddPerson(r.Context(), data, common.GetActorID(r.Context()))
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, CreatePersonResponse{ID: id.String()})
}

// ListPeople handles GET /people: the full person collection currently held
// in the store, including optimistic records not yet persisted.
func (h *PersonHandler) ListPeople(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.store.People())
}

// GetPerson handles GET /people/{personID}.
func (h *PersonHandler) GetPerson(w http.ResponseWriter, r *http.Request) {
	id := valueobjects.PersonID(chi.URLParam(r, "personID"))

	person, ok := h.store.GetPerson(id)
	if !ok {
		common.RespondError(w, http.StatusNotFound, "NOT_FOUND", "person not found")
		return
	}

	common.RespondJSON(w, http.StatusOK, person)
}

// UpdateProfile handles PUT /people/{personID}.
func (h *PersonHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id := valueobjects.PersonID(chi.URLParam(r, "personID"))

	var data entities.PersonData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		common.RespondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body: "+err.Error())
		return
	}
	if err := validators.ValidateStruct(data); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	if _, ok := h.store.GetPerson(id); !ok {
		common.RespondError(w, http.StatusNotFound, "NOT_FOUND", "person not found")
		return
	}

	if err := h.store.UpdateProfile(id, data, common.GetActorID(r.Context())); err != nil {
		common.RespondAppError(w, err)
		return
	}

	person, _ := h.store.GetPerson(id)
	common.RespondJSON(w, http.StatusOK, person)
}

// DeletePerson handles DELETE /people/{personID}. The node and its edges are
// extracted from the graph entirely.
func (h *PersonHandler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	id := valueobjects.PersonID(chi.URLParam(r, "personID"))

	if _, ok := h.store.GetPerson(id); !ok {
		common.RespondError(w, http.StatusNotFound, "NOT_FOUND", "person not found")
		return
	}

	h.store.RemovePerson(id)
	common.RespondJSON(w, http.StatusOK, map[string]string{"message": "person removed"})
}

// GetSiblings handles GET /people/{personID}/siblings: the union of directly
// recorded siblings and co-children of recorded parents.
func (h *PersonHandler) GetSiblings(w http.ResponseWriter, r *http.Request) {
	id := valueobjects.PersonID(chi.URLParam(r, "personID"))

	if _, ok := h.store.GetPerson(id); !ok {
		common.RespondError(w, http.StatusNotFound, "NOT_FOUND", "person not found")
		return
	}

	siblings := h.rels.GetSiblings(id)
	if siblings == nil {
		siblings = []*entities.Person{}
	}
	common.RespondJSON(w, http.StatusOK, siblings)
}

// RelativeCounts is the response for GET /people/{personID}/counts.
type RelativeCounts struct {
	Ancestors   int `json:"ancestors"`
	Descendants int `json:"descendants"`
}

// GetCounts handles GET /people/{personID}/counts.
func (h *PersonHandler) GetCounts(w http.ResponseWriter, r *http.Request) {
	id := valueobjects.PersonID(chi.URLParam(r, "personID"))

	if _, ok := h.store.GetPerson(id); !ok {
		common.RespondError(w, http.StatusNotFound, "NOT_FOUND", "person not found")
		return
	}

	common.RespondJSON(w, http.StatusOK, RelativeCounts{
		Ancestors:   h.rels.CountAncestors(id),
		Descendants: h.rels.CountDescendants(id),
	})
}

// GetUpdates handles GET /people/{personID}/updates: timeline entries
// attached to or tagging the person.
func (h *PersonHandler) GetUpdates(w http.ResponseWriter, r *http.Request) {
	id := valueobjects.PersonID(chi.URLParam(r, "personID"))

	if _, ok := h.store.GetPerson(id); !ok {
		common.RespondError(w, http.StatusNotFound, "NOT_FOUND", "person not found")
		return
	}

	common.RespondJSON(w, http.StatusOK, h.store.UpdatesForPerson(id))
}

// BlockPerson handles POST /people/{personID}/block: the node is hidden from
// layout without being removed from the graph.
func (h *PersonHandler) BlockPerson(w http.ResponseWriter, r *http.Request) {
	h.setPlaceholder(w, r, true)
}

// UnblockPerson handles DELETE /people/{personID}/block.
func (h *PersonHandler) UnblockPerson(w http.ResponseWriter, r *http.Request) {
	h.setPlaceholder(w, r, false)
}

func (h *PersonHandler) setPlaceholder(w http.ResponseWriter, r *http.Request, hidden bool) {
	id := valueobjects.PersonID(chi.URLParam(r, "personID"))

	if _, ok := h.store.GetPerson(id); !ok {
		common.RespondError(w, http.StatusNotFound, "NOT_FOUND", "person not found")
		return
	}

	h.store.SetPlaceholder(id, hidden)
	common.RespondJSON(w, http.StatusOK, map[string]bool{"placeholder": hidden})
}
