package httpapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/jacentio/orgmanager/internal/orgunit"
)

// unitIDHeader carries the created unit's identifier back to the caller.
const unitIDHeader = "x-organizationalUnitId"

func (h *Handler) createUnit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var ou orgunit.OrganizationalUnit
	if err := decode(r, &ou); err != nil {
		h.writeError(w, r, err)
		return
	}

	id, err := h.units.Create(r.Context(), ou)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set(unitIDHeader, id)
	h.writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) listUnits(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	units, err := h.units.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if units == nil {
		units = []orgunit.OrganizationalUnit{}
	}
	h.writeJSON(w, http.StatusOK, units)
}

func (h *Handler) getUnit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ou, err := h.units.Get(r.Context(), ps.ByName("ouId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ou)
}

// deleteUnit removes a unit and cascades deletion of its component
// definitions. The unit delete runs first so the accounts-remaining
// precondition is enforced before anything is touched.
func (h *Handler) deleteUnit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ouID := ps.ByName("ouId")

	if err := h.units.Delete(r.Context(), ouID); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.components.DeleteBulk(r.Context(), ouID); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
