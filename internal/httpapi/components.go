package httpapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/jacentio/orgmanager/internal/component"
)

type componentList struct {
	Components []component.Component `json:"components"`
}

func (h *Handler) createComponents(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body componentList
	if err := decode(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.components.CreateBulk(r.Context(), ps.ByName("ouId"), body.Components)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) getComponents(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	components, err := h.components.GetBulk(r.Context(), ps.ByName("ouId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if components == nil {
		components = []component.Component{}
	}
	h.writeJSON(w, http.StatusOK, componentList{Components: components})
}

func (h *Handler) deleteComponents(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.components.DeleteBulk(r.Context(), ps.ByName("ouId")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
