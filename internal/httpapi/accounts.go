package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"github.com/jacentio/orgmanager/internal/account"
)

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var a account.Account
	if err := decode(r, &a); err != nil {
		h.writeError(w, r, err)
		return
	}
	a.OrganizationalUnitID = ps.ByName("ouId")

	created, err := h.accounts.Create(r.Context(), a)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	location := created.AccountID
	if location == "" {
		// Provisioning has not assigned an id yet; the name is the only
		// handle the caller has.
		location = created.Name
	}
	w.Header().Set("Location", "/accounts/"+url.PathEscape(location))
	h.writeJSON(w, http.StatusAccepted, created)
}

type accountPage struct {
	Accounts   []account.Account `json:"accounts"`
	NextCursor string            `json:"nextCursor,omitempty"`
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	q := r.URL.Query()

	count := 0
	if raw := q.Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.writeError(w, r, fmt.Errorf("%w: count must be a non-negative integer", account.ErrValidation))
			return
		}
		count = parsed
	}

	accounts, next, err := h.accounts.ListInOu(r.Context(), ps.ByName("ouId"), count, q.Get("cursor"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []account.Account{}
	}
	h.writeJSON(w, http.StatusOK, accountPage{Accounts: accounts, NextCursor: next})
}

func (h *Handler) getAccount(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	acct, err := h.accounts.GetByID(r.Context(), ps.ByName("accountId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if acct == nil {
		h.writeError(w, r, account.ErrNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, acct)
}

type regionsPatch struct {
	Regions []string `json:"regions"`
}

func (h *Handler) patchAccount(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var patch regionsPatch
	if err := decode(r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.accounts.UpdateRegions(r.Context(), ps.ByName("accountId"), patch.Regions); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.accounts.Delete(r.Context(), ps.ByName("accountId")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
