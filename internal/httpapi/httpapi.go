// Package httpapi exposes the organization manager over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"

	"github.com/jacentio/orgmanager/internal/account"
	"github.com/jacentio/orgmanager/internal/component"
	"github.com/jacentio/orgmanager/internal/orgunit"
	"github.com/jacentio/orgmanager/internal/store"
)

// UnitService is the organizational unit surface the API exposes.
type UnitService interface {
	Create(ctx context.Context, ou orgunit.OrganizationalUnit) (string, error)
	List(ctx context.Context) ([]orgunit.OrganizationalUnit, error)
	Get(ctx context.Context, id string) (*orgunit.OrganizationalUnit, error)
	Delete(ctx context.Context, id string) error
}

// AccountService is the account surface the API exposes.
type AccountService interface {
	Create(ctx context.Context, a account.Account) (*account.Account, error)
	ListInOu(ctx context.Context, ouID string, count int, cursor string) ([]account.Account, string, error)
	GetByID(ctx context.Context, accountID string) (*account.Account, error)
	UpdateRegions(ctx context.Context, accountID string, regions []string) error
	Delete(ctx context.Context, accountID string) error
}

// ComponentService is the bulk component surface the API exposes.
type ComponentService interface {
	CreateBulk(ctx context.Context, ouID string, components []component.Component) (component.BulkResult, error)
	GetBulk(ctx context.Context, ouID string) ([]component.Component, error)
	DeleteBulk(ctx context.Context, ouID string) error
}

// Handler holds the services behind the HTTP surface.
type Handler struct {
	units      UnitService
	accounts   AccountService
	components ComponentService
	log        zerolog.Logger
}

func NewHandler(units UnitService, accounts AccountService, components ComponentService, log zerolog.Logger) *Handler {
	return &Handler{
		units:      units,
		accounts:   accounts,
		components: components,
		log:        log.With().Str("handler", "http").Logger(),
	}
}

// Router binds every route to its handler.
func (h *Handler) Router() *httprouter.Router {
	r := httprouter.New()

	r.POST("/organizationalUnits", h.createUnit)
	r.GET("/organizationalUnits", h.listUnits)
	r.GET("/organizationalUnits/:ouId", h.getUnit)
	r.DELETE("/organizationalUnits/:ouId", h.deleteUnit)

	r.POST("/organizationalUnits/:ouId/accounts", h.createAccount)
	r.GET("/organizationalUnits/:ouId/accounts", h.listAccounts)
	r.GET("/accounts/:accountId", h.getAccount)
	r.PATCH("/accounts/:accountId", h.patchAccount)
	r.DELETE("/accounts/:accountId", h.deleteAccount)

	r.POST("/organizationalUnits/:ouId/bulkcomponents", h.createComponents)
	r.GET("/organizationalUnits/:ouId/bulkcomponents", h.getComponents)
	r.DELETE("/organizationalUnits/:ouId/bulkcomponents", h.deleteComponents)

	r.GET("/health", h.health)

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusOK)
}

// errBadBody marks an undecodable request body.
var errBadBody = errors.New("invalid request body")

type errorBody struct {
	Error string `json:"error"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error().Err(err).Msg("encoding response failed")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Err(err).
			Msg("request failed")
	}
	h.writeJSON(w, status, errorBody{Error: err.Error()})
}

// statusFor maps domain errors onto HTTP statuses. State-precondition
// failures surface as 400 alongside plain validation errors.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadBody),
		errors.Is(err, orgunit.ErrValidation),
		errors.Is(err, account.ErrValidation),
		errors.Is(err, component.ErrValidation),
		errors.Is(err, account.ErrBadCursor),
		errors.Is(err, account.ErrBadStatus),
		errors.Is(err, orgunit.ErrHasAccounts):
		return http.StatusBadRequest
	case errors.Is(err, orgunit.ErrNotFound),
		errors.Is(err, account.ErrNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, orgunit.ErrAlreadyExists),
		errors.Is(err, account.ErrAlreadyExists),
		errors.Is(err, component.ErrAlreadyExists),
		errors.Is(err, store.ErrAlreadyExists):
		return http.StatusConflict
	case store.IsThrottle(err):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}
