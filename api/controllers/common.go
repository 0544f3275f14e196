package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/servistore/servistore-backend/api/middleware"
	pkgerrors "github.com/servistore/servistore-backend/pkg/errors"
)

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, name+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}

// requireCustomer extracts the authenticated customer identity set by the
// auth middleware.
func requireCustomer(r *http.Request) (uuid.UUID, bool, error) {
	raw := middleware.CustomerIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, false, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid customer identity")
	}
	return id, middleware.IsStaffFromContext(r.Context()), nil
}
