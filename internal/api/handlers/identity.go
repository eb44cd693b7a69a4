package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dynprot/engine/internal/api/middleware"
	appErr "github.com/dynprot/engine/pkg/errors"
)

// resolveUserID picks the user a request acts on. claimed is the id named
// in the path or body; it must match a verified caller, and is only trusted
// on its own for legacy identities.
func resolveUserID(r *http.Request, claimed string) (uuid.UUID, error) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		return uuid.Nil, appErr.New(appErr.CodeUnauthorized, "authentication required")
	}

	claimed = strings.TrimSpace(claimed)
	if claimed == "" {
		if id.UserID == uuid.Nil {
			return uuid.Nil, appErr.New(appErr.CodeInvalid, "userId is required")
		}
		return id.UserID, nil
	}

	uid, err := uuid.Parse(claimed)
	if err != nil {
		return uuid.Nil, appErr.New(appErr.CodeInvalid, "userId must be a valid user id")
	}
	if id.UserID != uuid.Nil && uid != id.UserID {
		return uuid.Nil, appErr.New(appErr.CodeForbidden, "userId does not match the authenticated user")
	}
	return uid, nil
}

func pathUserID(r *http.Request) (uuid.UUID, error) {
	return resolveUserID(r, chi.URLParam(r, "userId"))
}
