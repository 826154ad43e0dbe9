package controllers

import (
	"context"

	"github.com/google/uuid"

	"github.com/veoxhq/veox-backend/api/middleware"
	"github.com/veoxhq/veox-backend/pkg/enums"
	pkgerrors "github.com/veoxhq/veox-backend/pkg/errors"
)

// callerFromContext resolves the authenticated user id and role placed in the
// request context by the auth middleware.
func callerFromContext(ctx context.Context) (uuid.UUID, enums.UserRole, error) {
	raw := middleware.UserIDFromContext(ctx)
	if raw == "" {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	role, err := enums.ParseUserRole(middleware.RoleFromContext(ctx))
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid role")
	}
	return userID, role, nil
}
