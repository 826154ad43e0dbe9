package controllers

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/veoxhq/veox-backend/api/middleware"
	"github.com/veoxhq/veox-backend/pkg/enums"
	"github.com/veoxhq/veox-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func addRouteParam(r *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, routeCtx))
}

func asCaller(t *testing.T, r *http.Request, userID uuid.UUID, role enums.UserRole) *http.Request {
	t.Helper()
	ctx := middleware.WithUserID(r.Context(), userID.String())
	ctx = middleware.WithRole(ctx, role.String())
	return r.WithContext(ctx)
}
