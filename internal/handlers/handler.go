// Package handlers exposes the services as JSON endpoints.
package handlers

import (
	"ppms/internal/audit"
	"ppms/internal/auth"
	"ppms/internal/service"

	"go.uber.org/zap"
)

type Handler struct {
	svc    *service.Services
	users  *auth.Store
	audit  *audit.Log
	logger *zap.Logger
}

func New(svc *service.Services, users *auth.Store, log *audit.Log, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, users: users, audit: log, logger: logger}
}
