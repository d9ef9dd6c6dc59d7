// Package session resolves who the caller is and keeps per-user view state.
package session

import (
	"context"

	"equipment-requests-api-server/internal/models"

	"go.uber.org/zap"
)

// RoleChecker probes membership of the caller in a site group.
type RoleChecker interface {
	IsGroupMember(ctx context.Context, group string) (bool, error)
}

// ResolveRole returns RoleAdmin when the caller belongs to the admin group.
// A failed probe falls back to RoleRequester and is only logged.
func ResolveRole(ctx context.Context, checker RoleChecker, group string, logger *zap.Logger) models.Role {
	if group == "" {
		return models.RoleRequester
	}
	member, err := checker.IsGroupMember(ctx, group)
	if err != nil {
		if logger != nil {
			logger.Warn("group membership probe failed, treating caller as requester",
				zap.String("group", group), zap.Error(err))
		}
		return models.RoleRequester
	}
	if member {
		return models.RoleAdmin
	}
	return models.RoleRequester
}
