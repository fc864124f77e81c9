package shared

import (
	"context"
	"log/slog"
	"net/http"

	"perfboard/internal/domain/auth"
	"perfboard/internal/platform/requestctx"
)

type Auditor interface {
	Record(ctx context.Context, orgID, actorID, action, entityType, entityID, requestID, ip string, before, after any) error
}

// Audit records an action for the caller. A failed write is logged and
// never fails the request.
func Audit(r *http.Request, auditor Auditor, user auth.UserContext, action, entityType, entityID string, before, after any) {
	if auditor == nil {
		return
	}
	ctx := r.Context()
	err := auditor.Record(ctx, user.OrganizationID, user.UserID, action, entityType, entityID,
		requestctx.GetRequestID(ctx), requestctx.GetClientIP(ctx), before, after)
	if err != nil {
		slog.Warn("audit record failed", "action", action, "entityId", entityID, "err", err)
	}
}
