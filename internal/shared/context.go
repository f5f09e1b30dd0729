package shared

import (
	"context"

	"github.com/google/uuid"
)

type orgContextKey struct{}

// ContextWithOrg stores the authorized organization scope in context.
// Authentication happens upstream; by the time a request reaches the core the
// organization id is already resolved and trusted.
func ContextWithOrg(ctx context.Context, orgID uuid.UUID) context.Context {
	return context.WithValue(ctx, orgContextKey{}, orgID)
}

// OrgFromContext extracts the organization scope from context.
func OrgFromContext(ctx context.Context) (uuid.UUID, bool) {
	orgID, ok := ctx.Value(orgContextKey{}).(uuid.UUID)
	return orgID, ok
}
