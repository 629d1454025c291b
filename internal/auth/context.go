package auth

import "context"

type contextKey string

const (
	contextKeyCompany contextKey = "auth.company_id"
	contextKeyRole    contextKey = "auth.role"
	contextKeySubject contextKey = "auth.subject"
)

// WithIdentity stores the caller's identity in ctx.
func WithIdentity(ctx context.Context, companyID string, role Role, subject string) context.Context {
	ctx = context.WithValue(ctx, contextKeyCompany, companyID)
	ctx = context.WithValue(ctx, contextKeyRole, role)
	ctx = context.WithValue(ctx, contextKeySubject, subject)
	return ctx
}

// CompanyIDFromContext extracts the company id from ctx.
func CompanyIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyCompany).(string); ok {
		return id
	}
	return ""
}

// RoleFromContext extracts the role from ctx.
func RoleFromContext(ctx context.Context) Role {
	if role, ok := ctx.Value(contextKeyRole).(Role); ok {
		return role
	}
	return ""
}

// SubjectFromContext extracts the token subject from ctx.
func SubjectFromContext(ctx context.Context) string {
	if subject, ok := ctx.Value(contextKeySubject).(string); ok {
		return subject
	}
	return ""
}
