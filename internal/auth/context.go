package auth

import (
	"context"

	"github.com/fekuna/omnipos-sales-service/internal/model"
)

const (
	RoleCashier    = "cashier"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// Session identifies the operator behind a request. It is passed explicitly into
// the cart, commit and payment operations.
type Session struct {
	ID         string
	OperatorID string
	Role       string
	// CanCommit is the verdict of the external authorization gate.
	CanCommit bool
}

// OrderClass is the class stamped on orders this session commits.
func (s Session) OrderClass() model.OrderClass {
	if s.Role == RoleSuperAdmin {
		return model.OrderClassSuperAdmin
	}
	return model.OrderClassRegular
}

// VisibleClasses lists the order classes this session may read or settle.
func (s Session) VisibleClasses() []model.OrderClass {
	if s.Role == RoleSuperAdmin {
		return []model.OrderClass{model.OrderClassRegular, model.OrderClassSuperAdmin}
	}
	return []model.OrderClass{model.OrderClassRegular}
}

func (s Session) CanSee(class model.OrderClass) bool {
	for _, c := range s.VisibleClasses() {
		if c == class {
			return true
		}
	}
	return false
}

type sessionKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
