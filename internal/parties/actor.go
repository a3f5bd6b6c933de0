package parties

import (
	"github.com/Dj0083/final-project-sub000/pkg/enums"
	pkgerrors "github.com/Dj0083/final-project-sub000/pkg/errors"
)

// Actor is the caller identity resolved from the bearer token.
type Actor struct {
	ID   uint64
	Role enums.Role
}

// IsAdmin reports whether the actor is the platform administrator.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.RoleAdmin
}

// Require fails with NOT_AUTHORIZED unless the actor holds one of roles.
func (a Actor) Require(roles ...enums.Role) error {
	if a.ID == 0 || !a.Role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity missing")
	}
	for _, role := range roles {
		if a.Role == role {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "role "+a.Role.String()+" may not perform this action")
}
