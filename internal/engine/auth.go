package engine

import (
	"fmt"

	"SalaryHedge/internal/model"
)

// Auth is the capability handed to mutating operations. The host creates it
// once it has verified who signed the invocation.
type Auth struct {
	caller model.UserID
}

// Authenticated returns the capability for a verified caller.
func Authenticated(caller model.UserID) Auth {
	return Auth{caller: caller}
}

// Caller returns the verified identity.
func (a Auth) Caller() model.UserID { return a.caller }

// Require fails unless the caller owns user's records.
func (a Auth) Require(user model.UserID) error {
	if a.caller.Validate() != nil || a.caller != user {
		return fmt.Errorf("%w: caller %q, owner %q", ErrUnauthorized, a.caller, user)
	}
	return nil
}
