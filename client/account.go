// client/account.go
package client

import (
	"context"
	"errors"
)

// ErrDeleteNotImplemented is returned by DeleteAccount. The server has no
// account deletion endpoint yet; surfacing the limitation as an error keeps
// callers from treating the account as gone.
var ErrDeleteNotImplemented = errors.New("Account deletion is not implemented yet in the backend")

// DeleteAccount always fails with ErrDeleteNotImplemented and leaves the
// session exactly as it was.
func (s *Session) DeleteAccount(ctx context.Context) error {
	return ErrDeleteNotImplemented
}
