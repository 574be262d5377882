package merge

import "github.com/vaultmerge/vaultmerge/internal/vaulterrors"

// ErrInvalidArgument is returned by New* constructors when a required
// database or group argument is nil.
var ErrInvalidArgument = vaulterrors.ErrInvalidArgument
