package r2r

import "github.com/kailas-cloud/r2r/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrArgumentCountMismatch  = domain.ErrArgumentCountMismatch
	ErrUnsupportedEnvironment = domain.ErrUnsupportedEnvironment
	ErrInvalidUpload          = domain.ErrInvalidUpload
	ErrInvalidArgument        = domain.ErrInvalidArgument
)

// HTTPStatusError is returned for non-2xx responses. Use errors.As() to check.
// For streaming calls only StatusCode is set.
type HTTPStatusError = domain.StatusError

// TransportError wraps a network-level failure. The cause is reachable
// through errors.Is / errors.As (e.g. context.Canceled).
type TransportError = domain.TransportError
