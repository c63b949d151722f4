package resolve

import (
	"errors"
	"fmt"
)

var (
	// ErrModuleNotFound means no loaded module matches a reference's scope.
	ErrModuleNotFound = errors.New("module not found")
	// ErrTypeNotFound means the scoped module does not define the type.
	ErrTypeNotFound = errors.New("type not found")
	// ErrNilReference is returned for nil references.
	ErrNilReference = errors.New("nil type reference")
	// ErrMethodNotFound means the declaring type has no matching method.
	ErrMethodNotFound = errors.New("method not found")
)

// ResolutionError reports a reference that could not be resolved. It is fatal
// to a weaving run.
type ResolutionError struct {
	Name string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("could not resolve '%s': %v", e.Name, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// AsResolutionError extracts a ResolutionError from err.
func AsResolutionError(err error) (*ResolutionError, bool) {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
