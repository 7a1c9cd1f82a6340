package dialer

import (
	"errors"
	"fmt"
)

var (
	// ErrResolution matches any *ResolutionError.
	ErrResolution = errors.New("name resolution failed")

	// ErrConnect matches any *ConnectError.
	ErrConnect = errors.New("upstream connect failed")
)

// ResolutionError reports that Host could not be resolved.
type ResolutionError struct {
	Host string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.Host, e.Err)
}

func (e *ResolutionError) Unwrap() []error {
	return []error{ErrResolution, e.Err}
}

// ConnectError reports that no connection to Address could be established.
type ConnectError struct {
	Address string
	Err     error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Address, e.Err)
}

func (e *ConnectError) Unwrap() []error {
	return []error{ErrConnect, e.Err}
}
