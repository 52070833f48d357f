package generate

import (
	"errors"
	"fmt"
)

// Kind is a stable error code for a failed generation.
type Kind string

const (
	// EContract: the selection sequence is incomplete or violates the catalog.
	EContract Kind = "E_CONTRACT"
	// EUnsupportedCombination: a lookup table has no entry for the choice.
	EUnsupportedCombination Kind = "E_UNSUPPORTED_COMBINATION"
	// ERetrieval: a template file or README fragment could not be fetched.
	ERetrieval Kind = "E_RETRIEVAL"
	// EPackaging: the README or the archive could not be assembled.
	EPackaging Kind = "E_PACKAGING"
	// EDelivery: the archive was built but could not be handed over.
	EDelivery Kind = "E_DELIVERY"
)

// Error is the single terminal error of a generation.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

// Error returns "KIND: message: cause".
func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

func wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Cause: err}
}

// KindOf extracts the kind from err, or "" if err is not a generation error.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}
