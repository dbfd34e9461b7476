package status

import (
	"errors"
	"fmt"
)

// FaultKind classifies a rejected operation so callers can branch on the
// reason instead of matching error text.
type FaultKind string

const (
	FaultValidation   FaultKind = "Validation"
	FaultNotFound     FaultKind = "NotFound"
	FaultConflict     FaultKind = "Conflict"
	FaultTimeout      FaultKind = "Timeout"
	FaultNotSupported FaultKind = "NotSupported"
)

type Fault struct {
	Kind    FaultKind
	Message string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func newFault(kind FaultKind, format string, args ...interface{}) *Fault {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...interface{}) *Fault {
	return newFault(FaultValidation, format, args...)
}

func NotFoundf(format string, args ...interface{}) *Fault {
	return newFault(FaultNotFound, format, args...)
}

func Conflictf(format string, args ...interface{}) *Fault {
	return newFault(FaultConflict, format, args...)
}

func Timeoutf(format string, args ...interface{}) *Fault {
	return newFault(FaultTimeout, format, args...)
}

func NotSupportedf(format string, args ...interface{}) *Fault {
	return newFault(FaultNotSupported, format, args...)
}

// KindOf extracts the fault kind from an error chain, empty if none.
func KindOf(err error) FaultKind {
	var fault *Fault
	if errors.As(err, &fault) {
		return fault.Kind
	}
	return ""
}
