package obsdk

import (
	"errors"
	"fmt"

	"github.com/orbbec/obsdk-go/internal/native"
)

// Failure categories. Every *NativeError matches exactly one of these with
// errors.Is.
var (
	ErrInvalidArgument  = errors.New("obsdk: invalid argument")
	ErrUnsupported      = errors.New("obsdk: unsupported operation")
	ErrDeviceNotFound   = errors.New("obsdk: device not found or disconnected")
	ErrIO               = errors.New("obsdk: i/o failure")
	ErrMemory           = errors.New("obsdk: memory allocation failure")
	ErrTimeout          = errors.New("obsdk: timeout")
	ErrPermissionDenied = errors.New("obsdk: permission denied")
	ErrUnknown          = errors.New("obsdk: unknown native failure")
)

// Binding errors raised without a native call.
var (
	ErrHandleReleased = errors.New("obsdk: native handle already released")
	ErrNullHandle     = errors.New("obsdk: native call returned a null handle")
	ErrClosed         = errors.New("obsdk: object has been closed")
	ErrPayloadSize    = errors.New("obsdk: structured payload size mismatch")
	ErrNotBuilt       = native.ErrNotBuilt
)

// NativeError is a failure reported through the native error slot.
type NativeError struct {
	Kind     ExceptionKind
	Function string
	Args     string
	Message  string
}

func (e *NativeError) Error() string {
	if e.Args == "" {
		return fmt.Sprintf("obsdk: %s: %s (%s)", e.Function, e.Message, e.Kind)
	}
	return fmt.Sprintf("obsdk: %s(%s): %s (%s)", e.Function, e.Args, e.Message, e.Kind)
}

// Category returns the sentinel this error matches.
func (e *NativeError) Category() error {
	return categoryOf(e.Kind)
}

// Is reports whether target is the category of e.
func (e *NativeError) Is(target error) bool {
	return target == e.Category()
}

func categoryOf(kind ExceptionKind) error {
	switch kind {
	case native.ExceptionInvalidValue, native.ExceptionWrongAPICallSequence:
		return ErrInvalidArgument
	case native.ExceptionUnsupportedOperation, native.ExceptionNotImplemented:
		return ErrUnsupported
	case native.ExceptionCameraDisconnected:
		return ErrDeviceNotFound
	case native.ExceptionIO:
		return ErrIO
	case native.ExceptionMemory:
		return ErrMemory
	case native.ExceptionTimeout:
		return ErrTimeout
	case native.ExceptionAccessDenied:
		return ErrPermissionDenied
	default:
		return ErrUnknown
	}
}

// categoryLabel is the metrics label for err.
func categoryLabel(err error) string {
	var ne *NativeError
	if errors.As(err, &ne) {
		return ne.Kind.String()
	}
	switch {
	case errors.Is(err, ErrHandleReleased):
		return "handle_released"
	case errors.Is(err, ErrClosed):
		return "closed"
	case errors.Is(err, ErrPayloadSize):
		return "payload_size"
	default:
		return "binding"
	}
}

// translate turns a populated error slot into a *NativeError and frees the
// native error object. A zero ref yields nil.
func translate(api native.ErrorAPI, ref native.ErrorRef) error {
	if ref == 0 {
		return nil
	}
	defer api.DeleteError(ref)
	return &NativeError{
		Kind:     api.ErrorType(ref),
		Function: api.ErrorFunction(ref),
		Args:     api.ErrorArgs(ref),
		Message:  api.ErrorMessage(ref),
	}
}

// call runs one native operation with a fresh error slot. On failure the
// result is dropped and the zero value is returned.
func call[T any](l *Library, op func(e *native.ErrorRef) T) (T, error) {
	var e native.ErrorRef
	v := op(&e)
	if err := l.check(e); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

func call0(l *Library, op func(e *native.ErrorRef)) error {
	var e native.ErrorRef
	op(&e)
	return l.check(e)
}

func (l *Library) check(ref native.ErrorRef) error {
	err := translate(l.api, ref)
	if err != nil {
		ne := err.(*NativeError)
		l.metrics.RecordNativeError(ne.Function, ne.Kind.String())
	}
	return err
}
