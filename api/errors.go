package api

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies broker failures.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindAlreadyExists
	KindNotFound
	KindTimeout
	KindServerBusy
	KindInvalidArgument
	KindQuotaExceeded
	KindCommunication
)

func (k ErrorKind) String() string {
	switch k {
	case KindAlreadyExists:
		return "already exists"
	case KindNotFound:
		return "not found"
	case KindTimeout:
		return "timeout"
	case KindServerBusy:
		return "server busy"
	case KindInvalidArgument:
		return "invalid argument"
	case KindQuotaExceeded:
		return "quota exceeded"
	case KindCommunication:
		return "communication"
	default:
		return "unknown"
	}
}

// BrokerError is returned by namespace managers and senders. The transient
// flag is decided by the client that produced the error.
type BrokerError struct {
	Op        string
	Entity    string
	Kind      ErrorKind
	Transient bool
	Err       error
}

// NewBrokerError builds an error whose transient flag follows the kind:
// timeouts, throttling and communication failures are transient.
func NewBrokerError(op, entity string, kind ErrorKind, err error) *BrokerError {
	return &BrokerError{
		Op:        op,
		Entity:    entity,
		Kind:      kind,
		Transient: kind == KindTimeout || kind == KindServerBusy || kind == KindCommunication,
		Err:       err,
	}
}

func (e *BrokerError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Op, e.Entity, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BrokerError) Unwrap() error { return e.Err }

func kindOf(err error) (ErrorKind, bool) {
	var be *BrokerError
	if errors.As(err, &be) {
		return be.Kind, true
	}
	return KindUnknown, false
}

func IsAlreadyExists(err error) bool {
	k, _ := kindOf(err)
	return k == KindAlreadyExists
}

func IsNotFound(err error) bool {
	k, _ := kindOf(err)
	return k == KindNotFound
}

// IsTimeout also accepts an expired context deadline.
func IsTimeout(err error) bool {
	if k, ok := kindOf(err); ok {
		return k == KindTimeout
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func IsServerBusy(err error) bool {
	k, _ := kindOf(err)
	return k == KindServerBusy
}

func IsInvalidArgument(err error) bool {
	k, _ := kindOf(err)
	return k == KindInvalidArgument
}

// IsTransient reports the transient flag of a broker error. Other errors are
// not transient.
func IsTransient(err error) bool {
	var be *BrokerError
	if errors.As(err, &be) {
		return be.Transient
	}
	return false
}
