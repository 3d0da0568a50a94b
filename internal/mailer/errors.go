package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"strings"
)

// DeliveryError classifies SMTP delivery failures as transient/permanent.
type DeliveryError struct {
	Code      int
	Message   string
	Transient bool
	Cause     error
}

func (e *DeliveryError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 4)
	parts = append(parts, "delivery error")

	if e.Code > 0 {
		parts = append(parts, fmt.Sprintf("code=%d", e.Code))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *DeliveryError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsTransient reports whether a delivery failure is worth redelivering.
// SMTP 4xx replies and network timeouts are transient; 5xx replies are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var deliveryErr *DeliveryError
	if errors.As(err, &deliveryErr) {
		return deliveryErr.Transient
	}

	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return protoErr.Code >= 400 && protoErr.Code < 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

// classify wraps an error produced during an SMTP exchange.
func classify(stage string, err error) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return &DeliveryError{
			Code:      protoErr.Code,
			Message:   fmt.Sprintf("%s rejected", stage),
			Transient: protoErr.Code >= 400 && protoErr.Code < 500,
			Cause:     err,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &DeliveryError{
			Message:   fmt.Sprintf("%s network failure", stage),
			Transient: true,
			Cause:     err,
		}
	}

	return &DeliveryError{
		Message: fmt.Sprintf("%s failed", stage),
		Cause:   err,
	}
}
