package ai

import (
	"context"
	"errors"
	"fmt"
)

// Reason classifies why a model call produced no output.
type Reason string

const (
	// ReasonUnconfigured means no credentials were available at startup.
	ReasonUnconfigured Reason = "unconfigured"
	// ReasonProviderError covers transport and provider-side failures.
	ReasonProviderError Reason = "provider_error"
)

var (
	ErrUnconfigured  = errors.New("language model is not configured")
	ErrProviderError = errors.New("language model provider error")
)

// Client sends a prompt to a language model and returns its raw text output.
// Implementations return *Failure for every error path.
type Client interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// Failure is the error returned by Client implementations.
type Failure struct {
	Reason Reason
	Detail string
}

func (f *Failure) Error() string {
	if f.Detail == "" {
		return string(f.Reason)
	}
	return f.Detail
}

func (f *Failure) Is(target error) bool {
	switch target {
	case ErrUnconfigured:
		return f.Reason == ReasonUnconfigured
	case ErrProviderError:
		return f.Reason == ReasonProviderError
	}
	return false
}

// ProviderFailure builds a ProviderError failure from a formatted detail.
func ProviderFailure(format string, args ...any) *Failure {
	return &Failure{Reason: ReasonProviderError, Detail: fmt.Sprintf(format, args...)}
}

// AsFailure converts any error into a *Failure, treating unknown errors as provider errors.
func AsFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return &Failure{Reason: ReasonProviderError, Detail: err.Error()}
}

type unconfigured struct {
	detail string
}

// Unconfigured returns a Client that fails every call without network I/O.
func Unconfigured(detail string) Client {
	if detail == "" {
		detail = ErrUnconfigured.Error()
	}
	return &unconfigured{detail: detail}
}

func (u *unconfigured) Invoke(context.Context, string) (string, error) {
	return "", &Failure{Reason: ReasonUnconfigured, Detail: u.detail}
}
