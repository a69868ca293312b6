// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"fmt"
	"time"
)

// ErrorKind partitions AutomationError into the taxonomy described in the
// error surface: one enum reachable from every public operation.
type ErrorKind int

const (
	// KindInvalidSelector means the selector string failed to parse.
	KindInvalidSelector ErrorKind = iota
	// KindTimeout means a resolver deadline elapsed with no match.
	KindTimeout
	// KindElementNotFound means a one-shot query found nothing.
	KindElementNotFound
	// KindElementNotVisible means an action precondition found the element
	// out of the viewport/work area.
	KindElementNotVisible
	// KindElementNotStable means bounds kept changing through the
	// stability-wait window.
	KindElementNotStable
	// KindElementNotEnabled means the element reported disabled.
	KindElementNotEnabled
	// KindStaleElement means the underlying platform handle is no longer
	// valid.
	KindStaleElement
	// KindPermissionDenied means the OS denied the accessibility query.
	KindPermissionDenied
	// KindPlatformError wraps an opaque platform-backend failure.
	KindPlatformError
	// KindUnsupported means the operation has no meaning on the active
	// platform variant.
	KindUnsupported
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidSelector:
		return "InvalidSelector"
	case KindTimeout:
		return "Timeout"
	case KindElementNotFound:
		return "ElementNotFound"
	case KindElementNotVisible:
		return "ElementNotVisible"
	case KindElementNotStable:
		return "ElementNotStable"
	case KindElementNotEnabled:
		return "ElementNotEnabled"
	case KindStaleElement:
		return "StaleElement"
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindPlatformError:
		return "PlatformError"
	case KindUnsupported:
		return "Unsupported"
	default:
		return "Unknown"
	}
}

// ElementInfo carries the identifying attributes a log line or error needs
// to be self-describing, per the error-surface requirement that every
// action reports role, name, pid and window title on failure.
type ElementInfo struct {
	Role        string
	Name        string
	ProcessID   int
	WindowTitle string
}

func (e ElementInfo) String() string {
	if e.Role == "" && e.Name == "" && e.ProcessID == 0 && e.WindowTitle == "" {
		return ""
	}
	return fmt.Sprintf("role=%q name=%q pid=%d window=%q", e.Role, e.Name, e.ProcessID, e.WindowTitle)
}

// AutomationError is the single error type every public terminator
// operation returns. It is never conflated with a plain string error:
// callers switch on Kind (or use errors.Is against the sentinel-producing
// constructors below).
type AutomationError struct {
	Kind     ErrorKind
	Message  string
	Selector string      // originating selector, when relevant
	Element  ElementInfo // identifying attributes of the element involved
	Elapsed  time.Duration
	Code     string // platform-specific error code, KindPlatformError only
	Op       string // operation name, e.g. "click", "find_element"
	Cause    error
}

func (e *AutomationError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.Selector != "" {
		msg = fmt.Sprintf("%s [selector=%q]", msg, e.Selector)
	}
	if info := e.Element.String(); info != "" {
		msg = fmt.Sprintf("%s [%s]", msg, info)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *AutomationError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *AutomationError with the same Kind,
// so callers can write errors.Is(err, &AutomationError{Kind: KindTimeout}).
func (e *AutomationError) Is(target error) bool {
	t, ok := target.(*AutomationError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewInvalidSelector builds a parse-failure error carrying the reason the
// parser produced (see selector.Invalid).
func NewInvalidSelector(selector, reason string) *AutomationError {
	return &AutomationError{Kind: KindInvalidSelector, Message: reason, Selector: selector}
}

// NewTimeout builds a resolver-deadline-expired error.
func NewTimeout(selector string, elapsed time.Duration) *AutomationError {
	return &AutomationError{
		Kind:     KindTimeout,
		Message:  fmt.Sprintf("timed out after %s waiting for a match", elapsed),
		Selector: selector,
		Elapsed:  elapsed,
	}
}

// NewElementNotFound builds a one-shot-query-found-nothing error.
func NewElementNotFound(selector string) *AutomationError {
	return &AutomationError{Kind: KindElementNotFound, Message: "no element matched", Selector: selector}
}

// NewPlatformError wraps an opaque platform failure.
func NewPlatformError(op, code, message string, cause error) *AutomationError {
	return &AutomationError{Kind: KindPlatformError, Message: message, Code: code, Op: op, Cause: cause}
}

// NewUnsupported builds an operation-has-no-meaning-here error.
func NewUnsupported(op string) *AutomationError {
	return &AutomationError{Kind: KindUnsupported, Message: "not supported on this platform", Op: op}
}

// WithElement attaches identifying attributes to err in place and returns
// it, for the common "fill in role/name/pid right before returning" shape.
func (e *AutomationError) WithElement(info ElementInfo) *AutomationError {
	e.Element = info
	return e
}

// WithOp sets the operation name and returns e.
func (e *AutomationError) WithOp(op string) *AutomationError {
	e.Op = op
	return e
}
