package kbin

import (
	"fmt"
	"slices"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseEncode Phase = "encode" // tree to KBin
	PhaseDecode Phase = "decode" // KBin to tree
	PhaseXML    Phase = "xml"    // XML bridge, both directions
)

// ErrorKind categorizes the error
type ErrorKind string

const (
	KindMalformedHeader ErrorKind = "malformed_header"
	KindUnknownType     ErrorKind = "unknown_type"
	KindMissingTypeTag  ErrorKind = "missing_type_tag"
	KindInvalidName     ErrorKind = "invalid_name"
	KindInvalidValue    ErrorKind = "invalid_value"
	KindTruncated       ErrorKind = "truncated"
	KindXMLSyntax       ErrorKind = "xml_syntax"
	KindUnsupported     ErrorKind = "unsupported"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrMalformedHeader = &Error{Kind: KindMalformedHeader}
	ErrUnknownType     = &Error{Kind: KindUnknownType}
	ErrMissingTypeTag  = &Error{Kind: KindMissingTypeTag}
	ErrInvalidName     = &Error{Kind: KindInvalidName}
	ErrInvalidValue    = &Error{Kind: KindInvalidValue}
	ErrTruncated       = &Error{Kind: KindTruncated}
	ErrXMLSyntax       = &Error{Kind: KindXMLSyntax}
	ErrUnsupported     = &Error{Kind: KindUnsupported}
)

// Error is the structured error returned by the codec.
type Error struct {
	Cause  error
	Phase  Phase
	Kind   ErrorKind
	Detail string
	// Path holds node names from the root down to the failing node.
	Path []string
	// Offset is the byte offset in the input where decoding failed, or
	// -1 when not applicable.
	Offset int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString("kbin: ")
	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}
	if e.Offset >= 0 && e.Phase == PhaseDecode {
		fmt.Fprintf(&b, " (offset %d)", e.Offset)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. A target without a
// phase matches every phase.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Phase == "" || e.Phase == t.Phase)
}

func newError(phase Phase, kind ErrorKind, path []string, format string, args ...any) *Error {
	detail := format
	if len(args) > 0 {
		detail = fmt.Sprintf(format, args...)
	}
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Path:   slices.Clone(path),
		Detail: detail,
		Offset: -1,
	}
}

func decodeError(kind ErrorKind, offset int, cause error, format string, args ...any) *Error {
	err := newError(PhaseDecode, kind, nil, format, args...)
	err.Offset = offset
	err.Cause = cause
	return err
}
