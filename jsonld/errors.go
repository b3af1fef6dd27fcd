package jsonld

import (
	"context"
	"errors"
	"strings"
)

// ErrorCode identifies a JSON-LD processing error condition. The values match
// the error strings of the JSON-LD 1.1 API so callers can correlate failures
// with the W3C error taxonomy.
type ErrorCode string

const (
	// Context processing errors.
	ErrCodeInvalidLocalContext        ErrorCode = "invalid local context"
	ErrCodeInvalidContextEntry        ErrorCode = "invalid context entry"
	ErrCodeInvalidRemoteContext       ErrorCode = "invalid remote context"
	ErrCodeInvalidContextNullification ErrorCode = "invalid context nullification"
	ErrCodeInvalidBaseIRI             ErrorCode = "invalid base IRI"
	ErrCodeInvalidVocabMapping        ErrorCode = "invalid vocab mapping"
	ErrCodeInvalidDefaultLanguage     ErrorCode = "invalid default language"
	ErrCodeInvalidBaseDirection       ErrorCode = "invalid base direction"
	ErrCodeInvalidVersionValue        ErrorCode = "invalid @version value"
	ErrCodeInvalidImportValue         ErrorCode = "invalid @import value"
	ErrCodeInvalidPropagateValue      ErrorCode = "invalid @propagate value"
	ErrCodeInvalidProtectedValue      ErrorCode = "invalid @protected value"
	ErrCodeInvalidTermDefinition      ErrorCode = "invalid term definition"
	ErrCodeInvalidIRIMapping          ErrorCode = "invalid IRI mapping"
	ErrCodeInvalidReverseProperty     ErrorCode = "invalid reverse property"
	ErrCodeInvalidTypeMapping         ErrorCode = "invalid type mapping"
	ErrCodeInvalidLanguageMapping     ErrorCode = "invalid language mapping"
	ErrCodeInvalidContainerMapping    ErrorCode = "invalid container mapping"
	ErrCodeInvalidNestValue           ErrorCode = "invalid @nest value"
	ErrCodeInvalidPrefixValue         ErrorCode = "invalid @prefix value"
	ErrCodeInvalidScopedContext       ErrorCode = "invalid scoped context"
	ErrCodeInvalidKeywordAlias        ErrorCode = "invalid keyword alias"
	ErrCodeKeywordRedefinition        ErrorCode = "keyword redefinition"
	ErrCodeCyclicIRIMapping           ErrorCode = "cyclic IRI mapping"
	ErrCodeProtectedTermRedefinition  ErrorCode = "protected term redefinition"
	ErrCodeContextOverflow            ErrorCode = "context overflow"
	ErrCodeRecursiveContextInclusion  ErrorCode = "recursive context inclusion"
	ErrCodeLoadingRemoteContextFailed ErrorCode = "loading remote context failed"
	ErrCodeProcessingModeConflict     ErrorCode = "processing mode conflict"

	// Expansion errors.
	ErrCodeInvalidIDValue             ErrorCode = "invalid @id value"
	ErrCodeInvalidTypeValue           ErrorCode = "invalid type value"
	ErrCodeInvalidValueObject         ErrorCode = "invalid value object"
	ErrCodeInvalidValueObjectValue    ErrorCode = "invalid value object value"
	ErrCodeInvalidLanguageTaggedString ErrorCode = "invalid language-tagged string"
	ErrCodeInvalidLanguageTaggedValue ErrorCode = "invalid language-tagged value"
	ErrCodeInvalidLanguageMapValue    ErrorCode = "invalid language map value"
	ErrCodeInvalidTypedValue          ErrorCode = "invalid typed value"
	ErrCodeInvalidIndexValue          ErrorCode = "invalid @index value"
	ErrCodeInvalidReverseValue        ErrorCode = "invalid @reverse value"
	ErrCodeInvalidReversePropertyMap  ErrorCode = "invalid reverse property map"
	ErrCodeInvalidReversePropertyValue ErrorCode = "invalid reverse property value"
	ErrCodeInvalidIncludedValue       ErrorCode = "invalid @included value"
	ErrCodeInvalidSetOrListObject     ErrorCode = "invalid set or list object"
	ErrCodeCollidingKeywords          ErrorCode = "colliding keywords"
	ErrCodeListOfLists                ErrorCode = "list of lists"
	ErrCodeInvalidDocument            ErrorCode = "invalid JSON-LD document"
	ErrCodeUndefinedTerm              ErrorCode = "undefined term"

	// Collaborator failures.
	ErrCodeLoadingDocumentFailed ErrorCode = "loading document failed"
	ErrCodeGeneratorFailed       ErrorCode = "blank node generation failed"
)

// Error is a structured JSON-LD processing failure. It identifies the error
// kind, the offending term or keyword when known, and wraps any underlying
// cause (a loader failure, for example).
type Error struct {
	Code ErrorCode
	// Term is the term, keyword or IRI the error relates to, if any.
	Term string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	var msg strings.Builder
	msg.WriteString("jsonld: ")
	msg.WriteString(string(e.Code))
	if e.Term != "" {
		msg.WriteString(": ")
		msg.WriteString(e.Term)
	}
	if e.Err != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Err.Error())
	}
	return msg.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same code, enabling
// errors.Is comparisons against code-only sentinels.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

func newError(code ErrorCode, term string) *Error {
	return &Error{Code: code, Term: term}
}

func wrapError(code ErrorCode, term string, err error) *Error {
	return &Error{Code: code, Term: term, Err: err}
}

// Code returns the error code carried by err, or the empty string when err is
// nil or not a JSON-LD processing error. Context cancellation surfaces as the
// loading failure of whatever operation was suspended.
func Code(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeLoadingDocumentFailed
	}
	return ""
}
