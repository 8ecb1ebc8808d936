// Package diagnostics defines Hanno diagnostic types for every compiler stage.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Armani-T/Hanno/pkg/ast"
)

// Severity of a diagnostic. Warnings never block pipeline progression.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Stage tags the pipeline stage that produced a diagnostic. The CLI maps
// stages to exit codes; the core only reports which stage failed.
type Stage string

const (
	StageLex            Stage = "lexing"
	StageParse          Stage = "parsing"
	StageType           Stage = "type"
	StageExhaustiveness Stage = "exhaustiveness"
	StageCodegen        Stage = "codegen"
)

// Diagnostic code constants.
const (
	EUnterminatedString  = "E_UNTERMINATED_STRING"
	EUnterminatedComment = "E_UNTERMINATED_COMMENT"
	EIllegalChar         = "E_ILLEGAL_CHAR"
	EUnexpectedToken     = "E_UNEXPECTED_TOKEN"
	EMissingElse         = "E_MISSING_ELSE"
	EUnmatchedDelimiter  = "E_UNMATCHED_DELIMITER"
	EBadPattern          = "E_BAD_PATTERN"
	ETypeMismatch        = "E_TYPE_MISMATCH"
	EInfiniteType        = "E_INFINITE_TYPE"
	EUnboundName         = "E_UNBOUND_NAME"
	EBadAnnotation       = "E_BAD_ANNOTATION"
	ENonExhaustive       = "E_NON_EXHAUSTIVE"
	WUnreachablePattern  = "W_UNREACHABLE_PATTERN"
	ECodegen             = "E_CODEGEN"
)

// Diagnostic represents a single compiler finding with enough span
// information to pinpoint the offending source text.
type Diagnostic struct {
	Severity Severity  `json:"severity"`
	Stage    Stage     `json:"stage"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Span     *ast.Span `json:"span,omitempty"`
	Hint     string    `json:"hint,omitempty"`
}

// New creates an error-severity Diagnostic.
func New(stage Stage, code, message string, span *ast.Span) Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Stage:    stage,
		Code:     code,
		Message:  message,
		Span:     span,
	}
}

// NewWarning creates a warning-severity Diagnostic.
func NewWarning(stage Stage, code, message string, span *ast.Span) Diagnostic {
	d := New(stage, code, message, span)
	d.Severity = SeverityWarning
	return d
}

// HasErrors reports whether any diagnostic in the slice is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	loc := "<unknown>"
	if d.Span != nil {
		loc = fmt.Sprintf("%s:%d:%d", d.Span.File, d.Span.StartLine, d.Span.StartCol)
	}
	out := fmt.Sprintf("%s[%s]: %s\n  --> %s", d.Severity, d.Code, d.Message, loc)
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}
