// Package testutil provides shared test helpers for Hanno Go tests.
package testutil

import (
	"testing"

	"github.com/Armani-T/Hanno/pkg/diagnostics"
)

// RequireNoErrors fails the test when any error diagnostic is present.
func RequireNoErrors(t *testing.T, diags []diagnostics.Diagnostic) {
	t.Helper()
	if diagnostics.HasErrors(diags) {
		t.Fatalf("unexpected diagnostics:\n%s", diagnostics.FormatDiagnostics(diags, true))
	}
}

// RequireCode fails the test unless some diagnostic carries the code.
func RequireCode(t *testing.T, diags []diagnostics.Diagnostic, code string) {
	t.Helper()
	if !HasCode(diags, code) {
		t.Fatalf("expected a %s diagnostic, got:\n%s", code, diagnostics.FormatDiagnostics(diags, true))
	}
}

// HasCode reports whether any diagnostic carries the code.
func HasCode(diags []diagnostics.Diagnostic, code string) bool {
	for _, d := range diags {
		if d.Code == code {
			return true
		}
	}
	return false
}
