package model

import "fmt"

// Severity of a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Descriptor identifies a kind of diagnostic.
type Descriptor struct {
	ID       string
	Title    string
	Severity Severity
}

// Well-known descriptors.
var (
	Unexpected = &Descriptor{
		ID:       "FG0001",
		Title:    "Unexpected error while generating a path provider",
		Severity: SeverityError,
	}
	MemberNotFound = &Descriptor{
		ID:       "FG0002",
		Title:    "Selected member does not exist on the fixture type",
		Severity: SeverityError,
	}
	AmbiguousMember = &Descriptor{
		ID:       "FG0003",
		Title:    "Selected member is ambiguous; use its unique name",
		Severity: SeverityError,
	}
	InvalidProviderName = &Descriptor{
		ID:       "FG0004",
		Title:    "Path provider name is not a valid identifier",
		Severity: SeverityError,
	}
)

// Diagnostic is a user-facing report.
type Diagnostic struct {
	Descriptor *Descriptor
	Message    string
	Loc        Location
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s %s: %s", d.Loc, d.Descriptor.Severity, d.Descriptor.ID, d.Message)
}
