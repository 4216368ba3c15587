// Package java resolves, downloads, verifies, and extracts a Java runtime
// matching a version's requirement. Two sources are consulted: the Adoptium
// API (queried directly by major version) and Mojang's java-runtime manifest
// (indexed by platform key and component name). Provisioned runtimes are
// cached by (source, major, os key, arch key) and reused without network
// I/O.
package java

import (
	"fmt"

	"github.com/lodestonemc/lodestone/internal/integrity"
)

// Source names one of the two runtime sources.
type Source string

const (
	SourceMojang   Source = "mojang"
	SourceAdoptium Source = "adoptium"
)

// Requirement is the runtime a version asks for: a Mojang component name
// plus the major Java version. The major version alone drives the Adoptium
// query.
type Requirement struct {
	Component    string
	MajorVersion int
}

// Package is a resolved runtime download: one URL plus its expected digest.
// Both resolution paths converge on this shape.
type Package struct {
	Source    Source
	URL       string
	Digest    string
	Algorithm integrity.Algorithm
	Filename  string
}

// Runtime describes a provisioned runtime on disk.
type Runtime struct {
	Home       string
	Executable string
	Major      int
	Source     Source
}

// ResolveError reports that a source could not supply a matching runtime
// package. Non-fatal when the other source can.
type ResolveError struct {
	Source Source
	Reason string
	Err    error
}

func (e *ResolveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Reason)
}

func (e *ResolveError) Unwrap() error { return e.Err }
