// Package installer extracts the version descriptor embedded in a mod-loader
// installer archive and registers it as an installable version distinct from
// the vanilla version it patches.
package installer

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lodestonemc/lodestone/internal/archive"
	"github.com/lodestonemc/lodestone/internal/meta"
	"github.com/lodestonemc/lodestone/internal/versions"
)

// profileEntry is the profile document's location inside installer archives.
const profileEntry = "install_profile.json"

// installProfile covers both profile generations: modern profiles reference
// a side version document via the "json" field; legacy profiles embed it
// inline as "versionInfo".
type installProfile struct {
	Profile     string          `json:"profile,omitempty"`
	Version     string          `json:"version,omitempty"`
	JSON        string          `json:"json,omitempty"`
	VersionInfo json.RawMessage `json:"versionInfo,omitempty"`
	Install     *struct {
		Target string `json:"target,omitempty"`
	} `json:"install,omitempty"`
}

// Process reads the install profile from an installer archive, extracts the
// embedded version descriptor, and registers it. Registration is
// all-or-nothing: a missing or malformed profile signals a ParseError and
// the registry is left untouched.
func Process(archivePath string, registry *versions.Registry) (string, error) {
	z, err := archive.Open(archivePath)
	if err != nil {
		return "", err
	}
	defer z.Close()

	profileData, err := z.ReadEntry(profileEntry)
	if err != nil {
		return "", &meta.ParseError{Document: archivePath, Reason: "missing " + profileEntry, Err: err}
	}

	var profile installProfile
	if err := json.Unmarshal(profileData, &profile); err != nil {
		return "", &meta.ParseError{Document: profileEntry, Reason: "invalid profile document", Err: err}
	}

	descriptor, err := embeddedDescriptor(z, &profile)
	if err != nil {
		return "", err
	}

	var v meta.Version
	if err := json.Unmarshal(descriptor, &v); err != nil {
		return "", &meta.ParseError{Document: profileEntry, Reason: "invalid embedded version descriptor", Err: err}
	}
	if v.ID == "" {
		return "", &meta.ParseError{Document: profileEntry, Reason: "embedded version descriptor missing id"}
	}

	if err := registry.Register(v.ID, descriptor); err != nil {
		return "", err
	}

	log.Info().Str("component", "installer").Str("version", v.ID).
		Str("archive", archivePath).Msg("registered installer version")
	return v.ID, nil
}

func embeddedDescriptor(z archive.Extractor, profile *installProfile) ([]byte, error) {
	if len(profile.VersionInfo) > 0 {
		return profile.VersionInfo, nil
	}
	if profile.JSON == "" {
		return nil, &meta.ParseError{Document: profileEntry, Reason: "no embedded version descriptor"}
	}

	// The side document path is archive-relative, sometimes written with a
	// leading slash.
	name := strings.TrimPrefix(profile.JSON, "/")
	data, err := z.ReadEntry(name)
	if err != nil {
		return nil, &meta.ParseError{Document: profileEntry,
			Reason: "referenced version document " + name + " not in archive", Err: err}
	}
	return data, nil
}
