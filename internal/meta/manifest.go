// Package meta holds the consumed shapes of the version-manifest documents:
// the top-level version listing, per-version documents, their libraries, and
// the downloadable artifacts derived from them. Parsing is plain
// encoding/json; this package owns no transport.
package meta

import "fmt"

// VersionManifest is the top-level listing of available versions
// (version_manifest_v2.json).
type VersionManifest struct {
	Latest   LatestVersions `json:"latest"`
	Versions []VersionMeta  `json:"versions"`
}

// LatestVersions names the newest release and snapshot ids.
type LatestVersions struct {
	Release  string `json:"release"`
	Snapshot string `json:"snapshot"`
}

// VersionMeta is one entry of the version listing: enough to locate and
// verify the full version document.
type VersionMeta struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	URL             string `json:"url"`
	Time            string `json:"time"`
	ReleaseTime     string `json:"releaseTime"`
	SHA1            string `json:"sha1"`
	ComplianceLevel int    `json:"complianceLevel"`
}

// Find returns the listing entry for a version id.
func (m *VersionManifest) Find(id string) (VersionMeta, error) {
	for _, v := range m.Versions {
		if v.ID == id {
			return v, nil
		}
	}
	return VersionMeta{}, fmt.Errorf("version %q not found in manifest", id)
}

// ParseError reports a manifest or profile document that is malformed or
// missing a required field. It is fatal to the one document, not to
// siblings.
type ParseError struct {
	Document string
	Reason   string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parsing %s: %s: %v", e.Document, e.Reason, e.Err)
	}
	return fmt.Sprintf("parsing %s: %s", e.Document, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }
