package java

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strconv"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog/log"

	"github.com/lodestonemc/lodestone/internal/fetch"
	"github.com/lodestonemc/lodestone/internal/integrity"
	"github.com/lodestonemc/lodestone/internal/platform"
)

// DefaultMojangManifestURL is the all-platforms java-runtime manifest.
const DefaultMojangManifestURL = "https://launchermeta.mojang.com/v1/products/java-runtime/2ec0cc96c44e5a76b9c8b7c39df7210883d12871/all.json"

// mojangManifest is keyed by platform key, then component name.
type mojangManifest map[string]map[string][]mojangRuntimeEntry

type mojangRuntimeEntry struct {
	Version struct {
		Name     string `json:"name"`
		Released string `json:"released,omitempty"`
	} `json:"version"`
	Manifest struct {
		SHA1 string `json:"sha1"`
		Size int64  `json:"size"`
		URL  string `json:"url"`
	} `json:"manifest"`
}

// resolveMojang looks the requirement up in Mojang's manifest for the host's
// platform key and picks the most recent entry whose major version matches.
func (p *Provisioner) resolveMojang(ctx context.Context, req Requirement) (Package, error) {
	osArchKey := platform.MojangManifestKey(p.sig)
	if osArchKey == "" {
		return Package{}, &ResolveError{Source: SourceMojang,
			Reason: fmt.Sprintf("no manifest key for platform %s", p.sig)}
	}

	url := p.mojangManifestURL
	if url == "" {
		url = DefaultMojangManifestURL
	}

	log.Debug().Str("component", "java").Str("url", url).Str("key", osArchKey).
		Msg("fetching Mojang runtime manifest")

	data, err := fetch.Bytes(ctx, p.fetcher, url)
	if err != nil {
		return Package{}, &ResolveError{Source: SourceMojang, Reason: "fetching manifest", Err: err}
	}

	var manifest mojangManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return Package{}, &ResolveError{Source: SourceMojang, Reason: "decoding manifest", Err: err}
	}

	entries, ok := manifest[osArchKey][req.Component]
	if !ok || len(entries) == 0 {
		return Package{}, &ResolveError{Source: SourceMojang,
			Reason: fmt.Sprintf("no %q runtime for %s", req.Component, osArchKey)}
	}

	best := pickNewest(entries, req.MajorVersion)
	if best == nil {
		return Package{}, &ResolveError{Source: SourceMojang,
			Reason: fmt.Sprintf("no %q entry with major version %d", req.Component, req.MajorVersion)}
	}
	if best.Manifest.URL == "" || best.Manifest.SHA1 == "" {
		return Package{}, &ResolveError{Source: SourceMojang, Reason: "entry missing manifest url or sha1"}
	}

	return Package{
		Source:    SourceMojang,
		URL:       best.Manifest.URL,
		Digest:    best.Manifest.SHA1,
		Algorithm: integrity.SHA1,
		Filename:  path.Base(best.Manifest.URL),
	}, nil
}

// pickNewest returns the entry with the highest version among those whose
// major version matches. Entry names vary by component: semver ("17.0.1"),
// four-part ("16.0.1.9.1"), or legacy ("8u51"); the major is the leading
// integer before the first non-digit. Names semver cannot order fall back
// to string comparison.
func pickNewest(entries []mojangRuntimeEntry, major int) *mojangRuntimeEntry {
	var best *mojangRuntimeEntry
	var bestVer *semver.Version

	for i := range entries {
		e := &entries[i]
		if leadingMajor(e.Version.Name) != major {
			continue
		}
		ver, err := semver.NewVersion(e.Version.Name)
		if err != nil {
			ver = nil
		}
		switch {
		case best == nil:
			best, bestVer = e, ver
		case ver != nil && bestVer != nil && ver.GreaterThan(bestVer):
			best, bestVer = e, ver
		case ver != nil && bestVer == nil:
			best, bestVer = e, ver
		case ver == nil && bestVer == nil && e.Version.Name > best.Version.Name:
			best = e
		}
	}
	return best
}

// leadingMajor parses the integer prefix of a runtime version name; -1 when
// the name has none.
func leadingMajor(name string) int {
	i := 0
	for i < len(name) && name[i] >= '0' && name[i] <= '9' {
		i++
	}
	if i == 0 {
		return -1
	}
	n, err := strconv.Atoi(name[:i])
	if err != nil {
		return -1
	}
	return n
}
