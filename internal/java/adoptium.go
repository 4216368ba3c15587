package java

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/lodestonemc/lodestone/internal/fetch"
	"github.com/lodestonemc/lodestone/internal/integrity"
	"github.com/lodestonemc/lodestone/internal/platform"
)

// DefaultAdoptiumBaseURL is the Adoptium v3 API root.
const DefaultAdoptiumBaseURL = "https://api.adoptium.net"

// adoptiumAsset is one element of the assets/latest response.
type adoptiumAsset struct {
	Binary struct {
		Package struct {
			Checksum string `json:"checksum"`
			Link     string `json:"link"`
			Name     string `json:"name"`
			Size     int64  `json:"size"`
		} `json:"package"`
	} `json:"binary"`
}

// resolveAdoptium queries the Adoptium API for the latest JRE build matching
// the required major version on the host platform and takes its single best
// match.
func (p *Provisioner) resolveAdoptium(ctx context.Context, req Requirement) (Package, error) {
	osKey := platform.AdoptiumOS(p.sig.OS)
	archKey := platform.AdoptiumArch(p.sig.Arch)
	if osKey == "" || archKey == "" {
		return Package{}, &ResolveError{Source: SourceAdoptium,
			Reason: fmt.Sprintf("no API keys for platform %s", p.sig)}
	}

	base := p.adoptiumBaseURL
	if base == "" {
		base = DefaultAdoptiumBaseURL
	}

	query := url.Values{
		"architecture": {archKey},
		"heap_size":    {"normal"},
		"image_type":   {"jre"},
		"os":           {osKey},
		"vendor":       {"eclipse"},
	}
	apiURL := fmt.Sprintf("%s/v3/assets/latest/%d/hotspot?%s", base, req.MajorVersion, query.Encode())

	log.Debug().Str("component", "java").Str("url", apiURL).Msg("querying Adoptium API")

	data, err := fetch.Bytes(ctx, p.fetcher, apiURL)
	if err != nil {
		return Package{}, &ResolveError{Source: SourceAdoptium, Reason: "querying API", Err: err}
	}

	var assets []adoptiumAsset
	if err := json.Unmarshal(data, &assets); err != nil {
		return Package{}, &ResolveError{Source: SourceAdoptium, Reason: "decoding response", Err: err}
	}
	if len(assets) == 0 {
		return Package{}, &ResolveError{Source: SourceAdoptium,
			Reason: fmt.Sprintf("no build for Java %d on %s/%s", req.MajorVersion, osKey, archKey)}
	}

	pkg := assets[0].Binary.Package
	if pkg.Link == "" || pkg.Checksum == "" {
		return Package{}, &ResolveError{Source: SourceAdoptium, Reason: "response missing package link or checksum"}
	}

	return Package{
		Source:    SourceAdoptium,
		URL:       pkg.Link,
		Digest:    pkg.Checksum,
		Algorithm: integrity.SHA256,
		Filename:  pkg.Name,
	}, nil
}
