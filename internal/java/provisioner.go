package java

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/lodestonemc/lodestone/internal/archive"
	"github.com/lodestonemc/lodestone/internal/fetch"
	"github.com/lodestonemc/lodestone/internal/integrity"
	"github.com/lodestonemc/lodestone/internal/java/cache"
	"github.com/lodestonemc/lodestone/internal/platform"
)

// Provisioner downloads and installs Java runtimes.
type Provisioner struct {
	fetcher fetch.Fetcher
	cache   *cache.RuntimeCache
	sig     platform.Signature

	// Overridable source endpoints; empty means the public defaults.
	mojangManifestURL string
	adoptiumBaseURL   string
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithPlatform overrides the detected host signature.
func WithPlatform(sig platform.Signature) Option {
	return func(p *Provisioner) { p.sig = sig }
}

// WithMojangManifestURL overrides the Mojang runtime-manifest endpoint.
func WithMojangManifestURL(url string) Option {
	return func(p *Provisioner) { p.mojangManifestURL = url }
}

// WithAdoptiumBaseURL overrides the Adoptium API root.
func WithAdoptiumBaseURL(url string) Option {
	return func(p *Provisioner) { p.adoptiumBaseURL = url }
}

// NewProvisioner creates a provisioner using the given fetch capability and
// runtime cache.
func NewProvisioner(fetcher fetch.Fetcher, rc *cache.RuntimeCache, opts ...Option) *Provisioner {
	p := &Provisioner{
		fetcher: fetcher,
		cache:   rc,
		sig:     platform.Detect(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ensure provisions a runtime for req, trying Adoptium first and falling
// back to Mojang's manifest. A runtime already in the cache for either
// source is reused without any network call.
func (p *Provisioner) Ensure(ctx context.Context, req Requirement) (Runtime, error) {
	var errs []error
	for _, source := range []Source{SourceAdoptium, SourceMojang} {
		rt, err := p.ensureFrom(ctx, source, req)
		if err == nil {
			return rt, nil
		}
		log.Warn().Str("component", "java").Str("source", string(source)).Err(err).
			Int("major", req.MajorVersion).Msg("runtime source failed")
		errs = append(errs, err)
	}
	return Runtime{}, fmt.Errorf("provisioning Java %d: %w", req.MajorVersion, errors.Join(errs...))
}

func (p *Provisioner) ensureFrom(ctx context.Context, source Source, req Requirement) (Runtime, error) {
	key := p.cacheKey(source, req)

	// Idempotent short-circuit: an existing directory for the key means the
	// runtime was provisioned before; the work here is an existence check.
	if dir, ok := p.cache.Get(key); ok {
		return p.runtimeAt(dir, source, req)
	}

	pkg, err := p.resolve(ctx, source, req)
	if err != nil {
		return Runtime{}, err
	}

	stagingDir, err := os.MkdirTemp("", "lodestone-java-*")
	if err != nil {
		return Runtime{}, fmt.Errorf("creating staging dir: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	archivePath := filepath.Join(stagingDir, pkg.Filename)
	if err := p.fetchVerified(ctx, pkg, archivePath); err != nil {
		return Runtime{}, err
	}

	extractDir := filepath.Join(stagingDir, "extracted")
	if err := extractArchive(archivePath, extractDir); err != nil {
		// The cache key stays unresolved; the next call retries from scratch.
		return Runtime{}, err
	}

	dir, err := p.cache.Set(key, extractDir)
	if err != nil {
		return Runtime{}, fmt.Errorf("caching runtime: %w", err)
	}

	rt, err := p.runtimeAt(dir, source, req)
	if err != nil {
		// Extraction produced something unusable; drop it so the key does
		// not short-circuit future attempts.
		_ = p.cache.Evict(key)
		return Runtime{}, err
	}

	log.Info().Str("component", "java").Str("source", string(source)).
		Int("major", req.MajorVersion).Str("home", rt.Home).Msg("runtime provisioned")
	return rt, nil
}

func (p *Provisioner) resolve(ctx context.Context, source Source, req Requirement) (Package, error) {
	switch source {
	case SourceAdoptium:
		return p.resolveAdoptium(ctx, req)
	case SourceMojang:
		return p.resolveMojang(ctx, req)
	default:
		return Package{}, fmt.Errorf("unknown runtime source %q", source)
	}
}

// fetchVerified downloads the package and gates it on its digest, retrying
// the download exactly once on a mismatch before failing.
func (p *Provisioner) fetchVerified(ctx context.Context, pkg Package, dest string) error {
	for attempt := 0; ; attempt++ {
		if err := fetch.ToFile(ctx, p.fetcher, pkg.URL, dest); err != nil {
			return err
		}

		err := integrity.Verify(dest, pkg.Digest, pkg.Algorithm)
		if err == nil {
			return nil
		}

		_ = os.Remove(dest)
		var mismatch *integrity.MismatchError
		if !errors.As(err, &mismatch) || attempt >= 1 {
			return err
		}
		log.Warn().Str("component", "java").Str("url", pkg.URL).
			Msg("digest mismatch, re-downloading once")
	}
}

func (p *Provisioner) cacheKey(source Source, req Requirement) cache.Key {
	var osKey, archKey string
	switch source {
	case SourceMojang:
		osKey = platform.MojangManifestKey(p.sig)
		archKey = p.sig.Arch.String()
	default:
		osKey = platform.AdoptiumOS(p.sig.OS)
		archKey = platform.AdoptiumArch(p.sig.Arch)
	}
	return cache.Key{Source: string(source), Major: req.MajorVersion, OSKey: osKey, ArchKey: archKey}
}

func (p *Provisioner) runtimeAt(dir string, source Source, req Requirement) (Runtime, error) {
	exe, home, err := findExecutable(dir, p.sig.OS)
	if err != nil {
		return Runtime{}, err
	}
	return Runtime{Home: home, Executable: exe, Major: req.MajorVersion, Source: source}, nil
}

func extractArchive(archivePath, destDir string) error {
	z, err := archive.Open(archivePath)
	if err != nil {
		return err
	}
	defer z.Close()

	report, err := z.ExtractAll(destDir)
	if err != nil {
		return err
	}
	if !report.OK() {
		return fmt.Errorf("extracting runtime archive: %d entries failed, first: %v",
			len(report.Failed), report.Failed[0])
	}
	return nil
}
