package provision

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/lodestonemc/lodestone/internal/fetch"
	"github.com/lodestonemc/lodestone/internal/integrity"
	"github.com/lodestonemc/lodestone/internal/java"
	"github.com/lodestonemc/lodestone/internal/meta"
	"github.com/lodestonemc/lodestone/internal/rules"
	"github.com/lodestonemc/lodestone/internal/versions"
)

// DefaultVersionManifestURL is the public version listing.
const DefaultVersionManifestURL = "https://launchermeta.mojang.com/mc/game/version_manifest_v2.json"

// Service provisions complete versions: manifest resolution, artifact
// pipelines, and the matching Java runtime.
type Service struct {
	Fetcher  fetch.Fetcher
	Registry *versions.Registry
	Java     *java.Provisioner
	Host     rules.Host
	Workers  int

	// ManifestURL overrides the version listing endpoint; empty means the
	// public default.
	ManifestURL string
}

// Summary is the outcome of provisioning one version.
type Summary struct {
	VersionID string
	Report    Report
	Runtime   *java.Runtime
}

// ProvisionVersion provisions versionID end to end. The version document is
// fetched (and digest-checked against the listing), registered, its
// applicable artifacts resolved and run through the pipeline, and the
// declared Java runtime ensured. Survivable artifact failures are carried in
// the summary; the error is non-nil when the run as a whole failed.
func (s *Service) ProvisionVersion(ctx context.Context, versionID string) (*Summary, error) {
	v, raw, err := s.resolveVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}

	if err := s.Registry.Register(v.ID, raw); err != nil {
		return nil, err
	}

	artifacts := v.Artifacts(s.Host)
	log.Info().Str("component", "provision").Str("version", v.ID).
		Int("artifacts", len(artifacts)).Msg("starting provisioning run")

	runner := &Runner{Fetcher: s.Fetcher, Root: s.Registry.Root(), Workers: s.Workers}
	report, err := runner.Run(ctx, artifacts)
	summary := &Summary{VersionID: v.ID, Report: report}
	if err != nil {
		return summary, err
	}
	if err := report.FatalErr(); err != nil {
		return summary, fmt.Errorf("provisioning %s: %w", v.ID, err)
	}
	for _, failed := range report.Failed() {
		log.Warn().Str("component", "provision").Str("artifact", failed.Artifact.Name).
			Err(failed.Err).Msg("non-fatal artifact failure")
	}

	if v.JavaVersion != nil && s.Java != nil {
		rt, err := s.Java.Ensure(ctx, java.Requirement{
			Component:    v.JavaVersion.Component,
			MajorVersion: v.JavaVersion.MajorVersion,
		})
		if err != nil {
			return summary, err
		}
		summary.Runtime = &rt
	}

	return summary, nil
}

// resolveVersion fetches the listing, locates the version, and fetches its
// document, verifying it against the listing-declared digest when present.
func (s *Service) resolveVersion(ctx context.Context, versionID string) (*meta.Version, []byte, error) {
	manifestURL := s.ManifestURL
	if manifestURL == "" {
		manifestURL = DefaultVersionManifestURL
	}

	data, err := fetch.Bytes(ctx, s.Fetcher, manifestURL)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching version manifest: %w", err)
	}

	var manifest meta.VersionManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, nil, &meta.ParseError{Document: manifestURL, Reason: "invalid version manifest", Err: err}
	}

	entry, err := manifest.Find(versionID)
	if err != nil {
		return nil, nil, err
	}

	raw, err := fetch.Bytes(ctx, s.Fetcher, entry.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching version document: %w", err)
	}
	if entry.SHA1 != "" {
		if err := integrity.VerifyBytes(entry.URL, raw, entry.SHA1, integrity.SHA1); err != nil {
			return nil, nil, fmt.Errorf("version document failed listing digest: %w", err)
		}
	}

	var v meta.Version
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, nil, &meta.ParseError{Document: entry.URL, Reason: "invalid version document", Err: err}
	}
	if v.ID == "" {
		return nil, nil, &meta.ParseError{Document: entry.URL, Reason: "missing id"}
	}
	return &v, raw, nil
}
