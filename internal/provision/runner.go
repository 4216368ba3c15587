// Package provision runs the end-to-end resolve, download, verify, extract
// sequence for a version's artifacts. Independent artifacts run in parallel
// under a bounded worker pool; within one artifact the stages are strictly
// ordered.
package provision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/lodestonemc/lodestone/internal/archive"
	"github.com/lodestonemc/lodestone/internal/fetch"
	"github.com/lodestonemc/lodestone/internal/integrity"
	"github.com/lodestonemc/lodestone/internal/meta"
)

// DefaultWorkers bounds concurrent artifact pipelines; sized to avoid
// saturating the remote hosts.
const DefaultWorkers = 4

// downloadAttempts bounds transfer retries for transient failures. A digest
// mismatch after a complete download gets exactly one extra attempt on top.
const downloadAttempts = 3

// Result is the outcome of one artifact's pipeline.
type Result struct {
	Artifact meta.Artifact
	Err      error
	Skipped  bool // already on disk with a matching digest
}

// Report collects every artifact's outcome for one run.
type Report struct {
	Results []Result
}

// Failed returns the results that ended in error.
func (r Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// OK is true when no artifact failed.
func (r Report) OK() bool { return len(r.Failed()) == 0 }

// FatalErr returns the first failure among artifacts the run cannot succeed
// without. Library and native failures are reported but survivable; a
// missing client or server jar is not.
func (r Report) FatalErr() error {
	for _, res := range r.Failed() {
		switch res.Artifact.Kind {
		case meta.KindClient, meta.KindServer:
			return res.Err
		}
	}
	return nil
}

// Runner executes artifact pipelines against an installation root.
type Runner struct {
	Fetcher fetch.Fetcher
	Root    string
	// NativesDir receives extracted native bundles; empty means
	// Root/natives.
	NativesDir string
	Workers    int
}

// Run provisions every artifact, bounded-parallel. The returned error is
// non-nil only when the run was cancelled; per-artifact failures live in the
// report and the caller decides which are fatal.
func (r *Runner) Run(ctx context.Context, artifacts []meta.Artifact) (Report, error) {
	workers := r.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	report := Report{Results: make([]Result, len(artifacts))}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, artifact := range artifacts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res := r.runOne(ctx, artifact)

			mu.Lock()
			report.Results[i] = res
			mu.Unlock()

			// Cancellation aborts the run; everything else is collected.
			if res.Err != nil && (errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded)) {
				return res.Err
			}
			return nil
		})
	}

	err := g.Wait()
	return report, err
}

// runOne is one artifact's ordered pipeline: download, verify, extract.
func (r *Runner) runOne(ctx context.Context, artifact meta.Artifact) Result {
	res := Result{Artifact: artifact}
	dest := filepath.Join(r.Root, filepath.FromSlash(artifact.Path))

	// Resumability: an artifact verified in an earlier (possibly cancelled)
	// run is not re-fetched.
	if artifact.SHA1 != "" {
		if err := integrity.Verify(dest, artifact.SHA1, integrity.SHA1); err == nil {
			res.Skipped = true
			log.Debug().Str("component", "provision").Str("artifact", artifact.Name).
				Msg("already provisioned, skipping")
			return res
		}
	}

	if err := r.download(ctx, artifact, dest); err != nil {
		res.Err = err
		return res
	}

	if artifact.Kind == meta.KindNative {
		if err := r.extractNative(artifact, dest); err != nil {
			res.Err = err
			return res
		}
	}
	return res
}

// download fetches dest with bounded transfer retries and the single
// re-download a digest mismatch earns.
func (r *Runner) download(ctx context.Context, artifact meta.Artifact, dest string) error {
	redownloads := 0
	for {
		err := r.fetchOnce(ctx, artifact.URL, dest)
		if err != nil {
			return err
		}

		if artifact.SHA1 == "" {
			return nil
		}
		err = integrity.Verify(dest, artifact.SHA1, integrity.SHA1)
		if err == nil {
			return nil
		}

		_ = os.Remove(dest)
		var mismatch *integrity.MismatchError
		if !errors.As(err, &mismatch) || redownloads >= 1 {
			return err
		}
		redownloads++
		log.Warn().Str("component", "provision").Str("artifact", artifact.Name).
			Msg("digest mismatch after download, retrying once")
	}
}

func (r *Runner) fetchOnce(ctx context.Context, url, dest string) error {
	var lastErr error
	for attempt := 1; attempt <= downloadAttempts; attempt++ {
		lastErr = fetch.ToFile(ctx, r.Fetcher, url, dest)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
		log.Debug().Str("component", "provision").Str("url", url).Int("attempt", attempt).
			Err(lastErr).Msg("download attempt failed")
	}
	return lastErr
}

func (r *Runner) extractNative(artifact meta.Artifact, archivePath string) error {
	nativesDir := r.NativesDir
	if nativesDir == "" {
		nativesDir = filepath.Join(r.Root, "natives")
	}

	z, err := archive.Open(archivePath)
	if err != nil {
		return err
	}
	defer z.Close()

	if artifact.Extract != nil {
		policy := artifact.Extract
		z.Filter = func(name string) bool { return !policy.Excluded(name) }
	}

	report, err := z.ExtractAll(nativesDir)
	if err != nil {
		return err
	}
	if !report.OK() {
		return report.Failed[0]
	}
	return nil
}
