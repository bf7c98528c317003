// SPDX-License-Identifier: MPL-2.0

// Package backup creates timestamped backup bundles: one compressed
// archive per source path plus a package-selection manifest. Per-source
// failures are logged and swallowed so one missing source never aborts
// the bundle; the manifest is written no matter what.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/docker/go-units"

	"networkbuster-cli/internal/run"
)

const (
	// StampLayout names bundle directories; it sorts lexicographically in
	// creation order.
	StampLayout = "20060102-150405"

	// ManifestName is the package-selection manifest inside each bundle.
	ManifestName = "packages.list"

	manifestScript = "dpkg --get-selections"
)

type (
	// Source is one path backed up into its own archive.
	Source struct {
		// Name becomes the archive file name (<Name>.tar.gz).
		Name string
		// Path is the directory to archive.
		Path string
	}

	// ArchiveResult records the outcome for one source.
	ArchiveResult struct {
		Source  Source
		Archive string
		Size    int64
		// Err is the swallowed per-source failure, nil on success.
		Err error
	}

	// Bundle describes one completed backup bundle.
	Bundle struct {
		Dir          string
		Stamp        time.Time
		Archives     []ArchiveResult
		ManifestPath string
	}

	// Runner creates bundles under a destination directory.
	Runner struct {
		dest    string
		sources []Source
		runner  run.Runner
		logger  *log.Logger
		now     func() time.Time
	}
)

// DefaultSources is the fixed source set: configuration, opt-in
// application data, and logs.
func DefaultSources() []Source {
	return []Source{
		{Name: "config", Path: "/etc/networkbuster"},
		{Name: "data", Path: "/opt/networkbuster/data"},
		{Name: "logs", Path: "/var/log/networkbuster"},
	}
}

// New creates a bundle Runner writing under dest. The run.Runner is used
// only for the read-only package manifest dump.
func New(dest string, sources []Source, runner run.Runner, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		dest:    dest,
		sources: sources,
		runner:  runner,
		logger:  logger.With("component", "backup"),
		now:     time.Now,
	}
}

// Run creates one bundle. It fails only when the bundle directory itself
// cannot be created; everything inside is best effort.
func (r *Runner) Run(ctx context.Context) (*Bundle, error) {
	stamp := r.now()
	dir := filepath.Join(r.dest, stamp.Format(StampLayout))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create bundle dir %s: %w", dir, err)
	}
	r.logger.Info("creating backup bundle", "dir", dir)

	bundle := &Bundle{Dir: dir, Stamp: stamp}

	for _, src := range r.sources {
		res := ArchiveResult{Source: src, Archive: filepath.Join(dir, src.Name+".tar.gz")}
		if _, err := os.Stat(src.Path); err != nil {
			res.Err = fmt.Errorf("source unavailable: %w", err)
		} else {
			res.Size, res.Err = writeTarGz(res.Archive, src.Path)
		}
		if res.Err != nil {
			// Best effort per artifact: log and continue, never abort.
			r.logger.Warn("skipping source", "source", src.Name, "err", res.Err)
			_ = os.Remove(res.Archive)
			res.Archive = ""
		} else {
			r.logger.Info("archived source", "source", src.Name, "size", units.HumanSize(float64(res.Size)))
		}
		bundle.Archives = append(bundle.Archives, res)
	}

	manifest, err := r.writeManifest(ctx, dir)
	if err != nil {
		return nil, err
	}
	bundle.ManifestPath = manifest

	r.logger.Info("bundle complete", "dir", dir, "size", units.HumanSize(float64(bundle.Size())))
	return bundle, nil
}

// writeManifest dumps the package-selection state into the bundle. When
// the dump itself fails, a manifest is still written recording the failure
// — the bundle invariant is "manifest always present".
func (r *Runner) writeManifest(ctx context.Context, dir string) (string, error) {
	path := filepath.Join(dir, ManifestName)

	content := ""
	res := r.runner.Run(ctx, run.ReadOnlyScript("backup.manifest", manifestScript))
	switch {
	case res.Err != nil:
		content = fmt.Sprintf("# package manifest unavailable: %v\n", res.Err)
	case !res.ExitCode.IsSuccess():
		content = fmt.Sprintf("# package manifest unavailable: dpkg exited %s\n", res.ExitCode)
	default:
		content = res.Stdout
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write manifest %s: %w", path, err)
	}
	return path, nil
}

// Size returns the total archived bytes in the bundle.
func (b *Bundle) Size() int64 {
	var total int64
	for _, a := range b.Archives {
		total += a.Size
	}
	return total
}

// Skipped returns the sources that could not be archived.
func (b *Bundle) Skipped() []ArchiveResult {
	var out []ArchiveResult
	for _, a := range b.Archives {
		if a.Err != nil {
			out = append(out, a)
		}
	}
	return out
}

// Summary renders a short human-readable report of the bundle.
func (b *Bundle) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "bundle %s (%s)\n", b.Dir, units.HumanSize(float64(b.Size())))
	for _, a := range b.Archives {
		if a.Err != nil {
			fmt.Fprintf(&sb, "  %-8s skipped: %v\n", a.Source.Name, a.Err)
			continue
		}
		fmt.Fprintf(&sb, "  %-8s %s\n", a.Source.Name, units.HumanSize(float64(a.Size)))
	}
	fmt.Fprintf(&sb, "  manifest %s\n", filepath.Base(b.ManifestPath))
	return sb.String()
}
