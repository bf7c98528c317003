// SPDX-License-Identifier: MPL-2.0

// Package distro repackages a configured distribution: export to an
// archive, unregister the original, re-import under a new name.
//
// The sequence is inherently non-atomic, so the repackager hardens it:
// the archive is verified before the original is unregistered, every step
// is journaled, and the archive is retained until the import is confirmed
// registered. A failure after unregistration names the archive that
// restores the environment.
package distro

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"networkbuster-cli/internal/issue"
	"networkbuster-cli/internal/journal"
	"networkbuster-cli/internal/wsl"
)

// minArchiveBytes rejects obviously-truncated exports. A freshly imported
// Ubuntu rootfs tar is hundreds of megabytes; anything under this is a
// failed export that exited zero.
const minArchiveBytes = 1 << 20

// Options parameterizes one repackaging run.
type Options struct {
	// Distro is the source distribution name.
	Distro string
	// NewName is the identity to re-import under.
	NewName string
	// Archive is the export destination path.
	Archive string
	// InstallDir is where the re-imported filesystem lives.
	InstallDir string
	// KeepArchive retains the archive even after a confirmed import.
	KeepArchive bool
}

// Repackager drives the export/unregister/import sequence.
type Repackager struct {
	client  wsl.Client
	journal *journal.Journal
	logger  *log.Logger
	stat    func(string) (os.FileInfo, error)
}

// New creates a Repackager. The journal may be nil to disable resume.
func New(client wsl.Client, jnl *journal.Journal, logger *log.Logger) *Repackager {
	if logger == nil {
		logger = log.Default()
	}
	return &Repackager{
		client:  client,
		journal: jnl,
		logger:  logger.With("component", "repack"),
		stat:    os.Stat,
	}
}

// Repack runs the full sequence. Completed steps found in the journal are
// skipped, so an interrupted run resumes where it stopped.
func (r *Repackager) Repack(ctx context.Context, opts Options) error {
	if opts.Distro == opts.NewName {
		return fmt.Errorf("source and new distribution names are both %q", opts.Distro)
	}

	registered, err := wsl.Registered(ctx, r.client, opts.Distro)
	if err != nil {
		return err
	}
	exported, err := r.done("repack.export")
	if err != nil {
		return err
	}
	if !registered && !exported {
		return issue.NewErrorContext().
			WithOperation("repackage distribution").
			WithResource(opts.Distro).
			WithSuggestion("list registered distributions with 'wsl --list'").
			Wrap(fmt.Errorf("distribution %s is not registered", opts.Distro)).
			BuildError()
	}

	if err := r.step(ctx, "repack.export", func() error {
		r.logger.Info("exporting distribution", "distro", opts.Distro, "archive", opts.Archive)
		return r.client.Export(ctx, opts.Distro, opts.Archive)
	}); err != nil {
		return err
	}

	// The archive is the only copy of the environment once the original is
	// unregistered; refuse to proceed on anything suspicious.
	if err := r.verifyArchive(opts.Archive); err != nil {
		return err
	}

	if err := r.step(ctx, "repack.terminate", func() error {
		r.logger.Info("terminating distribution", "distro", opts.Distro)
		return r.client.Terminate(ctx, opts.Distro)
	}); err != nil {
		return err
	}

	if err := r.step(ctx, "repack.unregister", func() error {
		r.logger.Info("unregistering distribution", "distro", opts.Distro)
		return r.client.Unregister(ctx, opts.Distro)
	}); err != nil {
		return err
	}

	if err := r.step(ctx, "repack.import", func() error {
		r.logger.Info("importing distribution", "distro", opts.NewName, "archive", opts.Archive)
		return r.client.Import(ctx, opts.NewName, opts.InstallDir, opts.Archive)
	}); err != nil {
		return recoveryError(err, opts)
	}

	ok, err := wsl.Registered(ctx, r.client, opts.NewName)
	if err != nil {
		return recoveryError(err, opts)
	}
	if !ok {
		return recoveryError(fmt.Errorf("distribution %s is not registered after import", opts.NewName), opts)
	}

	if !opts.KeepArchive {
		r.logger.Info("removing export archive", "archive", opts.Archive)
		if err := os.Remove(opts.Archive); err != nil && !os.IsNotExist(err) {
			// The repack itself succeeded; a leftover archive is not fatal.
			r.logger.Warn("could not remove archive", "archive", opts.Archive, "err", err)
		}
	}

	if r.journal != nil {
		if err := r.journal.Clear(); err != nil {
			r.logger.Warn("could not clear journal", "err", err)
		}
	}
	r.logger.Info("repack complete", "distro", opts.NewName)
	return nil
}

func (r *Repackager) verifyArchive(path string) error {
	info, err := r.stat(path)
	if err != nil {
		return fmt.Errorf("verify export archive %s: %w", path, err)
	}
	if info.Size() < minArchiveBytes {
		return fmt.Errorf("export archive %s is implausibly small (%d bytes); refusing to unregister the original", path, info.Size())
	}
	return nil
}

func (r *Repackager) step(ctx context.Context, name string, fn func() error) error {
	if done, err := r.done(name); err != nil {
		return err
	} else if done {
		r.logger.Info("step already complete, skipping", "step", name)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	if r.journal != nil {
		if err := r.journal.MarkDone(name); err != nil {
			return fmt.Errorf("journal step %s: %w", name, err)
		}
	}
	return nil
}

func (r *Repackager) done(name string) (bool, error) {
	if r.journal == nil {
		return false, nil
	}
	return r.journal.Done(name)
}

// recoveryError wraps a post-unregister failure with the retained archive
// path, the one thing that makes the environment recoverable.
func recoveryError(err error, opts Options) error {
	return issue.NewErrorContext().
		WithOperation("repackage distribution").
		WithResource(opts.NewName).
		WithSuggestion(fmt.Sprintf("the export archive is retained at %s — do not delete it", opts.Archive)).
		WithSuggestion(fmt.Sprintf("recover with: wsl --import %s %s %s", opts.NewName, opts.InstallDir, opts.Archive)).
		WithSuggestion("re-run 'networkbuster repack' to resume from the journal").
		Wrap(err).
		BuildError()
}
