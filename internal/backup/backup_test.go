// SPDX-License-Identifier: MPL-2.0

package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"networkbuster-cli/internal/testutil"
)

var fixedStamp = time.Date(2026, 8, 31, 3, 30, 0, 0, time.UTC)

// newTestRunner builds a Runner over temp dirs with a pinned clock and a
// scripted dpkg reply.
func newTestRunner(t *testing.T, sources []Source) (*Runner, *testutil.RecorderRunner, string) {
	t.Helper()
	dest := t.TempDir()
	rec := testutil.NewRecorderRunner()
	rec.ByStep["backup.manifest"] = testutil.Reply{Stdout: "curl\tinstall\ntar\tinstall\n"}

	r := New(dest, sources, rec, nil)
	r.now = func() time.Time { return fixedStamp }
	return r, rec, dest
}

func sourceDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		testutil.MustMkdirAll(t, filepath.Dir(path))
		testutil.MustWriteFile(t, path, content)
	}
	return dir
}

func TestRunCreatesStampedBundle(t *testing.T) {
	src := sourceDir(t, map[string]string{"app.conf": "key=value\n", "sub/extra.conf": "x\n"})
	r, _, dest := newTestRunner(t, []Source{{Name: "config", Path: src}})

	bundle, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	wantDir := filepath.Join(dest, "20260831-033000")
	if bundle.Dir != wantDir {
		t.Errorf("bundle dir = %s, want %s", bundle.Dir, wantDir)
	}
	if len(bundle.Archives) != 1 || bundle.Archives[0].Err != nil {
		t.Fatalf("unexpected archive results: %+v", bundle.Archives)
	}
	if bundle.Size() <= 0 {
		t.Errorf("Size() = %d, want > 0", bundle.Size())
	}

	names := tarEntries(t, bundle.Archives[0].Archive)
	for _, want := range []string{"app.conf", "sub/extra.conf"} {
		if !names[want] {
			t.Errorf("archive missing entry %q (have %v)", want, names)
		}
	}
}

func TestRunSkipsMissingSourcesButKeepsGoing(t *testing.T) {
	src := sourceDir(t, map[string]string{"data.bin": "payload"})
	r, _, _ := newTestRunner(t, []Source{
		{Name: "config", Path: "/definitely/not/there"},
		{Name: "data", Path: src},
	})

	bundle, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("a missing source must not abort the bundle: %v", err)
	}

	skipped := bundle.Skipped()
	if len(skipped) != 1 || skipped[0].Source.Name != "config" {
		t.Fatalf("Skipped = %+v, want just config", skipped)
	}
	if skipped[0].Archive != "" {
		t.Error("skipped source should not report an archive path")
	}
	if bundle.Archives[1].Err != nil {
		t.Errorf("data source should have succeeded: %v", bundle.Archives[1].Err)
	}
}

func TestRunAlwaysWritesManifest(t *testing.T) {
	r, rec, _ := newTestRunner(t, nil)
	bundle, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	raw, err := os.ReadFile(bundle.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if !strings.Contains(string(raw), "curl\tinstall") {
		t.Errorf("manifest content = %q", raw)
	}
	if len(rec.Commands) != 1 || !rec.Commands[0].ReadOnly {
		t.Error("manifest dump must be the only command and read-only")
	}
}

func TestRunManifestFailureStillWritesFile(t *testing.T) {
	r, rec, _ := newTestRunner(t, nil)
	rec.ByStep["backup.manifest"] = testutil.Reply{ExitCode: 2, Stderr: "dpkg: error"}

	bundle, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	raw, err := os.ReadFile(bundle.ManifestPath)
	if err != nil {
		t.Fatalf("manifest must exist even when dpkg fails: %v", err)
	}
	if !strings.Contains(string(raw), "unavailable") {
		t.Errorf("manifest should record the failure, got %q", raw)
	}
}

func TestBundleSummary(t *testing.T) {
	src := sourceDir(t, map[string]string{"a.txt": "aaa"})
	r, _, _ := newTestRunner(t, []Source{
		{Name: "config", Path: src},
		{Name: "logs", Path: "/missing"},
	})

	bundle, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	sum := bundle.Summary()
	for _, want := range []string{"bundle ", "config", "logs", "skipped", ManifestName} {
		if !strings.Contains(sum, want) {
			t.Errorf("Summary missing %q:\n%s", want, sum)
		}
	}
}

// tarEntries returns the set of file names inside a .tar.gz archive.
func tarEntries(t *testing.T, path string) map[string]bool {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	defer gz.Close()

	names := map[string]bool{}
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read archive: %v", err)
		}
		names[hdr.Name] = true
	}
	return names
}
