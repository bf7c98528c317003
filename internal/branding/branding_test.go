// SPDX-License-Identifier: MPL-2.0

package branding

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"networkbuster-cli/internal/testutil"
)

func testInfo() Info {
	return Info{
		DistroName: "NetworkBuster",
		Version:    "1.4.0",
		RunID:      "a2c4e6",
		Time:       time.Date(2026, 8, 31, 12, 30, 0, 0, time.UTC),
	}
}

func TestReleaseContent(t *testing.T) {
	got := ReleaseContent(testInfo())
	want := "NAME=NetworkBuster\nVERSION=1.4.0\nPROVISIONED=2026-08-31T12:30:00Z\nRUN_ID=a2c4e6\n"
	if got != want {
		t.Errorf("ReleaseContent =\n%q\nwant\n%q", got, want)
	}
}

func TestBannerContent(t *testing.T) {
	got := BannerContent(testInfo())
	for _, want := range []string{"Welcome to NetworkBuster 1.4.0", "Provisioned 2026-08-31"} {
		if !strings.Contains(got, want) {
			t.Errorf("BannerContent missing %q:\n%s", want, got)
		}
	}
}

func TestWriteEmitsBothFiles(t *testing.T) {
	rec := testutil.NewRecorderRunner()
	w := New(rec, nil)

	if err := w.Write(context.Background(), testInfo()); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	want := []string{"branding.release", "branding.banner"}
	if got := rec.Steps(); !reflect.DeepEqual(got, want) {
		t.Errorf("Steps = %v, want %v", got, want)
	}

	scripts := rec.Scripts()
	if !strings.Contains(scripts[0], "cat > "+ReleasePath+" <<'NETWORKBUSTER_EOF'") {
		t.Errorf("release script missing quoted heredoc: %q", scripts[0])
	}
	if !strings.Contains(scripts[0], "NAME=NetworkBuster") {
		t.Errorf("release script missing content: %q", scripts[0])
	}
	if !strings.Contains(scripts[1], "cat > "+BannerPath+" ") {
		t.Errorf("banner script targets wrong path: %q", scripts[1])
	}
}

func TestWriteFailureNamesPath(t *testing.T) {
	rec := testutil.NewRecorderRunner()
	rec.ByStep["branding.banner"] = testutil.Reply{ExitCode: 1, Stderr: "read-only file system"}

	err := New(rec, nil).Write(context.Background(), testInfo())
	if err == nil {
		t.Fatal("expected error for failed banner write")
	}
	if !strings.Contains(err.Error(), BannerPath) {
		t.Errorf("error should name the file: %v", err)
	}
}
