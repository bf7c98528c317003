// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"networkbuster-cli/internal/config"
	"networkbuster-cli/internal/install"
	"networkbuster-cli/internal/journal"
	"networkbuster-cli/internal/schedule"
	"networkbuster-cli/internal/testutil"
)

func TestRunPipelineStageOrder(t *testing.T) {
	cfg := config.DefaultConfig()
	plan := &install.Plan{Groups: []install.Group{
		{Name: "system", Steps: []install.Step{
			{Name: "apt.update", Script: "apt-get update -y"},
			{Name: "apt.base", Script: "apt-get install -y curl"},
		}},
	}}
	jnl, err := journal.Open(filepath.Join(t.TempDir(), "provision.journal"))
	if err != nil {
		t.Fatal(err)
	}
	rec := testutil.NewRecorderRunner()

	at := schedule.TimeOfDay{Hour: 3, Minute: 30}
	if err := runPipeline(context.Background(), cfg, plan, at, rec, jnl, "run-1"); err != nil {
		t.Fatalf("runPipeline returned error: %v", err)
	}

	want := []string{
		"apt.update", "apt.base",
		"identity.group", "identity.user", "identity.groups",
		"identity.dir", "identity.dir", "identity.dir", "identity.dir",
		"branding.release", "branding.banner",
		"backup.script",
		"schedule.register",
	}
	if got := rec.Steps(); !reflect.DeepEqual(got, want) {
		t.Errorf("pipeline steps = %v, want %v", got, want)
	}

	// Install steps land in the journal; the run ID reaches the branding.
	if done, err := jnl.Done("install.apt.update"); err != nil || !done {
		t.Errorf("journal Done(install.apt.update) = %v, %v; want true, nil", done, err)
	}
	var release string
	for _, script := range rec.Scripts() {
		if strings.Contains(script, "networkbuster-release") {
			release = script
		}
	}
	if !strings.Contains(release, "RUN_ID=run-1") {
		t.Errorf("release file missing the pipeline run ID:\n%s", release)
	}
}

func TestProvisionJournalDryRun(t *testing.T) {
	t.Cleanup(config.Reset)
	config.SetConfigDirOverride(t.TempDir())

	provisionDryRun = true
	t.Cleanup(func() { provisionDryRun = false })

	jnl, runID, err := provisionJournal()
	if err != nil {
		t.Fatalf("provisionJournal returned error: %v", err)
	}
	// A preview must not carry a journal: every step would be recorded as
	// complete and a later --resume would skip work that never ran.
	if jnl != nil {
		t.Error("dry run must not journal steps")
	}
	if runID == "" {
		t.Error("dry run still needs a run ID for display")
	}

	path, err := journalPath("provision")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("dry run must not create a journal file: %v", err)
	}
}

func TestProvisionJournalRealRun(t *testing.T) {
	t.Cleanup(config.Reset)
	config.SetConfigDirOverride(t.TempDir())

	jnl, runID, err := provisionJournal()
	if err != nil {
		t.Fatalf("provisionJournal returned error: %v", err)
	}
	if jnl == nil || runID != jnl.RunID() {
		t.Errorf("real run journal = %v, runID = %q", jnl, runID)
	}
}

func TestProvisionAbortsBeforeMutation(t *testing.T) {
	t.Cleanup(config.Reset)
	config.SetConfigDirOverride(t.TempDir())

	provisionBackupDest = filepath.Join(t.TempDir(), "does", "not", "exist")
	t.Cleanup(func() { provisionBackupDest = "" })

	provisionCmd.SetContext(context.Background())
	if err := runProvision(provisionCmd, nil); err == nil {
		t.Fatal("provision must fail when the backup destination is absent")
	}

	// Preflight runs before the lock and journal, so a failed run leaves
	// no state behind.
	jnlFile, err := journalPath("provision")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(jnlFile); !os.IsNotExist(err) {
		t.Errorf("failed preflight must not create a journal: %v", err)
	}
	lockFile, err := lockPath()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(lockFile); !os.IsNotExist(err) {
		t.Errorf("failed preflight must not create a lock file: %v", err)
	}
}
