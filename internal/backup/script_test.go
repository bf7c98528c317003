// SPDX-License-Identifier: MPL-2.0

package backup

import (
	"context"
	"strings"
	"testing"

	"mvdan.cc/sh/v3/syntax"

	"networkbuster-cli/internal/testutil"
)

func TestGenerateScript(t *testing.T) {
	cfg := DefaultScriptConfig("/var/backups/networkbuster")
	script, err := GenerateScript(cfg)
	if err != nil {
		t.Fatalf("GenerateScript returned error: %v", err)
	}

	if !strings.HasPrefix(script, "#!/bin/sh\n") {
		t.Errorf("script missing shebang:\n%s", script)
	}
	for _, want := range []string{
		"BUNDLE=/var/backups/networkbuster/$STAMP",
		"LOG=/var/log/networkbuster/backup.log",
		"/etc/networkbuster",
		"/opt/networkbuster/data",
		"dpkg --get-selections",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q:\n%s", want, script)
		}
	}

	// The emitted script must be valid POSIX shell.
	parser := syntax.NewParser(syntax.Variant(syntax.LangPOSIX))
	if _, err := parser.Parse(strings.NewReader(script), "backup.sh"); err != nil {
		t.Errorf("emitted script does not parse: %v", err)
	}
}

func TestGenerateScriptSwallowsPerSourceFailures(t *testing.T) {
	script, err := GenerateScript(DefaultScriptConfig("/dest"))
	if err != nil {
		t.Fatalf("GenerateScript returned error: %v", err)
	}
	// Each source is guarded so a missing path logs instead of aborting.
	if got := strings.Count(script, "if [ -d "); got != len(DefaultSources()) {
		t.Errorf("expected %d guarded sources, found %d:\n%s", len(DefaultSources()), got, script)
	}
}

func TestInstallScript(t *testing.T) {
	rec := testutil.NewRecorderRunner()
	cfg := DefaultScriptConfig("/var/backups/networkbuster")

	if err := InstallScript(context.Background(), rec, cfg, DefaultScriptPath); err != nil {
		t.Fatalf("InstallScript returned error: %v", err)
	}

	scripts := rec.Scripts()
	if len(scripts) != 1 {
		t.Fatalf("expected one install command, got %d", len(scripts))
	}
	for _, want := range []string{
		"cat > " + DefaultScriptPath + " <<'NETWORKBUSTER_EOF'",
		"#!/bin/sh",
		"chmod 755 " + DefaultScriptPath,
	} {
		if !strings.Contains(scripts[0], want) {
			t.Errorf("install command missing %q:\n%s", want, scripts[0])
		}
	}
}

func TestInstallScriptFailure(t *testing.T) {
	rec := testutil.NewRecorderRunner()
	rec.ByStep["backup.script"] = testutil.Reply{ExitCode: 1, Stderr: "permission denied"}

	err := InstallScript(context.Background(), rec, DefaultScriptConfig("/dest"), DefaultScriptPath)
	if err == nil {
		t.Fatal("expected error for failed install")
	}
	if !strings.Contains(err.Error(), DefaultScriptPath) {
		t.Errorf("error should name the script path: %v", err)
	}
}
