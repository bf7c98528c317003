// SPDX-License-Identifier: MPL-2.0

package identity

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"networkbuster-cli/internal/testutil"
)

func TestApplyStepOrder(t *testing.T) {
	rec := testutil.NewRecorderRunner()
	p := New(rec, nil)

	if err := p.Apply(context.Background(), DefaultLayout()); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}

	want := []string{
		"identity.group", "identity.user", "identity.groups",
		"identity.dir", "identity.dir", "identity.dir", "identity.dir",
	}
	if got := rec.Steps(); !reflect.DeepEqual(got, want) {
		t.Errorf("Steps = %v, want %v", got, want)
	}
}

func TestApplyScripts(t *testing.T) {
	rec := testutil.NewRecorderRunner()
	p := New(rec, nil)

	if err := p.Apply(context.Background(), DefaultLayout()); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	scripts := rec.Scripts()

	// Creation is guarded by getent so a re-run is a no-op.
	if !strings.Contains(scripts[0], "getent group netbuster") || !strings.Contains(scripts[0], "groupadd netbuster") {
		t.Errorf("group script missing getent guard: %q", scripts[0])
	}
	if !strings.Contains(scripts[1], "getent passwd netbuster") {
		t.Errorf("user script missing getent guard: %q", scripts[1])
	}
	if !strings.Contains(scripts[1], "-G sudo,adm") {
		t.Errorf("user script missing admin groups: %q", scripts[1])
	}
	if !strings.Contains(scripts[2], "usermod -aG sudo,adm netbuster") {
		t.Errorf("membership script wrong: %q", scripts[2])
	}
	if !strings.Contains(scripts[3], "mkdir -p /etc/networkbuster") ||
		!strings.Contains(scripts[3], "chown netbuster:netbuster /etc/networkbuster") {
		t.Errorf("dir script wrong: %q", scripts[3])
	}
}

func TestApplyToleratesAlreadyExists(t *testing.T) {
	rec := testutil.NewRecorderRunner()
	// Exit 9 is the shadow-utils "name already in use" status.
	rec.ByStep["identity.group"] = testutil.Reply{ExitCode: 9}
	rec.ByStep["identity.user"] = testutil.Reply{ExitCode: 9}

	if err := New(rec, nil).Apply(context.Background(), DefaultLayout()); err != nil {
		t.Errorf("Apply should treat exit 9 as success, got %v", err)
	}
}

func TestApplyFailsOnOtherExitCodes(t *testing.T) {
	rec := testutil.NewRecorderRunner()
	rec.ByStep["identity.user"] = testutil.Reply{ExitCode: 1, Stderr: "useradd: permission denied"}

	err := New(rec, nil).Apply(context.Background(), DefaultLayout())
	if err == nil {
		t.Fatal("expected error for exit 1")
	}
	if !strings.Contains(err.Error(), "create user") {
		t.Errorf("error should name the failed operation: %v", err)
	}

	// Fail-stop: no directory steps after the user failure.
	for _, step := range rec.Steps() {
		if step == "identity.dir" {
			t.Error("directory steps must not run after a user failure")
		}
	}
}
