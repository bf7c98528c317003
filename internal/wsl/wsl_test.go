// SPDX-License-Identifier: MPL-2.0

package wsl

import (
	"context"
	"reflect"
	"testing"

	"networkbuster-cli/internal/run"
	"networkbuster-cli/internal/testutil"
)

// utf16le encodes s as BOM-prefixed UTF-16LE, the way wsl.exe emits text.
func utf16le(s string) string {
	out := []byte{0xFF, 0xFE}
	for _, r := range s {
		out = append(out, byte(r), byte(r>>8))
	}
	return string(out)
}

func TestParseDistroList(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want []string
	}{
		{"plain utf8", "Ubuntu\nNetworkBuster\n", []string{"Ubuntu", "NetworkBuster"}},
		{"crlf", "Ubuntu\r\nNetworkBuster\r\n", []string{"Ubuntu", "NetworkBuster"}},
		{"utf16le bom", utf16le("Ubuntu\r\nNetworkBuster\r\n"), []string{"Ubuntu", "NetworkBuster"}},
		{"utf16le no bom", utf16le("Ubuntu\r\n")[2:], []string{"Ubuntu"}},
		{"empty", "", nil},
		{"blank lines", "\n\nUbuntu\n\n", []string{"Ubuntu"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseDistroList(tt.out)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseDistroList = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExecClientList(t *testing.T) {
	rec := testutil.NewRecorderRunner()
	rec.ByStep["wsl.list"] = testutil.Reply{Stdout: "NetworkBuster\nUbuntu\n"}

	client := NewExecClient(rec)
	names, err := client.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"NetworkBuster", "Ubuntu"}) {
		t.Errorf("List = %v", names)
	}

	if len(rec.Commands) != 1 || rec.Commands[0].Path != Exe {
		t.Fatalf("expected one wsl.exe invocation, got %+v", rec.Commands)
	}
	if !rec.Commands[0].ReadOnly {
		t.Error("List must be a read-only command")
	}
}

func TestExecClientExportFailure(t *testing.T) {
	rec := testutil.NewRecorderRunner()
	rec.ByStep["wsl.export"] = testutil.Reply{ExitCode: 1, Stderr: "There is no distribution with the supplied name."}

	client := NewExecClient(rec)
	err := client.Export(context.Background(), "Nope", "out.tar")
	if err == nil {
		t.Fatal("expected error for failed export")
	}
}

func TestRegistered(t *testing.T) {
	rec := testutil.NewRecorderRunner()
	rec.ByStep["wsl.list"] = testutil.Reply{Stdout: "NetworkBuster\n"}
	client := NewExecClient(rec)

	ok, err := Registered(context.Background(), client, "NetworkBuster")
	if err != nil || !ok {
		t.Errorf("Registered(NetworkBuster) = %v, %v; want true, nil", ok, err)
	}
	ok, err = Registered(context.Background(), client, "Other")
	if err != nil || ok {
		t.Errorf("Registered(Other) = %v, %v; want false, nil", ok, err)
	}
}

func TestUNCPath(t *testing.T) {
	got := UNCPath("NetworkBuster", "/etc/networkbuster")
	want := `\\wsl$\NetworkBuster\etc\networkbuster`
	if got != want {
		t.Errorf("UNCPath = %q, want %q", got, want)
	}
}

func TestDistroRunnerWrapsCommands(t *testing.T) {
	rec := testutil.NewRecorderRunner()
	dr := NewDistroRunner("NetworkBuster", rec)

	dr.Run(context.Background(), run.Script("identity.group", "getent group netbuster"))

	if len(rec.Commands) != 1 {
		t.Fatalf("expected one command, got %d", len(rec.Commands))
	}
	c := rec.Commands[0]
	if c.Path != Exe {
		t.Errorf("Path = %q, want %q", c.Path, Exe)
	}
	want := []string{"-d", "NetworkBuster", "--", "sh", "-c", "getent group netbuster"}
	if !reflect.DeepEqual(c.Args, want) {
		t.Errorf("Args = %v, want %v", c.Args, want)
	}
	if c.Name != "identity.group" {
		t.Errorf("Name = %q, step label must survive wrapping", c.Name)
	}
}
