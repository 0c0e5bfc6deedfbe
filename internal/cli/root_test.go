package cli

import (
	"bytes"
	"strings"
	"testing"
)

// executeCommand runs a command with the given args and captures output.
func executeCommand(args ...string) (string, error) {
	return executeCommandWithInput("", args...)
}

func executeCommandWithInput(input string, args ...string) (string, error) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetIn(strings.NewReader(input))
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// isolate points HOME and the KS_ variables at a scratch environment.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("KS_SERVER_URL", "")
	t.Setenv("KS_ACCESS_TOKEN", "")
}

func TestRootHelp(t *testing.T) {
	out, err := executeCommand("--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, name := range []string{"profit", "value", "listings", "managers", "markets", "serve"} {
		if !strings.Contains(out, name) {
			t.Errorf("help output missing %q", name)
		}
	}
}

func TestGlobalFlags(t *testing.T) {
	root := NewRootCmd()

	formatFlag := root.PersistentFlags().Lookup("format")
	if formatFlag == nil {
		t.Fatal("expected --format flag to exist")
	}
	if formatFlag.DefValue != "text" {
		t.Errorf("expected --format default 'text', got %q", formatFlag.DefValue)
	}

	for _, name := range []string{"db", "config"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected --%s flag to exist", name)
		}
	}
}

func TestVersion(t *testing.T) {
	out, err := executeCommand("version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, Version) {
		t.Errorf("output = %q, want it to contain %q", out, Version)
	}
}

func TestArgsValidation(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"listing show without id", []string{"listings", "show"}, "arg"},
		{"listing show bad id", []string{"listings", "show", "abc"}, "invalid listing ID"},
		{"manager show bad id", []string{"managers", "show", "x1"}, "invalid manager ID"},
		{"markets bad sort", []string{"markets", "compare", "--sort", "price"}, "invalid sort"},
		{"markets roi two markets", []string{"markets", "roi", "austin-tx", "miami-fl"}, "at most 1 arg"},
		{"geocode without address", []string{"geocode"}, "arg"},
		{"profit without price", []string{"profit"}, "price"},
		{"status with args", []string{"status", "extra"}, "unknown command"},
		{"login without email", []string{"login"}, "email"},
		{"signup bad role", []string{"signup", "--email", "a@b.co", "--password", "pw", "--role", "admin"}, "invalid role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}
