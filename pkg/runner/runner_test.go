package runner

import (
	"context"
	"strings"
	"testing"
)

func TestValidateCommand(t *testing.T) {
	r := NewSimpleRunner()

	testCases := []struct {
		name    string
		command string
		wantErr bool
	}{
		{"bare binary name", "sherlock", false},
		{"name with dash", "my-tool", false},
		{"empty command", "", true},
		{"shell injection", "sherlock; rm -rf /", true},
		{"path separator", "/usr/bin/sherlock", true},
		{"space in command", "sherlock foo", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := r.validateCommand(tc.command)
			if (err != nil) != tc.wantErr {
				t.Errorf("validateCommand(%q) error = %v, wantErr %v", tc.command, err, tc.wantErr)
			}
		})
	}
}

func TestValidateArgument(t *testing.T) {
	r := NewSimpleRunner()

	testCases := []struct {
		name    string
		arg     string
		wantErr bool
	}{
		{"plain username", "some_user-1", false},
		{"empty argument", "", false},
		{"flag argument", "--timeout", false},
		{"semicolon", "user;id", true},
		{"backtick", "user`id`", true},
		{"pipe", "user|cat", true},
		{"subshell", "$(whoami)", true},
		{"newline", "user\nid", true},
		{"path traversal", "../../etc/passwd", true},
		{"dots in URL allowed", "https://example.com/../ok", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := r.validateArgument(tc.arg)
			if (err != nil) != tc.wantErr {
				t.Errorf("validateArgument(%q) error = %v, wantErr %v", tc.arg, err, tc.wantErr)
			}
		})
	}
}

func TestRunRejectsDangerousArgsBeforeExec(t *testing.T) {
	r := NewSimpleRunner()

	_, _, err := r.Run(context.Background(), "echo", []string{"hello; rm -rf /"})
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "dangerous character") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunCapturesStdout(t *testing.T) {
	r := NewSimpleRunner()

	stdout, _, err := r.Run(context.Background(), "echo", []string{"hello"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := strings.TrimSpace(string(stdout)); got != "hello" {
		t.Errorf("stdout = %q, want %q", got, "hello")
	}
}
