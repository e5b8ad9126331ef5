package sherlock

import (
	"context"
	"errors"
	"testing"
	"time"

	"accountscan/pkg/testutil"
)

func TestAvailable(t *testing.T) {
	s := NewScanner()

	s.lookPath = func(string) (string, error) { return "/usr/bin/sherlock", nil }
	if !s.Available() {
		t.Error("Available() = false with binary on PATH")
	}

	s.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	if s.Available() {
		t.Error("Available() = true with binary missing")
	}
}

func TestScanParsesStdoutFallback(t *testing.T) {
	mock := testutil.NewMockCommandRunner()
	mock.SetResponse("sherlock", testutil.CommandResponse{
		Stdout: []byte("[+] GitHub: https://github.com/test\n[+] Twitter: https://twitter.com/test\n"),
	})
	s := NewScanner(WithRunner(mock))

	accounts, err := s.Scan(context.Background(), "test", 60*time.Second, false)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("got %d accounts, want 2", len(accounts))
	}

	cmds := mock.ExecutedCommands()
	if len(cmds) != 1 {
		t.Fatalf("got %d executed commands, want 1", len(cmds))
	}
	args := cmds[0].Args
	if !testutil.ArgsContain(args, "--timeout", "60") {
		t.Errorf("missing timeout argument: %v", args)
	}
	if !testutil.ArgsContain(args, "--", "test") {
		t.Errorf("username not preceded by -- separator: %v", args)
	}
	if !testutil.ArgsContain(args, "--print-found") {
		t.Errorf("missing --print-found: %v", args)
	}
}

func TestScanDegradesOnRunnerError(t *testing.T) {
	mock := testutil.NewMockCommandRunner()
	mock.SetResponse("sherlock", testutil.CommandResponse{
		Stderr: []byte("boom"),
		Error:  errors.New("execution failed: exit status 1"),
	})
	s := NewScanner(WithRunner(mock))

	accounts, err := s.Scan(context.Background(), "test", time.Second, true)
	if err != nil {
		t.Fatalf("Scan should not propagate tool failure, got %v", err)
	}
	if len(accounts) != 0 {
		t.Errorf("got %d accounts, want 0", len(accounts))
	}
	if accounts == nil {
		t.Error("degraded result should be an empty list, not nil")
	}
}

func TestScanPropagatesCancellation(t *testing.T) {
	mock := testutil.NewMockCommandRunner()
	mock.SetResponse("sherlock", testutil.CommandResponse{
		Delay: time.Second,
	})
	s := NewScanner(WithRunner(mock))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := s.Scan(ctx, "test", 30*time.Second, false)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Scan error = %v, want context.Canceled", err)
	}
}
