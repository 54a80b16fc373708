package daemon

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestSplitListenAddr(t *testing.T) {
	tests := []struct {
		in          string
		wantNetwork string
		wantAddr    string
		wantErr     bool
	}{
		{in: "unix:///tmp/livespiff/livespiffd.sock", wantNetwork: "unix", wantAddr: "/tmp/livespiff/livespiffd.sock"},
		{in: "tcp://127.0.0.1:4227", wantNetwork: "tcp", wantAddr: "127.0.0.1:4227"},
		{in: "dbus://session", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		network, addr, err := splitListenAddr(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tt.in, err)
			continue
		}
		if network != tt.wantNetwork || addr != tt.wantAddr {
			t.Errorf("%q: got %s/%s", tt.in, network, addr)
		}
	}
}

func newSocketServer(t *testing.T, socketPath string) *Server {
	t.Helper()
	svc := NewService(clockwork.NewFakeClock())
	return NewServer(
		"unix://"+socketPath,
		NewHandler(svc),
		NewStreamHandler(svc, clockwork.NewFakeClock(), 100*time.Millisecond),
	)
}

func TestClaimListenerRejectsLiveDuplicate(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "livespiffd.sock")

	first := newSocketServer(t, socketPath)
	ln, err := first.claimListener()
	if err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	defer ln.Close()

	second := newSocketServer(t, socketPath)
	if _, err := second.claimListener(); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestClaimListenerSweepsStaleSocket(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "livespiffd.sock")

	// A leftover file that nothing is listening on.
	if err := os.WriteFile(socketPath, nil, 0o600); err != nil {
		t.Fatalf("failed to plant stale socket: %v", err)
	}

	srv := newSocketServer(t, socketPath)
	ln, err := srv.claimListener()
	if err != nil {
		t.Fatalf("claim over stale socket failed: %v", err)
	}
	ln.Close()
}

func TestClaimListenerCreatesSocketDir(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "deep", "livespiffd.sock")

	srv := newSocketServer(t, socketPath)
	ln, err := srv.claimListener()
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	ln.Close()
}
