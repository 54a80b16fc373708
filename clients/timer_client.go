// Package clients provides Go clients for the livespiffd RPC surface. The
// bundled livespiffctl command and any Go front-end use TimerClient instead of
// speaking HTTP directly.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// ErrNotConnected is returned when the daemon endpoint is unreachable.
// Front-ends must treat it as "daemon not running" and show a neutral
// placeholder rather than failing.
var ErrNotConnected = errors.New("livespiffd is not reachable")

// ErrUnknownMethod is returned on a protocol mismatch between client and
// daemon.
var ErrUnknownMethod = errors.New("unknown RPC method")

// TimerClient talks to a livespiffd instance. The zero value is not usable;
// construct with NewTimerClient.
type TimerClient struct {
	baseURL string
	client  *http.Client
}

// NewTimerClient creates a client for the daemon at addr, either
// "unix:///path/to.sock" or "tcp://host:port". Calls time out after timeout.
func NewTimerClient(addr string, timeout time.Duration) (*TimerClient, error) {
	switch {
	case strings.HasPrefix(addr, "unix://"):
		socketPath := strings.TrimPrefix(addr, "unix://")
		transport := &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", socketPath)
			},
		}
		return &TimerClient{
			// The host is a placeholder; the transport always dials the socket.
			baseURL: "http://livespiffd",
			client:  &http.Client{Transport: transport, Timeout: timeout},
		}, nil
	case strings.HasPrefix(addr, "tcp://"):
		return &TimerClient{
			baseURL: "http://" + strings.TrimPrefix(addr, "tcp://"),
			client:  &http.Client{Timeout: timeout},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported daemon address %q (want unix:// or tcp://)", addr)
	}
}

type faultResponse struct {
	Fault   string `json:"fault"`
	Message string `json:"message"`
}

type pathRequest struct {
	Path string `json:"path"`
}

type runFileResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func (c *TimerClient) call(ctx context.Context, method string, reqBody, out any) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rpc/v1/"+method, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var fault faultResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&fault); decodeErr == nil && fault.Fault != "" {
			if fault.Fault == "unknown_method" {
				return fmt.Errorf("%w: %s", ErrUnknownMethod, fault.Message)
			}
			return fmt.Errorf("RPC fault %s: %s", fault.Fault, fault.Message)
		}
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// StartOrSplit starts the timer, or crosses the next split while running.
func (c *TimerClient) StartOrSplit(ctx context.Context) error {
	return c.call(ctx, "StartOrSplit", nil, nil)
}

// TogglePause pauses a running timer or resumes a paused one.
func (c *TimerClient) TogglePause(ctx context.Context) error {
	return c.call(ctx, "TogglePause", nil, nil)
}

// Reset returns the timer to Idle.
func (c *TimerClient) Reset(ctx context.Context) error {
	return c.call(ctx, "Reset", nil, nil)
}

// ElapsedMs reports the attempt's elapsed time in milliseconds.
func (c *TimerClient) ElapsedMs(ctx context.Context) (int64, error) {
	var resp struct {
		ElapsedMs int64 `json:"elapsed_ms"`
	}
	if err := c.call(ctx, "ElapsedMs", nil, &resp); err != nil {
		return 0, err
	}
	return resp.ElapsedMs, nil
}

// State reports the timer phase: Idle, Running, Paused, or Finished.
func (c *TimerClient) State(ctx context.Context) (string, error) {
	var resp struct {
		State string `json:"state"`
	}
	if err := c.call(ctx, "State", nil, &resp); err != nil {
		return "", err
	}
	return resp.State, nil
}

// CurrentSplit reports the next segment boundary to be crossed, 0-based.
func (c *TimerClient) CurrentSplit(ctx context.Context) (int32, error) {
	var resp struct {
		Index int32 `json:"index"`
	}
	if err := c.call(ctx, "CurrentSplit", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Index, nil
}

// SplitCount reports the live run's segment count.
func (c *TimerClient) SplitCount(ctx context.Context) (int32, error) {
	var resp struct {
		Count int32 `json:"count"`
	}
	if err := c.call(ctx, "SplitCount", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// LoadRun asks the daemon to replace the live run with the file at path.
// The bool/message pair mirrors the daemon reply; err covers transport
// problems only.
func (c *TimerClient) LoadRun(ctx context.Context, path string) (bool, string, error) {
	var resp runFileResponse
	if err := c.call(ctx, "LoadRun", pathRequest{Path: path}, &resp); err != nil {
		return false, "", err
	}
	return resp.OK, resp.Message, nil
}

// SaveRun asks the daemon to write the live run to path.
func (c *TimerClient) SaveRun(ctx context.Context, path string) (bool, string, error) {
	var resp runFileResponse
	if err := c.call(ctx, "SaveRun", pathRequest{Path: path}, &resp); err != nil {
		return false, "", err
	}
	return resp.OK, resp.Message, nil
}

// RunJSON fetches the live run as a pretty-printed JSON document.
func (c *TimerClient) RunJSON(ctx context.Context) (string, error) {
	var resp struct {
		JSON string `json:"json"`
	}
	if err := c.call(ctx, "GetRunJson", nil, &resp); err != nil {
		return "", err
	}
	return resp.JSON, nil
}
