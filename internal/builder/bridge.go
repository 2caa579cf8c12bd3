package builder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Bridge talks to the generation backend: a node runner that reads one JSON
// request from stdin and writes one JSON response to stdout.
type Bridge struct {
	rootDir string
	timeout time.Duration
}

type request struct {
	Action string         `json:"action"`
	ID     string         `json:"id,omitempty"`
	Config map[string]any `json:"config,omitempty"`
}

type response struct {
	OK    bool   `json:"ok"`
	Path  string `json:"path,omitempty"`
	Error string `json:"error,omitempty"`
}

// NewBridge creates a bridge rooted at the project directory holding the
// runner and its templates.
func NewBridge(rootDir string) *Bridge {
	return &Bridge{
		rootDir: rootDir,
		timeout: 5 * time.Minute,
	}
}

func (b *Bridge) runnerCommand() []string {
	dist := filepath.Join(b.rootDir, "dist", "builder_runner.js")
	if _, err := os.Stat(dist); err == nil {
		return []string{"node", dist}
	}
	src := filepath.Join(b.rootDir, "src", "builder_runner.ts")
	return []string{
		"node",
		"--loader", "ts-node/esm",
		"--experimental-specifier-resolution=node",
		src,
	}
}

func (b *Bridge) run(ctx context.Context, req request) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal builder request: %w", err)
	}

	args := b.runnerCommand()
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = b.rootDir
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return nil, fmt.Errorf("builder runner failed: %s", detail)
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return nil, fmt.Errorf("builder runner produced no output")
	}

	var resp response
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		return nil, fmt.Errorf("builder runner invalid json: %q", out)
	}
	return &resp, nil
}

// Generate requests an artifact for the given configuration. Returns the
// artifact path, or "" when the backend reports a build failure.
func (b *Bridge) Generate(ctx context.Context, requestID string, config map[string]any) (string, error) {
	resp, err := b.run(ctx, request{Action: "generate", ID: requestID, Config: config})
	if err != nil {
		return "", err
	}
	if !resp.OK || resp.Path == "" {
		return "", nil
	}
	return resp.Path, nil
}

// Cleanup asks the backend to remove temporary build output.
func (b *Bridge) Cleanup(ctx context.Context) error {
	resp, err := b.run(ctx, request{Action: "cleanup"})
	if err != nil {
		return err
	}
	if !resp.OK {
		if resp.Error != "" {
			return fmt.Errorf("cleanup failed: %s", resp.Error)
		}
		return fmt.Errorf("cleanup failed")
	}
	return nil
}
