package converter

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Tool turns an export archive into a raw SQLite database at dbPath.
// The returned output is whatever the tool printed, for diagnostics.
type Tool interface {
	Convert(ctx context.Context, archivePath, dbPath string) (output string, err error)
}

// ExecTool runs an external command as `<command> [args...] <archive> <db>`
type ExecTool struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// NewExecTool creates a tool running command with an optional timeout
func NewExecTool(command string, timeout time.Duration) *ExecTool {
	fields := strings.Fields(command)
	tool := &ExecTool{Timeout: timeout}
	if len(fields) > 0 {
		tool.Command = fields[0]
		tool.Args = fields[1:]
	}
	return tool
}

// Convert runs the command and fails on a non-zero exit
func (t *ExecTool) Convert(ctx context.Context, archivePath, dbPath string) (string, error) {
	if t.Command == "" {
		return "", fmt.Errorf("no conversion command configured")
	}

	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	args := append(append([]string{}, t.Args...), archivePath, dbPath)
	cmd := exec.CommandContext(ctx, t.Command, args...)

	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return string(out), fmt.Errorf("%s: %w", t.String(), ctx.Err())
		}
		return string(out), fmt.Errorf("%s: %w", t.String(), err)
	}
	return string(out), nil
}

// String renders the command line without the file arguments
func (t *ExecTool) String() string {
	return strings.Join(append([]string{t.Command}, t.Args...), " ")
}
