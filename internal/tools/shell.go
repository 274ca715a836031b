package tools

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/humcp/humcp/internal/schema"
)

// denyPatterns blocks commands that could destroy the host.
var denyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\brm\s+-[rf]{1,2}\b`),            // rm -r, rm -rf, rm -fr
	regexp.MustCompile(`(?i)\bdel\s+/[fq]\b`),                // del /f, del /q
	regexp.MustCompile(`(?i)\brmdir\s+/s\b`),                 // rmdir /s
	regexp.MustCompile(`(?i)(?:^|[;&|]\s*)format\b`),         // format (standalone)
	regexp.MustCompile(`(?i)\b(mkfs|diskpart)\b`),            // disk ops
	regexp.MustCompile(`(?i)\bdd\s+if=`),                     // dd
	regexp.MustCompile(`(?i)>\s*/dev/sd`),                    // write to disk
	regexp.MustCompile(`(?i)\b(shutdown|reboot|poweroff)\b`), // power control
	regexp.MustCompile(`:\(\)\s*\{.*\};\s*:`),                // fork bomb
}

// shellRunner executes shell commands with safety guards.
type shellRunner struct {
	timeout             time.Duration
	workingDir          string
	restrictToWorkspace bool
}

// shellTools returns the shell_run descriptor.
// workingDir is the default CWD (empty = os.Getwd()).
func shellTools(workingDir string, timeoutSeconds int, restrictToWorkspace bool) []schema.Descriptor {
	t := 60
	if timeoutSeconds > 0 {
		t = timeoutSeconds
	}
	r := &shellRunner{
		timeout:             time.Duration(t) * time.Second,
		workingDir:          workingDir,
		restrictToWorkspace: restrictToWorkspace,
	}

	return []schema.Descriptor{{
		Name:    "shell_run",
		Summary: "Execute a shell command and return its output. Use with caution.",
		Params: schema.Params{
			{Name: "command", Type: schema.TypeString, Required: true,
				Description: "The shell command to execute"},
			{Name: "working_dir", Type: schema.TypeString,
				Description: "Optional working directory for the command"},
		},
		Handler: r.run,
	}}
}

func (r *shellRunner) run(ctx context.Context, args map[string]any) (any, error) {
	command := args["command"].(string)
	if strings.TrimSpace(command) == "" {
		return nil, fmt.Errorf("command is empty")
	}

	cwd := r.workingDir
	if wd, ok := args["working_dir"].(string); ok && wd != "" {
		cwd = wd
	}
	if cwd == "" {
		cwd, _ = os.Getwd()
	}

	if err := r.guardCommand(command, cwd); err != nil {
		return nil, err
	}

	cmdCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, "sh", "-c", command)
	cmd.Dir = cwd

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if cmdCtx.Err() != nil {
		return nil, fmt.Errorf("command timed out after %v", r.timeout)
	}

	var parts []string
	if out := stdout.String(); out != "" {
		parts = append(parts, out)
	}
	if errOut := stderr.String(); strings.TrimSpace(errOut) != "" {
		parts = append(parts, "STDERR:\n"+errOut)
	}
	exitCode := 0
	if runErr != nil && cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
		parts = append(parts, fmt.Sprintf("Exit code: %d", exitCode))
	}

	output := strings.Join(parts, "\n")
	if output == "" {
		output = "(no output)"
	}
	const maxLen = 10000
	if len(output) > maxLen {
		output = output[:maxLen] + fmt.Sprintf("\n... (truncated, %d more chars)", len(output)-maxLen)
	}
	return map[string]any{"output": output, "exit_code": exitCode}, nil
}

// guardCommand rejects dangerous commands before they run.
func (r *shellRunner) guardCommand(command, cwd string) error {
	lower := strings.ToLower(strings.TrimSpace(command))

	for _, p := range denyPatterns {
		if p.MatchString(lower) {
			return fmt.Errorf("command blocked by safety guard (dangerous pattern detected)")
		}
	}

	if r.restrictToWorkspace {
		if strings.Contains(command, `..\\`) || strings.Contains(command, "../") {
			return fmt.Errorf("command blocked by safety guard (path traversal detected)")
		}

		cwdResolved, err := filepath.EvalSymlinks(cwd)
		if err != nil {
			cwdResolved = cwd
		}

		// Check absolute posix paths embedded in the command.
		for _, raw := range extractAbsolutePaths(command) {
			p, err := filepath.EvalSymlinks(raw)
			if err != nil {
				p = filepath.Clean(raw)
			}
			if filepath.IsAbs(p) && !strings.HasPrefix(p, cwdResolved) && p != cwdResolved {
				return fmt.Errorf("command blocked by safety guard (path outside working dir)")
			}
		}
	}
	return nil
}

var absolutePathRE = regexp.MustCompile(`(?:^|[\s|>])(/[^\s"'>]+)`)

// extractAbsolutePaths extracts absolute path-like strings from a command line.
func extractAbsolutePaths(cmd string) []string {
	matches := absolutePathRE.FindAllStringSubmatch(cmd, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}
