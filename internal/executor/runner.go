// Package executor runs extracted examples in isolated Python processes
// under a hard wall-clock timeout, classifies failures into a closed error
// taxonomy, and schedules executions across a bounded worker pool.
//
// Isolation is process-level: every example gets a fresh interpreter, so a
// runaway or crashing snippet can never corrupt the controlling process or
// leak state into another example's namespace.
package executor

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/harrison/docval/internal/models"
)

//go:embed harness.py
var harnessScript string

// DefaultTimeout bounds one example's wall-clock execution unless
// overridden per invocation.
const DefaultTimeout = 30 * time.Second

// DefaultTolerance is the relative slack for numeric expected-output
// comparison.
const DefaultTolerance = 0.10

// killDelay is how long after a kill the controller waits for process
// teardown before abandoning the wait.
const killDelay = 5 * time.Second

// ErrInterpreterNotFound indicates the configured Python interpreter is
// not on PATH. This is an infrastructure failure, not a content failure.
var ErrInterpreterNotFound = errors.New("python interpreter not found")

// harnessResult mirrors the JSON descriptor harness.py writes.
type harnessResult struct {
	Status       string                           `json:"status"`
	ErrorType    string                           `json:"error_type"`
	ErrorMessage string                           `json:"error_message"`
	Stdout       string                           `json:"stdout"`
	Stderr       string                           `json:"stderr"`
	Traceback    string                           `json:"traceback"`
	Namespace    map[string]models.NamespaceValue `json:"namespace"`
}

// Runner executes examples one at a time, each in its own interpreter
// process. Safe for concurrent use: per-example state lives in a private
// temp directory per Run call.
type Runner struct {
	pythonPath  string
	harnessPath string
	workDir     string
	timeout     time.Duration
	tolerance   float64
}

// NewRunner resolves the interpreter, materializes the embedded harness
// into a temp directory, and returns a ready Runner. Callers must Close it
// to reclaim the temp directory.
func NewRunner(pythonPath string, timeout time.Duration, tolerance float64) (*Runner, error) {
	if pythonPath == "" {
		pythonPath = "python3"
	}
	resolved, err := exec.LookPath(pythonPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInterpreterNotFound, pythonPath)
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	workDir, err := os.MkdirTemp("", "docval-exec-")
	if err != nil {
		return nil, fmt.Errorf("failed to create executor work directory: %w", err)
	}

	harnessPath := filepath.Join(workDir, "harness.py")
	if err := os.WriteFile(harnessPath, []byte(harnessScript), 0644); err != nil {
		os.RemoveAll(workDir)
		return nil, fmt.Errorf("failed to write execution harness: %w", err)
	}

	return &Runner{
		pythonPath:  resolved,
		harnessPath: harnessPath,
		workDir:     workDir,
		timeout:     timeout,
		tolerance:   tolerance,
	}, nil
}

// Close removes the runner's temp directory.
func (r *Runner) Close() error {
	return os.RemoveAll(r.workDir)
}

// Run executes one example and returns its classified result. The returned
// error is non-nil only for infrastructure failures (temp files, harness
// output unreadable); snippet failures are data on the ExecutionResult.
func (r *Runner) Run(ctx context.Context, ex models.Example) (models.ExecutionResult, error) {
	result := models.ExecutionResult{ExampleID: ex.ID}

	caseDir, err := os.MkdirTemp(r.workDir, "case-")
	if err != nil {
		return result, fmt.Errorf("failed to create case directory: %w", err)
	}
	defer os.RemoveAll(caseDir)

	codePath := filepath.Join(caseDir, "example.py")
	resultPath := filepath.Join(caseDir, "result.json")
	if err := os.WriteFile(codePath, []byte(ex.CodeText), 0644); err != nil {
		return result, fmt.Errorf("failed to write example code: %w", err)
	}

	args := []string{r.harnessPath, codePath, resultPath}
	if ex.Kind == models.KindDocstringSession {
		args = append(args, "--session")
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.pythonPath, args...)
	cmd.Dir = caseDir

	// The snippet cannot be trusted to honor any cooperative signal, and
	// it may spawn children. Run the harness in its own process group and
	// kill the whole group on timeout.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = killDelay

	var procOut bytes.Buffer
	cmd.Stdout = &procOut
	cmd.Stderr = &procOut

	start := time.Now()
	runErr := cmd.Run()
	result.Duration = time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		result.Status = models.StatusTimedOut
		result.ErrorKind = models.ErrKindTimedOut
		result.ErrorMessage = fmt.Sprintf("execution exceeded %s timeout and was killed", r.timeout)
		return result, nil
	}
	if ctx.Err() != nil {
		return result, ctx.Err()
	}

	hr, readErr := readHarnessResult(resultPath)
	if readErr != nil {
		// The harness died without writing a result. Whatever the snippet
		// did to its interpreter (os._exit, a hard crash, killing the
		// process) is a content failure like any other crash; only the
		// run setup around the process can be infrastructure.
		result.Status = models.StatusFailed
		if procOut.Len() > 0 {
			result.ErrorKind = classifyOutput(procOut.String())
			result.ErrorMessage = lastLine(procOut.String())
			result.Stderr = procOut.String()
			return result, nil
		}
		result.ErrorKind = models.ErrKindOtherRuntime
		if runErr != nil {
			result.ErrorMessage = fmt.Sprintf("interpreter exited before reporting a result: %v", runErr)
		} else {
			result.ErrorMessage = "interpreter exited before reporting a result"
		}
		return result, nil
	}

	result.Stdout = hr.Stdout
	result.Stderr = hr.Stderr
	result.Traceback = hr.Traceback

	if hr.Status != "success" {
		result.Status = models.StatusFailed
		result.ErrorKind = ClassifyError(hr.ErrorType, hr.ErrorMessage)
		result.ErrorMessage = fmt.Sprintf("%s: %s", hr.ErrorType, hr.ErrorMessage)
		return result, nil
	}

	// Session examples assert on their documented output.
	if ex.Kind == models.KindDocstringSession && ex.ExpectedOutput != "" {
		if !outputMatches(ex.ExpectedOutput, hr.Stdout, r.tolerance) {
			result.Status = models.StatusFailed
			result.ErrorKind = models.ErrKindAssertionMismatch
			result.ErrorMessage = fmt.Sprintf("expected output %q, got %q",
				compactForMessage(ex.ExpectedOutput), compactForMessage(hr.Stdout))
			return result, nil
		}
	}

	result.Status = models.StatusSuccess
	result.CapturedNamespace = hr.Namespace
	return result, nil
}

func readHarnessResult(path string) (*harnessResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var hr harnessResult
	if err := json.Unmarshal(data, &hr); err != nil {
		return nil, fmt.Errorf("malformed harness result: %w", err)
	}
	return &hr, nil
}

// lastLine returns the final non-blank line of text; for an interpreter
// traceback that is the "ExcType: message" line.
func lastLine(text string) string {
	lines := bytes.Split([]byte(text), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		trimmed := bytes.TrimSpace(lines[i])
		if len(trimmed) > 0 {
			return string(trimmed)
		}
	}
	return text
}

// compactForMessage keeps mismatch messages terse in the report.
func compactForMessage(text string) string {
	const limit = 120
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
