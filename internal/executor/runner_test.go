package executor

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/harrison/docval/internal/models"
)

// newTestRunner skips the test when no interpreter is installed; the
// runner tests exercise real subprocess execution.
func newTestRunner(t *testing.T, timeout time.Duration) *Runner {
	t.Helper()
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available")
	}
	r, err := NewRunner("python3", timeout, DefaultTolerance)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRunnerSuccess(t *testing.T) {
	r := newTestRunner(t, 10*time.Second)

	res, err := r.Run(context.Background(), models.Example{
		ID:       "doc.md#0",
		Kind:     models.KindProseBlock,
		CodeText: "import os\nprint(os.getcwd())\n",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, res.Status)
	require.NotEmpty(t, res.Stdout)
	require.Empty(t, res.ErrorKind)
}

func TestRunnerClassifiesRaisedErrors(t *testing.T) {
	r := newTestRunner(t, 10*time.Second)

	tests := []struct {
		name string
		code string
		kind models.ErrorKind
	}{
		{"zero division is other-runtime", "x = 1 / 0\n", models.ErrKindOtherRuntime},
		{"syntax error", "def broken(:\n", models.ErrKindSyntaxError},
		{"name error", "print(undefined_thing)\n", models.ErrKindNameError},
		{"import error", "import surely_not_a_module\n", models.ErrKindImportError},
		{"type error", "x = 'a' + 1\n", models.ErrKindTypeError},
		{"attribute error", "x = (1).bogus\n", models.ErrKindAttributeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Run(context.Background(), models.Example{
				ID:       "doc.md#1",
				Kind:     models.KindProseBlock,
				CodeText: tt.code,
			})
			require.NoError(t, err)
			require.Equal(t, models.StatusFailed, res.Status)
			require.Equal(t, tt.kind, res.ErrorKind)
			require.NotEmpty(t, res.ErrorMessage)
		})
	}
}

func TestRunnerTimeoutKillsWorker(t *testing.T) {
	r := newTestRunner(t, 2*time.Second)

	start := time.Now()
	res, err := r.Run(context.Background(), models.Example{
		ID:       "doc.md#2",
		Kind:     models.KindProseBlock,
		CodeText: "while True: pass\n",
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.Equal(t, models.StatusTimedOut, res.Status)
	require.Equal(t, models.ErrKindTimedOut, res.ErrorKind)
	require.Nil(t, res.CapturedNamespace)
	// Bounded overhead: well under the timeout plus the kill delay.
	require.Less(t, elapsed, 2*time.Second+killDelay)
}

func TestRunnerSelfExitingSnippetIsContentFailure(t *testing.T) {
	r := newTestRunner(t, 10*time.Second)

	// os._exit skips the harness entirely: clean exit code, no stderr, no
	// result file. That is still the snippet's fault, never the tool's.
	res, err := r.Run(context.Background(), models.Example{
		ID:       "doc.md#6",
		Kind:     models.KindProseBlock,
		CodeText: "import os\nos._exit(0)\n",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusFailed, res.Status)
	require.Equal(t, models.ErrKindOtherRuntime, res.ErrorKind)
	require.Contains(t, res.ErrorMessage, "exited before reporting")
}

func TestRunnerSessionEchoesIntermediateExpressions(t *testing.T) {
	r := newTestRunner(t, 10*time.Second)

	// A session with output documented after each prompt, not just the
	// last one, must pass: each bare expression echoes its repr in order.
	res, err := r.Run(context.Background(), models.Example{
		ID:             "core.py#2",
		Kind:           models.KindDocstringSession,
		CodeText:       "1 + 1\n2 + 2\n",
		ExpectedOutput: "2\n4",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, res.Status)
	require.Equal(t, "2\n4\n", res.Stdout)
}

func TestRunnerSessionExpectedOutput(t *testing.T) {
	r := newTestRunner(t, 10*time.Second)

	match, err := r.Run(context.Background(), models.Example{
		ID:             "core.py#0",
		Kind:           models.KindDocstringSession,
		CodeText:       "2 + 2\n",
		ExpectedOutput: "4",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, match.Status)

	mismatch, err := r.Run(context.Background(), models.Example{
		ID:             "core.py#1",
		Kind:           models.KindDocstringSession,
		CodeText:       "2 + 2\n",
		ExpectedOutput: "5",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusFailed, mismatch.Status)
	require.Equal(t, models.ErrKindAssertionMismatch, mismatch.ErrorKind)
}

func TestRunnerIsolationBetweenExamples(t *testing.T) {
	r := newTestRunner(t, 10*time.Second)

	first, err := r.Run(context.Background(), models.Example{
		ID:       "doc.md#3",
		Kind:     models.KindProseBlock,
		CodeText: "x = 41\n",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, first.Status)
	require.Contains(t, first.CapturedNamespace, "x")

	// x from the previous example must not leak into this namespace.
	second, err := r.Run(context.Background(), models.Example{
		ID:       "doc.md#4",
		Kind:     models.KindProseBlock,
		CodeText: "print(x)\n",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusFailed, second.Status)
	require.Equal(t, models.ErrKindNameError, second.ErrorKind)
}

func TestRunnerCapturesNamespaceDescriptors(t *testing.T) {
	r := newTestRunner(t, 10*time.Second)

	res, err := r.Run(context.Background(), models.Example{
		ID:       "doc.md#5",
		Kind:     models.KindProseBlock,
		CodeText: "count = 3\nlabel = 'proton'\n",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, res.Status)

	count, ok := res.CapturedNamespace["count"]
	require.True(t, ok)
	require.Equal(t, "int", count.TypeName)
	require.Equal(t, "3", count.Repr)

	label, ok := res.CapturedNamespace["label"]
	require.True(t, ok)
	require.Equal(t, "str", label.TypeName)
	require.True(t, strings.Contains(label.Repr, "proton"))
}

func TestRunnerMissingInterpreter(t *testing.T) {
	_, err := NewRunner("definitely-not-python", time.Second, 0.1)
	require.ErrorIs(t, err, ErrInterpreterNotFound)
}
