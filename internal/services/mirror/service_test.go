package mirror

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockExecutor is a mock implementation of CommandExecutor for testing.
type mockExecutor struct {
	executeFunc func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func (m *mockExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	if m.executeFunc != nil {
		return m.executeFunc(ctx, name, args...)
	}
	return nil, nil
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// exitError fabricates an *exec.ExitError with the given exit code by running
// a real shell exit.
func exitError(t *testing.T, code int) *exec.ExitError {
	t.Helper()
	cmd := exec.Command("sh", "-c", "exit "+strconv.Itoa(code))
	err := cmd.Run()
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	return exitErr
}

func TestRobocopy_SuccessWithWarnings(t *testing.T) {
	for _, code := range []int{1, 3, 7} {
		executor := &mockExecutor{
			executeFunc: func(ctx context.Context, name string, args ...string) ([]byte, error) {
				return []byte("copied some files"), exitError(t, code)
			},
		}

		svc := NewRobocopy(testLogger(), "robocopy", false, executor)
		result, err := svc.Mirror(context.Background(), "/src", "/dst")

		require.NoError(t, err)
		assert.NoError(t, result.Error, "code %d", code)
		assert.Equal(t, code, result.ExitCode)
	}
}

func TestRobocopy_CleanExit(t *testing.T) {
	executor := &mockExecutor{}

	svc := NewRobocopy(testLogger(), "robocopy", false, executor)
	result, err := svc.Mirror(context.Background(), "/src", "/dst")

	require.NoError(t, err)
	assert.NoError(t, result.Error)
	assert.Equal(t, 0, result.ExitCode)
}

func TestRobocopy_FailureRangeExitCode(t *testing.T) {
	executor := &mockExecutor{
		executeFunc: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return []byte("sharing violation"), exitError(t, 16)
		},
	}

	svc := NewRobocopy(testLogger(), "robocopy", false, executor)
	result, err := svc.Mirror(context.Background(), "/src", "/dst")

	require.NoError(t, err)
	assert.Error(t, result.Error)
	assert.Equal(t, 16, result.ExitCode)
	assert.Contains(t, result.Error.Error(), "sharing violation")
}

func TestRobocopy_ToolNotStartable(t *testing.T) {
	executor := &mockExecutor{
		executeFunc: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return nil, errors.New("executable file not found")
		},
	}

	svc := NewRobocopy(testLogger(), "robocopy", false, executor)
	result, err := svc.Mirror(context.Background(), "/src", "/dst")

	require.NoError(t, err)
	assert.Error(t, result.Error)
	assert.GreaterOrEqual(t, result.ExitCode, ExitCodeFailureThreshold)
}

func TestRobocopy_MirrorArgs(t *testing.T) {
	var gotName string
	var gotArgs []string
	executor := &mockExecutor{
		executeFunc: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			gotName = name
			gotArgs = args
			return nil, nil
		},
	}

	svc := NewRobocopy(testLogger(), "C:\\Windows\\System32\\Robocopy.exe", false, executor)
	_, err := svc.Mirror(context.Background(), "/src", "/dst")

	require.NoError(t, err)
	assert.Equal(t, "C:\\Windows\\System32\\Robocopy.exe", gotName)
	assert.Equal(t, []string{"/src", "/dst", "/MIR", "/R:1", "/W:1", "/NJH", "/NJS", "/NP"}, gotArgs)
}

func TestRobocopy_DryRunSkipsExecutor(t *testing.T) {
	called := false
	executor := &mockExecutor{
		executeFunc: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			called = true
			return nil, nil
		},
	}

	svc := NewRobocopy(testLogger(), "robocopy", true, executor)
	result, err := svc.Mirror(context.Background(), "/src", "/dst")

	require.NoError(t, err)
	assert.NoError(t, result.Error)
	assert.False(t, called)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func listTree(t *testing.T, root string) []string {
	t.Helper()
	var paths []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)
	sort.Strings(paths)
	return paths
}

func TestNative_MirrorCopiesTree(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.url"), "link a")
	writeFile(t, filepath.Join(src, "sub", "b.url"), "link b")

	svc := NewNative(testLogger(), false)
	result, err := svc.Mirror(context.Background(), src, dst)

	require.NoError(t, err)
	require.NoError(t, result.Error)
	assert.Equal(t, []string{"a.url", "sub", "sub/b.url"}, listTree(t, dst))

	data, err := os.ReadFile(filepath.Join(dst, "sub", "b.url"))
	require.NoError(t, err)
	assert.Equal(t, "link b", string(data))
}

func TestNative_MirrorRemovesExtras(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "keep.url"), "keep")
	writeFile(t, filepath.Join(dst, "keep.url"), "stale")
	writeFile(t, filepath.Join(dst, "extra.url"), "extra")
	writeFile(t, filepath.Join(dst, "old", "nested.url"), "extra")

	svc := NewNative(testLogger(), false)
	result, err := svc.Mirror(context.Background(), src, dst)

	require.NoError(t, err)
	require.NoError(t, result.Error)
	assert.Equal(t, []string{"keep.url"}, listTree(t, dst))

	data, err := os.ReadFile(filepath.Join(dst, "keep.url"))
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))
}

func TestNative_MirrorIsIdempotent(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a", "one.rwz"), "1")
	writeFile(t, filepath.Join(src, "b", "two.rwz"), "2")

	svc := NewNative(testLogger(), false)
	_, err := svc.Mirror(context.Background(), src, dst)
	require.NoError(t, err)
	first := listTree(t, dst)

	result, err := svc.Mirror(context.Background(), src, dst)
	require.NoError(t, err)
	require.NoError(t, result.Error)
	assert.Equal(t, first, listTree(t, dst))
}

func TestNative_MissingSourceIsFailure(t *testing.T) {
	dst := t.TempDir()

	svc := NewNative(testLogger(), false)
	result, err := svc.Mirror(context.Background(), filepath.Join(dst, "absent"), dst)

	require.NoError(t, err)
	assert.Error(t, result.Error)
	assert.GreaterOrEqual(t, result.ExitCode, ExitCodeFailureThreshold)
}

func TestNative_DryRunTouchesNothing(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.url"), "a")

	svc := NewNative(testLogger(), true)
	result, err := svc.Mirror(context.Background(), src, dst)

	require.NoError(t, err)
	assert.NoError(t, result.Error)
	assert.Empty(t, listTree(t, dst))
}
