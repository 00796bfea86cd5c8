// Package filelock provides file locking and atomic write operations so
// concurrent docval runs can share report files and the history database
// directory safely.
package filelock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// ErrLockTimeout is returned by LockWithTimeout when the lock could not
// be acquired within the deadline.
var ErrLockTimeout = errors.New("timed out waiting for file lock")

// retryInterval is the poll interval used by LockWithTimeout.
const retryInterval = 10 * time.Millisecond

// DefaultLockTimeout bounds how long LockAndWrite waits for a contended
// target before giving up. Report and inventory writes are short; a lock
// held longer than this is a stuck writer, not a busy one.
const DefaultLockTimeout = 10 * time.Second

var (
	defaultMonitorMu sync.Mutex
	defaultMonitor   MonitorFunc
)

// SetDefaultMonitor installs a monitor applied to locks created by
// package-level helpers such as LockAndWrite. Passing nil removes it.
func SetDefaultMonitor(monitor MonitorFunc) {
	defaultMonitorMu.Lock()
	defer defaultMonitorMu.Unlock()
	defaultMonitor = monitor
}

func currentDefaultMonitor() MonitorFunc {
	defaultMonitorMu.Lock()
	defer defaultMonitorMu.Unlock()
	return defaultMonitor
}

// LockMetrics records what one acquisition cost.
type LockMetrics struct {
	Attempts int
	Wait     time.Duration
	TimedOut bool
}

// MonitorFunc receives acquisition metrics for observability. It is
// called after every acquisition attempt completes, successful or not.
type MonitorFunc func(path string, metrics LockMetrics)

// FileLock wraps a flock file lock for coordinating access across
// processes.
type FileLock struct {
	flock *flock.Flock
	path  string

	mu      sync.Mutex
	monitor MonitorFunc
}

// NewFileLock creates a file lock at the given path. The lock file is
// created on first acquisition.
func NewFileLock(path string) *FileLock {
	return &FileLock{
		flock: flock.New(path),
		path:  path,
	}
}

// SetMonitor installs a callback that observes acquisition metrics.
// Passing nil removes the monitor.
func (fl *FileLock) SetMonitor(monitor MonitorFunc) {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	fl.monitor = monitor
}

func (fl *FileLock) record(metrics LockMetrics) {
	fl.mu.Lock()
	monitor := fl.monitor
	fl.mu.Unlock()

	if monitor != nil {
		monitor(fl.path, metrics)
	}
}

// Lock acquires an exclusive lock, blocking until it is available.
func (fl *FileLock) Lock() error {
	start := time.Now()
	err := fl.flock.Lock()
	fl.record(LockMetrics{Attempts: 1, Wait: time.Since(start)})
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", fl.path, err)
	}
	return nil
}

// LockWithTimeout polls for an exclusive lock until the timeout expires.
// Returns ErrLockTimeout (wrapped) when the deadline passes while another
// process still holds the lock.
func (fl *FileLock) LockWithTimeout(timeout time.Duration) error {
	start := time.Now()
	deadline := start.Add(timeout)
	metrics := LockMetrics{}

	for {
		metrics.Attempts++
		acquired, err := fl.flock.TryLock()
		if err != nil {
			metrics.Wait = time.Since(start)
			fl.record(metrics)
			return fmt.Errorf("failed to try lock on %s: %w", fl.path, err)
		}
		if acquired {
			metrics.Wait = time.Since(start)
			fl.record(metrics)
			return nil
		}
		if time.Now().After(deadline) {
			metrics.Wait = time.Since(start)
			metrics.TimedOut = true
			fl.record(metrics)
			return fmt.Errorf("lock on %s: %w", fl.path, ErrLockTimeout)
		}
		time.Sleep(retryInterval)
	}
}

// TryLock attempts to acquire an exclusive lock without blocking. Returns
// true if the lock was acquired, false if another process holds it.
func (fl *FileLock) TryLock() (bool, error) {
	acquired, err := fl.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to try lock on %s: %w", fl.path, err)
	}
	return acquired, nil
}

// Unlock releases the lock.
func (fl *FileLock) Unlock() error {
	if err := fl.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", fl.path, err)
	}
	return nil
}

// AtomicWrite writes data to a file through a temp-file-and-rename in the
// target's directory, so readers never observe a partial report. If the
// operation fails at any point the original file is left unchanged.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// Same directory as the target keeps the rename on one filesystem,
	// which is what makes it atomic.
	tempFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	// Renamed successfully; disarm the cleanup.
	tempFile = nil

	return nil
}

// LockAndWrite acquires a lock, performs an atomic write, releases the
// lock, and removes the lock file. The lock path is the target path plus
// ".lock", so writing report.json locks report.json.lock. Acquisition is
// bounded by DefaultLockTimeout and reported to the default monitor.
func LockAndWrite(path string, data []byte) error {
	lockPath := path + ".lock"
	lock := NewFileLock(lockPath)
	lock.SetMonitor(currentDefaultMonitor())

	if err := lock.LockWithTimeout(DefaultLockTimeout); err != nil {
		return err
	}
	defer func() {
		lock.Unlock()
		os.Remove(lockPath)
	}()

	return AtomicWrite(path, data)
}
