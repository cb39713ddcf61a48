package storage

import (
	"os"
	"sync"
	"syscall"
)

// runLock serializes writers of one run file. The mutex covers goroutines
// within this process; the flock on a sidecar .lock file covers concurrent
// agentmux invocations sharing a data directory.
type runLock struct {
	lockPath string

	mu   sync.Mutex
	file *os.File
}

func newRunLock(runPath string) *runLock {
	return &runLock{lockPath: runPath + ".lock"}
}

// Lock blocks until this process holds the run file exclusively.
func (l *runLock) Lock() error {
	l.mu.Lock()

	f, err := os.OpenFile(l.lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		l.mu.Unlock()
		return err
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		l.mu.Unlock()
		return err
	}

	l.file = f
	return nil
}

// Unlock releases the flock and removes the sidecar file.
func (l *runLock) Unlock() {
	if l.file != nil {
		syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
		l.file.Close()
		os.Remove(l.lockPath)
		l.file = nil
	}
	l.mu.Unlock()
}
