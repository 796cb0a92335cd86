// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package process

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// errWouldBlock is returned by the platform tryLock when another process
// holds the lock.
var errWouldBlock = errors.New("lock held by another process")

// InstanceLock serializes augre runs that share a data directory.
//
// # Description
//
// Two concurrent runs against one data path would race on the compose
// descriptor and on the partially downloaded artifact. Mutating commands
// take this lock first. The lock is an advisory OS file lock on
// <dir>/<name>.lock, so it is released automatically when the process
// dies. The holder's PID is written to <dir>/<name>.pid for the error
// message.
//
// # Example
//
//	lock := process.NewInstanceLock(cfg.DataPath, "augre")
//	if err := lock.Acquire(); err != nil {
//	    return err
//	}
//	defer lock.Release()
//
// # Limitations
//
//   - Advisory only: tools other than augre ignore it.
//   - The PID file may be stale after a crash; the lock itself is not.
type InstanceLock struct {
	lockPath string
	pidPath  string
	file     *os.File
	mu       sync.Mutex
}

// NewInstanceLock creates an unacquired lock in dir.
func NewInstanceLock(dir, name string) *InstanceLock {
	if name == "" {
		name = "augre"
	}
	return &InstanceLock{
		lockPath: filepath.Join(dir, name+".lock"),
		pidPath:  filepath.Join(dir, name+".pid"),
	}
}

// Acquire takes the lock without blocking.
//
// # Outputs
//
//   - error: nil when acquired or already held by this instance,
//     *LockHeldError when another process holds it, or a wrapped I/O error.
func (l *InstanceLock) Acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.lockPath), 0o755); err != nil {
		return fmt.Errorf("creating lock directory: %w", err)
	}
	f, err := os.OpenFile(l.lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("opening lock file %s: %w", l.lockPath, err)
	}

	if err := tryLock(f); err != nil {
		f.Close()
		if errors.Is(err, errWouldBlock) {
			return &LockHeldError{HolderPID: l.readHolderPID(), LockPath: l.lockPath}
		}
		return fmt.Errorf("locking %s: %w", l.lockPath, err)
	}

	l.file = f
	_ = os.WriteFile(l.pidPath, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644)
	return nil
}

// Release drops the lock. Safe to call when not held.
func (l *InstanceLock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}

	_ = os.Remove(l.pidPath)
	err := unlock(l.file)
	l.file.Close()
	l.file = nil
	if err != nil {
		return fmt.Errorf("releasing lock: %w", err)
	}
	return nil
}

// IsHeld reports whether this instance holds the lock.
func (l *InstanceLock) IsHeld() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file != nil
}

// HolderPID returns the PID recorded by the current holder, or 0.
func (l *InstanceLock) HolderPID() int {
	return l.readHolderPID()
}

// LockPath returns the lock file path.
func (l *InstanceLock) LockPath() string {
	return l.lockPath
}

func (l *InstanceLock) readHolderPID() int {
	data, err := os.ReadFile(l.pidPath)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}

// LockHeldError is returned when another augre process holds the lock.
type LockHeldError struct {
	HolderPID int
	LockPath  string
}

func (e *LockHeldError) Error() string {
	if e.HolderPID > 0 {
		return fmt.Sprintf("another augre instance is running (PID %d)", e.HolderPID)
	}
	return fmt.Sprintf("another augre instance is running (lock %s)", e.LockPath)
}
