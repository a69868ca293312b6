// Copyright 2025 The Terminator Authors
// SPDX-License-Identifier: Apache-2.0

//go:build windows

package process

import (
	"log/slog"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

// jobOnce creates the job handle once; it is intentionally never closed while the
// process lives: the kernel terminates every assigned child when the
// last handle closes at process exit.
var jobOnce = sync.OnceValue(func() windows.Handle {
	job, err := windows.CreateJobObject(nil, nil)
	if err != nil {
		slog.Warn("job object creation failed, falling back to registry-based cleanup", "error", err)
		return 0
	}
	info := windows.JOBOBJECT_EXTENDED_LIMIT_INFORMATION{}
	info.BasicLimitInformation.LimitFlags = windows.JOB_OBJECT_LIMIT_KILL_ON_JOB_CLOSE
	_, err = windows.SetInformationJobObject(
		job,
		windows.JobObjectExtendedLimitInformation,
		uintptr(unsafe.Pointer(&info)),
		uint32(unsafe.Sizeof(info)),
	)
	if err != nil {
		slog.Warn("job object limit configuration failed", "error", err)
		windows.CloseHandle(job)
		return 0
	}
	slog.Info("job object created, children terminate with the parent")
	return job
})

func initJobObject() bool {
	return jobOnce() != 0
}

// assignToJobObject opens pid with all access and adds it to the job.
func assignToJobObject(pid int) bool {
	job := jobOnce()
	if job == 0 {
		return false
	}
	h, err := windows.OpenProcess(windows.PROCESS_ALL_ACCESS, false, uint32(pid))
	if err != nil {
		slog.Warn("opening child for job assignment failed", "pid", pid, "error", err)
		return false
	}
	defer windows.CloseHandle(h)
	if err := windows.AssignProcessToJobObject(job, h); err != nil {
		slog.Warn("job assignment failed", "pid", pid, "error", err)
		return false
	}
	return true
}

func isAlive(pid int) bool {
	const processQueryLimitedInformation = 0x1000
	h, err := windows.OpenProcess(processQueryLimitedInformation, false, uint32(pid))
	if err != nil {
		return false
	}
	defer windows.CloseHandle(h)
	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return false
	}
	const stillActive = 259
	return code == stillActive
}

func terminate(pid int) error {
	h, err := windows.OpenProcess(windows.PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		return err
	}
	defer windows.CloseHandle(h)
	return windows.TerminateProcess(h, 1)
}
