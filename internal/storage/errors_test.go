package storage

import (
	"context"
	"errors"
	"os"
	"syscall"
	"testing"
)

func TestStorageError_Message(t *testing.T) {
	err := NewError("failed to load state", errors.New("bad json"))
	if got := err.Error(); got != "storage error: failed to load state: bad json" {
		t.Errorf("Error() = %q", got)
	}

	withPath := NewError("failed to load state", errors.New("bad json")).WithPath("/p/state.json")
	if got := withPath.Error(); got != "storage error [path=/p/state.json]: failed to load state: bad json" {
		t.Errorf("Error() = %q", got)
	}
}

func TestStorageError_Critical(t *testing.T) {
	tests := []struct {
		name     string
		inner    error
		critical bool
	}{
		{"nil cause", nil, false},
		{"logical cause", errors.New("unexpected end of JSON input"), false},
		{"path error", &os.PathError{Op: "open", Path: "/p", Err: syscall.EIO}, true},
		{"link error", &os.LinkError{Op: "rename", Old: "/a", New: "/b", Err: syscall.EROFS}, true},
		{"bare errno", syscall.ENOSPC, true},
		{"permission sentinel", os.ErrPermission, true},
		{"wrapped errno", &os.SyscallError{Syscall: "write", Err: syscall.EDQUOT}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewError("op failed", tt.inner)
			if got := err.Critical(); got != tt.critical {
				t.Errorf("Critical() = %v, want %v", got, tt.critical)
			}
			if got := IsCritical(err); got != tt.critical {
				t.Errorf("IsCritical() = %v, want %v", got, tt.critical)
			}
		})
	}
}

func TestWriteFailureError_AlwaysCritical(t *testing.T) {
	err := WrapWrite("failed to write metrics", "/p/metrics.json", &os.PathError{
		Op: "write", Path: "/p/metrics.json", Err: syscall.ENOSPC,
	})

	var wf *WriteFailureError
	if !errors.As(err, &wf) {
		t.Fatalf("WrapWrite returned %T, want *WriteFailureError", err)
	}
	if !wf.Critical() {
		t.Error("Critical() = false for a write failure")
	}
	if wf.Errno != syscall.ENOSPC {
		t.Errorf("Errno = %v, want ENOSPC", wf.Errno)
	}
	if wf.Classification != "no space left on device" {
		t.Errorf("Classification = %q", wf.Classification)
	}
	if !IsCritical(err) {
		t.Error("IsCritical() = false for a write failure")
	}
}

func TestWrapWrite_Classification(t *testing.T) {
	tests := []struct {
		errno syscall.Errno
		class string
	}{
		{syscall.ENOSPC, "no space left on device"},
		{syscall.EDQUOT, "disk quota exceeded"},
		{syscall.EROFS, "read-only filesystem"},
		{syscall.EIO, "I/O failure"},
		{syscall.EACCES, "permission denied"},
		{syscall.EPERM, "permission denied"},
	}
	for _, tt := range tests {
		t.Run(tt.errno.Error(), func(t *testing.T) {
			err := WrapWrite("write failed", "/p/f", tt.errno)
			var wf *WriteFailureError
			if !errors.As(err, &wf) {
				t.Fatalf("got %T, want *WriteFailureError", err)
			}
			if wf.Classification != tt.class {
				t.Errorf("Classification = %q, want %q", wf.Classification, tt.class)
			}
		})
	}
}

func TestWrapWrite_UnclassifiedErrno(t *testing.T) {
	// An errno without device-level meaning wraps as a plain StorageError,
	// which is still critical because the cause is an OS error.
	err := WrapWrite("write failed", "/p/f", syscall.EINTR)

	var wf *WriteFailureError
	if errors.As(err, &wf) {
		t.Fatalf("EINTR should not produce a WriteFailureError")
	}
	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("got %T, want *StorageError", err)
	}
	if !se.Critical() {
		t.Error("OS-rooted failure should still be critical")
	}
}

func TestWrapWrite_PassesContextErrorsThrough(t *testing.T) {
	for _, cause := range []error{context.Canceled, context.DeadlineExceeded} {
		if got := WrapWrite("write failed", "/p/f", cause); got != cause {
			t.Errorf("WrapWrite(%v) = %v, want the cause unchanged", cause, got)
		}
	}
	if got := WrapWrite("write failed", "/p/f", nil); got != nil {
		t.Errorf("WrapWrite(nil) = %v, want nil", got)
	}
}

func TestIsCritical_NonStorageErrors(t *testing.T) {
	if IsCritical(nil) {
		t.Error("IsCritical(nil) = true")
	}
	if IsCritical(errors.New("plain")) {
		t.Error("IsCritical(plain error) = true")
	}
	if IsCritical(ErrNotFound) {
		t.Error("IsCritical(ErrNotFound) = true")
	}
	if IsCritical(context.Canceled) {
		t.Error("IsCritical(context.Canceled) = true")
	}
}

func TestIsContextError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if !IsContextError(ctx.Err()) {
		t.Error("IsContextError(Canceled) = false")
	}
	if !IsContextError(context.DeadlineExceeded) {
		t.Error("IsContextError(DeadlineExceeded) = false")
	}
	if IsContextError(errors.New("other")) {
		t.Error("IsContextError(plain error) = true")
	}
}

func TestErrNotFound_WrappedDetection(t *testing.T) {
	wrapped := NewError("state", ErrNotFound)
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("wrapped ErrNotFound not detected by errors.Is")
	}
}
