package launcher

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/pkg/errors"
)

// Exit codes for a target that could not be started, as a shell reports them
const (
	ExitCannotExecute = 126
	ExitNotFound      = 127
	ExitFailure       = 1
)

// Exec replaces the current process with target. It only returns when the
// target could not be started; ExitCode maps that error to a status.
func Exec(target string, args []string, environ []string) error {
	execPath, err := exec.LookPath(target)
	if err != nil {
		return errors.Wrapf(err, "cannot find %s", target)
	}

	argv := make([]string, 0, len(args)+1)
	argv = append(argv, target)
	argv = append(argv, args...)
	return errors.Wrapf(syscall.Exec(execPath, argv, environ), "cannot execute %s", target)
}

// ExitCode returns the status to exit with after Exec failed
func ExitCode(err error) int {
	switch {
	case IsNotFound(err):
		return ExitNotFound
	case IsPermissionDenied(err):
		return ExitCannotExecute
	default:
		return ExitFailure
	}
}

// IsNotFound reports whether the target does not exist
func IsNotFound(err error) bool {
	return err != nil && (errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist))
}

// IsPermissionDenied reports whether the target exists but cannot be run
func IsPermissionDenied(err error) bool {
	return err != nil && errors.Is(err, os.ErrPermission)
}
