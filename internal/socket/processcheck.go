package socket

import (
	"strings"

	"github.com/mitchellh/go-ps"
)

var _ ProcessChecker = (*DefaultProcessChecker)(nil)

// ProcessChecker tells Connect whether a daemon it cannot reach is alive.
type ProcessChecker interface {
	IsRunning(name string) bool
}

// DefaultProcessChecker consults the process table.
type DefaultProcessChecker struct{}

// IsRunning reports whether FindProcess finds name.
func (pc *DefaultProcessChecker) IsRunning(name string) bool {
	_, ok := FindProcess(name)
	return ok
}

// FindProcess returns the PID of the first process whose executable name
// starts with name, ignoring case.
func FindProcess(name string) (pid int, ok bool) {
	procs, err := ps.Processes()
	if err != nil {
		return 0, false
	}

	for _, proc := range procs {
		if matchesExecutable(proc.Executable(), name) {
			return proc.Pid(), true
		}
	}
	return 0, false
}

// matchesExecutable tolerates suffixes such as "confkitd-arm64".
func matchesExecutable(executable, name string) bool {
	if name == "" || len(executable) < len(name) {
		return false
	}
	return strings.EqualFold(executable[:len(name)], name)
}
