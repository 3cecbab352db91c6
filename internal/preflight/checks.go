package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"clipcaster/internal/accounts"
	"clipcaster/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the filesystem holding path has at least floor
// bytes available to unprivileged users.
func CheckFreeSpace(name, path string, floor uint64) Result {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := st.Bavail * uint64(st.Bsize)
	detail := fmt.Sprintf("%s free", humanize.IBytes(free))
	if free < floor {
		return Result{Name: name, Detail: fmt.Sprintf("%s (need %s)", detail, humanize.IBytes(floor))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckFillers reports how many filler clips the stacked layout can pick from.
// An empty directory passes; only stacked jobs need fillers.
func CheckFillers(name, dir string) Result {
	matches, err := filepath.Glob(filepath.Join(dir, "*.mp4"))
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if len(matches) == 0 {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (none; stacked jobs will fail)", dir)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d clip(s) in %s", len(matches), dir)}
}

// CheckAccounts loads every account and fails when one has unusable
// credential files.
func CheckAccounts(name string, registry *accounts.Registry) Result {
	names, err := registry.List()
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if len(names) == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("no accounts in %s", registry.Dir)}
	}
	var broken []string
	for _, acct := range names {
		resolved, err := registry.Resolve(acct)
		switch {
		case err != nil:
			broken = append(broken, acct)
		case resolved.YouTubeErr != nil || resolved.MetaErr != nil:
			broken = append(broken, acct)
		}
	}
	if len(broken) > 0 {
		return Result{Name: name, Detail: fmt.Sprintf("unusable credentials: %s", strings.Join(broken, ", "))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d account(s)", len(names))}
}

// FromDependency converts a binary lookup into a check result.
func FromDependency(status deps.Status) Result {
	if status.Available {
		return Result{Name: status.Name, Passed: true, Detail: status.Command}
	}
	detail := status.Detail
	if status.Description != "" {
		detail += " (" + status.Description + ")"
	}
	return Result{Name: status.Name, Passed: status.Optional, Detail: detail}
}
