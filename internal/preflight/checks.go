package preflight

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"srcset/internal/config"
	"srcset/internal/manifest"
	"srcset/internal/publish"
)

const bucketCheckTimeout = 10 * time.Second

// CheckSourceDirectory verifies the input root can be listed. A missing root
// passes because the scanner creates it.
func CheckSourceDirectory(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return CheckWritableParent(name, path)
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read ok)", path)}
}

// CheckWritableDirectory verifies that the directory exists and is
// readable/writable, or that it can be created.
func CheckWritableDirectory(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return CheckWritableParent(name, path)
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

// CheckWritableParent verifies that path could be created: its nearest
// existing ancestor must be a writable directory.
func CheckWritableParent(name, path string) Result {
	dir := filepath.Dir(path)
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
	}
	for {
		info, err := os.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s is not a directory)", path, dir)}
			}
			break
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat %s: %v)", path, dir, err)}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: no existing parent directory)", path)}
		}
		dir = parent
	}
	if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, dir, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

// CheckManifest verifies the manifest parses and its record lists are well
// formed. A missing manifest passes.
func CheckManifest(name, path string) Result {
	m, err := manifest.Read(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v; next run starts empty)", path, err)}
	}
	if problems := m.Validate(); len(problems) > 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %d invalid record lists, first: %s)", path, len(problems), problems[0])}
	}
	if len(m) == 0 {
		if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
			return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (not created yet)", path)}
		}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d sources)", path, len(m))}
}

// CheckRemoteConfig reports whether the object store settings are usable.
// Absent settings pass (local mode); partial settings fail.
func CheckRemoteConfig(remote config.Remote) Result {
	const name = "Object store"

	if !remote.Enabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	missing := remote.Missing()
	switch {
	case len(missing) == 0:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s/%s", remote.Endpoint, remote.Bucket)}
	case len(missing) == 4:
		return Result{Name: name, Passed: true, Detail: "Not configured (local derivatives only)"}
	default:
		return Result{Name: name, Detail: "Missing " + strings.Join(missing, ", ")}
	}
}

// CheckBucket confirms the configured bucket is reachable.
func CheckBucket(ctx context.Context, remote config.Remote, logger *slog.Logger) Result {
	const name = "Bucket"

	pub, err := publish.NewS3(remote, logger)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	checkCtx, cancel := context.WithTimeout(ctx, bucketCheckTimeout)
	defer cancel()
	if err := pub.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", remote.Bucket, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (reachable)", remote.Bucket)}
}
