package whisper

import (
	"os"
	"path/filepath"
	goruntime "runtime"
)

// ResolveExecutable decides which whisper.cpp binary to use for all
// subsequent invocations: the user override under the library root when it
// exists on disk at call time, otherwise the bundled fallback. The choice is
// made once; a later change to the override is not picked up without
// re-resolving. Neither path is required to exist here — a missing binary
// surfaces when the process is actually spawned.
func ResolveExecutable(libraryDir, bundledPath string) string {
	return resolveExecutable(libraryDir, bundledPath, os.Stat)
}

func resolveExecutable(libraryDir, bundledPath string, stat func(string) (os.FileInfo, error)) string {
	override := filepath.Join(libraryDir, "whisper", executableName())
	if info, err := stat(override); err == nil && !info.IsDir() {
		return override
	}
	return bundledPath
}

// executableName returns the platform binary name of the whisper.cpp CLI.
func executableName() string {
	if goruntime.GOOS == "windows" {
		return "main.exe"
	}
	return "main"
}
