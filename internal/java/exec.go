package java

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lodestonemc/lodestone/internal/platform"
)

// findExecutable locates the java binary under an extracted runtime tree and
// returns it together with the effective runtime home. Packages differ in
// layout: some place bin/ at the top, most wrap everything in a single
// versioned directory, and macOS bundles use Contents/Home.
func findExecutable(baseDir string, hostOS platform.OS) (exe, home string, err error) {
	home, err = runtimeHome(baseDir)
	if err != nil {
		return "", "", err
	}

	binDir := filepath.Join(home, "bin")
	if hostOS == platform.MacOS {
		macBin := filepath.Join(home, "Contents", "Home", "bin")
		if isDir(macBin) {
			binDir = macBin
			home = filepath.Join(home, "Contents", "Home")
		}
	}
	if !isDir(binDir) {
		return "", "", fmt.Errorf("no bin directory under runtime home %s", home)
	}

	candidates := []string{"java"}
	if hostOS == platform.Windows {
		candidates = []string{"javaw.exe", "java.exe"}
	}
	for _, name := range candidates {
		path := filepath.Join(binDir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, home, nil
		}
	}
	return "", "", fmt.Errorf("java executable not found in %s", binDir)
}

// runtimeHome resolves the directory that actually contains bin/: either
// baseDir itself or a wrapper subdirectory.
func runtimeHome(baseDir string) (string, error) {
	if !isDir(baseDir) {
		return "", fmt.Errorf("runtime directory %s does not exist", baseDir)
	}
	if isDir(filepath.Join(baseDir, "bin")) || isDir(filepath.Join(baseDir, "Contents")) {
		return baseDir, nil
	}

	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return "", fmt.Errorf("reading runtime directory: %w", err)
	}
	var subdirs []string
	for _, e := range entries {
		if e.IsDir() {
			subdirs = append(subdirs, filepath.Join(baseDir, e.Name()))
		}
	}

	if len(subdirs) == 1 {
		return subdirs[0], nil
	}
	for _, sub := range subdirs {
		if isDir(filepath.Join(sub, "bin")) || isFile(filepath.Join(sub, "release")) ||
			isDir(filepath.Join(sub, "Contents")) {
			return sub, nil
		}
	}
	return "", fmt.Errorf("could not determine runtime home under %s", baseDir)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
