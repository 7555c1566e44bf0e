// Copyright (c) 2017-2022 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"crypto/sha256"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
	"unicode"
)

// FileExists reports whether the named file or directory exists.
func FileExists(name string) bool {
	if _, err := os.Stat(name); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}
	return true
}

// Digest returns the SHA256 of a byte slice.
func Digest(b []byte) []byte {
	h := sha256.Sum256(b)
	return h[:]
}

// AppDataDir returns the default application data directory for the provided
// application name. Unix like systems use a lower cased, dot prefixed
// directory in the home directory. Windows and macOS use a capitalized
// directory in their respective locations.
func AppDataDir(appName string) string {
	appName = strings.TrimLeft(appName, ".")
	if appName == "" {
		return "."
	}
	upper := []rune(appName)
	upper[0] = unicode.ToUpper(upper[0])
	lower := []rune(appName)
	lower[0] = unicode.ToLower(lower[0])

	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}

	switch runtime.GOOS {
	case "windows":
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return filepath.Join(dir, string(upper))
		}
		return filepath.Join(home, string(upper))
	case "darwin":
		return filepath.Join(home, "Library", "Application Support",
			string(upper))
	default:
		return filepath.Join(home, "."+string(lower))
	}
}

// CleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func CleanAndExpandPath(path string) string {
	if path == "" {
		return path
	}

	// os.ExpandEnv doesn't work with Windows cmd.exe-style %VARIABLE%.
	path = os.ExpandEnv(path)

	if !strings.HasPrefix(path, "~") {
		return filepath.Clean(path)
	}

	// Expand initial ~ to the current user's home directory, or
	// ~otheruser to otheruser's home directory.
	path = path[1:]

	pathSeparators := string(os.PathSeparator)
	if runtime.GOOS == "windows" {
		pathSeparators += "/"
	}

	userName := ""
	if i := strings.IndexAny(path, pathSeparators); i != -1 {
		userName = path[:i]
		path = path[i:]
	}

	var (
		u   *user.User
		err error
	)
	if userName == "" {
		u, err = user.Current()
	} else {
		u, err = user.Lookup(userName)
	}
	homeDir := ""
	if err == nil {
		homeDir = u.HomeDir
	}
	if homeDir == "" {
		homeDir = "."
	}

	return filepath.Join(homeDir, path)
}
