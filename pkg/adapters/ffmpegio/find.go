// Package ffmpegio decodes, encodes and probes video files through external
// ffmpeg and ffprobe processes.
package ffmpegio

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sync"
)

var (
	pathMu        sync.RWMutex
	customFFmpeg  string
	customFFprobe string
)

// SetFFmpegPath sets a custom ffmpeg executable. An empty path restores the
// default search.
func SetFFmpegPath(path string) {
	pathMu.Lock()
	defer pathMu.Unlock()
	customFFmpeg = path
}

// SetFFprobePath sets a custom ffprobe executable. An empty path restores the
// default search.
func SetFFprobePath(path string) {
	pathMu.Lock()
	defer pathMu.Unlock()
	customFFprobe = path
}

// IsFFmpegAvailable checks if ffmpeg is available on the system.
func IsFFmpegAvailable() bool {
	_, err := FindFFmpeg()
	return err == nil
}

// FindFFmpeg searches for ffmpeg.
// Priority: 1) SetFFmpegPath, 2) FFMPEG_PATH env, 3) PATH, 4) common locations
func FindFFmpeg() (string, error) {
	pathMu.RLock()
	custom := customFFmpeg
	pathMu.RUnlock()
	return find("ffmpeg", custom, "FFMPEG_PATH", ErrFFmpegNotFound)
}

// FindFFprobe searches for ffprobe.
// Priority: 1) SetFFprobePath, 2) FFPROBE_PATH env, 3) PATH, 4) common locations
func FindFFprobe() (string, error) {
	pathMu.RLock()
	custom := customFFprobe
	pathMu.RUnlock()
	return find("ffprobe", custom, "FFPROBE_PATH", ErrFFprobeNotFound)
}

func find(name, custom, envVar string, notFound error) (string, error) {
	if custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", notFound, custom)
	}

	if envPath := os.Getenv(envVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: %s %s not found", notFound, envVar, envPath)
	}

	execName := name
	if runtime.GOOS == "windows" {
		execName = name + ".exe"
	}
	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	var commonPaths []string
	switch runtime.GOOS {
	case "windows":
		commonPaths = []string{
			`C:\ffmpeg\bin\` + execName,
			`C:\Program Files\ffmpeg\bin\` + execName,
			`C:\Program Files (x86)\ffmpeg\bin\` + execName,
		}
	case "darwin":
		commonPaths = []string{
			"/opt/homebrew/bin/" + name,
			"/usr/local/bin/" + name,
			"/usr/bin/" + name,
		}
	default:
		commonPaths = []string{
			"/usr/bin/" + name,
			"/usr/local/bin/" + name,
			"/snap/bin/" + name,
		}
	}
	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", notFound
}
