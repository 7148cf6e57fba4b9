//go:build integration

package itest

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/forPelevin/streamclip/internal/ports/adapters/ffmpeg"
)

// findRepoRoot asks the go tool for the main module's go.mod.
func findRepoRoot() (string, error) {
	out, err := exec.Command("go", "env", "GOMOD").Output()
	if err != nil {
		return "", err
	}
	gomod := strings.TrimSpace(string(out))
	if gomod == "" || gomod == "/dev/null" {
		return "", errors.New("could not locate go.mod")
	}
	return filepath.Dir(gomod), nil
}

func probeDurationSeconds(mp4Path string) (float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	d, err := ffmpeg.New("ffmpeg", "ffprobe").ProbeDuration(ctx, mp4Path)
	if err != nil {
		return 0, err
	}
	return d.Seconds(), nil
}
