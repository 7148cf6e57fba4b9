package whispercpp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/forPelevin/streamclip/internal/domain/events"
	"github.com/forPelevin/streamclip/internal/types"
)

type Adapter struct {
	bin      string
	model    string
	language string
}

// New returns a whisper.cpp adapter. An empty language lets whisper detect it.
func New(binPath, modelPath, language string) *Adapter {
	if language == "" {
		language = "auto"
	}
	return &Adapter{bin: binPath, model: modelPath, language: language}
}

// Transcribe runs whisper.cpp with SRT output and parses the result the same
// way a user-supplied subtitle file is parsed.
func (a *Adapter) Transcribe(ctx context.Context, wavPath, cacheDir string) ([]types.TranscriptEntry, error) {
	outPrefix := filepath.Join(cacheDir, "whisper")
	args := []string{
		"-m", a.model,
		"-f", wavPath,
		"-l", a.language,
		"-osrt",
		"-of", outPrefix,
	}
	cmd := exec.CommandContext(ctx, a.bin, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("whisper.cpp failed: %w\n%s", err, string(b))
	}

	sb, err := os.ReadFile(outPrefix + ".srt")
	if err != nil {
		return nil, err
	}
	entries, _ := events.ParseSRT(sb)
	return entries, nil
}
