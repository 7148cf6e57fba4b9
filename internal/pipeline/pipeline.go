package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/forPelevin/streamclip/internal/domain/lexicon"
	"github.com/forPelevin/streamclip/internal/domain/tracks"
	"github.com/forPelevin/streamclip/internal/ports"
	"github.com/forPelevin/streamclip/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/streamclip/internal/ports/adapters/openrouter"
	"github.com/forPelevin/streamclip/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/streamclip/internal/preset"
	"github.com/forPelevin/streamclip/internal/types"
	"github.com/forPelevin/streamclip/internal/usecase"
)

// ErrMissingInput wraps any input file that does not exist.
var ErrMissingInput = errors.New("missing input")

const (
	DensityFileSuffix   = ".danmaku_analysis.json"
	SemanticFileSuffix  = ".semantic_analysis.json"
	RecommendationsFile = "clip_recommendations.json"
	ManifestFile        = "manifest.json"
)

type Config struct {
	// Inputs. Analyze needs comments or a transcript; rendering needs the video.
	CommentsPath    string
	TranscriptPath  string
	InputMP4        string
	Recommendations string

	OutDir string
	Logf   func(format string, args ...any)

	// CacheDir is the base directory for local artifacts (audio, transcripts).
	// If empty, defaults to ".cache".
	CacheDir string

	PresetsPath string
	PresetName  string
	LexiconPath string

	WindowSize float64
	TopN       int

	Lanes       int
	DisplaySec  float64
	Overflow    string
	Seed        uint64
	BurnDanmaku bool

	// DBPath enables the run history when set.
	DBPath string

	FFmpegPath  string
	FFprobePath string

	WhisperBin      string
	WhisperModel    string
	WhisperLanguage string

	AITitles               bool
	OpenRouterAPIKey       string
	OpenRouterModel        string
	OpenRouterBaseURL      string
	OpenRouterAllowedHosts []string
}

// Validate checks numeric bounds and the AI endpoint. Which inputs are
// required depends on the operation and is checked there.
func (c Config) Validate() error {
	if c.WindowSize < 0 {
		return errors.New("window must be > 0")
	}
	if c.TopN < 0 {
		return errors.New("top must be > 0")
	}
	if err := c.trackConfig().Validate(); err != nil {
		return err
	}
	if c.AITitles {
		if strings.TrimSpace(c.OpenRouterAPIKey) == "" {
			return errors.New("OPENROUTER_API_KEY is required for --ai-titles (set it in .env)")
		}
		return openrouter.ValidateBaseURL(c.OpenRouterBaseURL, c.OpenRouterAllowedHosts)
	}
	return nil
}

func (c Config) trackConfig() tracks.Config {
	tc := tracks.Config{
		Lanes:    c.Lanes,
		Display:  c.DisplaySec,
		Overflow: tracks.OverflowPolicy(c.Overflow),
	}
	if c.Seed != 0 {
		tc.Rand = tracks.SeededRand(c.Seed)
	}
	return tc
}

func (c Config) logf() func(string, ...any) {
	if c.Logf == nil {
		return func(string, ...any) {}
	}
	return c.Logf
}

func (c Config) usecase() usecase.Usecase {
	deps := usecase.Deps{
		Video: ffmpeg.New(c.FFmpegPath, c.FFprobePath),
		ASR:   whispercpp.New(c.WhisperBin, c.WhisperModel, c.WhisperLanguage),
	}
	if c.AITitles {
		deps.Titler = openrouter.New(c.OpenRouterAPIKey, c.OpenRouterModel, c.OpenRouterBaseURL)
	}
	return usecase.New(deps)
}

// loadPreset resolves the named preset and the lexicon: built-in tables,
// then the preset file's lexicon section, then the standalone lexicon file.
func (c Config) loadPreset() (types.Preset, lexicon.Lexicon, error) {
	cat, lex, err := c.loadCatalog()
	if err != nil {
		return types.Preset{}, lexicon.Lexicon{}, err
	}
	p, err := cat.Resolve(c.PresetName)
	if err != nil {
		return types.Preset{}, lexicon.Lexicon{}, err
	}
	return p, lex, nil
}

func (c Config) loadCatalog() (*preset.Catalog, lexicon.Lexicon, error) {
	cat, err := preset.Load(c.PresetsPath)
	if err != nil {
		return nil, lexicon.Lexicon{}, err
	}
	lex := cat.Lexicon()
	if c.LexiconPath != "" {
		l, err := preset.LoadLexicon(c.LexiconPath)
		if err != nil {
			return nil, lexicon.Lexicon{}, err
		}
		lex = lex.Merge(l)
	}
	return cat, lex, nil
}

func readInput(kind, path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s %s", ErrMissingInput, kind, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", kind, err)
	}
	return b, nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, b, 0o644)
}

func buildRunOutDir(outRoot, input string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", input, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func baseName(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if name == "" || name == "." {
		return "input"
	}
	return name
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.VideoTool = (*ffmpeg.Adapter)(nil)
var _ ports.ASR = (*whispercpp.Adapter)(nil)
var _ ports.TitleRefiner = (*openrouter.Adapter)(nil)
