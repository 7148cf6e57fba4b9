package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forPelevin/streamclip/internal/types"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestArgsValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"analyze without inputs", []string{"analyze"}, "--comments or --transcript is required"},
		{"run without video", []string{"run"}, "accepts 1 arg(s), received 0"},
		{"unknown flag", []string{"analyze", "--wat"}, "unknown flag: --wat"},
		{"top non int", []string{"analyze", "--top", "nope"}, `invalid argument "nope" for "--top"`},
		{"negative window", []string{"analyze", "--comments", "c.xml", "--window=-1"}, "config: window must be > 0"},
		{"bad overflow", []string{"cut", "--recommendations", "r.json", "--video", "v.mp4", "--overflow", "drop"}, "config: overflow policy must be random or least-busy"},
		{"cut needs video", []string{"cut", "--recommendations", "r.json"}, `required flag(s) "video" not set`},
		{"batch needs dirs", []string{"batch"}, "requires at least 1 arg(s)"},
		{"history needs db", []string{"history", "--db", ""}, "--db or STREAMCLIP_DB is required"},
		{"unknown preset", []string{"presets", "show", "nobody", "--presets", ""}, "unknown preset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestAITitlesRequireKey(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	_, _, err := execute(t, "analyze", "--comments", "c.xml", "--ai-titles")
	if err == nil || !strings.Contains(err.Error(), "OPENROUTER_API_KEY is required") {
		t.Fatalf("expected missing key error, got %v", err)
	}

	t.Setenv("OPENROUTER_API_KEY", "dummy")
	t.Setenv("OPENROUTER_BASE_URL", "https://evil.example")
	_, _, err = execute(t, "analyze", "--comments", "c.xml", "--ai-titles")
	if err == nil || !strings.Contains(err.Error(), "is not in OPENROUTER_ALLOWED_HOSTS") {
		t.Fatalf("expected host allowlist error, got %v", err)
	}
}

func TestAnalyzeAndHistory(t *testing.T) {
	dir := t.TempDir()
	srt := filepath.Join(dir, "live.srt")
	body := "1\n00:00:00,000 --> 00:00:40,000\n今天打boss\n\n" +
		"2\n00:00:40,000 --> 00:01:30,000\n卧槽 太强了！名场面 哈哈\n"
	if err := os.WriteFile(srt, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	db := filepath.Join(dir, "history.db")
	out := filepath.Join(dir, "out")

	stdout, stderr, err := execute(t, "analyze", "--transcript", srt, "--out", out, "--db", db, "--presets", "")
	if err != nil {
		t.Fatalf("analyze: %v\n%s", err, stderr)
	}
	if !strings.Contains(stdout, "通用模板") {
		t.Fatalf("expected report with preset name, got:\n%s", stdout)
	}
	if !strings.Contains(stderr, "transcript: parsed 2, skipped 0") {
		t.Fatalf("expected progress on stderr, got:\n%s", stderr)
	}
	if _, err := os.Stat(filepath.Join(out, "clip_recommendations.json")); err != nil {
		t.Fatalf("missing recommendations: %v", err)
	}

	stdout, _, err = execute(t, "history", "--db", db)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(stdout, "generic") {
		t.Fatalf("expected recorded run, got:\n%s", stdout)
	}
}

func TestPresetsListAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	yaml := `streamers:
  azi:
    name: 阿梓
    memes: ["这波", "名场面"]
    clip_config:
      min_duration: 45
      max_duration: 150
    upload_template:
      title_template: "[{streamer}] {topic}"
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := execute(t, "presets", "list", "--presets", path)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(stdout, "azi") || !strings.Contains(stdout, "45s-150s") {
		t.Fatalf("unexpected list output:\n%s", stdout)
	}

	stdout, _, err = execute(t, "presets", "show", "阿梓", "--presets", path)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(stdout, "memes: 这波, 名场面") || !strings.Contains(stdout, "title template: [{streamer}] {topic}") {
		t.Fatalf("unexpected show output:\n%s", stdout)
	}
}

func TestClock(t *testing.T) {
	tests := map[float64]string{0: "00:00", 59.6: "01:00", 125: "02:05", 3661: "61:01"}
	for in, want := range tests {
		if got := clock(in); got != want {
			t.Fatalf("clock(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestPrintRecommendationsEmpty(t *testing.T) {
	var b bytes.Buffer
	printRecommendations(&b, "通用模板", types.Recommendations{Clips: []types.ClipRecommendation{}})
	if !strings.Contains(b.String(), "no highlights found") {
		t.Fatalf("unexpected output: %q", b.String())
	}
}
