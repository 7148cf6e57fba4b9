package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/streamclip/internal/store"
	"github.com/forPelevin/streamclip/internal/types"
)

func TestBuildRunOutDir(t *testing.T) {
	now := time.Date(2026, 2, 12, 10, 30, 45, 1234, time.UTC)
	got := buildRunOutDir("out", "/tmp/My Cool.Video.mp4", now)
	base := filepath.Base(got)
	if filepath.Dir(got) != "out" {
		t.Fatalf("unexpected parent dir: %s", got)
	}
	if !strings.HasPrefix(base, "my-cool-video-20260212-103045Z-") {
		t.Fatalf("unexpected run dir format: %s", base)
	}
	if len(base) != len("my-cool-video-20260212-103045Z-")+6 {
		t.Fatalf("unexpected run dir suffix length: %s", base)
	}
}

func TestNormalizePathSegment(t *testing.T) {
	tests := map[string]string{
		"  My Cool.Video  ": "my-cool-video",
		"___":               "",
		"abc123":            "abc123",
		"Name (v2)!":        "name-v2",
		"直播 回放":             "直播-回放",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			if got := normalizePathSegment(in); got != want {
				t.Fatalf("normalizePathSegment(%q) = %q, want %q", in, got, want)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{}, false},
		{"negative window", Config{WindowSize: -1}, true},
		{"negative top", Config{TopN: -3}, true},
		{"bad overflow", Config{Overflow: "drop"}, true},
		{"ai titles need key", Config{AITitles: true}, true},
		{"ai titles bad host", Config{AITitles: true, OpenRouterAPIKey: "k", OpenRouterBaseURL: "https://evil.example"}, true},
		{"ai titles ok", Config{AITitles: true, OpenRouterAPIKey: "k"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

// writeBroadcast writes a danmaku XML with a burst at 60-90s and an SRT with
// an excited stretch over the same range.
func writeBroadcast(t *testing.T, dir string) (xmlPath, srtPath string) {
	t.Helper()
	var x strings.Builder
	x.WriteString(`<?xml version="1.0" encoding="UTF-8"?><i>`)
	add := func(ts float64, user, text string) {
		fmt.Fprintf(&x, `<d p="%.2f,1,25,16777215,0,0,%s,0">%s</d>`, ts, user, text)
	}
	for i := 0; i < 5; i++ {
		add(float64(i)*6, fmt.Sprintf("u%d", i), "来了")
	}
	for i := 0; i < 120; i++ {
		add(60+float64(i)*0.25, fmt.Sprintf("u%d", i%40), "卧槽名场面")
	}
	for i := 0; i < 5; i++ {
		add(150+float64(i)*6, fmt.Sprintf("u%d", i), "晚安")
	}
	x.WriteString(`<d p="bad">broken</d></i>`)

	srt := "1\n00:00:00,000 --> 00:00:10,000\n大家好\n\n" +
		"2\n00:00:55,000 --> 00:01:10,000\n卧槽 这波太强了！\n\n" +
		"3\n00:01:10,000 --> 00:01:40,000\n哈哈 笑死 牛逼 名场面\n"

	xmlPath = filepath.Join(dir, "danmaku.xml")
	srtPath = filepath.Join(dir, "live.srt")
	if err := os.WriteFile(xmlPath, []byte(x.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(srtPath, []byte(srt), 0o644); err != nil {
		t.Fatal(err)
	}
	return xmlPath, srtPath
}

func TestAnalyze_WritesArtifactsAndHistory(t *testing.T) {
	dir := t.TempDir()
	xmlPath, srtPath := writeBroadcast(t, dir)
	outDir := filepath.Join(dir, "out")
	dbPath := filepath.Join(dir, "db", "history.db")

	var logs []string
	res, err := Analyze(context.Background(), Config{
		CommentsPath:   xmlPath,
		TranscriptPath: srtPath,
		OutDir:         outDir,
		DBPath:         dbPath,
		Logf:           func(f string, a ...any) { logs = append(logs, fmt.Sprintf(f, a...)) },
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Recommendations.Total == 0 {
		t.Fatalf("expected recommendations")
	}

	for _, name := range []string{"danmaku" + DensityFileSuffix, "live" + SemanticFileSuffix, RecommendationsFile} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("missing artifact %s: %v", name, err)
		}
	}
	b, err := os.ReadFile(filepath.Join(outDir, RecommendationsFile))
	if err != nil {
		t.Fatal(err)
	}
	var recs types.Recommendations
	if err := json.Unmarshal(b, &recs); err != nil {
		t.Fatalf("decode recommendations: %v", err)
	}
	if recs.Total != len(recs.Clips) || recs.Clips[0].Score != res.Recommendations.Clips[0].Score {
		t.Fatalf("artifact does not match result: %+v", recs)
	}

	if !strings.Contains(strings.Join(logs, "\n"), "comments: parsed 130, skipped 1") {
		t.Fatalf("expected parse stats in logs, got:\n%s", strings.Join(logs, "\n"))
	}

	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	runs, err := st.ListRuns(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != res.RunID || runs[0].Clips != res.Recommendations.Total {
		t.Fatalf("unexpected history: %+v", runs)
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	dir := t.TempDir()
	xmlPath, srtPath := writeBroadcast(t, dir)

	read := func(out string) string {
		if _, err := Analyze(context.Background(), Config{CommentsPath: xmlPath, TranscriptPath: srtPath, OutDir: out}); err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		b, err := os.ReadFile(filepath.Join(out, RecommendationsFile))
		if err != nil {
			t.Fatal(err)
		}
		return string(b)
	}
	if a, b := read(filepath.Join(dir, "a")), read(filepath.Join(dir, "b")); a != b {
		t.Fatalf("recommendations differ between runs")
	}
}

func TestAnalyze_MissingInput(t *testing.T) {
	_, err := Analyze(context.Background(), Config{CommentsPath: filepath.Join(t.TempDir(), "nope.xml")})
	if !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
	if _, err := Analyze(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error without inputs")
	}
}

func TestAnalyze_UnknownPreset(t *testing.T) {
	dir := t.TempDir()
	xmlPath, _ := writeBroadcast(t, dir)
	_, err := Analyze(context.Background(), Config{CommentsPath: xmlPath, OutDir: dir, PresetName: "nobody"})
	if err == nil || !strings.Contains(err.Error(), "unknown preset") {
		t.Fatalf("expected unknown preset error, got %v", err)
	}
}

func TestCut_RequiresVideo(t *testing.T) {
	_, err := Cut(context.Background(), Config{Recommendations: "r.json", InputMP4: filepath.Join(t.TempDir(), "missing.mp4")})
	if !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
}

func TestDiscoverInputs(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"b.xml", "a.xml", "z.srt", "transcript.json", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	c, tr, err := discoverInputs(dir)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(c) != "a.xml" || filepath.Base(tr) != "z.srt" {
		t.Fatalf("unexpected discovery: %s %s", c, tr)
	}

	if err := os.WriteFile(filepath.Join(dir, "danmaku.xml"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if c, _, _ := discoverInputs(dir); filepath.Base(c) != "danmaku.xml" {
		t.Fatalf("danmaku.xml should win, got %s", c)
	}

	empty := t.TempDir()
	if _, _, err := discoverInputs(empty); !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput for empty dir, got %v", err)
	}
}

func TestRunBatch_IsolatesFailures(t *testing.T) {
	root := t.TempDir()
	good1 := filepath.Join(root, "day1")
	good2 := filepath.Join(root, "day2")
	bad := filepath.Join(root, "missing")
	for _, d := range []string{good1, good2} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
		writeBroadcast(t, d)
	}
	outRoot := filepath.Join(root, "out")

	items, err := RunBatch(context.Background(), Config{OutDir: outRoot}, []string{good1, bad, good2}, 2)
	if err == nil || !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected joined ErrMissingInput, got %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for _, i := range []int{0, 2} {
		if items[i].Err != nil || items[i].Clips == 0 {
			t.Fatalf("item %d should succeed: %+v", i, items[i])
		}
		if _, err := os.Stat(filepath.Join(items[i].OutDir, RecommendationsFile)); err != nil {
			t.Fatalf("item %d missing recommendations: %v", i, err)
		}
	}
	if items[1].Err == nil {
		t.Fatalf("missing dir should fail")
	}
	if items[0].OutDir != filepath.Join(outRoot, "day1") {
		t.Fatalf("unexpected out dir %s", items[0].OutDir)
	}
}
