package preset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleYAML = `
streamers:
  azi:
    name: 阿梓
    description: 唱见
    memes: ["名场面", "GG"]
    clip_config:
      min_duration: 45
      max_duration: 120
    upload_template:
      title_template: "【{streamer}】{topic}"
      tags: ["阿梓", "切片"]
  coder:
    name: CodeCat
    memes: []
lexicon:
  default_topic: 闲聊
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	p, ok := c.Get("azi")
	if !ok {
		t.Fatalf("expected azi preset")
	}
	if p.Name != "阿梓" || p.TitleTemplate != "【{streamer}】{topic}" {
		t.Fatalf("unexpected preset: %+v", p)
	}
	if p.ClipDuration == nil || p.ClipDuration.Min != 45 || p.ClipDuration.Max != 120 {
		t.Fatalf("unexpected bounds: %+v", p.ClipDuration)
	}
	if strings.Join(p.SignaturePhrases, ",") != "名场面,GG" {
		t.Fatalf("unexpected phrases: %v", p.SignaturePhrases)
	}

	coder, _ := c.Get("coder")
	if coder.ClipDuration != nil {
		t.Fatalf("preset without clip_config should have no bounds")
	}
	if got := c.Lexicon().DefaultTopic; got != "闲聊" {
		t.Fatalf("lexicon override not applied: %q", got)
	}
	if len(c.Lexicon().Emotions) == 0 {
		t.Fatalf("lexicon override should keep built-in tables")
	}
}

func TestGet_CaseInsensitiveKeyAndName(t *testing.T) {
	c, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"AZI", "阿梓", "codecat"} {
		if _, ok := c.Get(name); !ok {
			t.Fatalf("expected %q to resolve", name)
		}
	}
	if _, ok := c.Get("nobody"); ok {
		t.Fatalf("unexpected match")
	}
}

func TestResolve(t *testing.T) {
	c, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	p, err := c.Resolve("")
	if err != nil || p.Key != GenericKey {
		t.Fatalf("empty name should give generic, got %+v err=%v", p, err)
	}
	if _, err := c.Resolve("nobody"); err == nil || !strings.Contains(err.Error(), "azi") {
		t.Fatalf("expected unknown-preset error listing keys, got %v", err)
	}
}

func TestParse_RejectsInvertedBounds(t *testing.T) {
	_, err := Parse([]byte("streamers:\n  x:\n    clip_config:\n      min_duration: 200\n      max_duration: 100\n"))
	if err == nil {
		t.Fatalf("expected error for min > max")
	}
}

func TestLoad_MissingFileIsBuiltin(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	list := c.List()
	if len(list) != 1 || list[0].Key != GenericKey {
		t.Fatalf("expected builtin catalog, got %+v", list)
	}
}

func TestLoad_FileAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Source != path {
		t.Fatalf("Source = %q", c.Source)
	}
	list := c.List()
	if len(list) != 2 || list[0].Key != "azi" || list[1].Key != "coder" {
		t.Fatalf("List should be sorted by key: %+v", list)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("streamers: [oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadLexicon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	body := "transitions: [\"下一个\"]\ntopics:\n  - name: 美食\n    words: [\"吃\", \"好吃\"]\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := LoadLexicon(path)
	if err != nil {
		t.Fatalf("LoadLexicon: %v", err)
	}
	if len(l.Transitions) != 1 || l.Transitions[0] != "下一个" {
		t.Fatalf("transitions not overridden: %v", l.Transitions)
	}
	if len(l.Topics) != 1 || l.Topics[0].Name != "美食" {
		t.Fatalf("topics not overridden: %+v", l.Topics)
	}
	if l.DefaultTopic == "" {
		t.Fatalf("default topic should come from the built-in lexicon")
	}
}
