// Package preset loads per-streamer presets and lexicon overrides from YAML.
package preset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/forPelevin/streamclip/internal/domain/lexicon"
	"github.com/forPelevin/streamclip/internal/types"
)

const GenericKey = "generic"

// fileEntry mirrors one streamer under the `streamers:` map.
type fileEntry struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Memes       []string `yaml:"memes"`
	ClipConfig  struct {
		MinDuration *float64 `yaml:"min_duration"`
		MaxDuration *float64 `yaml:"max_duration"`
	} `yaml:"clip_config"`
	UploadTemplate struct {
		TitleTemplate string   `yaml:"title_template"`
		Tags          []string `yaml:"tags"`
	} `yaml:"upload_template"`
}

type file struct {
	Streamers map[string]fileEntry `yaml:"streamers"`
	Lexicon   *lexicon.Lexicon     `yaml:"lexicon"`
}

// Catalog is a loaded preset file. The zero value holds nothing; use Load or
// Builtin.
type Catalog struct {
	keys    []string
	presets map[string]types.Preset
	lex     lexicon.Lexicon
	// Source is the file the catalog came from, empty for the built-in one.
	Source string
}

// Default is the preset used when none is named. It has no clip bounds, so
// duration fit uses the built-in table.
func Default() types.Preset {
	return types.Preset{
		Key:           GenericKey,
		Name:          "通用模板",
		Description:   "默认模板，适用于未知主播",
		TitleTemplate: "[{streamer}]{topic}",
		Tags:          []string{"直播切片", "录播"},
	}
}

// Builtin is the catalog used when no preset file exists.
func Builtin() *Catalog {
	return &Catalog{
		keys:    []string{GenericKey},
		presets: map[string]types.Preset{GenericKey: Default()},
		lex:     lexicon.Default(),
	}
}

// Load reads a preset file. An empty path or a missing file yields the
// built-in catalog; a file that exists but does not parse is an error.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Builtin(), nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Builtin(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("parse presets %s: %w", path, err)
	}
	c.Source = path
	return c, nil
}

func Parse(b []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	c := &Catalog{presets: make(map[string]types.Preset, len(f.Streamers)), lex: lexicon.Default()}
	for key, e := range f.Streamers {
		p, err := e.preset(key)
		if err != nil {
			return nil, fmt.Errorf("streamer %q: %w", key, err)
		}
		c.presets[key] = p
		c.keys = append(c.keys, key)
	}
	sort.Strings(c.keys)
	if f.Lexicon != nil {
		c.lex = c.lex.Merge(*f.Lexicon)
	}
	return c, nil
}

func (e fileEntry) preset(key string) (types.Preset, error) {
	p := types.Preset{
		Key:              key,
		Name:             strings.TrimSpace(e.Name),
		Description:      e.Description,
		SignaturePhrases: e.Memes,
		TitleTemplate:    e.UploadTemplate.TitleTemplate,
		Tags:             e.UploadTemplate.Tags,
	}
	if p.Name == "" {
		p.Name = key
	}
	minD, maxD := e.ClipConfig.MinDuration, e.ClipConfig.MaxDuration
	if minD != nil || maxD != nil {
		b := &types.DurationBounds{Min: 60, Max: 300}
		if minD != nil {
			b.Min = *minD
		}
		if maxD != nil {
			b.Max = *maxD
		}
		if b.Min < 0 || b.Min > b.Max {
			return types.Preset{}, fmt.Errorf("clip_config: min_duration %v must be within [0, max_duration %v]", b.Min, b.Max)
		}
		p.ClipDuration = b
	}
	return p, nil
}

// Get finds a preset by exact key, then by key or display name ignoring case.
func (c *Catalog) Get(name string) (types.Preset, bool) {
	if p, ok := c.presets[name]; ok {
		return p, true
	}
	for _, k := range c.keys {
		p := c.presets[k]
		if strings.EqualFold(k, name) || strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return types.Preset{}, false
}

// Resolve is Get with fallbacks: an empty name gives the generic preset
// (from the file if it defines one), an unknown name is an error.
func (c *Catalog) Resolve(name string) (types.Preset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		if p, ok := c.Get(GenericKey); ok {
			return p, nil
		}
		return Default(), nil
	}
	if p, ok := c.Get(name); ok {
		return p, nil
	}
	return types.Preset{}, fmt.Errorf("unknown preset %q (known: %s)", name, strings.Join(c.keys, ", "))
}

// List returns presets ordered by key.
func (c *Catalog) List() []types.Preset {
	out := make([]types.Preset, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, c.presets[k])
	}
	return out
}

// Lexicon is the built-in lexicon with the file's overrides applied.
func (c *Catalog) Lexicon() lexicon.Lexicon { return c.lex }

// LoadLexicon reads a standalone lexicon file and merges it over the
// built-in tables.
func LoadLexicon(path string) (lexicon.Lexicon, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return lexicon.Lexicon{}, fmt.Errorf("read lexicon: %w", err)
	}
	var l lexicon.Lexicon
	if err := yaml.Unmarshal(b, &l); err != nil {
		return lexicon.Lexicon{}, fmt.Errorf("parse lexicon %s: %w", path, err)
	}
	return lexicon.Default().Merge(l), nil
}
