package types

import "strings"

// DisplayMode is how a timed comment is drawn over the video.
type DisplayMode string

const (
	ModeScroll  DisplayMode = "SCROLL"
	ModeTop     DisplayMode = "TOP"
	ModeBottom  DisplayMode = "BOTTOM"
	ModeReverse DisplayMode = "REVERSE"
)

// ParseDisplayMode accepts the canonical names case-insensitively.
// Anything unknown scrolls.
func ParseDisplayMode(s string) DisplayMode {
	switch DisplayMode(strings.ToUpper(strings.TrimSpace(s))) {
	case ModeTop:
		return ModeTop
	case ModeBottom:
		return ModeBottom
	case ModeReverse:
		return ModeReverse
	default:
		return ModeScroll
	}
}

type TimedComment struct {
	Timestamp   float64     `json:"timestamp"`
	AuthorID    string      `json:"authorId"`
	Text        string      `json:"text"`
	DisplayMode DisplayMode `json:"displayMode"`
}

type TranscriptEntry struct {
	Start         float64 `json:"start"`
	End           float64 `json:"end"`
	Text          string  `json:"text"`
	SequenceIndex int     `json:"sequenceIndex"`
}

type DensityWindow struct {
	WindowStart   float64  `json:"start"`
	WindowEnd     float64  `json:"end"`
	Count         int      `json:"count"`
	UniqueAuthors int      `json:"unique_users"`
	Texts         []string `json:"texts,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
}

type DensityResult struct {
	WindowSize     float64         `json:"window_size"`
	TotalComments  int             `json:"total_danmaku"`
	TotalAuthors   int             `json:"total_users"`
	Windows        []DensityWindow `json:"windows"`
	AverageDensity float64         `json:"avg_density"`
	Peaks          []DensityWindow `json:"peak_moments"`
}

type SemanticSegment struct {
	Start           float64  `json:"start"`
	End             float64  `json:"end"`
	Text            string   `json:"text"`
	Topic           string   `json:"topic"`
	ExcitementScore int      `json:"excitement_score"`
	Keywords        []string `json:"keywords"`
	Quotes          []string `json:"key_quotes"`
}

type SegmentResult struct {
	TotalEntries  int               `json:"total_subtitles"`
	TotalDuration float64           `json:"total_duration"`
	ChangePoints  []int             `json:"change_points"`
	Segments      []SemanticSegment `json:"segments"`
	Highlights    []SemanticSegment `json:"highlights"`
}

// Candidate is a provisional clip range backed by a density peak, a semantic
// highlight, or both.
type Candidate struct {
	Start    float64
	End      float64
	Overlap  float64
	Density  *DensityWindow
	Semantic *SemanticSegment
}

type ClipRecommendation struct {
	Start          float64        `json:"start"`
	End            float64        `json:"end"`
	Duration       float64        `json:"duration"`
	Title          string         `json:"title"`
	Keywords       []string       `json:"keywords"`
	Score          int            `json:"score"`
	ScoreBreakdown map[string]int `json:"score_breakdown"`
	Reason         string         `json:"reason"`
}

type Recommendations struct {
	Total int                  `json:"total_recommendations"`
	Clips []ClipRecommendation `json:"clips"`
}

// DurationBounds are the preset's preferred clip length in seconds.
type DurationBounds struct {
	Min float64 `json:"min" yaml:"min_duration"`
	Max float64 `json:"max" yaml:"max_duration"`
}

// Preset is the per-streamer bundle used by scoring and titling.
type Preset struct {
	Key              string          `json:"key,omitempty"`
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	SignaturePhrases []string        `json:"signaturePhrases,omitempty"`
	ClipDuration     *DurationBounds `json:"clipDurationBounds,omitempty"`
	TitleTemplate    string          `json:"titleTemplate,omitempty"`
	Tags             []string        `json:"tags,omitempty"`
}

type Manifest struct {
	RunID  string         `json:"run_id"`
	Input  string         `json:"input"`
	Preset string         `json:"preset,omitempty"`
	Clips  []ManifestClip `json:"clips"`
}

type ManifestClip struct {
	ID       string   `json:"id"`
	StartSec float64  `json:"start_sec"`
	EndSec   float64  `json:"end_sec"`
	Score    int      `json:"score"`
	Title    string   `json:"title"`
	Keywords []string `json:"keywords"`
	Reason   string   `json:"reason"`
	File     string   `json:"file"`
	Danmaku  string   `json:"danmaku,omitempty"`
	Comments int      `json:"comments"`
	Overflow int      `json:"lane_overflow"`
}
