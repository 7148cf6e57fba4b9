// Package subtitles renders lane-allocated comments as an ASS overlay that
// ffmpeg can burn into a clip.
package subtitles

import (
	"fmt"
	"strings"
	"time"

	"github.com/forPelevin/streamclip/internal/domain/tracks"
	"github.com/forPelevin/streamclip/internal/types"
)

const (
	playResX = 1920
	playResY = 1080
	// laneTop is the y of lane 0; lanes are laneHeight apart.
	laneTop    = 10
	laneHeight = 48
	fontSize   = 42
)

type Options struct {
	// Display is how long each comment stays on screen, in seconds.
	Display float64
}

// RenderDanmakuASS writes one Dialogue event per placement. Scrolling
// comments move across their lane (right to left, or left to right for
// REVERSE); anchored comments sit top or bottom center.
func RenderDanmakuASS(ps []tracks.Placement, opts Options) string {
	display := opts.Display
	if display <= 0 {
		display = tracks.DefaultDisplay
	}

	var b strings.Builder
	b.WriteString(assHeader())
	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, p := range ps {
		text := sanitizeASS(p.Comment.Text)
		if text == "" {
			continue
		}
		start := dur(p.Comment.Timestamp)
		end := dur(p.Comment.Timestamp + display)
		b.WriteString("Dialogue: 0,")
		b.WriteString(assTime(start))
		b.WriteString(",")
		b.WriteString(assTime(end))
		b.WriteString(",Danmaku,,0,0,0,,")
		b.WriteString(placementTag(p, text))
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String()
}

func placementTag(p tracks.Placement, text string) string {
	switch p.Comment.DisplayMode {
	case types.ModeTop:
		return "{\\an8}"
	case types.ModeBottom:
		return "{\\an2}"
	}
	y := laneTop + p.Lane*laneHeight
	w := textWidth(text)
	if p.Comment.DisplayMode == types.ModeReverse {
		return fmt.Sprintf("{\\move(%d,%d,%d,%d)}", -w, y, playResX, y)
	}
	return fmt.Sprintf("{\\move(%d,%d,%d,%d)}", playResX, y, -w, y)
}

// textWidth approximates rendered width: full-width runes take a full em,
// everything else half.
func textWidth(s string) int {
	w := 0
	for _, r := range s {
		if r < 0x2E80 {
			w += fontSize / 2
		} else {
			w += fontSize
		}
	}
	return w
}

func assHeader() string {
	return strings.TrimSpace(fmt.Sprintf(`
[Script Info]
ScriptType: v4.00+
PlayResX: %d
PlayResY: %d
ScaledBorderAndShadow: yes
WrapStyle: 2

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Danmaku, Noto Sans CJK SC, %d, &H00FFFFFF, &H00FFFFFF, &H00000000, &H64000000, 1,0,0,0,100,100,0,0,1,2,0,7, 20,20,20,1
`, playResX, playResY, fontSize))
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

func dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
