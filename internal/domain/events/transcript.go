package events

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/forPelevin/streamclip/internal/types"
)

var (
	reBlankLines = regexp.MustCompile(`\n\s*\n+`)
	reSRTRange   = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})[,.](\d{1,3})\s*-->\s*(\d{1,2}):(\d{2}):(\d{2})[,.](\d{1,3})`)
)

// ParseSRT reads SubRip blocks. A block needs an integer index line, a time
// range line and at least one text line; text lines are joined by a space.
func ParseSRT(b []byte) ([]types.TranscriptEntry, Stats) {
	var (
		st  Stats
		acc transcriptBuilder
	)
	content := strings.ReplaceAll(string(toUTF8(b)), "\r\n", "\n")
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, st
	}

	for _, block := range reBlankLines.Split(content, -1) {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 3 {
			st.skip("srt block %q: fewer than 3 lines", truncate(block, 40))
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			st.skip("srt block index %q: %v", lines[0], err)
			continue
		}
		start, end, err := parseSRTRange(lines[1])
		if err != nil {
			st.skip("srt block %d: %v", idx, err)
			continue
		}
		text := strings.TrimSpace(strings.Join(trimAll(lines[2:]), " "))
		acc.add(&st, types.TranscriptEntry{Start: start, End: end, Text: text, SequenceIndex: idx})
	}

	st.Parsed = len(acc.out)
	return acc.out, st
}

func parseSRTRange(line string) (float64, float64, error) {
	m := reSRTRange.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return 0, 0, fmt.Errorf("unparsable time range %q", line)
	}
	start := srtSeconds(m[1], m[2], m[3], m[4])
	end := srtSeconds(m[5], m[6], m[7], m[8])
	return start, end, nil
}

func srtSeconds(h, m, s, frac string) float64 {
	hh, _ := strconv.Atoi(h)
	mm, _ := strconv.Atoi(m)
	ss, _ := strconv.Atoi(s)
	// "5" after the comma means 500ms.
	for len(frac) < 3 {
		frac += "0"
	}
	ms, _ := strconv.Atoi(frac)
	return float64(hh*3600+mm*60+ss) + float64(ms)/1000
}

// ParseTranscriptJSON reads whisper-style output, either
// {"segments":[{"start":0,"end":1.2,"text":"..."}]} or a bare array.
func ParseTranscriptJSON(b []byte) ([]types.TranscriptEntry, Stats) {
	var (
		st  Stats
		acc transcriptBuilder
	)
	b = toUTF8(b)

	var raw []json.RawMessage
	var wrapped struct {
		Segments []json.RawMessage `json:"segments"`
	}
	if err := json.Unmarshal(b, &wrapped); err == nil && wrapped.Segments != nil {
		raw = wrapped.Segments
	} else if err := json.Unmarshal(b, &raw); err != nil {
		st.skip("transcript json: %v", err)
		return nil, st
	}

	for i, r := range raw {
		var rec struct {
			Start *float64 `json:"start"`
			End   *float64 `json:"end"`
			Text  string   `json:"text"`
		}
		if err := json.Unmarshal(r, &rec); err != nil {
			st.skip("segment %d: %v", i, err)
			continue
		}
		if rec.Start == nil || rec.End == nil || !validSeconds(*rec.Start) || !validSeconds(*rec.End) {
			st.skip("segment %d: missing or invalid start/end", i)
			continue
		}
		acc.add(&st, types.TranscriptEntry{
			Start:         *rec.Start,
			End:           *rec.End,
			Text:          strings.TrimSpace(rec.Text),
			SequenceIndex: i + 1,
		})
	}

	st.Parsed = len(acc.out)
	return acc.out, st
}

// NormalizeTranscript applies the parser checks to entries built elsewhere:
// times in range, start <= end and non-decreasing starts, in input order.
func NormalizeTranscript(entries []types.TranscriptEntry) ([]types.TranscriptEntry, Stats) {
	var (
		st  Stats
		acc transcriptBuilder
	)
	for i, e := range entries {
		if e.SequenceIndex == 0 {
			e.SequenceIndex = i + 1
		}
		if !validSeconds(e.Start) || !validSeconds(e.End) {
			st.skip("entry %d: start/end out of range", e.SequenceIndex)
			continue
		}
		acc.add(&st, e)
	}
	if acc.out == nil {
		acc.out = []types.TranscriptEntry{}
	}
	st.Parsed = len(acc.out)
	return acc.out, st
}

// transcriptBuilder enforces start <= end and non-decreasing starts.
type transcriptBuilder struct {
	out []types.TranscriptEntry
}

func (t *transcriptBuilder) add(st *Stats, e types.TranscriptEntry) {
	if e.Start > e.End {
		st.skip("entry %d: start %.3f after end %.3f", e.SequenceIndex, e.Start, e.End)
		return
	}
	if n := len(t.out); n > 0 && e.Start < t.out[n-1].Start {
		st.skip("entry %d: start %.3f before previous %.3f", e.SequenceIndex, e.Start, t.out[n-1].Start)
		return
	}
	t.out = append(t.out, e)
}

func trimAll(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
