// Package events turns raw comment and transcript exports into the canonical
// time-sorted sequences the analyzers consume. Malformed records are skipped
// and counted; they never abort a parse.
package events

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/forPelevin/streamclip/internal/types"
)

var ErrMalformedRecord = errors.New("malformed record")

// maxKeptErrors bounds Stats.Errs on very dirty inputs.
const maxKeptErrors = 20

type Stats struct {
	Parsed  int
	Skipped int
	Errs    []error
}

func (s *Stats) skip(format string, args ...any) {
	s.Skipped++
	if len(s.Errs) < maxKeptErrors {
		s.Errs = append(s.Errs, fmt.Errorf("%w: "+format, append([]any{ErrMalformedRecord}, args...)...))
	}
}

type Format string

const (
	FormatDanmakuXML     Format = "danmaku-xml"
	FormatCommentsJSON   Format = "comments-json"
	FormatSRT            Format = "srt"
	FormatTranscriptJSON Format = "transcript-json"
)

// DetectCommentFormat picks a comment parser from the file extension.
func DetectCommentFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return FormatDanmakuXML, nil
	case ".json":
		return FormatCommentsJSON, nil
	default:
		return "", fmt.Errorf("unsupported comment file %q (want .xml or .json)", path)
	}
}

// DetectTranscriptFormat picks a transcript parser from the file extension.
func DetectTranscriptFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt":
		return FormatSRT, nil
	case ".json":
		return FormatTranscriptJSON, nil
	default:
		return "", fmt.Errorf("unsupported transcript file %q (want .srt or .json)", path)
	}
}

// ParseComments dispatches on format and returns comments sorted by timestamp.
func ParseComments(b []byte, f Format) ([]types.TimedComment, Stats, error) {
	switch f {
	case FormatDanmakuXML:
		c, st := ParseDanmakuXML(b)
		return c, st, nil
	case FormatCommentsJSON:
		c, st := ParseCommentsJSON(b)
		return c, st, nil
	default:
		return nil, Stats{}, fmt.Errorf("unknown comment format %q", f)
	}
}

// ParseTranscript dispatches on format and returns entries in start order.
func ParseTranscript(b []byte, f Format) ([]types.TranscriptEntry, Stats, error) {
	switch f {
	case FormatSRT:
		e, st := ParseSRT(b)
		return e, st, nil
	case FormatTranscriptJSON:
		e, st := ParseTranscriptJSON(b)
		return e, st, nil
	default:
		return nil, Stats{}, fmt.Errorf("unknown transcript format %q", f)
	}
}

// SortComments orders by timestamp; equal timestamps keep input order.
func SortComments(cs []types.TimedComment) {
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Timestamp < cs[j].Timestamp })
}

// Between returns the comments with start <= timestamp <= end, re-based so
// the clip starts at zero.
func Between(cs []types.TimedComment, start, end float64) []types.TimedComment {
	lo := sort.Search(len(cs), func(i int) bool { return cs[i].Timestamp >= start })
	var out []types.TimedComment
	for _, c := range cs[lo:] {
		if c.Timestamp > end {
			break
		}
		c.Timestamp -= start
		out = append(out, c)
	}
	return out
}
