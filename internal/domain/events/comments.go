package events

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/forPelevin/streamclip/internal/types"
)

// MaxBroadcastSeconds bounds every timestamp and transcript time. Records
// past it are malformed; the density windows grow with the largest timestamp.
const MaxBroadcastSeconds = 7 * 24 * 3600.0

// danmakuFields is the minimum field count of a <d p="..."> attribute:
// time,mode,size,color,sentAt,pool,user,row.
const danmakuFields = 8

// ParseDanmakuXML reads a Bilibili-style export:
//
//	<i><d p="12.5,1,25,16777215,1700000000,0,abc123,42">text</d>...</i>
//
// A broken document keeps whatever was read before the syntax error.
func ParseDanmakuXML(b []byte) ([]types.TimedComment, Stats) {
	var (
		out []types.TimedComment
		st  Stats
	)
	dec := xml.NewDecoder(bytes.NewReader(toUTF8(b)))
	dec.Strict = false
	dec.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			st.skip("danmaku xml: %v", err)
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "d" {
			continue
		}
		var d struct {
			P    string `xml:"p,attr"`
			Text string `xml:",chardata"`
		}
		if err := dec.DecodeElement(&d, &se); err != nil {
			st.skip("danmaku element: %v", err)
			continue
		}
		c, err := danmakuFromAttr(d.P, d.Text)
		if err != nil {
			st.skip("danmaku p=%q: %v", d.P, err)
			continue
		}
		out = append(out, c)
	}

	SortComments(out)
	st.Parsed = len(out)
	return out, st
}

func danmakuFromAttr(p, text string) (types.TimedComment, error) {
	f := strings.Split(p, ",")
	if len(f) < danmakuFields {
		return types.TimedComment{}, strconv.ErrSyntax
	}
	ts, err := parseSeconds(f[0])
	if err != nil {
		return types.TimedComment{}, err
	}
	mode, err := strconv.Atoi(strings.TrimSpace(f[1]))
	if err != nil {
		return types.TimedComment{}, err
	}
	return types.TimedComment{
		Timestamp:   ts,
		AuthorID:    strings.TrimSpace(f[6]),
		Text:        text,
		DisplayMode: modeFromBilibili(mode),
	}, nil
}

func modeFromBilibili(mode int) types.DisplayMode {
	switch mode {
	case 4:
		return types.ModeBottom
	case 5:
		return types.ModeTop
	case 6:
		return types.ModeReverse
	default:
		return types.ModeScroll
	}
}

// ParseCommentsJSON reads an array of
// {"timestamp": 1.5, "authorId": "u", "text": "t", "displayMode": "SCROLL"}.
// Each element is decoded independently so one bad record is skipped alone.
func ParseCommentsJSON(b []byte) ([]types.TimedComment, Stats) {
	var st Stats
	var raw []json.RawMessage
	if err := json.Unmarshal(toUTF8(b), &raw); err != nil {
		st.skip("comments json: %v", err)
		return nil, st
	}

	out := make([]types.TimedComment, 0, len(raw))
	for i, r := range raw {
		var rec struct {
			Timestamp   *float64 `json:"timestamp"`
			AuthorID    string   `json:"authorId"`
			Text        string   `json:"text"`
			DisplayMode string   `json:"displayMode"`
		}
		if err := json.Unmarshal(r, &rec); err != nil {
			st.skip("comment %d: %v", i, err)
			continue
		}
		if rec.Timestamp == nil || !validSeconds(*rec.Timestamp) {
			st.skip("comment %d: missing or invalid timestamp", i)
			continue
		}
		out = append(out, types.TimedComment{
			Timestamp:   *rec.Timestamp,
			AuthorID:    rec.AuthorID,
			Text:        rec.Text,
			DisplayMode: types.ParseDisplayMode(rec.DisplayMode),
		})
	}

	SortComments(out)
	st.Parsed = len(out)
	return out, st
}

func parseSeconds(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if !validSeconds(v) {
		return 0, strconv.ErrRange
	}
	return v, nil
}

func validSeconds(v float64) bool {
	return v >= 0 && v <= MaxBroadcastSeconds && !math.IsNaN(v)
}

// NormalizeComments drops comments whose timestamp is negative, non-finite or
// past MaxBroadcastSeconds and returns the rest sorted by timestamp.
func NormalizeComments(cs []types.TimedComment) ([]types.TimedComment, Stats) {
	var st Stats
	out := make([]types.TimedComment, 0, len(cs))
	for i, c := range cs {
		if !validSeconds(c.Timestamp) {
			st.skip("comment %d: timestamp %v out of range", i, c.Timestamp)
			continue
		}
		out = append(out, c)
	}
	SortComments(out)
	st.Parsed = len(out)
	return out, st
}
