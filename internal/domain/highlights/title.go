package highlights

import (
	"strings"

	"github.com/forPelevin/streamclip/internal/types"
)

const (
	defaultStreamer = "主播"
	defaultKeyword  = "精彩时刻"
	maxQuoteTitle   = 20
	maxTitleRunes   = 80
)

// Title prefers a short quote from the segment, then the preset's title
// template, then "[streamer]keyword | suffix".
func Title(p types.Preset, keywords []string, seg *types.SemanticSegment) string {
	streamer := strings.TrimSpace(p.Name)
	if streamer == "" {
		streamer = defaultStreamer
	}
	kw := defaultKeyword
	if len(keywords) > 0 {
		kw = keywords[0]
	}

	var title string
	switch {
	case seg != nil && len(seg.Quotes) > 0:
		if q := seg.Quotes[0]; len([]rune(q)) <= maxQuoteTitle {
			title = "[" + streamer + "] " + q
		} else {
			title = "[" + streamer + "]" + kw + " | 高能名场面"
		}
	case p.TitleTemplate != "":
		topic := kw
		if seg != nil && seg.Topic != "" {
			topic = seg.Topic
		}
		title = strings.NewReplacer(
			"{streamer}", streamer,
			"{topic}", topic,
			"{keyword}", kw,
		).Replace(p.TitleTemplate)
	default:
		title = "[" + streamer + "]" + kw + " | 精彩片段"
	}

	if r := []rune(title); len(r) > maxTitleRunes {
		title = string(r[:maxTitleRunes-3]) + "..."
	}
	return title
}

// Reason lists which signals fired, joined by " + ".
func Reason(c types.Candidate, templateScore int) string {
	var rs []string
	if c.Density != nil && c.Density.Count > 80 {
		rs = append(rs, "弹幕密集")
	}
	if c.Semantic != nil && c.Semantic.ExcitementScore >= 4 {
		rs = append(rs, "情绪高涨")
	}
	if templateScore > 70 {
		rs = append(rs, "包含经典梗")
	}
	if len(rs) == 0 {
		return "精彩片段"
	}
	return strings.Join(rs, " + ")
}
