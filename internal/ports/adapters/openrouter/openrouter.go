package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/forPelevin/streamclip/internal/types"
)

type Adapter struct {
	key     string
	model   string
	baseURL string
	client  *http.Client
}

const (
	requestTimeout = 90 * time.Second
	maxTitleRunes  = 80
	maxPromptMemes = 5
)

func New(apiKey, model, baseURL string) *Adapter {
	if model == "" {
		model = "anthropic/claude-3.5-sonnet"
	}
	baseURL = normalizeBaseURL(baseURL)
	return &Adapter{key: apiKey, model: model, baseURL: baseURL, client: &http.Client{Timeout: 5 * time.Minute}}
}

type promptClip struct {
	Idx      int      `json:"idx"`
	StartSec float64  `json:"start_sec"`
	EndSec   float64  `json:"end_sec"`
	Title    string   `json:"current_title"`
	Reason   string   `json:"reason"`
	Keywords []string `json:"keywords"`
	Score    int      `json:"score"`
}

// RefineTitles asks the model for one title per recommendation. The result
// is aligned with recs; an entry the model skipped or left blank keeps the
// recommendation's current title.
func (a *Adapter) RefineTitles(ctx context.Context, p types.Preset, recs []types.ClipRecommendation) ([]string, error) {
	if len(recs) == 0 {
		return nil, nil
	}
	if strings.TrimSpace(a.key) == "" {
		return nil, errors.New("openrouter: OPENROUTER_API_KEY is not set")
	}

	clips := make([]promptClip, 0, len(recs))
	for i, r := range recs {
		clips = append(clips, promptClip{
			Idx: i, StartSec: r.Start, EndSec: r.End,
			Title: r.Title, Reason: r.Reason, Keywords: r.Keywords, Score: r.Score,
		})
	}
	cb, err := json.Marshal(clips)
	if err != nil {
		return nil, fmt.Errorf("marshal prompt: %w", err)
	}

	payload := map[string]any{
		"model":  a.model,
		"stream": false,
		"messages": []map[string]any{
			{"role": "user", "content": buildPrompt(p, cb)},
		},
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name": "streamclip_titles",
				"schema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"titles": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"idx":   map[string]any{"type": "integer"},
									"title": map[string]any{"type": "string"},
								},
								"required": []string{"idx", "title"},
							},
						},
					},
					"required": []string{"titles"},
				},
			},
		},
	}

	content, err := a.complete(ctx, payload)
	if err != nil {
		return nil, err
	}
	clean, err := extractJSONObject(content)
	if err != nil {
		return nil, err
	}
	var out struct {
		Titles []struct {
			Idx   int    `json:"idx"`
			Title string `json:"title"`
		} `json:"titles"`
	}
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return nil, fmt.Errorf("openrouter: decode titles: %w", err)
	}

	titles := make([]string, len(recs))
	for i, r := range recs {
		titles[i] = r.Title
	}
	for _, t := range out.Titles {
		if t.Idx < 0 || t.Idx >= len(recs) {
			continue
		}
		if s := cleanTitle(t.Title); s != "" {
			titles[t.Idx] = s
		}
	}
	return titles, nil
}

func (a *Adapter) complete(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	url := a.baseURL + "/api/v1/chat/completions"

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+a.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("openrouter timeout after %s (model=%s)", requestTimeout, a.model)
		}
		return "", errors.New(redactSecrets(err.Error(), a.key))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if readErr != nil {
			return "", fmt.Errorf("openrouter status %d and read body failed: %v", resp.StatusCode, readErr)
		}
		return "", fmt.Errorf("openrouter status %d: %s", resp.StatusCode, truncate(redactSecrets(string(rb), a.key), 400))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content any `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("openrouter: decode response: %w", err)
	}
	if len(raw.Choices) == 0 {
		return "", errors.New("openrouter: no choices")
	}
	return messageContentToString(raw.Choices[0].Message.Content)
}

func buildPrompt(p types.Preset, clipsJSON []byte) string {
	streamer := p.Name
	if strings.TrimSpace(streamer) == "" {
		streamer = "主播"
	}
	memes := "无"
	if len(p.SignaturePhrases) > 0 {
		m := p.SignaturePhrases
		if len(m) > maxPromptMemes {
			m = m[:maxPromptMemes]
		}
		memes = strings.Join(m, ", ")
	}
	return "你是一个专业的直播切片标题策划。为每个片段写一个吸引人的B站标题。\n" +
		"- 主播: " + streamer + "\n" +
		"- 著名梗: " + memes + "\n" +
		"- 标题风格：玩梗、吐槽、夸张表达，可用【】和 | 分隔\n" +
		"- 每个标题不超过80字符，建议30字左右\n" +
		"Return strictly valid JSON (no markdown, no code fences) matching the provided schema, one entry per idx.\n\n" +
		"Clips JSON:\n" + string(clipsJSON)
}

func cleanTitle(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if r := []rune(s); len(r) > maxTitleRunes {
		s = string(r[:maxTitleRunes-3]) + "..."
	}
	return s
}

func messageContentToString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []any:
		// Some providers return an array of {type,text} parts.
		var b strings.Builder
		for _, it := range x {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			if t, ok := m["text"].(string); ok {
				b.WriteString(t)
			}
		}
		s := b.String()
		if strings.TrimSpace(s) == "" {
			return "", errors.New("openrouter: empty content")
		}
		return s, nil
	default:
		return "", fmt.Errorf("openrouter: unexpected content type %T", v)
	}
}

func extractJSONObject(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", errors.New("openrouter: empty content")
	}

	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}

	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start >= 0 && end > start {
		return t[start : end+1], nil
	}
	return "", fmt.Errorf("openrouter: could not locate JSON object in: %q", truncate(t, 200))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}
