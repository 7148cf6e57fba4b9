package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/forPelevin/streamclip/internal/types"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndListRuns(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clips := []types.ClipRecommendation{
		{Start: 10, End: 70, Score: 88, Title: "a", Reason: "弹幕密集", Keywords: []string{"卧槽"}, ScoreBreakdown: map[string]int{"danmaku": 100}},
		{Start: 200, End: 260, Score: 61, Title: "b", Reason: "精彩片段", Keywords: []string{}, ScoreBreakdown: map[string]int{"danmaku": 20}},
	}
	if err := s.SaveRun(ctx, Run{ID: "r1", CreatedAt: base, Comments: "d.xml", Transcript: "s.srt", Preset: "generic"}, clips); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if err := s.SaveRun(ctx, Run{ID: "r2", CreatedAt: base.Add(time.Hour), Preset: "azi"}, nil); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	runs, err := s.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "r2" || runs[1].ID != "r1" {
		t.Fatalf("expected newest first, got %+v", runs)
	}
	if runs[1].Clips != 2 || runs[1].TopScore != 88 || !runs[1].CreatedAt.Equal(base) {
		t.Fatalf("unexpected run row: %+v", runs[1])
	}

	got, err := s.RunClips(ctx, "r1")
	if err != nil {
		t.Fatalf("RunClips: %v", err)
	}
	if len(got) != 2 || got[0].Title != "a" || got[0].Duration != 60 || got[0].Keywords[0] != "卧槽" || got[0].ScoreBreakdown["danmaku"] != 100 {
		t.Fatalf("unexpected clips: %+v", got)
	}
}

func TestSaveRun_DuplicateIDFails(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	if err := s.SaveRun(ctx, Run{ID: "dup"}, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveRun(ctx, Run{ID: "dup"}, nil); err == nil {
		t.Fatalf("expected duplicate id error")
	}
	if err := s.SaveRun(ctx, Run{}, nil); err == nil {
		t.Fatalf("expected missing id error")
	}
}

func TestRunClips_NotFound(t *testing.T) {
	s := openTemp(t)
	_, err := s.RunClips(context.Background(), "missing")
	if !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}
