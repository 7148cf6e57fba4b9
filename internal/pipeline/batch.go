package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

const DefaultBatchWorkers = 4

// BatchItem is the outcome for one broadcast directory.
type BatchItem struct {
	Dir    string
	OutDir string
	Clips  int
	Err    error
}

// RunBatch analyzes every directory independently with at most workers in
// flight. A failing directory does not stop the others; all failures are
// joined into the returned error.
func RunBatch(ctx context.Context, cfg Config, dirs []string, workers int) ([]BatchItem, error) {
	logf := cfg.logf()
	if len(dirs) == 0 {
		return nil, errors.New("no directories given")
	}
	if workers <= 0 {
		workers = DefaultBatchWorkers
	}

	st, err := openStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if st != nil {
		defer st.Close()
	}

	items := make([]BatchItem, len(dirs))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, dir := range dirs {
		items[i].Dir = dir
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				items[i].Err = err
				return nil
			}
			item := &items[i]
			dc := cfg
			dc.Logf = func(format string, args ...any) {
				logf("[%s] "+format, append([]any{filepath.Base(dir)}, args...)...)
			}
			dc.CommentsPath, dc.TranscriptPath, item.Err = discoverInputs(dir)
			if item.Err != nil {
				return nil
			}
			item.OutDir = batchOutDir(cfg.OutDir, dir)

			in, err := loadInputs(dc)
			if err != nil {
				item.Err = err
				return nil
			}
			res, err := analyzeLoaded(ctx, dc, in, item.OutDir, st)
			if err != nil {
				item.Err = err
				return nil
			}
			item.Clips = res.Recommendations.Total
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, it := range items {
		if it.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", it.Dir, it.Err))
		}
	}
	return items, errors.Join(errs...)
}

// discoverInputs finds the comment and transcript files of a broadcast
// directory: danmaku.xml or comments.json (else the first *.xml), and the
// first *.srt (else transcript.json).
func discoverInputs(dir string) (comments, transcript string, err error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return "", "", fmt.Errorf("%w: directory %s", ErrMissingInput, dir)
	}
	if err != nil {
		return "", "", err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	has := func(n string) bool {
		i := sort.SearchStrings(names, n)
		return i < len(names) && names[i] == n
	}
	firstExt := func(ext string) string {
		for _, n := range names {
			if strings.EqualFold(filepath.Ext(n), ext) {
				return n
			}
		}
		return ""
	}

	switch {
	case has("danmaku.xml"):
		comments = "danmaku.xml"
	case has("comments.json"):
		comments = "comments.json"
	default:
		comments = firstExt(".xml")
	}
	transcript = firstExt(".srt")
	if transcript == "" && has("transcript.json") {
		transcript = "transcript.json"
	}

	if comments == "" && transcript == "" {
		return "", "", fmt.Errorf("%w: no comment or transcript file in %s", ErrMissingInput, dir)
	}
	if comments != "" {
		comments = filepath.Join(dir, comments)
	}
	if transcript != "" {
		transcript = filepath.Join(dir, transcript)
	}
	return comments, transcript, nil
}

// batchOutDir is <outRoot>/<dir name>, or <dir>/streamclip without a root.
func batchOutDir(outRoot, dir string) string {
	if outRoot == "" {
		return filepath.Join(dir, "streamclip")
	}
	name := normalizePathSegment(filepath.Base(filepath.Clean(dir)))
	if name == "" {
		name = hash(dir)
	}
	return filepath.Join(outRoot, name)
}
