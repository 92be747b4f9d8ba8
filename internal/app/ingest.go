package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/coursechat/coursechat/internal/course"
)

// IngestDirectory parses every course document in dir and indexes it,
// replacing any previously indexed version. Files that fail to parse are
// skipped with a warning so one malformed document cannot block startup.
// It returns the number of courses indexed.
func (a *App) IngestDirectory(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading course directory %q: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".txt") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	chunker := course.NewChunker(a.Config.ChunkSize, a.Config.ChunkOverlap)

	ingested := 0
	for _, name := range names {
		path := filepath.Join(dir, name)
		doc, err := course.ParseFile(path)
		if err != nil {
			a.logger.Warn("skipping unparseable course file", "file", name, "error", err)
			continue
		}
		if err := a.Index.IngestCourse(ctx, doc, chunker.Chunk(doc)); err != nil {
			return ingested, fmt.Errorf("ingesting %q: %w", name, err)
		}
		ingested++
	}

	chunks, err := a.Index.ChunkCount(ctx)
	if err != nil {
		a.logger.Warn("counting indexed chunks", "error", err)
	} else {
		a.logger.Info("course ingestion complete", "courses", ingested, "chunks", chunks)
	}
	return ingested, nil
}
