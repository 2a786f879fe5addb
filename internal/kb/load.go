package kb

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapcheck/internal/state"
)

// GuidelineExtensions are the file types picked up from a guidelines directory.
var GuidelineExtensions = []string{".txt", ".md"}

// Loader builds a KB from guideline files.
type Loader struct {
	// Embedder embeds chunks and queries. Nil selects the hashing embedder.
	Embedder Embedder
	// Store, if set, records the content hash and chunk count of each file.
	Store state.Store
	// Logger receives load diagnostics.
	Logger *slog.Logger
}

// LoadGuidelines indexes the files at paths. Missing and unreadable files
// are skipped.
func LoadGuidelines(ctx context.Context, paths []string, embedder Embedder, logger *slog.Logger) (*KB, error) {
	l := &Loader{Embedder: embedder, Logger: logger}
	return l.Load(ctx, paths)
}

// Load indexes the files at paths in order. Missing and unreadable files
// are skipped, as are files the embedder fails on, so an unreachable
// embedding service yields a partial or empty KB. Load only fails when ctx
// is done.
func (l *Loader) Load(ctx context.Context, paths []string) (*KB, error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	kb := New(l.Embedder)

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("guideline not found, skipping", "path", path)
			continue
		}
		if err != nil {
			logger.Warn("failed to read guideline, skipping", "path", path, "error", err)
			continue
		}
		text := strings.ToValidUTF8(string(data), "")

		n, err := kb.Add(ctx, path, text)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			logger.Warn("failed to embed guideline, skipping", "path", path, "error", err)
			continue
		}
		logger.Debug("guideline indexed", "path", path, "chunks", n)
		l.recordSource(ctx, logger, path, text, n)
	}

	logger.Info("knowledge base loaded",
		"files", len(kb.Sources()),
		"chunks", kb.Len(),
		"embedder", kb.Embedder().Name())
	return kb, nil
}

func (l *Loader) recordSource(ctx context.Context, logger *slog.Logger, path, text string, chunks int) {
	if l.Store == nil {
		return
	}
	hash := ContentHash(text)
	prev, err := l.Store.GetSource(ctx, path)
	if err != nil {
		logger.Warn("failed to read guideline state", "path", path, "error", err)
		return
	}
	if prev != nil && prev.ContentHash != hash {
		logger.Info("guideline changed since last load", "path", path, "previous_chunks", prev.Chunks, "chunks", chunks)
	}
	if err := l.Store.SetSource(ctx, state.Source{Path: path, ContentHash: hash, Chunks: chunks}); err != nil {
		logger.Warn("failed to record guideline state", "path", path, "error", err)
	}
}

// GuidelinePaths returns files followed by the guideline files directly in
// dir, sorted by name, without duplicates. An empty or missing dir adds
// nothing.
func GuidelinePaths(dir string, files []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		clean := filepath.Clean(p)
		if seen[clean] {
			return
		}
		seen[clean] = true
		out = append(out, p)
	}
	for _, f := range files {
		if f != "" {
			add(f)
		}
	}
	if dir == "" {
		return out
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return out
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !IsGuidelineFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		add(filepath.Join(dir, name))
	}
	return out
}

// IsGuidelineFile reports whether name has a guideline extension.
func IsGuidelineFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range GuidelineExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
