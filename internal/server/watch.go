package server

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/leapstack-labs/leapcheck/internal/kb"
)

// reloadDebounce coalesces bursts of file events into one rebuild.
const reloadDebounce = 250 * time.Millisecond

// watchGuidelines rebuilds the knowledge base when guideline files in the
// guidelines directory change. Reload failures are logged and the previous
// knowledge base stays in service.
func (s *Server) watchGuidelines(ctx context.Context) error {
	if s.guidelinesDir == "" {
		s.logger.Debug("no guidelines directory to watch")
		return nil
	}
	if err := os.MkdirAll(s.guidelinesDir, 0750); err != nil {
		return fmt.Errorf("failed to create guidelines directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(s.guidelinesDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.guidelinesDir, err)
	}
	s.logger.Info("watching guidelines", "dir", s.guidelinesDir)

	timer := time.NewTimer(reloadDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(event) {
				continue
			}
			s.logger.Debug("guideline changed", "path", event.Name, "op", event.Op.String())
			timer.Reset(reloadDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("guideline watcher error", "error", err)

		case <-timer.C:
			if err := s.Reload(ctx); err != nil {
				s.logger.Error("failed to reload guidelines", "error", err)
				continue
			}
			k, _ := s.current()
			s.logger.Info("guidelines reloaded", "sources", len(k.Sources()), "chunks", k.Len())
		}
	}
}

func relevantEvent(event fsnotify.Event) bool {
	if !kb.IsGuidelineFile(event.Name) {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
