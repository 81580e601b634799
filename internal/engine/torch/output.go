package torch

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"o2rconv/internal/engine"
)

type archiveEntry struct {
	path    string
	size    int64
	modTime time.Time
}

func gatherArchives(dir string, format engine.ArchiveFormat) ([]archiveEntry, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	ext := "." + string(format)
	result := make([]archiveEntry, 0, len(items))
	for _, item := range items {
		if item.IsDir() || !strings.EqualFold(filepath.Ext(item.Name()), ext) {
			continue
		}
		info, err := item.Info()
		if err != nil {
			continue
		}
		result = append(result, archiveEntry{
			path:    filepath.Join(dir, item.Name()),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
	}
	return result, nil
}

func newestSince(entries []archiveEntry, since time.Time) *archiveEntry {
	var newest *archiveEntry
	for i := range entries {
		if entries[i].modTime.Before(since) {
			continue
		}
		if newest == nil || entries[i].modTime.After(newest.modTime) {
			newest = &entries[i]
		}
	}
	return newest
}

const tailSize = 20

// outputTail keeps the last lines Torch printed so a failure can be reported
// with the engine's own words.
type outputTail struct {
	lines []string
}

func newOutputTail() *outputTail {
	return &outputTail{lines: make([]string, 0, tailSize)}
}

func (t *outputTail) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if len(t.lines) == tailSize {
		copy(t.lines, t.lines[1:])
		t.lines = t.lines[:tailSize-1]
	}
	t.lines = append(t.lines, line)
}

// message returns the last line that looks like an error, else the last
// line, else the process error itself.
func (t *outputTail) message(err error) string {
	for i := len(t.lines) - 1; i >= 0; i-- {
		lower := strings.ToLower(t.lines[i])
		if strings.Contains(lower, "error") || strings.Contains(lower, "exception") || strings.Contains(lower, "failed") {
			return cleanLine(t.lines[i])
		}
	}
	if len(t.lines) > 0 {
		return cleanLine(t.lines[len(t.lines)-1])
	}
	if err != nil {
		return err.Error()
	}
	return "Torch failed"
}

// cleanLine drops a leading log-level tag such as "[error]".
func cleanLine(line string) string {
	if strings.HasPrefix(line, "[") {
		if end := strings.Index(line, "]"); end > 0 && end < 16 {
			return strings.TrimSpace(line[end+1:])
		}
	}
	return line
}
