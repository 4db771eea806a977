package repository

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/repoform/repoform/pkg/document"
	"github.com/repoform/repoform/pkg/logging"
)

// scanWorkers bounds concurrent file reads during a scan. The bridge
// pool separately bounds helper processes, so this only limits plain
// file I/O fan-out.
const scanWorkers = 4

// ScanIssue records one file that failed to read during a scan.
type ScanIssue struct {
	Path string
	Err  error
}

// ScanResult holds everything a scan produced: the documents that
// parsed plus the per-file failures that did not stop the scan.
type ScanResult struct {
	Documents []*document.Document
	Issues    []ScanIssue
}

// Scan reads every document in the designated subdirectories. One
// file's failure never aborts the scan; it is collected as an issue
// and the rest of the repository keeps loading. Results are ordered
// by path.
func (r *Repository) Scan(ctx context.Context) (*ScanResult, error) {
	defer logging.LogDuration(time.Now(), "repository scan")
	paths := r.listDocuments()

	result := &ScanResult{}
	var mu sync.Mutex

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < scanWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				doc, err := r.Read(ctx, path)
				mu.Lock()
				if err != nil {
					result.Issues = append(result.Issues, ScanIssue{Path: path, Err: err})
				} else {
					result.Documents = append(result.Documents, doc)
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, path := range paths {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- path:
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(result.Documents, func(i, j int) bool {
		return result.Documents[i].Path < result.Documents[j].Path
	})
	sort.Slice(result.Issues, func(i, j int) bool {
		return result.Issues[i].Path < result.Issues[j].Path
	})

	if err := ctx.Err(); err != nil {
		return result, err
	}
	r.logger.Info().
		Int("documents", len(result.Documents)).
		Int("issues", len(result.Issues)).
		Msg("Repository scan finished")
	return result, nil
}

// listDocuments collects the files in the designated subdirectories.
// Missing subdirectories are skipped; hidden files and nested
// directories are not documents.
func (r *Repository) listDocuments() []string {
	var paths []string
	for _, subdir := range r.cfg.Repo.Subdirs {
		dir := filepath.Join(r.root, subdir)
		entries, err := r.fs.ReadDir(dir)
		if err != nil {
			r.logger.Debug().Str("dir", dir).Err(err).Msg("Skipping unreadable subdirectory")
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	return paths
}
