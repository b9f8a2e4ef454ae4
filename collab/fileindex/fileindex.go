// Package fileindex enumerates a content directory into a bounded,
// id-addressable file index. It stands in for the mesh node's contact
// store, trading "known peers" for "known files," and bounds concurrent
// disk stats with a weighted semaphore rather than a single worker loop.
package fileindex

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"
)

// MaxIndexedFiles caps how many files a single server indexes, matching
// the original content server's fixed-size file window.
const MaxIndexedFiles = 10

// maxConcurrentStats bounds how many files are stat-checked at once while
// building an index.
const maxConcurrentStats = 4

// Index maps file ids to absolute paths.
type Index struct {
	entries map[uint8]string
	ids     []uint8
}

// IDs returns every indexed file id.
func (i *Index) IDs() []uint8 {
	return append([]uint8(nil), i.ids...)
}

// Path returns the path indexed under id.
func (i *Index) Path(id uint8) (string, bool) {
	p, ok := i.entries[id]
	return p, ok
}

type candidate struct {
	id   uint8
	path string
}

// Build scans dir for files named "<id>.<ext>" (ext without the leading
// dot), keeps at most MaxIndexedFiles of them in directory-enumeration
// order, and keeps each survivor that can be stat'ed and is not a
// directory, bounding concurrent stats with a semaphore.
func Build(ctx context.Context, dir, ext string) (*Index, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read file directory %q: %w", dir, err)
	}

	suffix := "." + strings.TrimPrefix(ext, ".")
	var candidates []candidate
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		idStr := strings.TrimSuffix(name, suffix)
		idVal, err := strconv.ParseUint(idStr, 10, 8)
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{id: uint8(idVal), path: filepath.Join(dir, name)})
		if len(candidates) == MaxIndexedFiles {
			break
		}
	}

	sem := semaphore.NewWeighted(maxConcurrentStats)
	var wg sync.WaitGroup
	var mu sync.Mutex
	entryMap := make(map[uint8]string, len(candidates))
	ids := make([]uint8, 0, len(candidates))

	for _, c := range candidates {
		c := c
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			info, statErr := os.Stat(c.path)
			if statErr != nil || info.IsDir() {
				return
			}
			mu.Lock()
			entryMap[c.id] = c.path
			ids = append(ids, c.id)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sortUint8s(ids)
	return &Index{entries: entryMap, ids: ids}, nil
}

func sortUint8s(ids []uint8) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}
