package treeutils

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	zcsl "github.com/mattkeenan/zerocopyskiplist"
)

// Skiplist context marker for scan-built duplicate indices
const dupContext = "dupes"

// DuplicateGroup represents a group of files with identical content digests
type DuplicateGroup struct {
	Hash  string   `json:"hash"`
	Files []string `json:"files"`
	Count int      `json:"count"`
}

// DupOptions configures a duplicate scan
type DupOptions struct {
	Algorithm  string          // digest algorithm ("" = DefaultHashName)
	HashBuffer int             // chunk size for digest streaming (0 = DefaultHashBuffer)
	Workers    int             // hash workers (0 = one per CPU)
	Excludes   *ExcludeManager // filters root-relative paths (nil = none)
	Progress   ProgressFunc    // optional per-file progress callback
}

// ProgressFunc receives scan progress after each hashed file: files hashed so
// far, bytes hashed so far, and the root-relative path just finished.
type ProgressFunc func(files int64, bytes int64, path string)

// dupEntry is one hashed file in the scan index
type dupEntry struct {
	Digest  string
	RelPath string
	Size    int64
}

// dupJob is one file queued for hashing
type dupJob struct {
	absPath string
	relPath string
	size    int64
}

// dupResult carries a worker's outcome to the collector
type dupResult struct {
	entry dupEntry
	err   error
}

// dupIndex holds hashed entries in a zero-copy skiplist keyed digest-major,
// path-minor, so group extraction is a single ordered walk and output order
// is deterministic regardless of worker completion order.
type dupIndex struct {
	skiplist *zcsl.ZeroCopySkiplist[dupEntry, string, string]
}

func newDupIndex() *dupIndex {
	getKeyFromItem := func(e *dupEntry) string {
		return e.Digest + "\x00" + e.RelPath
	}
	// Serialisation size is unused for an in-memory index; a nominal size
	// keeps the skiplist API satisfied.
	getItemSize := func(e *dupEntry) int {
		return len(e.Digest) + len(e.RelPath)
	}
	cmpKey := func(a, b string) int {
		return strings.Compare(a, b)
	}

	return &dupIndex{
		skiplist: zcsl.MakeZeroCopySkiplist[dupEntry, string, string](
			16,
			getKeyFromItem,
			getItemSize,
			cmpKey,
		),
	}
}

func (di *dupIndex) insert(entry dupEntry) {
	di.skiplist.Insert(&entry, dupContext)
}

// groups walks the index in digest order and emits groups with two or more
// members. Files within a group come out path-sorted.
func (di *dupIndex) groups() []DuplicateGroup {
	var result []DuplicateGroup
	var hash string
	var files []string

	flush := func() {
		if len(files) > 1 {
			result = append(result, DuplicateGroup{Hash: hash, Files: files, Count: len(files)})
		}
		files = nil
	}

	for node := di.skiplist.First(); node != nil; node = node.Next() {
		entry := node.Item()
		if entry.Digest != hash {
			flush()
			hash = entry.Digest
		}
		files = append(files, entry.RelPath)
	}
	flush()

	return result
}

// FindDuplicates scans root breadth-first and returns groups of plain files
// whose full contents hash identically. Groups are ordered by digest and hold
// root-relative sorted paths. Symlinks are never followed; non-regular
// entries never participate. The first worker or listing error aborts the
// scan, as does a close of shutdownChan.
func FindDuplicates(root string, opts DupOptions, shutdownChan <-chan struct{}) ([]DuplicateGroup, error) {
	defer VerboseEnter()()

	name := opts.Algorithm
	if name == "" {
		name = DefaultHashName
	}
	algorithm, err := GetHashAlgorithm(name)
	if err != nil {
		return nil, err
	}

	bufSize := opts.HashBuffer
	if bufSize <= 0 {
		bufSize = DefaultHashBuffer
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	VerboseLog(1, "Scanning %s for duplicates with %d workers (%s)", root, workers, algorithm.Name)

	index := newDupIndex()

	jobChan := make(chan *dupJob, 100)
	resultChan := make(chan *dupResult, 100)
	abortChan := make(chan struct{})

	// Hash workers: consume jobs until the channel closes. Once the scan is
	// failing, remaining jobs are drained without hashing.
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobChan {
				select {
				case <-abortChan:
					continue
				default:
				}

				hashBytes, err := HashFileInterruptible(job.absPath, algorithm, bufSize, shutdownChan)
				if err != nil {
					resultChan <- &dupResult{err: err}
					continue
				}
				resultChan <- &dupResult{entry: dupEntry{
					Digest:  hex.EncodeToString(hashBytes),
					RelPath: job.relPath,
					Size:    job.size,
				}}
			}
		}()
	}

	// Collector: sole writer of the index. The first error closes abortChan
	// and later results are discarded.
	var firstErr error
	var files, bytes int64
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for res := range resultChan {
			if res.err != nil {
				if firstErr == nil {
					firstErr = res.err
					close(abortChan)
				}
				continue
			}
			if firstErr != nil {
				continue
			}
			index.insert(res.entry)
			files++
			bytes += res.entry.Size
			if opts.Progress != nil {
				opts.Progress(files, bytes, res.entry.RelPath)
			}
		}
	}()

	// Breadth-first discovery over the tree, lexicographic within each
	// directory. Only the discovery loop touches the queue.
	var walkErr error
	queue := []string{""}
discovery:
	for len(queue) > 0 {
		relDir := queue[0]
		queue = queue[1:]
		absDir := filepath.Join(root, relDir)

		ents, err := os.ReadDir(absDir)
		if err != nil {
			walkErr = fmt.Errorf("failed to list directory %s: %w", absDir, err)
			break discovery
		}

		for _, ent := range ents {
			relPath := joinRel(relDir, ent.Name())
			if opts.Excludes.ShouldExclude(relPath) {
				continue
			}

			absPath := filepath.Join(absDir, ent.Name())
			info, err := os.Lstat(absPath)
			if err != nil {
				walkErr = fmt.Errorf("failed to stat %s: %w", absPath, err)
				break discovery
			}

			switch {
			case info.IsDir():
				queue = append(queue, relPath)
			case info.Mode().IsRegular():
				if IsDebugEnabled("dupes") {
					VerboseLog(3, "dupes: queued %s (%s)", relPath, FormatSize(info.Size()))
				}
				job := &dupJob{absPath: absPath, relPath: relPath, size: info.Size()}
				select {
				case jobChan <- job:
				case <-abortChan:
					break discovery
				case <-shutdownChan:
					walkErr = fmt.Errorf("scan interrupted by shutdown")
					break discovery
				}
			default:
				// Symlinks and other special types never participate.
			}
		}
	}

	close(jobChan)
	wg.Wait()
	close(resultChan)
	<-collectorDone

	if walkErr != nil {
		return nil, walkErr
	}
	if firstErr != nil {
		return nil, firstErr
	}

	VerboseLog(2, "Hashed %d files (%s)", files, FormatSize(bytes))

	return index.groups(), nil
}
