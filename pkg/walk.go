package treeutils

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// WalkOptions configures a Walker
type WalkOptions struct {
	Algorithm     string          // digest used for rename correlation ("" = DefaultHashName)
	CompareBuffer int             // chunk size for lock-step content comparison (0 = DefaultCompareBuffer)
	HashBuffer    int             // chunk size for digest streaming (0 = DefaultHashBuffer)
	Excludes      *ExcludeManager // filters root-relative paths out of both listings (nil = none)
}

// DefaultWalkOptions returns the options used when no configuration is given
func DefaultWalkOptions() WalkOptions {
	return WalkOptions{
		Algorithm:     DefaultHashName,
		CompareBuffer: DefaultCompareBuffer,
		HashBuffer:    DefaultHashBuffer,
	}
}

// Walker lock-steps through two directory trees and populates a diff tree
// with one record per differing entry. Renames are detected per directory
// level by content digest; nothing is ever followed through a symlink.
type Walker struct {
	algorithm  *HashAlgorithm
	compareBuf int
	hashBuf    int
	excludes   *ExcludeManager
}

// NewWalker creates a walker from the given options
func NewWalker(opts WalkOptions) (*Walker, error) {
	name := opts.Algorithm
	if name == "" {
		name = DefaultHashName
	}
	algorithm, err := GetHashAlgorithm(name)
	if err != nil {
		return nil, err
	}

	compareBuf := opts.CompareBuffer
	if compareBuf <= 0 {
		compareBuf = DefaultCompareBuffer
	}
	hashBuf := opts.HashBuffer
	if hashBuf <= 0 {
		hashBuf = DefaultHashBuffer
	}

	return &Walker{
		algorithm:  algorithm,
		compareBuf: compareBuf,
		hashBuf:    hashBuf,
		excludes:   opts.Excludes,
	}, nil
}

// Diff runs a full comparison of dirA against dirB and returns the pruned
// result tree. The tree is empty exactly when no differences were found.
func Diff(dirA, dirB string, opts WalkOptions) (*DirNode, error) {
	defer VerboseEnter()()

	walker, err := NewWalker(opts)
	if err != nil {
		return nil, err
	}

	VerboseLog(1, "Comparing %s against %s", dirA, dirB)

	root := NewDirNode()
	if err := walker.Walk(root, dirA, dirB); err != nil {
		return nil, err
	}
	root.Prune()
	return root, nil
}

// Walk compares the immediate contents of dirA and dirB, recurses into
// common subdirectories, and populates node. The caller prunes afterwards.
// Any error aborts the whole comparison; there is no partial-result mode and
// no retry. Filesystem state is assumed stable for the duration of a run.
func (w *Walker) Walk(node *DirNode, dirA, dirB string) error {
	return w.walkLevel(node, dirA, dirB, "")
}

// walkLevel handles one directory level. rel is the slash-form path of this
// level relative to the roots, used for exclude matching and debug output.
func (w *Walker) walkLevel(node *DirNode, dirA, dirB, rel string) error {
	entsA, err := os.ReadDir(dirA)
	if err != nil {
		return fmt.Errorf("failed to list directory %s: %w", dirA, err)
	}
	entsB, err := os.ReadDir(dirB)
	if err != nil {
		return fmt.Errorf("failed to list directory %s: %w", dirB, err)
	}

	// B's remaining-entries set. Pass one strikes off every name it sees so
	// that only B-only entries are left for pass two.
	remaining := make(map[string]struct{}, len(entsB))
	for _, ent := range entsB {
		remaining[ent.Name()] = struct{}{}
	}

	// Pending-hash index for this level: digest of a removed plain file to
	// its name. Local to this call frame and discarded on return. A later
	// removed file with the same digest takes over the slot.
	pending := make(map[string]string)

	for _, ent := range entsA {
		name := ent.Name()
		relPath := joinRel(rel, name)
		if w.excludes.ShouldExclude(relPath) {
			// Excluded names are invisible on both sides.
			delete(remaining, name)
			continue
		}

		pathA := filepath.Join(dirA, name)
		pathB := filepath.Join(dirB, name)

		if _, inB := remaining[name]; !inB {
			// Absent in B: removed. Removed plain files are digested for the
			// rename pass; removed directories are a single record, never
			// recursed into or hashed.
			infoA, err := os.Lstat(pathA)
			if err != nil {
				return fmt.Errorf("failed to stat %s: %w", pathA, err)
			}
			if infoA.Mode().IsRegular() {
				digest, err := HashFileHex(pathA, w.algorithm, w.hashBuf)
				if err != nil {
					return err
				}
				pending[digest] = name
				if IsDebugEnabled("hash") {
					VerboseLog(3, "hash: %s -> %s", relPath, digest)
				}
			}
			node.AddFile(name, &FileDiff{Kind: DiffRemoved})
			continue
		}

		delete(remaining, name)

		infoA, infoB, err := statPair(pathA, pathB)
		if err != nil {
			return err
		}

		switch {
		case infoA.Mode().Type() != infoB.Mode().Type():
			// Entry types differ (file/dir/symlink/other). A type change is
			// always Changed; never recursed, never rename-matched.
			node.AddFile(name, &FileDiff{Kind: DiffChanged})
		case infoA.IsDir():
			// Common subdirectory: the subtree's records speak for it.
			if err := w.walkLevel(node.Dir(name), pathA, pathB, relPath); err != nil {
				return err
			}
		case !infoA.Mode().IsRegular():
			// Matching non-file, non-directory types (symlinks, fifos, ...)
			// are compared by type bit only; no record.
		case infoA.Size() != infoB.Size():
			node.AddFile(name, &FileDiff{Kind: DiffChanged})
		default:
			equal, err := EqualFiles(pathA, pathB, w.compareBuf)
			if err != nil {
				return err
			}
			if !equal {
				node.AddFile(name, &FileDiff{Kind: DiffChanged})
			}
		}
	}

	// Pass two: entries present only in B, visited in B's listing order so
	// that first-match-wins rename resolution is deterministic.
	for _, ent := range entsB {
		name := ent.Name()
		if _, ok := remaining[name]; !ok {
			continue
		}
		relPath := joinRel(rel, name)
		if w.excludes.ShouldExclude(relPath) {
			continue
		}

		pathB := filepath.Join(dirB, name)
		infoB, err := os.Lstat(pathB)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", pathB, err)
		}

		if infoB.Mode().IsRegular() {
			digest, err := HashFileHex(pathB, w.algorithm, w.hashBuf)
			if err != nil {
				return err
			}
			if from, ok := pending[digest]; ok {
				// Rename correlation: this file's content matches a removed
				// sibling, so the Removed/Added pair collapses into a single
				// Renamed record. The digest is consumed; a later B-only
				// file with the same content is plain Added.
				node.RemoveFile(from)
				delete(pending, digest)
				node.AddFile(name, &FileDiff{Kind: DiffRenamed, RenamedFrom: from})
				if IsDebugEnabled("walk") {
					VerboseLog(3, "walk: %s renamed from %s", relPath, from)
				}
				continue
			}
		}

		node.AddFile(name, &FileDiff{Kind: DiffAdded})
	}

	return nil
}

// statPair fetches lstat metadata for both sides of one common entry. The
// two fetches are issued concurrently and awaited together, the only
// intra-level parallelism in a comparison run.
func statPair(pathA, pathB string) (os.FileInfo, os.FileInfo, error) {
	var (
		wg           sync.WaitGroup
		infoA, infoB os.FileInfo
		errA, errB   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		infoA, errA = os.Lstat(pathA)
	}()
	go func() {
		defer wg.Done()
		infoB, errB = os.Lstat(pathB)
	}()
	wg.Wait()

	if errA != nil {
		return nil, nil, fmt.Errorf("failed to stat %s: %w", pathA, errA)
	}
	if errB != nil {
		return nil, nil, fmt.Errorf("failed to stat %s: %w", pathB, errB)
	}
	return infoA, infoB, nil
}

// joinRel extends a slash-form relative path with one more component
func joinRel(rel, name string) string {
	if rel == "" {
		return name
	}
	return rel + "/" + name
}
