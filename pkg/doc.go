// Package treeutils provides directory tree differencing and duplicate file
// detection built around streaming content digests.
//
// # Core API
//
// Tree comparison walks two directory trees and classifies every divergence
// as removed, added, changed, or renamed:
//
//	diff, err := treeutils.Diff("/path/to/a", "/path/to/b", treeutils.DefaultWalkOptions())
//	if err != nil {
//		log.Fatal(err)
//	}
//	if diff.Len() > 0 {
//		r := treeutils.NewRenderer(os.Stdout, treeutils.DefaultRenderOptions())
//		r.RenderHeader("/path/to/a", "/path/to/b")
//		r.Render(diff)
//	}
//
// Duplicate detection hashes every plain file under a root and groups files
// with identical digests:
//
//	groups, err := treeutils.FindDuplicates("/path/to/dir", treeutils.DupOptions{}, nil)
//	for _, group := range groups {
//		fmt.Printf("Hash %s: %v\n", group.Hash, group.Files)
//	}
//
// # Configuration
//
// Enable debug output:
//
//	treeutils.SetDebugFlags("walk,hash")
//	treeutils.SetVerboseLevel(2)
//
// Persistent settings load from an INI file via LoadConfig; command line
// overrides apply on top with Config.ApplyOverrides.
//
// # Note on Classification
//
// A file renamed within one directory level is reported as a single rename
// rather than a removal plus an addition; the match is made on content
// digest. Symbolic links are never followed, and matched entries whose types
// differ are reported as changed without descending further.
package treeutils
