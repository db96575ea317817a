package treeutils

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrStreamLength reports that two streams expected to hold the same number
// of bytes diverged in length mid-comparison. The walker only compares files
// after a size-equality check, so hitting this means the tree changed under
// the run; it is surfaced rather than folded into an ordinary mismatch.
var ErrStreamLength = errors.New("stream length mismatch")

// EqualFiles reports whether two files hold byte-identical content. Both
// files are read in lock-step chunks of bufSize bytes and compared chunk by
// chunk, short-circuiting on the first difference; memory use is two buffers
// regardless of file size. Both handles are closed on every exit path.
//
// Callers are expected to have established size equality beforehand. A
// read-length divergence between the streams returns false together with an
// error wrapping ErrStreamLength.
func EqualFiles(pathA, pathB string, bufSize int) (bool, error) {
	if bufSize <= 0 {
		bufSize = DefaultCompareBuffer
	}

	fileA, err := os.Open(pathA)
	if err != nil {
		return false, fmt.Errorf("failed to open file %s: %w", pathA, err)
	}
	defer fileA.Close()

	fileB, err := os.Open(pathB)
	if err != nil {
		return false, fmt.Errorf("failed to open file %s: %w", pathB, err)
	}
	defer fileB.Close()

	bufA := make([]byte, bufSize)
	bufB := make([]byte, bufSize)

	for {
		nA, errA := io.ReadFull(fileA, bufA)
		nB, errB := io.ReadFull(fileB, bufB)

		if errA != nil && errA != io.EOF && errA != io.ErrUnexpectedEOF {
			return false, fmt.Errorf("failed to read from file %s: %w", pathA, errA)
		}
		if errB != nil && errB != io.EOF && errB != io.ErrUnexpectedEOF {
			return false, fmt.Errorf("failed to read from file %s: %w", pathB, errB)
		}

		if nA != nB {
			return false, fmt.Errorf("comparing %s and %s: %w", pathA, pathB, ErrStreamLength)
		}
		if nA == 0 {
			// Both streams ended on the same chunk boundary.
			return true, nil
		}
		if !bytes.Equal(bufA[:nA], bufB[:nB]) {
			return false, nil
		}
		if errA == io.ErrUnexpectedEOF || errB == io.ErrUnexpectedEOF {
			// Equal-length short final chunks.
			return true, nil
		}
	}
}
