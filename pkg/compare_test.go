package treeutils

import (
	"errors"
	"testing"
)

func TestEqualFiles(t *testing.T) {
	tempDir := t.TempDir()

	t.Run("IdenticalContent", func(t *testing.T) {
		pathA := writeTestFile(t, tempDir, "a1.txt", "identical content")
		pathB := writeTestFile(t, tempDir, "b1.txt", "identical content")

		equal, err := EqualFiles(pathA, pathB, DefaultCompareBuffer)
		if err != nil {
			t.Fatalf("EqualFiles failed: %v", err)
		}
		if !equal {
			t.Error("Expected identical files to compare equal")
		}
	})

	t.Run("DifferentContent", func(t *testing.T) {
		pathA := writeTestFile(t, tempDir, "a2.txt", "content alpha")
		pathB := writeTestFile(t, tempDir, "b2.txt", "content bravo")

		equal, err := EqualFiles(pathA, pathB, DefaultCompareBuffer)
		if err != nil {
			t.Fatalf("EqualFiles failed: %v", err)
		}
		if equal {
			t.Error("Expected different files to compare unequal")
		}
	})

	t.Run("BothEmpty", func(t *testing.T) {
		pathA := writeTestFile(t, tempDir, "a3.txt", "")
		pathB := writeTestFile(t, tempDir, "b3.txt", "")

		equal, err := EqualFiles(pathA, pathB, DefaultCompareBuffer)
		if err != nil {
			t.Fatalf("EqualFiles failed: %v", err)
		}
		if !equal {
			t.Error("Expected two empty files to compare equal")
		}
	})

	t.Run("DifferenceInLaterChunk", func(t *testing.T) {
		// Buffer of 4 forces multiple chunks; the difference sits in the
		// second chunk.
		pathA := writeTestFile(t, tempDir, "a4.txt", "aaaaXbbb")
		pathB := writeTestFile(t, tempDir, "b4.txt", "aaaaYbbb")

		equal, err := EqualFiles(pathA, pathB, 4)
		if err != nil {
			t.Fatalf("EqualFiles failed: %v", err)
		}
		if equal {
			t.Error("Expected files differing in second chunk to compare unequal")
		}
	})

	t.Run("ExactChunkMultiple", func(t *testing.T) {
		// Content length is an exact multiple of the buffer; the final
		// iteration sees two clean EOFs.
		pathA := writeTestFile(t, tempDir, "a5.txt", "12345678")
		pathB := writeTestFile(t, tempDir, "b5.txt", "12345678")

		equal, err := EqualFiles(pathA, pathB, 4)
		if err != nil {
			t.Fatalf("EqualFiles failed: %v", err)
		}
		if !equal {
			t.Error("Expected equal files with chunk-aligned length to compare equal")
		}
	})

	t.Run("ShortFinalChunk", func(t *testing.T) {
		pathA := writeTestFile(t, tempDir, "a6.txt", "1234567890")
		pathB := writeTestFile(t, tempDir, "b6.txt", "1234567890")

		equal, err := EqualFiles(pathA, pathB, 4)
		if err != nil {
			t.Fatalf("EqualFiles failed: %v", err)
		}
		if !equal {
			t.Error("Expected equal files with short final chunk to compare equal")
		}
	})
}

func TestEqualFilesMissing(t *testing.T) {
	tempDir := t.TempDir()
	pathA := writeTestFile(t, tempDir, "exists.txt", "content")

	if _, err := EqualFiles(pathA, "/nonexistent/other.txt", DefaultCompareBuffer); err == nil {
		t.Error("Expected error comparing against a missing file")
	}
	if _, err := EqualFiles("/nonexistent/one.txt", pathA, DefaultCompareBuffer); err == nil {
		t.Error("Expected error comparing from a missing file")
	}
}

func TestEqualFilesLengthMismatch(t *testing.T) {
	// EqualFiles assumes the caller established size equality; handing it
	// different-length files surfaces the stream length sentinel.
	tempDir := t.TempDir()
	pathA := writeTestFile(t, tempDir, "short.txt", "abc")
	pathB := writeTestFile(t, tempDir, "long.txt", "abcdef")

	equal, err := EqualFiles(pathA, pathB, DefaultCompareBuffer)
	if equal {
		t.Error("Expected length-mismatched files to compare unequal")
	}
	if err == nil {
		t.Fatal("Expected an error for length-mismatched streams")
	}
	if !errors.Is(err, ErrStreamLength) {
		t.Errorf("Expected error wrapping ErrStreamLength, got: %v", err)
	}
}

func TestEqualFilesDefaultBuffer(t *testing.T) {
	tempDir := t.TempDir()
	pathA := writeTestFile(t, tempDir, "a.txt", "content")
	pathB := writeTestFile(t, tempDir, "b.txt", "content")

	// A non-positive buffer size falls back to the default
	equal, err := EqualFiles(pathA, pathB, 0)
	if err != nil {
		t.Fatalf("EqualFiles failed: %v", err)
	}
	if !equal {
		t.Error("Expected equal files with default buffer to compare equal")
	}
}
