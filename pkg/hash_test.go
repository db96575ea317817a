package treeutils

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test file %s: %v", name, err)
	}
	return path
}

func TestHashFileHex(t *testing.T) {
	tempDir := t.TempDir()
	content := "the quick brown fox jumps over the lazy dog"
	path := writeTestFile(t, tempDir, "input.txt", content)

	algo, err := GetHashAlgorithm("sha256")
	if err != nil {
		t.Fatalf("Failed to get algorithm: %v", err)
	}

	got, err := HashFileHex(path, algo, DefaultHashBuffer)
	if err != nil {
		t.Fatalf("HashFileHex failed: %v", err)
	}

	sum := sha256.Sum256([]byte(content))
	expected := hex.EncodeToString(sum[:])
	if got != expected {
		t.Errorf("Expected digest %s, got %s", expected, got)
	}
}

func TestHashFileSHA1(t *testing.T) {
	tempDir := t.TempDir()
	content := "sha1 digest input"
	path := writeTestFile(t, tempDir, "input.txt", content)

	algo, err := GetHashAlgorithm("sha1")
	if err != nil {
		t.Fatalf("Failed to get algorithm: %v", err)
	}

	hashBytes, err := HashFile(path, algo, DefaultHashBuffer)
	if err != nil {
		t.Fatalf("HashFile failed: %v", err)
	}
	if len(hashBytes) != HashSizeSHA1 {
		t.Errorf("Expected %d digest bytes, got %d", HashSizeSHA1, len(hashBytes))
	}

	sum := sha1.Sum([]byte(content))
	if hex.EncodeToString(hashBytes) != hex.EncodeToString(sum[:]) {
		t.Error("SHA1 digest does not match reference implementation")
	}
}

func TestHashFileSmallBuffer(t *testing.T) {
	// A buffer far smaller than the content exercises the chunked read path;
	// the digest must be identical to a whole-file hash.
	tempDir := t.TempDir()
	content := "0123456789abcdefghijklmnopqrstuvwxyz0123456789"
	path := writeTestFile(t, tempDir, "input.txt", content)

	algo, err := GetHashAlgorithm("sha256")
	if err != nil {
		t.Fatalf("Failed to get algorithm: %v", err)
	}

	got, err := HashFileHex(path, algo, 4)
	if err != nil {
		t.Fatalf("HashFileHex with small buffer failed: %v", err)
	}

	sum := sha256.Sum256([]byte(content))
	if got != hex.EncodeToString(sum[:]) {
		t.Error("Chunked digest does not match whole-content digest")
	}
}

func TestHashFileEmpty(t *testing.T) {
	tempDir := t.TempDir()
	path := writeTestFile(t, tempDir, "empty.txt", "")

	algo, err := GetHashAlgorithm("sha256")
	if err != nil {
		t.Fatalf("Failed to get algorithm: %v", err)
	}

	got, err := HashFileHex(path, algo, DefaultHashBuffer)
	if err != nil {
		t.Fatalf("HashFileHex failed on empty file: %v", err)
	}

	sum := sha256.Sum256(nil)
	if got != hex.EncodeToString(sum[:]) {
		t.Error("Empty file digest does not match empty-input digest")
	}
}

func TestHashFileMissing(t *testing.T) {
	algo, err := GetHashAlgorithm("sha256")
	if err != nil {
		t.Fatalf("Failed to get algorithm: %v", err)
	}

	if _, err := HashFile("/nonexistent/path/file.txt", algo, DefaultHashBuffer); err == nil {
		t.Error("Expected error hashing a missing file")
	}
}

func TestHashFileInterruptible(t *testing.T) {
	tempDir := t.TempDir()
	path := writeTestFile(t, tempDir, "input.txt", "interruptible content")

	algo, err := GetHashAlgorithm("sha256")
	if err != nil {
		t.Fatalf("Failed to get algorithm: %v", err)
	}

	t.Run("CompletesWithoutShutdown", func(t *testing.T) {
		shutdownChan := make(chan struct{})
		hashBytes, err := HashFileInterruptible(path, algo, DefaultHashBuffer, shutdownChan)
		if err != nil {
			t.Fatalf("HashFileInterruptible failed: %v", err)
		}
		if len(hashBytes) != HashSizeSHA256 {
			t.Errorf("Expected %d digest bytes, got %d", HashSizeSHA256, len(hashBytes))
		}
	})

	t.Run("AbortsOnClosedChannel", func(t *testing.T) {
		shutdownChan := make(chan struct{})
		close(shutdownChan)
		if _, err := HashFileInterruptible(path, algo, DefaultHashBuffer, shutdownChan); err == nil {
			t.Error("Expected error when shutdown channel is already closed")
		}
	})

	t.Run("NilChannelNeverFires", func(t *testing.T) {
		if _, err := HashFileInterruptible(path, algo, DefaultHashBuffer, nil); err != nil {
			t.Fatalf("HashFileInterruptible with nil channel failed: %v", err)
		}
	})
}

func TestGetHashAlgorithmByType(t *testing.T) {
	testCases := []struct {
		typeID uint16
		name   string
		valid  bool
	}{
		{HashTypeSHA1, "sha1", true},
		{HashTypeSHA256, "sha256", true},
		{HashTypeSHA512, "sha512", true},
		{999, "", false},
	}

	for _, tc := range testCases {
		algo, err := GetHashAlgorithmByType(tc.typeID)
		if tc.valid {
			if err != nil {
				t.Errorf("GetHashAlgorithmByType(%d) should succeed but got error: %v", tc.typeID, err)
				continue
			}
			if algo.Name != tc.name {
				t.Errorf("GetHashAlgorithmByType(%d) name = %s, expected %s", tc.typeID, algo.Name, tc.name)
			}
		} else {
			if err == nil {
				t.Errorf("GetHashAlgorithmByType(%d) should fail but succeeded", tc.typeID)
			}
		}
	}
}

func TestHashTypeNames(t *testing.T) {
	if HashTypeName(HashTypeSHA256) != "sha256" {
		t.Errorf("Expected 'sha256', got '%s'", HashTypeName(HashTypeSHA256))
	}
	if HashTypeName(999) != "unknown" {
		t.Errorf("Expected 'unknown' for bad type, got '%s'", HashTypeName(999))
	}

	typeID, ok := HashTypeFromName("SHA512")
	if !ok || typeID != HashTypeSHA512 {
		t.Errorf("HashTypeFromName('SHA512') = (%d, %v), expected (%d, true)", typeID, ok, HashTypeSHA512)
	}
	if _, ok := HashTypeFromName("md5"); ok {
		t.Error("Expected HashTypeFromName('md5') to report false")
	}
}
