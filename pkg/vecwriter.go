package treeutils

import (
	"fmt"
	"os"
	"syscall"

	"github.com/google/vectorio"
	"golang.org/x/sys/unix"
)

// VectoredWriter batches byte slices and flushes them to an open file with a
// single writev per IOV_MAX-sized chunk. Listing formats that emit thousands
// of small lines gather once instead of issuing one write syscall per line.
type VectoredWriter struct {
	file    *os.File
	pending [][]byte
	total   int
}

// NewVectoredWriter wraps an open file for gathered writes
func NewVectoredWriter(file *os.File) *VectoredWriter {
	return &VectoredWriter{file: file}
}

// Append queues buf for the next flush. The caller must not modify buf until
// Flush returns.
func (vw *VectoredWriter) Append(buf []byte) {
	if len(buf) == 0 {
		return
	}
	vw.pending = append(vw.pending, buf)
	vw.total += len(buf)
}

// AppendString queues its own copy of s for the next flush
func (vw *VectoredWriter) AppendString(s string) {
	vw.Append([]byte(s))
}

// Pending returns the number of bytes queued but not yet flushed
func (vw *VectoredWriter) Pending() int {
	return vw.total
}

// Flush writes all queued buffers with vectorio, chunked to respect the
// system IOV_MAX limit, and resets the queue.
func (vw *VectoredWriter) Flush() error {
	if len(vw.pending) == 0 {
		return nil
	}

	iovecs := make([]syscall.Iovec, 0, len(vw.pending))
	for _, buf := range vw.pending {
		iovecs = append(iovecs, syscall.Iovec{
			Base: &buf[0],
			Len:  uint64(len(buf)),
		})
	}

	maxIovecs, err := getSystemIOVMax()
	if err != nil {
		return fmt.Errorf("failed to get system IOV_MAX: %w", err)
	}

	totalWritten := 0
	for offset := 0; offset < len(iovecs); offset += maxIovecs {
		end := offset + maxIovecs
		if end > len(iovecs) {
			end = len(iovecs)
		}

		// Use slice without copying to avoid allocation
		chunk := iovecs[offset:end]

		if nw, err := vectorio.WritevRaw(uintptr(vw.file.Fd()), chunk); err != nil {
			return fmt.Errorf("failed to write chunk with vectorio: %w", err)
		} else {
			totalWritten += nw
		}
	}

	if totalWritten != vw.total {
		return fmt.Errorf("vectored write incomplete: wrote %d bytes, expected %d", totalWritten, vw.total)
	}

	vw.pending = vw.pending[:0]
	vw.total = 0

	return nil
}

// getSystemIOVMax returns the system's IOV_MAX limit using sysconf(_SC_IOV_MAX)
// Falls back to conservative default if sysconf fails
func getSystemIOVMax() (int, error) {
	// _SC_IOV_MAX constant for sysconf() - platform specific
	const SC_IOV_MAX = 60 // Linux value, may vary on other platforms
	const fallbackIOVMax = 1024 // Conservative default per golang/go#58623

	// Call sysconf directly using unix.Syscall (syscall 99 on Linux)
	r1, _, errno := unix.Syscall(99, uintptr(SC_IOV_MAX), 0, 0)
	if errno != 0 {
		// Fall back to conservative default if sysconf fails
		return fallbackIOVMax, nil
	}

	iovMax := int(r1)

	// Validate the result is reasonable, fall back if not
	if iovMax <= 0 || iovMax > 1<<20 { // Sanity check: between 1 and 1M
		return fallbackIOVMax, nil
	}

	return iovMax, nil
}
