package treeutils

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/sys/unix"
)

// ProgressMeter renders a single-line scan progress meter, throttled so fast
// scans do not flood the terminal. When the output is not a terminal the
// meter stays silent.
type ProgressMeter struct {
	out      *os.File
	width    int
	interval time.Duration
	last     time.Time
	enabled  bool
	active   bool
}

// NewProgressMeter creates a meter writing to out
func NewProgressMeter(out *os.File) *ProgressMeter {
	pm := &ProgressMeter{
		out:      out,
		interval: 100 * time.Millisecond,
	}
	if isatty.IsTerminal(out.Fd()) {
		pm.enabled = true
		pm.width = terminalWidth(out)
	}
	return pm
}

// Update redraws the meter if the throttle interval has elapsed. Safe to
// call from a single goroutine only.
func (pm *ProgressMeter) Update(files int64, bytes int64, path string) {
	if !pm.enabled {
		return
	}
	now := time.Now()
	if pm.active && now.Sub(pm.last) < pm.interval {
		return
	}
	pm.last = now
	pm.active = true

	prefix := fmt.Sprintf("%d files (%s) ", files, FormatSize(bytes))
	avail := pm.width - 1 - len(prefix)
	line := prefix + truncateMiddle(path, avail)
	fmt.Fprintf(pm.out, "\r%-*s", pm.width-1, line)
}

// Finish clears the meter so subsequent output starts on a clean line
func (pm *ProgressMeter) Finish() {
	if !pm.enabled || !pm.active {
		return
	}
	fmt.Fprintf(pm.out, "\r%*s\r", pm.width-1, "")
	pm.active = false
}

// terminalWidth reports the column count of the terminal behind f, falling
// back to 80 when the ioctl fails.
func terminalWidth(f *os.File) int {
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 {
		return 80
	}
	return int(ws.Col)
}

// truncateMiddle shortens s to at most max runes, replacing the middle with
// an ellipsis so both ends stay visible.
func truncateMiddle(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	keep := max - 1
	head := keep / 2
	tail := keep - head
	return string(runes[:head]) + "…" + string(runes[len(runes)-tail:])
}
