package facts

import (
	"strings"

	"github.com/bubuos/provision/internal/system"
)

// Checker answers whether a desired fact already holds. All methods are
// read-only and never fail: an unreadable or missing target means the
// fact does not hold.
type Checker struct {
	sys system.System
}

func NewChecker(sys system.System) *Checker {
	return &Checker{sys: sys}
}

// HasMarker reports whether marker occurs anywhere in file.
func (c *Checker) HasMarker(file, marker string) bool {
	data, err := c.sys.ReadFile(file)
	if err != nil {
		return false
	}
	return strings.Contains(string(data), marker)
}

// PathExists reports whether path exists.
func (c *Checker) PathExists(path string) bool {
	return c.sys.Exists(path)
}

// LineHasOption reports whether the first line of file matched by match
// carries option in the comma-separated list at whitespace field n.
func (c *Checker) LineHasOption(file string, match func(string) bool, field int, option string) bool {
	data, err := c.sys.ReadFile(file)
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !match(line) {
			continue
		}
		start, end, ok := fieldRange(line, field)
		if !ok {
			return false
		}
		return hasListOption(line[start:end], option)
	}
	return false
}

// HasLine reports whether any line of file is matched by match.
func (c *Checker) HasLine(file string, match func(string) bool) bool {
	data, err := c.sys.ReadFile(file)
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(data), "\n") {
		if match(line) {
			return true
		}
	}
	return false
}

// TmpfsLive reports whether path is currently tmpfs-backed.
func (c *Checker) TmpfsLive(path string) bool {
	return c.sys.TmpfsMounted(path)
}

func hasListOption(list, option string) bool {
	for _, opt := range strings.Split(list, ",") {
		if opt == option {
			return true
		}
	}
	return false
}

// fieldRange locates the byte range of the n-th (zero-based)
// whitespace-separated field of line, so the field can be replaced
// without disturbing the line's original spacing.
func fieldRange(line string, n int) (int, int, bool) {
	inField := false
	field := -1
	start := 0
	for i, r := range line {
		space := r == ' ' || r == '\t'
		switch {
		case !inField && !space:
			inField = true
			field++
			start = i
		case inField && space:
			if field == n {
				return start, i, true
			}
			inField = false
		}
	}
	if inField && field == n {
		return start, len(line), true
	}
	return 0, 0, false
}
