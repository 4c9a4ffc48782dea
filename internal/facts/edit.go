package facts

import (
	"fmt"
	"os"
	"strings"

	"github.com/bubuos/provision/internal/system"
)

const defaultMode os.FileMode = 0644

// Editor performs the idempotent mutations. Every method re-checks the
// target before writing, so applying the same edit twice leaves the
// file byte-identical to applying it once.
type Editor struct {
	sys system.System
}

func NewEditor(sys system.System) *Editor {
	return &Editor{sys: sys}
}

// EnsureFragment appends fragment to file unless marker is already
// present anywhere in it. The fragment must embed the marker, otherwise
// a later run could not detect the prior application. Existing content
// is preserved byte-for-byte; a missing file is created.
func (e *Editor) EnsureFragment(file, marker, fragment string) (Result, error) {
	if !strings.Contains(fragment, marker) {
		return 0, fmt.Errorf("fragment for %s does not embed its marker %q", file, marker)
	}

	data, err := e.sys.ReadFile(file)
	if err != nil && !os.IsNotExist(err) {
		return 0, &UnwritableError{Path: file, Err: err}
	}
	content := string(data)
	if strings.Contains(content, marker) {
		return AlreadyPresent, nil
	}

	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += fragment
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}

	if err := e.sys.WriteFile(file, []byte(content), e.modeOf(file)); err != nil {
		return 0, &UnwritableError{Path: file, Err: err}
	}
	return Applied, nil
}

// EnsureLineOption adds option to the comma-separated list at
// whitespace field n of the first line matched by match. Only that one
// line is rewritten; all other bytes of the file are untouched, and the
// option is never duplicated.
func (e *Editor) EnsureLineOption(file string, match func(string) bool, field int, option string) (Result, error) {
	data, err := e.sys.ReadFile(file)
	if err != nil {
		return 0, &UnwritableError{Path: file, Err: err}
	}

	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		if !match(line) {
			continue
		}
		start, end, ok := fieldRange(line, field)
		if !ok {
			return 0, fmt.Errorf("matched line in %s has no field %d: %q", file, field, line)
		}
		list := line[start:end]
		if hasListOption(list, option) {
			return AlreadyPresent, nil
		}
		lines[i] = line[:start] + list + "," + option + line[end:]

		out := strings.Join(lines, "\n")
		if err := e.sys.WriteFile(file, []byte(out), e.modeOf(file)); err != nil {
			return 0, &UnwritableError{Path: file, Err: err}
		}
		return Applied, nil
	}
	return 0, fmt.Errorf("no line in %s matches", file)
}

// EnsureWord adds word to the space-separated token list on the first
// non-empty line of file. Used for single-line kernel command lines.
func (e *Editor) EnsureWord(file, word string) (Result, error) {
	data, err := e.sys.ReadFile(file)
	if err != nil {
		return 0, &UnwritableError{Path: file, Err: err}
	}

	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		for _, tok := range strings.Fields(line) {
			if tok == word {
				return AlreadyPresent, nil
			}
		}
		lines[i] = strings.TrimRight(line, " \t") + " " + word

		out := strings.Join(lines, "\n")
		if err := e.sys.WriteFile(file, []byte(out), e.modeOf(file)); err != nil {
			return 0, &UnwritableError{Path: file, Err: err}
		}
		return Applied, nil
	}
	return 0, fmt.Errorf("%s has no content line", file)
}

func (e *Editor) modeOf(file string) os.FileMode {
	if mode, err := e.sys.FileMode(file); err == nil {
		return mode
	}
	return defaultMode
}
