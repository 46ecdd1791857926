// Package collapse folds raw profiler output into the collapsed stack-count
// map consumed by flamechart.Build: one entry per distinct root-to-leaf
// path, names joined with semicolons.
package collapse

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/flamel/flamel/internal/flamechart"
)

// Perf folds `perf script` output. Every event header starts a sample, the
// indented lines below it list frames leaf-first, and a blank line ends the
// stack. Lines that don't parse are skipped; perf output routinely carries
// truncated or symbol-less records and a profile should survive them.
func Perf(r io.Reader) (map[string]uint64, error) {
	stacks := make(map[string]uint64)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var frames []string // leaf first
	flush := func() {
		if len(frames) == 0 {
			return
		}
		for i, j := 0, len(frames)-1; i < j; i, j = i+1, j-1 {
			frames[i], frames[j] = frames[j], frames[i]
		}
		stacks[strings.Join(frames, flamechart.Delimiter)]++
		frames = frames[:0]
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			flush()
		case strings.HasPrefix(trimmed, "#"):
			// comment
		case !strings.HasPrefix(line, "\t") && !strings.HasPrefix(line, " "):
			// event header; any stack still open belongs to the previous
			// sample
			flush()
		default:
			if name, ok := parseFrame(trimmed); ok {
				frames = append(frames, name)
			}
		}
	}
	flush()
	return stacks, scanner.Err()
}

// parseFrame extracts the symbol from a stack line of the form
// "ffffffff8104f45a native_write_msr+0xa ([kernel.kallsyms])".
func parseFrame(line string) (string, bool) {
	sep := strings.IndexByte(line, ' ')
	if sep < 0 {
		return "", false
	}
	sym := line[sep+1:]
	if i := strings.LastIndex(sym, " ("); i >= 0 {
		sym = sym[:i]
	}
	if i := strings.LastIndex(sym, "+0x"); i >= 0 {
		sym = sym[:i]
	}
	sym = strings.TrimSpace(sym)
	if sym == "" {
		sym = "[unknown]"
	}
	return sym, true
}

// Collapsed reads already-collapsed input, one "path count" pair per line
// with the count after the last space. Counts for duplicate paths are
// summed. Unparsable lines are skipped.
func Collapsed(r io.Reader) (map[string]uint64, error) {
	stacks := make(map[string]uint64)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sep := strings.LastIndexByte(line, ' ')
		if sep < 0 {
			continue
		}
		count, err := strconv.ParseUint(strings.TrimSpace(line[sep+1:]), 10, 64)
		if err != nil {
			continue
		}
		path := strings.TrimSpace(line[:sep])
		if path == "" {
			continue
		}
		stacks[path] += count
	}
	return stacks, scanner.Err()
}
