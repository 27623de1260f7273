package fixer

import (
	"fmt"
	"regexp"
)

// Span is one brace-delimited scope in a block-aware config grammar,
// recorded as inclusive line indices of its opening and closing lines.
type Span struct {
	Type  string `json:"type"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// blockScanner detects the spans of the configured block types. Detection
// is single-line-driven: a line opens a block when it mentions the block
// keyword and an opening brace, and any line containing a closing brace
// closes the innermost open block. Directives or braces spanning multiple
// lines, and braces inside comments or strings, are not understood; this is
// a known limitation of the regex approach.
type blockScanner struct {
	types []string
	open  []*regexp.Regexp
}

func newBlockScanner(types []string) *blockScanner {
	s := &blockScanner{types: types}
	for _, t := range types {
		s.open = append(s.open, regexp.MustCompile(fmt.Sprintf(`\b%s\b.*\{`, regexp.QuoteMeta(t))))
	}
	return s
}

// Scan walks the lines with a stack and returns the spans in close order:
// the first span of a given type is the first one that closed, which keeps
// insertion targeting stable across Analyze and Apply.
func (s *blockScanner) Scan(lines []string) []Span {
	type openBlock struct {
		typ   string
		start int
	}

	var stack []openBlock
	var spans []Span

	for i, line := range lines {
		for j, re := range s.open {
			if re.MatchString(line) {
				stack = append(stack, openBlock{typ: s.types[j], start: i})
				break
			}
		}

		if containsClose(line) && len(stack) > 0 {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			spans = append(spans, Span{Type: top.typ, Start: top.start, End: i})
		}
	}
	return spans
}

func containsClose(line string) bool {
	for i := 0; i < len(line); i++ {
		if line[i] == '}' {
			return true
		}
	}
	return false
}

// firstSpan returns the first recorded span of the given block type.
func firstSpan(spans []Span, blockType string) (Span, bool) {
	for _, s := range spans {
		if s.Type == blockType {
			return s, true
		}
	}
	return Span{}, false
}

// shiftSpans adjusts every span for one line inserted directly after
// openLine, so later insertions keep targeting the right blocks.
func shiftSpans(spans []Span, openLine int) {
	for i := range spans {
		if spans[i].Start > openLine {
			spans[i].Start++
			spans[i].End++
		} else if spans[i].End > openLine {
			spans[i].End++
		}
	}
}
