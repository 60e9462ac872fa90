package entities

import (
	"regexp"
	"sort"
	"strings"
)

//nolint:gochecknoglobals // compiled once
var semverPattern = regexp.MustCompile(`v?(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)`)

// AnnotatedReference is a version bound to an "@<marker> owner/name" comment.
// Start and End are byte offsets of Version within the scanned text.
type AnnotatedReference struct {
	Name    string
	Version string
	Start   int
	End     int
}

func annotationPattern(marker string) *regexp.Regexp {
	return regexp.MustCompile(`@` + regexp.QuoteMeta(marker) + `\s+([^\s/]+/[^\s/]+)(?:\s|$)`)
}

// FindAnnotatedReferences scans the input line by line. Every annotation binds
// the last version found between the previous annotation on the same line
// (or the line start) and itself. Annotations without a version are ignored.
func FindAnnotatedReferences(input, marker string) []AnnotatedReference {
	pattern := annotationPattern(marker)

	var refs []AnnotatedReference
	offset := 0
	for _, line := range strings.SplitAfter(input, "\n") {
		content := strings.TrimRight(line, "\r\n")
		segmentStart := 0
		for _, match := range pattern.FindAllStringSubmatchIndex(content, -1) {
			start, end, ok := lastVersionSpan(content, segmentStart, match[0])
			if ok {
				refs = append(refs, AnnotatedReference{
					Name:    content[match[2]:match[3]],
					Version: content[start:end],
					Start:   offset + start,
					End:     offset + end,
				})
			}
			segmentStart = match[3]
		}
		offset += len(line)
	}
	return refs
}

// RewriteAnnotated replaces every version bound to the given owner/name with
// target. When initial is not empty only occurrences of that version change,
// so other dependencies sharing a line stay untouched.
func RewriteAnnotated(input, marker, name, initial, target string) string {
	var spans []AnnotatedReference
	for _, ref := range FindAnnotatedReferences(input, marker) {
		if ref.Name != name {
			continue
		}
		if initial != "" && ref.Version != initial {
			continue
		}
		spans = append(spans, ref)
	}
	if len(spans) == 0 {
		return input
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].Start > spans[j].Start })
	output := input
	for _, span := range spans {
		output = output[:span.Start] + target + output[span.End:]
	}
	return output
}

// lastVersionSpan returns the last well-delimited version inside line[from:to].
func lastVersionSpan(line string, from, to int) (int, int, bool) {
	segment := line[from:to]
	found := false
	var start, end int
	for _, loc := range semverPattern.FindAllStringIndex(segment, -1) {
		s, e := from+loc[0], from+loc[1]
		if !isVersionBoundary(line, s, e) {
			continue
		}
		// the annotation must follow the version with at least one separator
		if e >= to {
			continue
		}
		start, end, found = s, e, true
	}
	return start, end, found
}

func isVersionBoundary(line string, start, end int) bool {
	if start > 0 {
		prev := line[start-1]
		if isDigit(prev) || prev == '.' {
			return false
		}
	}
	if end < len(line) {
		next := line[end]
		if isDigit(next) {
			return false
		}
		if next == '.' && end+1 < len(line) && isDigit(line[end+1]) {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
