package entities

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultMarker is the annotation word recognized after "@".
const DefaultMarker = "pinbump"

func ignorePatterns(marker string) []*regexp.Regexp {
	m := regexp.QuoteMeta("@" + marker)
	return []*regexp.Regexp{
		regexp.MustCompile(`(?ms)^\s*(?://|#) ` + m + ` ignore-start.*?(?://|#) ` + m + ` ignore-end\s*$`),
		regexp.MustCompile(`(?ms)^\s*<!-- ` + m + ` ignore-start -->.*?<!-- ` + m + ` ignore-end -->\s*$`),
		regexp.MustCompile(`(?m)^.*` + m + ` ignore.*$`),
	}
}

// RemoveIgnore strips every region of the input excluded with ignore markers:
// paired "ignore-start"/"ignore-end" blocks in code comments and markdown,
// then every line carrying a single "@<marker> ignore" comment.
// Applying it twice yields the same result as applying it once.
func RemoveIgnore(input, marker string) string {
	output := input
	for _, pattern := range ignorePatterns(marker) {
		output = pattern.ReplaceAllString(output, "")
	}
	return output
}

// ignoredRanges returns the sorted, non-overlapping byte ranges of input
// excluded with ignore markers.
func ignoredRanges(input, marker string) [][2]int {
	var ranges [][2]int
	for _, pattern := range ignorePatterns(marker) {
		for _, loc := range pattern.FindAllStringIndex(input, -1) {
			ranges = append(ranges, [2]int{loc[0], loc[1]})
		}
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i][0] < ranges[j][0] })

	var merged [][2]int
	for _, r := range ranges {
		if n := len(merged); n > 0 && r[0] <= merged[n-1][1] {
			merged[n-1][1] = max(merged[n-1][1], r[1])
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// RewriteOutsideIgnored applies rewrite to every region of input not excluded
// with ignore markers. Ignored regions are copied verbatim.
func RewriteOutsideIgnored(input, marker string, rewrite func(string) string) string {
	var b strings.Builder
	last := 0
	for _, r := range ignoredRanges(input, marker) {
		b.WriteString(rewrite(input[last:r[0]]))
		b.WriteString(input[r[0]:r[1]])
		last = r[1]
	}
	b.WriteString(rewrite(input[last:]))
	return b.String()
}
