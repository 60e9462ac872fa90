package entities

import (
	"regexp"
	"strings"
)

//nolint:gochecknoglobals // compiled once
var urlPattern = regexp.MustCompile("https?://[^\\s\"'`<>()\\[\\]{}]+")

const (
	urlTrailingPunctuation = ".,;:!?"
	urlDelimiters          = "\"'`<>()[]{}"
)

// ModuleReference is an import URL parsed by a module registry.
type ModuleReference struct {
	URL     string
	Name    string
	Version string
}

// ExtractURLs returns every distinct http(s) URL of the input, in order of
// first appearance.
func ExtractURLs(input string) []string {
	seen := make(map[string]struct{})
	var urls []string
	for _, raw := range urlPattern.FindAllString(input, -1) {
		url := strings.TrimRight(raw, urlTrailingPunctuation)
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		urls = append(urls, url)
	}
	return urls
}

// ReplaceURL replaces every complete occurrence of from in input with to.
// An occurrence followed by further URL characters belongs to a longer URL
// and is left untouched.
func ReplaceURL(input, from, to string) string {
	if from == "" {
		return input
	}

	var b strings.Builder
	rest := input
	for {
		i := strings.Index(rest, from)
		if i < 0 {
			break
		}
		end := i + len(from)
		b.WriteString(rest[:i])
		if urlEndsAt(rest, end) {
			b.WriteString(to)
		} else {
			b.WriteString(from)
		}
		rest = rest[end:]
	}
	b.WriteString(rest)
	return b.String()
}

// urlEndsAt reports whether a URL matched up to end stops there, allowing
// for trailing sentence punctuation.
func urlEndsAt(input string, end int) bool {
	i := end
	for i < len(input) && strings.IndexByte(urlTrailingPunctuation, input[i]) >= 0 {
		i++
	}
	if i == len(input) {
		return true
	}
	c := input[i]
	return c <= ' ' || strings.IndexByte(urlDelimiters, c) >= 0
}
