// Package boundary reads issue identifiers and page counters out of reader
// URLs and page text, so the scraper can tell when navigation left the issue.
//
// Detection trusts the URL. If the host stops putting /Issue-<n> in the
// address after client-side navigation, Crossed silently reports false.
package boundary

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	reIssue    = regexp.MustCompile(`/Issue-([^/?#]+)`)
	reFragment = regexp.MustCompile(`^(\d+)$`)
	reCounter  = regexp.MustCompile(`(\d+)\s*/\s*(\d+)`)
)

// ExtractIssue returns the token following /Issue- in rawURL.
func ExtractIssue(rawURL string) (string, bool) {
	m := reIssue.FindStringSubmatch(rawURL)
	if m == nil || m[1] == "" {
		return "", false
	}

	token := m[1]
	if un, err := url.PathUnescape(token); err == nil {
		token = un
	}

	return token, true
}

// Crossed reports whether currentURL names an issue different from expected.
// A URL without an issue token never counts as crossing.
func Crossed(expected, currentURL string) (string, bool) {
	got, ok := ExtractIssue(currentURL)
	if !ok {
		return "", false
	}

	return got, !sameIssue(expected, got)
}

func sameIssue(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if strings.EqualFold(a, b) {
		return true
	}

	// "Annual 1" and "Annual-1" name the same issue.
	norm := func(s string) string {
		return strings.ToLower(strings.NewReplacer(" ", "-", "_", "-").Replace(s))
	}
	return norm(a) == norm(b)
}

// PageFromFragment parses the reader's "#<page>" fragment.
func PageFromFragment(rawURL string) (int, bool) {
	i := strings.LastIndex(rawURL, "#")
	if i < 0 {
		return 0, false
	}

	m := reFragment.FindStringSubmatch(rawURL[i+1:])
	if m == nil {
		return 0, false
	}

	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}

	return n, true
}

// ParseCounter reads a "current / total" indicator such as "3 / 24".
func ParseCounter(text string) (current, total int, ok bool) {
	m := reCounter.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}

	current, err1 := strconv.Atoi(m[1])
	total, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil || total <= 0 {
		return 0, 0, false
	}

	return current, total, true
}

// WithPage returns rawURL with its fragment replaced by the page number.
func WithPage(rawURL string, page int) string {
	if i := strings.Index(rawURL, "#"); i >= 0 {
		rawURL = rawURL[:i]
	}

	return rawURL + "#" + strconv.Itoa(page)
}
