// Package naming turns free-text volume and issue names into tokens that are
// safe inside filesystem paths and comic host URLs.
package naming

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	Placeholder = "Unnamed"
	MaxLength   = 255
)

var (
	reserved = []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}

	reFSRun  = regexp.MustCompile(`[ _]+`)
	reURLRun = regexp.MustCompile(`[ \-]+`)
)

// ForFilesystem maps name to a single path segment using underscores.
func ForFilesystem(name string) string {
	return sanitize(name, "_", reFSRun, nil)
}

// ForURL maps name to a URL path segment using hyphens. Underscores are
// treated as separators too.
func ForURL(name string) string {
	return sanitize(name, "-", reURLRun, []string{"_"})
}

func sanitize(name, sep string, runs *regexp.Regexp, extra []string) string {
	if name == "" {
		return Placeholder
	}

	repl := make([]string, 0, 2*(len(reserved)+len(extra)))
	for _, r := range reserved {
		repl = append(repl, r, sep)
	}
	for _, r := range extra {
		repl = append(repl, r, sep)
	}
	s := strings.NewReplacer(repl...).Replace(name)

	s = runs.ReplaceAllString(s, sep)
	s = strings.Trim(s, sep+" ")
	s = truncate(s, MaxLength)

	if s == "" {
		return Placeholder
	}

	return s
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut]
}

// IssueURL builds the reader URL for one issue of a volume on host.
//
//	IssueURL("readcomiconline.li", "Absolute Batman", "1")
//	  -> https://readcomiconline.li/Comic/Absolute-Batman/Issue-1
func IssueURL(host, volume, issue string) string {
	return fmt.Sprintf("https://%s/Comic/%s/Issue-%s", host, ForURL(volume), ForURL(issue))
}
