// Package store owns the on-disk layout of scraped issues:
//
//	<root>/<volume>/issues/<issue>/pages/page_001.jpg
//	<root>/<volume>/issues/<issue>/metadata.json
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/brogergvhs/comicd/internal/naming"
)

var rePage = regexp.MustCompile(`^page_(\d+)\.(jpg|jpeg|png|webp)$`)

type Layout struct {
	Root string
}

func (l Layout) VolumeDir(volume string) string {
	return filepath.Join(l.Root, naming.ForFilesystem(volume))
}

func (l Layout) IssueDir(volume, issue string) string {
	return filepath.Join(l.VolumeDir(volume), "issues", naming.ForFilesystem(issue))
}

func (l Layout) PagesDir(volume, issue string) string {
	return filepath.Join(l.IssueDir(volume, issue), "pages")
}

func (l Layout) MetadataPath(volume, issue string) string {
	return filepath.Join(l.IssueDir(volume, issue), "metadata.json")
}

func (l Layout) CoversDir(volume string) string {
	return filepath.Join(l.VolumeDir(volume), "covers")
}

// PageName is the file name for sequence seq.
func PageName(seq int, ext string) string {
	return fmt.Sprintf("page_%03d%s", seq, ext)
}

// ExtFromURL infers a file extension from an image URL.
func ExtFromURL(u string) string {
	low := strings.ToLower(u)
	switch {
	case strings.Contains(low, ".png"):
		return ".png"
	case strings.Contains(low, ".webp"):
		return ".webp"
	default:
		return ".jpg"
	}
}

// ExistingPage is a page file found on disk from an earlier run.
type ExistingPage struct {
	Seq  int
	Path string
}

// ScanPages lists page files in dir ordered by sequence number. A missing
// directory is not an error.
func ScanPages(dir string) ([]ExistingPage, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []ExistingPage
	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		m := rePage.FindStringSubmatch(strings.ToLower(e.Name()))
		if m == nil {
			continue
		}

		seq, err := strconv.Atoi(m[1])
		if err != nil || seq <= 0 {
			continue
		}

		out = append(out, ExistingPage{Seq: seq, Path: filepath.Join(dir, e.Name())})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

// FindPage returns the existing file for seq regardless of extension.
func FindPage(pages []ExistingPage, seq int) (ExistingPage, bool) {
	for _, p := range pages {
		if p.Seq == seq {
			return p, true
		}
	}
	return ExistingPage{}, false
}

// NextSeq is one past the highest existing sequence number.
func NextSeq(pages []ExistingPage) int {
	max := 0
	for _, p := range pages {
		if p.Seq > max {
			max = p.Seq
		}
	}
	return max + 1
}
