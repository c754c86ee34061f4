// Package locate picks the one image on a rendered reader page that is the
// comic page itself.
package locate

import (
	"net/url"
	"strings"
)

// Candidate is an <img> as rendered by the browser. Height is zero when the
// browser did not report one.
type Candidate struct {
	Src    string  `json:"src"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (c Candidate) Area() float64 {
	return c.Width * c.Height
}

type Policy struct {
	Hosts     []string
	Exclude   []string
	MinWidth  float64
	MinHeight float64
}

func DefaultPolicy() Policy {
	return Policy{
		Hosts:     []string{"blogspot.com"},
		Exclude:   []string{"avatar", "icon", "logo", "banner", "button"},
		MinWidth:  300,
		MinHeight: 300,
	}
}

// Select returns the qualifying candidate with the largest rendered area.
// Ties keep the earliest candidate.
func (p Policy) Select(cands []Candidate) (Candidate, bool) {
	var (
		best  Candidate
		found bool
	)

	for _, c := range cands {
		if !p.Qualifies(c) {
			continue
		}
		if !found || c.Area() > best.Area() {
			best = c
			found = true
		}
	}

	return best, found
}

func (p Policy) Qualifies(c Candidate) bool {
	if c.Src == "" || !p.trustedHost(c.Src) {
		return false
	}

	low := strings.ToLower(c.Src)
	for _, bad := range p.Exclude {
		if bad != "" && strings.Contains(low, strings.ToLower(bad)) {
			return false
		}
	}

	if c.Width < p.MinWidth {
		return false
	}
	if c.Height > 0 && c.Height < p.MinHeight {
		return false
	}

	return true
}

func (p Policy) trustedHost(src string) bool {
	u, err := url.Parse(src)
	if err != nil || u.Host == "" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	for _, h := range p.Hosts {
		h = strings.ToLower(strings.TrimPrefix(h, "."))
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}

	return false
}
