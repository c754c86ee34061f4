// Package navigate advances the reader to its next page by trying a fixed,
// ordered list of "next" controls.
package navigate

import (
	"context"
	"strings"
	"time"

	"github.com/brogergvhs/comicd/internal/browser"
	"github.com/brogergvhs/comicd/internal/ui"
)

// Outcome says why Next did or did not move.
type Outcome int

const (
	Moved Outcome = iota
	NotFound
	Disabled
	ClickFailed
)

func (o Outcome) String() string {
	switch o {
	case Moved:
		return "moved"
	case NotFound:
		return "not-found"
	case Disabled:
		return "disabled"
	case ClickFailed:
		return "click-failed"
	default:
		return "unknown"
	}
}

type Result struct {
	Outcome Outcome
	Via     browser.Query
	URL     string
	Title   string
}

func (r Result) Moved() bool { return r.Outcome == Moved }

// DefaultNext is the priority order of "next page" controls.
func DefaultNext() []browser.Query {
	return []browser.Query{
		browser.CSS("#btnNext"),
		browser.CSS("a[href*='next']"),
		browser.XPath("//a[contains(text(), 'Next')]"),
		browser.CSS(".next-button"),
		browser.CSS("#nextPage"),
	}
}

type Navigator struct {
	Session  browser.Session
	Controls []browser.Query
	Settle   time.Duration
	Log      *ui.Logger
}

func New(s browser.Session, settle time.Duration, log *ui.Logger) *Navigator {
	if log == nil {
		log = ui.NewLogger(false)
	}

	return &Navigator{
		Session:  s,
		Controls: DefaultNext(),
		Settle:   settle,
		Log:      log,
	}
}

// Next clicks the first available control and reports where the tab ended up.
// Lookup and click failures are folded into the outcome.
func (n *Navigator) Next(ctx context.Context) Result {
	el, q, ok := n.first(ctx, n.Controls)
	if !ok {
		return Result{Outcome: NotFound}
	}

	if Hidden(el) {
		n.Log.Debugf("next control %s is disabled\n", q)
		return Result{Outcome: Disabled, Via: q}
	}

	if err := n.Session.Click(ctx, el); err != nil {
		n.Log.Debugf("click %s: %v\n", q, err)
		return Result{Outcome: ClickFailed, Via: q}
	}

	_ = n.Session.Settle(ctx, n.Settle)

	res := Result{Outcome: Moved, Via: q}
	res.URL, _ = n.Session.Location(ctx)
	res.Title, _ = n.Session.Title(ctx)

	return res
}

func (n *Navigator) first(ctx context.Context, qs []browser.Query) (*browser.Element, browser.Query, bool) {
	for _, q := range qs {
		if ctx.Err() != nil {
			return nil, browser.Query{}, false
		}

		el, err := n.Session.Find(ctx, q)
		if err != nil {
			n.Log.Debugf("find %s: %v\n", q, err)
			continue
		}
		if el != nil {
			return el, q, true
		}
	}

	return nil, browser.Query{}, false
}

// Hidden reports whether the element's class or inline style mark it
// unusable.
func Hidden(el *browser.Element) bool {
	if el == nil {
		return true
	}

	if strings.Contains(strings.ToLower(el.Class), "disabled") {
		return true
	}

	style := strings.ToLower(strings.ReplaceAll(el.Style, " ", ""))
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}

// PrimeSteps switch the reader to one-page-at-a-time mode with the high
// quality server. Each step is optional.
func PrimeSteps() [][]browser.Query {
	return [][]browser.Query{
		{browser.XPath("//a[contains(text(), 'Server')]")},
		{browser.XPath("//a[contains(text(), 'High')]"), browser.XPath("//a[contains(text(), 'Quality')]")},
	}
}

// Prime runs each step's first matching control and returns how many were
// clicked.
func (n *Navigator) Prime(ctx context.Context, steps [][]browser.Query) int {
	clicked := 0

	for _, step := range steps {
		el, q, ok := n.first(ctx, step)
		if !ok || Hidden(el) {
			continue
		}

		if err := n.Session.Click(ctx, el); err != nil {
			n.Log.Debugf("prime %s: %v\n", q, err)
			continue
		}

		clicked++
		_ = n.Session.Settle(ctx, n.Settle)
	}

	return clicked
}
