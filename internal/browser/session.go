// Package browser drives the reader pages through a real browser. The scrape
// loop only sees the Session interface so tests can replay page sequences.
package browser

import (
	"context"
	"time"

	"github.com/brogergvhs/comicd/internal/locate"
)

type By int

const (
	ByCSS By = iota
	ByXPath
)

func (b By) String() string {
	if b == ByXPath {
		return "xpath"
	}
	return "css"
}

// Query is one way of finding an element on the page.
type Query struct {
	By   By
	Expr string
}

func CSS(expr string) Query   { return Query{By: ByCSS, Expr: expr} }
func XPath(expr string) Query { return Query{By: ByXPath, Expr: expr} }

func (q Query) String() string {
	return q.By.String() + ":" + q.Expr
}

// Element is a located node with the attributes the navigator cares about.
// Handle is owned by the Session that produced it.
type Element struct {
	Class  string
	Style  string
	Text   string
	Handle any
}

// Session is a single browser tab. Find returns (nil, nil) when nothing
// matches.
type Session interface {
	Open(ctx context.Context, url string) error
	Images(ctx context.Context) ([]locate.Candidate, error)
	Find(ctx context.Context, q Query) (*Element, error)
	Click(ctx context.Context, el *Element) error
	Location(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	Text(ctx context.Context, css string) (string, error)
	Settle(ctx context.Context, d time.Duration) error
	Close()
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
