// Package browsertest provides a scripted browser.Session for tests.
package browsertest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/brogergvhs/comicd/internal/browser"
	"github.com/brogergvhs/comicd/internal/locate"
)

var ErrNoPage = errors.New("browsertest: no page loaded")

// Page is one rendered state of the tab. Controls are keyed by Query.String().
// Clicking a control whose Handle is an int jumps to that page index;
// any other handle moves to the next page in the script.
type Page struct {
	URL      string
	Title    string
	HTML     string
	Images   []locate.Candidate
	Texts    map[string]string
	Controls map[string]browser.Element
}

type Fake struct {
	mu sync.Mutex

	Pages    []Page
	FindErr  map[string]error
	ClickErr error
	OpenErr  error

	cur     int
	Opened  []string
	Clicked []string
	Settled time.Duration
	Closed  bool
}

func New(pages ...Page) *Fake {
	return &Fake{Pages: pages, cur: -1}
}

func (f *Fake) page() (*Page, error) {
	if f.cur < 0 || f.cur >= len(f.Pages) {
		return nil, ErrNoPage
	}
	return &f.Pages[f.cur], nil
}

func (f *Fake) Current() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cur
}

func (f *Fake) Open(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Opened = append(f.Opened, url)
	if f.OpenErr != nil {
		return f.OpenErr
	}

	for i, p := range f.Pages {
		if p.URL == url {
			f.cur = i
			return nil
		}
	}

	base := stripFragment(url)
	for i, p := range f.Pages {
		if stripFragment(p.URL) == base {
			f.cur = i
			return nil
		}
	}

	f.cur = len(f.Pages)
	return nil
}

func (f *Fake) Images(ctx context.Context) ([]locate.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, err := f.page()
	if err != nil {
		return nil, err
	}
	return append([]locate.Candidate(nil), p.Images...), nil
}

func (f *Fake) Find(ctx context.Context, q browser.Query) (*browser.Element, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.FindErr[q.String()]; err != nil {
		return nil, err
	}

	p, err := f.page()
	if err != nil {
		return nil, nil
	}

	el, ok := p.Controls[q.String()]
	if !ok {
		return nil, nil
	}
	if el.Handle == nil {
		el.Handle = q.String()
	}
	return &el, nil
}

func (f *Fake) Click(ctx context.Context, el *browser.Element) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ClickErr != nil {
		return f.ClickErr
	}

	if s, ok := el.Handle.(string); ok {
		f.Clicked = append(f.Clicked, s)
	}

	if idx, ok := el.Handle.(int); ok {
		f.cur = idx
		return nil
	}

	f.cur++
	return nil
}

func (f *Fake) Location(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, err := f.page()
	if err != nil {
		return "", err
	}
	return p.URL, nil
}

func (f *Fake) Title(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, err := f.page()
	if err != nil {
		return "", err
	}
	return p.Title, nil
}

func (f *Fake) HTML(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, err := f.page()
	if err != nil {
		return "", err
	}
	return p.HTML, nil
}

func (f *Fake) Text(ctx context.Context, css string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, err := f.page()
	if err != nil {
		return "", err
	}
	return p.Texts[css], nil
}

func (f *Fake) Settle(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	f.Settled += d
	f.mu.Unlock()

	return ctx.Err()
}

func (f *Fake) Close() {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
}

func stripFragment(u string) string {
	if i := strings.Index(u, "#"); i >= 0 {
		return u[:i]
	}
	return u
}

var _ browser.Session = (*Fake)(nil)
