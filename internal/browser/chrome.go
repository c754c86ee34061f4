package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/brogergvhs/comicd/internal/locate"
	"github.com/brogergvhs/comicd/internal/ui"
	"github.com/brogergvhs/comicd/internal/util"
)

const defaultOpTimeout = 30 * time.Second

const imagesJS = `Array.from(document.images).map(function (img) {
	var r = img.getBoundingClientRect();
	return {src: img.currentSrc || img.src || "", width: r.width, height: r.height};
})`

type ChromeOptions struct {
	Headless  bool
	UserAgent string
	Cookie    string
	Timeout   time.Duration
	Log       *ui.Logger
}

// Chrome is a Session backed by a chromedp-controlled browser.
type Chrome struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	log     *ui.Logger
	cookie  string
	primed  bool
}

func NewChrome(parent context.Context, opts ChromeOptions) (*Chrome, error) {
	ua := util.PickUserAgent(opts.UserAgent)

	alloc := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(ua),
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.NoSandbox,
		chromedp.WindowSize(1920, 1080),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, alloc...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	c := &Chrome{
		ctx:     browserCtx,
		cancel:  func() { cancelBrowser(); cancelAlloc() },
		timeout: opts.Timeout,
		log:     opts.Log,
		cookie:  opts.Cookie,
	}
	if c.timeout <= 0 {
		c.timeout = defaultOpTimeout
	}
	if c.log == nil {
		c.log = ui.NewLogger(false)
	}

	// Starts the browser process.
	if err := chromedp.Run(browserCtx); err != nil {
		c.cancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return c, nil
}

// run executes actions against the tab, bounded by the op timeout and by ctx.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (c *Chrome) Open(ctx context.Context, url string) error {
	var tasks []chromedp.Action

	if c.cookie != "" && !c.primed {
		tasks = append(tasks, network.Enable(),
			network.SetExtraHTTPHeaders(network.Headers{"Cookie": c.cookie}))
	}

	tasks = append(tasks,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)

	c.log.Debugf("Opening %s\n", url)
	if err := c.run(ctx, tasks...); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}

	c.primed = true
	return nil
}

func (c *Chrome) Images(ctx context.Context) ([]locate.Candidate, error) {
	var out []locate.Candidate
	if err := c.run(ctx, chromedp.Evaluate(imagesJS, &out)); err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	return out, nil
}

func (c *Chrome) Find(ctx context.Context, q Query) (*Element, error) {
	opt := chromedp.ByQuery
	if q.By == ByXPath {
		opt = chromedp.BySearch
	}

	var nodes []*cdp.Node
	if err := c.run(ctx, chromedp.Nodes(q.Expr, &nodes, opt, chromedp.AtLeast(0))); err != nil {
		return nil, fmt.Errorf("find %s: %w", q, err)
	}
	if len(nodes) == 0 {
		return nil, nil
	}

	n := nodes[0]
	return &Element{
		Class:  n.AttributeValue("class"),
		Style:  n.AttributeValue("style"),
		Text:   n.NodeValue,
		Handle: n,
	}, nil
}

func (c *Chrome) Click(ctx context.Context, el *Element) error {
	if el == nil {
		return errors.New("click: nil element")
	}

	n, ok := el.Handle.(*cdp.Node)
	if !ok || n == nil {
		return errors.New("click: element not owned by this session")
	}

	return c.run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			return dom.ScrollIntoViewIfNeeded().WithNodeID(n.NodeID).Do(ctx)
		}),
		chromedp.MouseClickNode(n),
	)
}

func (c *Chrome) Location(ctx context.Context) (string, error) {
	var loc string
	err := c.run(ctx, chromedp.Location(&loc))
	return loc, err
}

func (c *Chrome) Title(ctx context.Context) (string, error) {
	var title string
	err := c.run(ctx, chromedp.Title(&title))
	return title, err
}

func (c *Chrome) HTML(ctx context.Context) (string, error) {
	var html string
	err := c.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (c *Chrome) Text(ctx context.Context, css string) (string, error) {
	sel, err := json.Marshal(css)
	if err != nil {
		return "", err
	}

	js := fmt.Sprintf(`(function () { var e = document.querySelector(%s); return e ? e.textContent : ""; })()`, sel)

	var text string
	if err := c.run(ctx, chromedp.Evaluate(js, &text)); err != nil {
		return "", err
	}
	return text, nil
}

func (c *Chrome) Settle(ctx context.Context, d time.Duration) error {
	return Sleep(ctx, d)
}

func (c *Chrome) Close() {
	if c.cancel != nil {
		c.cancel()
	}
}
