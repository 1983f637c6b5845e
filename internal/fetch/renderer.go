package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Renderer produces the HTML of a page.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// HTTPRenderer fetches the page with a single GET.
type HTTPRenderer struct {
	Options *Options
}

// Render implements Renderer.
func (r HTTPRenderer) Render(ctx context.Context, url string) (string, error) {
	result, err := URL(ctx, url, r.Options)
	if err != nil {
		return "", err
	}
	return result.HTML, nil
}

// BrowserRenderer loads the page in headless Chrome so client-side scripts
// run before the HTML is captured. Requires Chrome/Chromium on the host.
type BrowserRenderer struct {
	Timeout time.Duration
	// Settle is how long to wait after the body is ready.
	Settle    time.Duration
	UserAgent string
}

// NewBrowserRenderer returns a renderer with the given overall timeout.
func NewBrowserRenderer(timeout time.Duration, userAgent string) *BrowserRenderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BrowserRenderer{Timeout: timeout, Settle: 2 * time.Second, UserAgent: userAgent}
}

// Render implements Renderer.
func (r *BrowserRenderer) Render(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(r.UserAgent))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, r.Timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(r.Settle),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", &Error{URL: url, Message: "browser rendering failed", Timeout: isTimeout(err), Cause: err}
	}
	return html, nil
}

// Verify interface compliance
var (
	_ Renderer = HTTPRenderer{}
	_ Renderer = (*BrowserRenderer)(nil)
)

// String describes the renderer for logs.
func (r *BrowserRenderer) String() string {
	return fmt.Sprintf("browser(timeout=%s)", r.Timeout)
}
