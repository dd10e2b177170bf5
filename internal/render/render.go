package render

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("anscrutins.render")

const (
	// HemicycleSelector is the element screenshotted off the hemicycle embed.
	HemicycleSelector = ".hemicycle-carte-svg"
	windowSize        = 800
	// the embed has a header that pushes the seating chart out of a 800px viewport
	scrollOffset = 335
)

// Disabled never renders anything, vote analyses are stored without a visualizer.
type Disabled struct{}

func (Disabled) Capture(ctx context.Context, url string) (string, error) {
	return "", nil
}

type ChromeOptions struct {
	// ExecPath overrides the browser executable, by default chromedp looks it up.
	ExecPath string
	// Timeout bounds a single capture, defaults to 30 seconds.
	Timeout time.Duration
}

// Chrome screenshots pages with a headless browser. One browser is started lazily and
// shared, every capture runs in its own tab.
type Chrome struct {
	opts ChromeOptions

	mutex         sync.Mutex
	browser       context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
}

func NewChrome(opts ChromeOptions) *Chrome {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Chrome{opts: opts}
}

func (c *Chrome) start() (context.Context, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.browser != nil {
		return c.browser, nil
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Headless,
		chromedp.NoSandbox,
		chromedp.WindowSize(windowSize, windowSize),
	)
	if c.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(c.opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browser, cancelBrowser := chromedp.NewContext(allocCtx)
	// running without actions starts the browser
	err := chromedp.Run(browser)
	if err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	c.browser = browser
	c.cancelAlloc = cancelAlloc
	c.cancelBrowser = cancelBrowser
	return browser, nil
}

// Capture opens `url`, scrolls the seating chart into view and returns a base64 encoded
// png of it.
func (c *Chrome) Capture(ctx context.Context, url string) (string, error) {
	ctx, span := tracer.Start(ctx, "Capture")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	browser, err := c.start()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to start browser")
		return "", err
	}

	tab, cancelTab := chromedp.NewContext(browser)
	defer cancelTab()
	tab, cancelTimeout := context.WithTimeout(tab, c.opts.Timeout)
	defer cancelTimeout()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var png []byte
	err = chromedp.Run(
		tab,
		chromedp.Navigate(url),
		chromedp.Evaluate(fmt.Sprintf("window.scrollTo(0, %d)", scrollOffset), nil),
		chromedp.Screenshot(HemicycleSelector, &png, chromedp.NodeVisible, chromedp.ByQuery),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to capture page")
		return "", fmt.Errorf("capture %s: %w", url, err)
	}
	span.SetAttributes(attribute.Int("png_size", len(png)))
	return base64.StdEncoding.EncodeToString(png), nil
}

// Close shuts the browser down, it is safe to call when nothing was captured.
func (c *Chrome) Close() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.browser == nil {
		return
	}
	c.cancelBrowser()
	c.cancelAlloc()
	c.browser = nil
}
