// Package browser drives a headless Chrome through chromedp and exposes the
// review page as a loader.Document.
package browser

import (
	"context"
	"fmt"

	"sjsage522/reviewworker/helpers"
	"sjsage522/reviewworker/logger"

	"github.com/chromedp/chromedp"
)

// Options configure the browser process
type Options struct {
	// RemoteURL connects to an already running Chrome (ws:// or http://)
	RemoteURL string
	Headless  bool
}

// Browser owns the chromedp allocator and the browser context
type Browser struct {
	opts         Options
	allocatorCtx context.Context
	browserCtx   context.Context
	cancelAlloc  context.CancelFunc
	cancelBrowse context.CancelFunc
	log          *logger.Logger
}

// NewBrowser starts (or attaches to) Chrome
func NewBrowser(ctx context.Context, opts Options) (*Browser, error) {
	b := &Browser{opts: opts, log: logger.ForBrowser()}

	if opts.RemoteURL != "" {
		b.allocatorCtx, b.cancelAlloc = chromedp.NewRemoteAllocator(ctx, opts.RemoteURL)
		b.log.Info().Str("remote_url", opts.RemoteURL).Msg("Using remote Chrome")
	} else {
		allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
			chromedp.UserAgent(helpers.RandomUserAgent()),
			chromedp.WindowSize(1280, 1024),
		)
		b.allocatorCtx, b.cancelAlloc = chromedp.NewExecAllocator(ctx, allocOpts...)
	}

	b.browserCtx, b.cancelBrowse = chromedp.NewContext(b.allocatorCtx,
		chromedp.WithLogf(func(format string, v ...interface{}) {
			b.log.Debug().Msgf(format, v...)
		}),
	)

	// Start the browser eagerly so launch failures surface here
	if err := chromedp.Run(b.browserCtx); err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return b, nil
}

// NewTab opens a new tab. The tab lives until the returned cancel is called;
// deadlines come from the ctx passed to each tab call.
func (b *Browser) NewTab(selectors Selectors) (*Tab, context.CancelFunc) {
	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	return &Tab{ctx: tabCtx, selectors: selectors}, cancel
}

// Close shuts the browser down
func (b *Browser) Close() {
	if b.cancelBrowse != nil {
		b.cancelBrowse()
	}
	if b.cancelAlloc != nil {
		b.cancelAlloc()
	}
}
