package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"sjsage522/reviewworker/internal/loader"

	"github.com/chromedp/chromedp"
)

// Selectors locate the review list pieces the loader needs
type Selectors struct {
	Item  string
	More  string
	Count string
}

// Tab is one browser tab showing a product page
type Tab struct {
	ctx       context.Context
	selectors Selectors
}

var _ loader.Document = (*Tab)(nil)

// Context returns the chromedp context of the tab
func (t *Tab) Context() context.Context {
	return t.ctx
}

// run executes actions in the tab under the caller's ctx. Cancelling ctx
// aborts the actions but leaves the tab open.
func (t *Tab) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %v", ctxErr, err)
		}
		return err
	}
	return nil
}

// Navigate opens url and waits for the document body
func (t *Tab) Navigate(ctx context.Context, url string) error {
	return t.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// Text returns the text content of the first element matching selector,
// or an empty string when nothing matches
func (t *Tab) Text(ctx context.Context, selector string) (string, error) {
	var text string
	js := fmt.Sprintf(`(document.querySelector(%s)?.textContent) || ''`, jsString(selector))
	if err := t.run(ctx, chromedp.Evaluate(js, &text)); err != nil {
		return "", err
	}
	return text, nil
}

// CountLabel returns the raw review counter text
func (t *Tab) CountLabel(ctx context.Context) (string, error) {
	return t.Text(ctx, t.selectors.Count)
}

// HTML returns a snapshot of the current document
func (t *Tab) HTML(ctx context.Context) (string, error) {
	var html string
	if err := t.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// CountItems counts loaded review items
func (t *Tab) CountItems(ctx context.Context) (int, error) {
	var n int
	js := fmt.Sprintf(`document.querySelectorAll(%s).length`, jsString(t.selectors.Item))
	if err := t.run(ctx, chromedp.Evaluate(js, &n)); err != nil {
		return 0, err
	}
	return n, nil
}

// LocateMore checks for the load-more control
func (t *Tab) LocateMore(ctx context.Context) (loader.Control, bool, error) {
	var present bool
	js := fmt.Sprintf(`document.querySelector(%s) !== null`, jsString(t.selectors.More))
	if err := t.run(ctx, chromedp.Evaluate(js, &present)); err != nil {
		return nil, false, err
	}
	if !present {
		return nil, false, nil
	}
	return &moreControl{tab: t, selector: t.selectors.More}, true, nil
}

// moreControl drives the load-more element through page scripts. A native
// click is used because chromedp.Click waits for visibility.
type moreControl struct {
	tab      *Tab
	selector string
}

func (c *moreControl) Visible(ctx context.Context) (bool, error) {
	var visible bool
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		return !!el && el.style.display !== 'none' && el.offsetParent !== null;
	})()`, jsString(c.selector))
	if err := c.tab.run(ctx, chromedp.Evaluate(js, &visible)); err != nil {
		return false, err
	}
	return visible, nil
}

func (c *moreControl) Activate(ctx context.Context) error {
	return c.eval(ctx, `el.click()`)
}

func (c *moreControl) ScrollIntoView(ctx context.Context) error {
	return c.eval(ctx, `el.scrollIntoView({behavior: 'smooth', block: 'center'})`)
}

// eval runs stmt with el bound to the control; a detached control is a no-op
func (c *moreControl) eval(ctx context.Context, stmt string) error {
	var ok bool
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		%s;
		return true;
	})()`, jsString(c.selector), stmt)
	return c.tab.run(ctx, chromedp.Evaluate(js, &ok))
}

// jsString quotes s as a JavaScript string literal
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
