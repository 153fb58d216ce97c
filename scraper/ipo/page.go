package ipo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chromedp/chromedp"
)

// Selectors of the registrar's allotment status form.
const (
	SelApplication  = "#txtapplication"
	SelSubmit       = "#btn_Search"
	SelCaptcha      = "#captcha-input"
	SelCaptchaBox   = ".captcha_sec"
	SelResult       = "#dPrint"
	SelCaptchaError = "#lblcaptcha"
	SelCompany      = "#ddlCompany option:checked"
	SelNoRecord     = ".sweet-alert"
	SelFormBox      = ".container3"
)

// ErrElementGone is returned when an element disappeared between being
// found and being used.
var ErrElementGone = errors.New("element not found")

// Page is the part of the status page the processor drives. Every call
// queries the DOM afresh; no element handles are kept between calls.
type Page interface {
	// Visible reports whether sel exists and is not display:none.
	Visible(ctx context.Context, sel string) (bool, error)
	Exists(ctx context.Context, sel string) (bool, error)
	SetValue(ctx context.Context, sel, value string) error
	Click(ctx context.Context, sel string) error
	Highlight(ctx context.Context, sel string) error
	Hide(ctx context.Context, sel string) error
	InnerHTML(ctx context.Context, sel string) (string, error)
	Text(ctx context.Context, sel string) (string, error)
	ScrollIntoView(ctx context.Context, sel string) error
}

// ChromePage implements Page on a chromedp tab context.
type ChromePage struct {
	tab context.Context
}

func NewChromePage(tab context.Context) *ChromePage {
	return &ChromePage{tab: tab}
}

func (p *ChromePage) Visible(ctx context.Context, sel string) (bool, error) {
	var visible bool
	err := p.eval(ctx, fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		return !!el && window.getComputedStyle(el).display !== 'none';
	})()`, jsString(sel)), &visible)
	return visible, err
}

func (p *ChromePage) Exists(ctx context.Context, sel string) (bool, error) {
	var found bool
	err := p.eval(ctx, fmt.Sprintf(`document.querySelector(%s) !== null`, jsString(sel)), &found)
	return found, err
}

func (p *ChromePage) SetValue(ctx context.Context, sel, value string) error {
	return p.onElement(ctx, sel, fmt.Sprintf(`el.value = %s;`, jsString(value)))
}

func (p *ChromePage) Click(ctx context.Context, sel string) error {
	return p.onElement(ctx, sel, `el.click();`)
}

func (p *ChromePage) Highlight(ctx context.Context, sel string) error {
	return p.onElement(ctx, sel, `el.style.backgroundColor = 'white';`)
}

func (p *ChromePage) Hide(ctx context.Context, sel string) error {
	return p.onElement(ctx, sel, `el.style.display = 'none';`)
}

func (p *ChromePage) ScrollIntoView(ctx context.Context, sel string) error {
	return p.onElement(ctx, sel, `el.scrollIntoView({ block: 'center', inline: 'center' });`)
}

func (p *ChromePage) InnerHTML(ctx context.Context, sel string) (string, error) {
	return p.read(ctx, sel, `el.innerHTML`)
}

func (p *ChromePage) Text(ctx context.Context, sel string) (string, error) {
	return p.read(ctx, sel, `(el.textContent || '').trim()`)
}

func (p *ChromePage) read(ctx context.Context, sel, expr string) (string, error) {
	var out struct {
		Found bool   `json:"found"`
		Value string `json:"value"`
	}
	err := p.eval(ctx, fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return { found: false, value: '' };
		return { found: true, value: %s };
	})()`, jsString(sel), expr), &out)
	if err != nil {
		return "", err
	}
	if !out.Found {
		return "", fmt.Errorf("%w: %s", ErrElementGone, sel)
	}
	return out.Value, nil
}

func (p *ChromePage) onElement(ctx context.Context, sel, body string) error {
	var found bool
	err := p.eval(ctx, fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		%s
		return true;
	})()`, jsString(sel), body), &found)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrElementGone, sel)
	}
	return nil
}

// eval runs expr in the tab, aborting early if ctx is cancelled.
func (p *ChromePage) eval(ctx context.Context, expr string, res any) error {
	runCtx, cancel := context.WithCancel(p.tab)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, chromedp.Evaluate(expr, res)); err != nil {
		return fmt.Errorf("chromedp failed: %w", err)
	}
	return nil
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
