package ipo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"ipo-checker/config"
	"ipo-checker/utils"
)

// Session is the connection to the Chrome window the user works in. It
// either attaches to a running browser or launches a visible one.
type Session struct {
	cfg           *config.Config
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	launched      bool
}

func NewSession(cfg *config.Config) (*Session, error) {
	s := &Session{cfg: cfg}

	if cfg.Browser.RemoteURL != "" {
		utils.Info("Attaching to Chrome at %s...", cfg.Browser.RemoteURL)
		s.allocCtx, s.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.Browser.RemoteURL)
	} else {
		utils.Info("Launching Chrome browser...")
		s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(
			context.Background(),
			utils.BrowserOpts(cfg.Browser.Headless, cfg.Browser.UserDataDir, cfg.Browser.WindowWidth, cfg.Browser.WindowHeight)...,
		)
		s.launched = true
	}

	s.browserCtx, s.browserCancel = chromedp.NewContext(s.allocCtx)

	if s.launched {
		ctx, cancel := context.WithTimeout(s.browserCtx, 60*time.Second)
		defer cancel()
		if err := chromedp.Run(ctx, chromedp.Navigate(cfg.TargetURL)); err != nil {
			s.Close()
			return nil, fmt.Errorf("open %s: %w", cfg.TargetURL, err)
		}
	}

	utils.Success("Browser ready")
	return s, nil
}

// Launched reports whether this session started its own browser.
func (s *Session) Launched() bool {
	return s.launched
}

func (s *Session) Close() {
	utils.Info("Closing browser connection...")
	s.browserCancel()
	s.allocCancel()
}

// ActiveTab picks the tab to drive: the first page showing the status
// site, else the first attached page, else the first page of any kind.
func (s *Session) ActiveTab(ctx context.Context) (*target.Info, error) {
	targets, err := chromedp.Targets(s.browserCtx)
	if err != nil {
		return nil, fmt.Errorf("list tabs: %w", err)
	}
	if tab := pickTab(targets, s.cfg.TargetURL); tab != nil {
		return tab, nil
	}
	return nil, ErrNoActiveTab
}

func pickTab(targets []*target.Info, targetURL string) *target.Info {
	var attached, first *target.Info
	for _, t := range targets {
		if t == nil || t.Type != "page" {
			continue
		}
		if targetURL != "" && strings.HasPrefix(t.URL, targetURL) {
			return t
		}
		if attached == nil && t.Attached {
			attached = t
		}
		if first == nil {
			first = t
		}
	}
	if attached != nil {
		return attached
	}
	return first
}

// OpenPage binds a Page to the tab with the given id. The tab belongs to
// the user: releasing the page, or closing the session, leaves it open.
func (s *Session) OpenPage(ctx context.Context, id target.ID) (Page, context.CancelFunc, error) {
	if c := chromedp.FromContext(s.browserCtx); c != nil && c.Target != nil && c.Target.TargetID == id {
		return NewChromePage(s.browserCtx), func() {}, nil
	}

	// the first Run attaches, and the tab's event loop lives on the
	// context it is given, so it must be tabCtx itself
	tabCtx := attachTab(s.browserCtx, id)
	if err := chromedp.Run(tabCtx); err != nil {
		return nil, nil, fmt.Errorf("attach to tab %s: %w", id, err)
	}
	return NewChromePage(tabCtx), func() {}, nil
}

// attachTab returns a chromedp context on an existing tab. chromedp closes
// a tab when a context it did not start from is cancelled, so the tab
// context never sees the parent's cancellation; the connection ends with
// the session instead.
func attachTab(parent context.Context, id target.ID) context.Context {
	tabCtx, _ := chromedp.NewContext(context.WithoutCancel(parent), chromedp.WithTargetID(id))
	return tabCtx
}
