package ipo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"ipo-checker/models"
	"ipo-checker/services"
	"ipo-checker/utils"
)

var (
	ErrNoActiveTab         = errors.New("no active tab found")
	ErrFormElementsMissing = errors.New("required page elements not found")
	ErrCaptchaCancelled    = errors.New("process cancelled by user")
	ErrUndetermined        = errors.New("could not determine result")
)

const unknownCompany = "Unknown IPO"

var captchaPattern = regexp.MustCompile(`^[0-9]{6}$`)

// ResultStore is the slice of storage the processor needs.
type ResultStore interface {
	Results(ctx context.Context) (models.ResultSet, error)
	PutResults(ctx context.Context, set models.ResultSet) error
}

type timings struct {
	poll        time.Duration // bound on every element wait
	interval    time.Duration // poll period
	highlight   time.Duration // pause after highlighting the CAPTCHA
	settle      time.Duration // pause before reading the result
	scrollEvery time.Duration
	scrollFor   time.Duration
}

var defaultTimings = timings{
	poll:        5 * time.Second,
	interval:    100 * time.Millisecond,
	highlight:   200 * time.Millisecond,
	settle:      250 * time.Millisecond,
	scrollEvery: 50 * time.Millisecond,
	scrollFor:   500 * time.Millisecond,
}

// Processor checks a batch of application IDs on one status page, asking a
// human for each CAPTCHA. It stops at the first fatal condition; IDs after
// that point are never attempted.
type Processor struct {
	page     Page
	captcha  CaptchaSource
	notifier Notifier
	store    ResultStore
	timings  timings
}

func NewProcessor(page Page, captcha CaptchaSource, notifier Notifier, store ResultStore) *Processor {
	return &Processor{
		page:     page,
		captcha:  captcha,
		notifier: notifier,
		store:    store,
		timings:  defaultTimings,
	}
}

type outcome int

const (
	outcomeUndetermined outcome = iota
	outcomeWrongCaptcha
	outcomeResult
)

// Run processes ids in order. The result set is read once up front and
// written back after every successful ID.
func (p *Processor) Run(ctx context.Context, ids []string) error {
	set, err := p.store.Results(ctx)
	if err != nil {
		return fmt.Errorf("load results: %w", err)
	}

	company := p.companyName(ctx)
	utils.Section(company)

	for i, id := range ids {
		utils.Info("[%d/%d] Checking %s", i+1, len(ids), id)
		set, err = p.checkID(ctx, set, company, id)
		if err != nil {
			return err
		}
		utils.Success("%s saved", id)
	}

	utils.Success("Batch finished: %d IDs checked", len(ids))
	return nil
}

func (p *Processor) companyName(ctx context.Context) string {
	name, err := p.page.Text(ctx, SelCompany)
	if err != nil || strings.TrimSpace(name) == "" {
		return unknownCompany
	}
	return strings.TrimSpace(name)
}

// checkID loops on one ID until its result is stored or a fatal condition ends the batch.
func (p *Processor) checkID(ctx context.Context, set models.ResultSet, company, id string) (models.ResultSet, error) {
	for {
		// the page may re-render the form after a wrong CAPTCHA, so look
		// everything up again on each attempt
		if !p.formReady(ctx) {
			if err := ctx.Err(); err != nil {
				return set, err
			}
			p.notifier.Notify(NoticeError, "Could not find required page elements. Please refresh and try again.")
			return set, ErrFormElementsMissing
		}

		if err := p.page.SetValue(ctx, SelApplication, id); err != nil {
			return set, fmt.Errorf("fill application id: %w", err)
		}

		if found, _ := p.waitVisible(ctx, SelCaptchaBox); found {
			if err := p.page.Highlight(ctx, SelCaptchaBox); err != nil {
				utils.Debug("highlight captcha: %v", err)
			}
		}
		if err := utils.Sleep(ctx, p.timings.highlight); err != nil {
			return set, err
		}

		code, err := p.askCaptcha(ctx, id)
		if err != nil {
			return set, err
		}

		if err := p.page.SetValue(ctx, SelCaptcha, code); err != nil {
			return set, fmt.Errorf("fill captcha: %w", err)
		}
		if err := p.page.Click(ctx, SelSubmit); err != nil {
			return set, fmt.Errorf("submit form: %w", err)
		}

		switch p.awaitOutcome(ctx) {
		case outcomeWrongCaptcha:
			p.notifier.Notify(NoticeWarn, "Incorrect CAPTCHA. Please try again for the same ID.")
			// hidden so the next attempt does not see the stale marker
			if err := p.page.Hide(ctx, SelCaptchaError); err != nil {
				utils.Debug("hide captcha error: %v", err)
			}
			continue

		case outcomeResult:
			return p.saveResult(ctx, set, company, id)

		default:
			if err := ctx.Err(); err != nil {
				return set, err
			}
			p.notifier.Notify(NoticeError, "Could not determine result. The script will stop.")
			return set, ErrUndetermined
		}
	}
}

func (p *Processor) formReady(ctx context.Context) bool {
	for _, sel := range []string{SelApplication, SelSubmit, SelCaptcha} {
		found, err := p.waitVisible(ctx, sel)
		if err != nil || !found {
			utils.Debug("form element %s not visible", sel)
			return false
		}
	}
	return true
}

// askCaptcha prompts until the answer is six digits. Malformed answers are
// never submitted.
func (p *Processor) askCaptcha(ctx context.Context, id string) (string, error) {
	for {
		code, err := p.captcha.Captcha(ctx, id)
		if errors.Is(err, ErrCaptchaCancelled) {
			p.notifier.Notify(NoticeWarn, "Process cancelled by user.")
			return "", err
		}
		if err != nil {
			return "", fmt.Errorf("read captcha: %w", err)
		}

		code = strings.TrimSpace(code)
		if captchaPattern.MatchString(code) {
			return code, nil
		}
		p.notifier.Notify(NoticeWarn, "Invalid CAPTCHA. Please try again.")
	}
}

func (p *Processor) awaitOutcome(ctx context.Context) outcome {
	// a marker already on screen decides at once, the error marker first;
	// a result table from the previous ID can still be showing
	winner := utils.FirstNow(ctx,
		func(ctx context.Context) (bool, error) { return p.page.Visible(ctx, SelCaptchaError) },
		func(ctx context.Context) (bool, error) { return p.page.Visible(ctx, SelResult) },
	)
	if winner < 0 {
		winner = utils.FirstFound(ctx,
			func(ctx context.Context) (bool, error) { return p.waitVisible(ctx, SelCaptchaError) },
			func(ctx context.Context) (bool, error) { return p.waitVisible(ctx, SelResult) },
		)
	}
	switch winner {
	case 0:
		return outcomeWrongCaptcha
	case 1:
		return outcomeResult
	default:
		return outcomeUndetermined
	}
}

func (p *Processor) saveResult(ctx context.Context, set models.ResultSet, company, id string) (models.ResultSet, error) {
	if err := utils.Sleep(ctx, p.timings.settle); err != nil {
		return set, err
	}

	html, err := p.page.InnerHTML(ctx, SelResult)
	if err != nil {
		return set, fmt.Errorf("read result: %w", err)
	}

	set = services.Merge(set, company, id, html)
	if err := p.store.PutResults(ctx, set); err != nil {
		return set, fmt.Errorf("save results: %w", err)
	}

	if err := p.page.Hide(ctx, SelNoRecord); err != nil && !errors.Is(err, ErrElementGone) {
		utils.Debug("hide no-record alert: %v", err)
	}

	// the page scrolls on its own after showing a result; keep pulling the
	// form back to the centre for a moment
	if found, _ := p.page.Exists(ctx, SelFormBox); found {
		err := utils.Repeat(ctx, p.timings.scrollEvery, p.timings.scrollFor, func(ctx context.Context) error {
			return p.page.ScrollIntoView(ctx, SelFormBox)
		})
		if err != nil {
			return set, err
		}
	}

	return set, nil
}

func (p *Processor) waitVisible(ctx context.Context, sel string) (bool, error) {
	return utils.WaitFor(ctx, p.timings.poll, p.timings.interval, func(ctx context.Context) (bool, error) {
		return p.page.Visible(ctx, sel)
	})
}
