package ipo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/google/uuid"
	"ipo-checker/models"
	"ipo-checker/utils"
)

// Browser finds and opens tabs. Session is the chromedp implementation.
type Browser interface {
	ActiveTab(ctx context.Context) (*target.Info, error)
	OpenPage(ctx context.Context, id target.ID) (Page, context.CancelFunc, error)
}

// Store is what a dispatched job reads and writes.
type Store interface {
	ResultStore
	PutQueue(ctx context.Context, q models.Queue) error
}

// Dispatcher hands batches to a Processor running against the active tab.
type Dispatcher struct {
	browser  Browser
	store    Store
	captcha  CaptchaSource
	notifier Notifier
	// timings only differ from the defaults in tests
	timings timings
}

func NewDispatcher(browser Browser, store Store, captcha CaptchaSource, notifier Notifier) *Dispatcher {
	return &Dispatcher{
		browser:  browser,
		store:    store,
		captcha:  captcha,
		notifier: notifier,
		timings:  defaultTimings,
	}
}

// Job is a running batch.
type Job struct {
	ID   string
	done chan struct{}
	err  error
}

// Done is closed once the batch has stopped, successfully or not.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Err is the reason the batch stopped early; nil after a full run. Only
// valid after Done is closed.
func (j *Job) Err() error {
	return j.err
}

// Dispatch acknowledges the batch at once and processes it in the
// background. The job is nil when the ack is an error.
func (d *Dispatcher) Dispatch(ctx context.Context, ids []string) (models.Ack, *Job) {
	if len(ids) == 0 {
		return models.Ack{Status: models.AckError, Message: "No IDs to process."}, nil
	}

	tab, err := d.browser.ActiveTab(ctx)
	if errors.Is(err, ErrNoActiveTab) {
		return models.Ack{Status: models.AckError, Message: "No active tab found."}, nil
	}
	if err != nil {
		return models.Ack{Status: models.AckError, Message: fmt.Sprintf("Connection Error: %v", err)}, nil
	}

	job := &Job{ID: uuid.NewString(), done: make(chan struct{})}

	queue := models.Queue{JobID: job.ID, IDs: append([]string(nil), ids...), StartedAt: time.Now().UTC()}
	if err := d.store.PutQueue(ctx, queue); err != nil {
		utils.Warn("Could not record job queue: %v", err)
	}

	utils.Info("Job %s accepted: %d IDs on tab %q", job.ID, len(ids), tab.Title)
	go d.run(ctx, job, tab.TargetID, queue.IDs)

	return models.Ack{Status: models.AckProcessing, JobID: job.ID}, job
}

func (d *Dispatcher) run(ctx context.Context, job *Job, tabID target.ID, ids []string) {
	defer close(job.done)

	page, closePage, err := d.browser.OpenPage(ctx, tabID)
	if err != nil {
		job.err = err
		return
	}
	defer closePage()

	proc := NewProcessor(page, d.captcha, d.notifier, d.store)
	proc.timings = d.timings
	job.err = proc.Run(ctx, ids)
}
