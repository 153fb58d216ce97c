package ipo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ipo-checker/models"
)

var fastTimings = timings{
	poll:        60 * time.Millisecond,
	interval:    time.Millisecond,
	highlight:   0,
	settle:      0,
	scrollEvery: time.Millisecond,
	scrollFor:   5 * time.Millisecond,
}

type submitOutcome string

const (
	submitWrong   submitOutcome = "wrong"
	submitResult  submitOutcome = "result"
	submitNothing submitOutcome = "nothing"
)

// fakePage models the status form. Each submit consumes the next scripted
// outcome and reveals the matching marker.
type fakePage struct {
	mu       sync.Mutex
	visible  map[string]bool
	values   map[string]string
	text     map[string]string
	html     map[string]string
	outcomes []submitOutcome
	// keepResult leaves the previous result table on screen across submits
	keepResult bool

	submitted []string // CAPTCHA value at each submit
	filledIDs []string
	hidden    []string
	scrolls   int
	highlight int
}

func newFakePage(outcomes ...submitOutcome) *fakePage {
	return &fakePage{
		visible: map[string]bool{
			SelApplication: true,
			SelSubmit:      true,
			SelCaptcha:     true,
			SelCaptchaBox:  true,
			SelFormBox:     true,
			SelNoRecord:    true,
		},
		values:   map[string]string{},
		text:     map[string]string{SelCompany: "Alpha IPO"},
		html:     map[string]string{},
		outcomes: outcomes,
	}
}

func resultFor(id string) string {
	return fmt.Sprintf(`<table><tr><td>%s</td><td class="alloted"><label>3</label></td></tr></table>`, id)
}

func (f *fakePage) Visible(ctx context.Context, sel string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visible[sel], nil
}

// Exists treats any element the page has ever shown or hidden as present.
func (f *fakePage) Exists(ctx context.Context, sel string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.visible[sel]
	return ok, nil
}

func (f *fakePage) SetValue(ctx context.Context, sel, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[sel] = value
	if sel == SelApplication {
		f.filledIDs = append(f.filledIDs, value)
	}
	return nil
}

func (f *fakePage) Click(ctx context.Context, sel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sel != SelSubmit {
		return nil
	}
	f.submitted = append(f.submitted, f.values[SelCaptcha])
	f.visible[SelCaptchaError] = false
	if !f.keepResult {
		f.visible[SelResult] = false
	}

	if len(f.outcomes) == 0 {
		return nil
	}
	next := f.outcomes[0]
	f.outcomes = f.outcomes[1:]
	switch next {
	case submitWrong:
		f.visible[SelCaptchaError] = true
	case submitResult:
		f.visible[SelResult] = true
		f.html[SelResult] = resultFor(f.values[SelApplication])
	}
	return nil
}

func (f *fakePage) Highlight(ctx context.Context, sel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.highlight++
	return nil
}

func (f *fakePage) Hide(ctx context.Context, sel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visible[sel] = false
	f.hidden = append(f.hidden, sel)
	return nil
}

func (f *fakePage) InnerHTML(ctx context.Context, sel string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.html[sel]
	if !ok {
		return "", ErrElementGone
	}
	return v, nil
}

func (f *fakePage) Text(ctx context.Context, sel string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.text[sel]
	if !ok {
		return "", ErrElementGone
	}
	return v, nil
}

func (f *fakePage) ScrollIntoView(ctx context.Context, sel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scrolls++
	return nil
}

func (f *fakePage) submits() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.submitted...)
}

// memStore keeps every written snapshot so tests can check write timing.
type memStore struct {
	mu        sync.Mutex
	set       models.ResultSet
	snapshots []models.ResultSet
	queue     *models.Queue
	putErr    error
}

func (m *memStore) Results(ctx context.Context) (models.ResultSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set, nil
}

func (m *memStore) PutResults(ctx context.Context, set models.ResultSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.set = set
	m.snapshots = append(m.snapshots, set)
	return nil
}

func (m *memStore) PutQueue(ctx context.Context, q models.Queue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = &q
	return nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []string
}

func (r *recordingNotifier) Notify(kind NoticeKind, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, msg)
}

func (r *recordingNotifier) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.notices...)
}

// answers returns a buffered channel preloaded with vals that is closed
// afterwards, so running out of answers reads as a cancel.
func answers(vals ...string) <-chan string {
	ch := make(chan string, len(vals))
	for _, v := range vals {
		ch <- v
	}
	close(ch)
	return ch
}
