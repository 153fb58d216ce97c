package ipo

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBrowser struct {
	tab     *target.Info
	tabErr  error
	page    Page
	openErr error
	opened  []target.ID

	mu       sync.Mutex
	released int
}

func (b *fakeBrowser) ActiveTab(ctx context.Context) (*target.Info, error) {
	return b.tab, b.tabErr
}

func (b *fakeBrowser) OpenPage(ctx context.Context, id target.ID) (Page, context.CancelFunc, error) {
	b.opened = append(b.opened, id)
	if b.openErr != nil {
		return nil, nil, b.openErr
	}
	return b.page, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.released++
	}, nil
}

func (b *fakeBrowser) releases() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}

func newTestDispatcher(b Browser, store Store, captcha CaptchaSource) *Dispatcher {
	d := NewDispatcher(b, store, captcha, &recordingNotifier{})
	d.timings = fastTimings
	return d
}

func waitJob(t *testing.T, job *Job) {
	t.Helper()
	select {
	case <-job.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("job did not finish")
	}
}

func TestDispatchRejectsEmptyBatch(t *testing.T) {
	d := newTestDispatcher(&fakeBrowser{}, &memStore{}, NewChannelCaptcha(answers()))
	ack, job := d.Dispatch(context.Background(), nil)
	assert.Equal(t, "error", string(ack.Status))
	assert.Nil(t, job)
}

func TestDispatchNoActiveTab(t *testing.T) {
	store := &memStore{}
	d := newTestDispatcher(&fakeBrowser{tabErr: ErrNoActiveTab}, store, NewChannelCaptcha(answers()))

	ack, job := d.Dispatch(context.Background(), []string{"XY123456789012"})
	assert.Equal(t, "error", string(ack.Status))
	assert.Equal(t, "No active tab found.", ack.Message)
	assert.Nil(t, job)
	assert.Nil(t, store.queue)
}

func TestDispatchConnectionError(t *testing.T) {
	d := newTestDispatcher(&fakeBrowser{tabErr: errors.New("websocket closed")}, &memStore{}, NewChannelCaptcha(answers()))

	ack, job := d.Dispatch(context.Background(), []string{"XY123456789012"})
	assert.Equal(t, "error", string(ack.Status))
	assert.True(t, strings.HasPrefix(ack.Message, "Connection Error:"))
	assert.Nil(t, job)
}

func TestDispatchAcksBeforeProcessing(t *testing.T) {
	page := newFakePage(submitResult)
	store := &memStore{}
	captcha := make(chan string)
	b := &fakeBrowser{tab: &target.Info{TargetID: "tab-1", Type: "page", Title: "IPO Status"}, page: page}
	d := newTestDispatcher(b, store, NewChannelCaptcha(captcha))

	ack, job := d.Dispatch(context.Background(), []string{"XY123456789012"})
	require.NotNil(t, job)
	assert.Equal(t, "processing", string(ack.Status))
	assert.Equal(t, job.ID, ack.JobID)

	// still waiting on the CAPTCHA
	select {
	case <-job.Done():
		t.Fatal("job finished before the CAPTCHA was answered")
	case <-time.After(20 * time.Millisecond):
	}

	captcha <- "123456"
	waitJob(t, job)
	require.NoError(t, job.Err())

	store.mu.Lock()
	defer store.mu.Unlock()
	require.NotNil(t, store.queue)
	assert.Equal(t, job.ID, store.queue.JobID)
	assert.Equal(t, []string{"XY123456789012"}, store.queue.IDs)
	require.Len(t, store.set, 1)
	assert.Equal(t, []target.ID{"tab-1"}, b.opened)
}

func TestDispatchReportsProcessorFailure(t *testing.T) {
	page := newFakePage()
	b := &fakeBrowser{tab: &target.Info{TargetID: "tab-1", Type: "page"}, page: page}
	d := newTestDispatcher(b, &memStore{}, NewChannelCaptcha(answers()))

	_, job := d.Dispatch(context.Background(), []string{"XY123456789012"})
	require.NotNil(t, job)
	waitJob(t, job)
	assert.ErrorIs(t, job.Err(), ErrCaptchaCancelled)
}

func TestDispatchOpenPageFailure(t *testing.T) {
	b := &fakeBrowser{tab: &target.Info{TargetID: "tab-1", Type: "page"}, openErr: errors.New("target closed")}
	d := newTestDispatcher(b, &memStore{}, NewChannelCaptcha(answers()))

	_, job := d.Dispatch(context.Background(), []string{"XY123456789012"})
	require.NotNil(t, job)
	waitJob(t, job)
	assert.EqualError(t, job.Err(), "target closed")
}

func TestPickTab(t *testing.T) {
	const site = "https://ipostatus.example/"
	bg := &target.Info{TargetID: "sw", Type: "service_worker", URL: site}
	blank := &target.Info{TargetID: "blank", Type: "page", URL: "about:blank"}
	attached := &target.Info{TargetID: "attached", Type: "page", URL: "https://news.example/", Attached: true}
	status := &target.Info{TargetID: "status", Type: "page", URL: site + "ipo"}

	tests := []struct {
		name    string
		targets []*target.Info
		want    *target.Info
	}{
		{"status page wins", []*target.Info{bg, blank, attached, status}, status},
		{"attached over first", []*target.Info{blank, attached}, attached},
		{"first page", []*target.Info{bg, blank}, blank},
		{"none", []*target.Info{bg}, nil},
		{"empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pickTab(tt.targets, site))
		})
	}
}
