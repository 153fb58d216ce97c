package ipo

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"ipo-checker/utils"
)

// CaptchaSource supplies the CAPTCHA text a human read off the page.
// Returning ErrCaptchaCancelled stops the whole batch.
type CaptchaSource interface {
	Captcha(ctx context.Context, id string) (string, error)
}

// ChannelCaptcha reads answers from a channel. A closed channel counts as
// the user cancelling.
type ChannelCaptcha struct {
	answers <-chan string
}

func NewChannelCaptcha(answers <-chan string) *ChannelCaptcha {
	return &ChannelCaptcha{answers: answers}
}

func (c *ChannelCaptcha) Captcha(ctx context.Context, id string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case v, ok := <-c.answers:
		if !ok {
			return "", ErrCaptchaCancelled
		}
		return v, nil
	}
}

// TerminalCaptcha prompts on out and reads one line per answer from in.
// End of input, "q" and "cancel" cancel the batch.
type TerminalCaptcha struct {
	in    io.Reader
	out   io.Writer
	once  sync.Once
	lines chan string
}

func NewTerminalCaptcha(in io.Reader, out io.Writer) *TerminalCaptcha {
	return &TerminalCaptcha{in: in, out: out}
}

func (t *TerminalCaptcha) start() {
	t.once.Do(func() {
		t.lines = make(chan string)
		go func() {
			defer close(t.lines)
			scanner := bufio.NewScanner(t.in)
			for scanner.Scan() {
				t.lines <- scanner.Text()
			}
		}()
	})
}

// Line prints prompt and waits for the next input line. ok is false once
// the input is exhausted.
func (t *TerminalCaptcha) Line(ctx context.Context, prompt string) (string, bool, error) {
	t.start()
	fmt.Fprint(t.out, prompt)
	select {
	case <-ctx.Done():
		fmt.Fprintln(t.out)
		return "", false, ctx.Err()
	case line, ok := <-t.lines:
		return strings.TrimSpace(line), ok, nil
	}
}

func (t *TerminalCaptcha) Captcha(ctx context.Context, id string) (string, error) {
	line, ok, err := t.Line(ctx, fmt.Sprintf("Enter CAPTCHA for %s (q to cancel): ", id))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrCaptchaCancelled
	}
	switch strings.ToLower(line) {
	case "q", "cancel":
		return "", ErrCaptchaCancelled
	}
	return line, nil
}

type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeWarn
	NoticeError
)

// Notifier shows a message to the person running the batch.
type Notifier interface {
	Notify(kind NoticeKind, msg string)
}

// LogNotifier shows notices through the terminal logger.
type LogNotifier struct{}

func (LogNotifier) Notify(kind NoticeKind, msg string) {
	switch kind {
	case NoticeError:
		utils.Error("%s", msg)
	case NoticeWarn:
		utils.Warn("%s", msg)
	default:
		utils.Info("%s", msg)
	}
}
