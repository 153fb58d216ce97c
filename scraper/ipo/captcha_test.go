package ipo

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalCaptcha(t *testing.T) {
	var out bytes.Buffer
	c := NewTerminalCaptcha(strings.NewReader("abc\n 123456 \nq\n"), &out)
	ctx := context.Background()

	v, err := c.Captcha(ctx, "XY123456789012")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	v, err = c.Captcha(ctx, "XY123456789012")
	require.NoError(t, err)
	assert.Equal(t, "123456", v)

	_, err = c.Captcha(ctx, "XY123456789012")
	assert.ErrorIs(t, err, ErrCaptchaCancelled)

	// end of input also cancels
	_, err = c.Captcha(ctx, "XY123456789012")
	assert.ErrorIs(t, err, ErrCaptchaCancelled)

	assert.Contains(t, out.String(), "Enter CAPTCHA for XY123456789012 (q to cancel): ")
}

func TestTerminalCaptchaLine(t *testing.T) {
	var out bytes.Buffer
	c := NewTerminalCaptcha(strings.NewReader("GROWWAB123456789\n"), &out)

	line, ok, err := c.Line(context.Background(), "IDs: ")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "GROWWAB123456789", line)

	_, ok, err = c.Line(context.Background(), "IDs: ")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChannelCaptchaHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewChannelCaptcha(make(chan string)).Captcha(ctx, "id")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTerminalCaptchaCancelWords(t *testing.T) {
	for _, word := range []string{"q", "cancel", " CANCEL ", "Q"} {
		t.Run(word, func(t *testing.T) {
			c := NewTerminalCaptcha(strings.NewReader(word+"\n123456\n"), &bytes.Buffer{})

			_, err := c.Captcha(context.Background(), "XY123456789012")
			assert.ErrorIs(t, err, ErrCaptchaCancelled)
		})
	}
}
