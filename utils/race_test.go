package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func after(d time.Duration, ok bool, err error) Watch {
	return func(ctx context.Context) (bool, error) {
		time.Sleep(d)
		return ok, err
	}
}

func TestFirstFound(t *testing.T) {
	tests := []struct {
		name    string
		watches []Watch
		want    int
	}{
		{"faster wins", []Watch{after(30*time.Millisecond, true, nil), after(time.Millisecond, true, nil)}, 1},
		{"not found does not win", []Watch{after(time.Millisecond, false, nil), after(20*time.Millisecond, true, nil)}, 1},
		{"error does not win", []Watch{after(20*time.Millisecond, true, nil), after(time.Millisecond, true, errors.New("boom"))}, 0},
		{"nobody", []Watch{after(time.Millisecond, false, nil), after(2*time.Millisecond, false, nil)}, -1},
		{"empty", nil, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FirstFound(context.Background(), tt.watches...))
		})
	}
}

func TestFirstFoundDoesNotWaitForLoser(t *testing.T) {
	start := time.Now()
	got := FirstFound(context.Background(), after(time.Millisecond, true, nil), after(500*time.Millisecond, true, nil))
	assert.Equal(t, 0, got)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestFirstNow(t *testing.T) {
	now := func(ok bool, err error) Check {
		return func(ctx context.Context) (bool, error) { return ok, err }
	}

	tests := []struct {
		name   string
		checks []Check
		want   int
	}{
		{"both present picks first", []Check{now(true, nil), now(true, nil)}, 0},
		{"only second", []Check{now(false, nil), now(true, nil)}, 1},
		{"error skipped", []Check{now(true, errors.New("gone")), now(true, nil)}, 1},
		{"none", []Check{now(false, nil), now(false, nil)}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for range 50 {
				assert.Equal(t, tt.want, FirstNow(context.Background(), tt.checks...))
			}
		})
	}
}
