package utils

import "context"

// Watch is a bounded poll that reports whether its condition was observed.
type Watch func(ctx context.Context) (bool, error)

// Check is a single look at a condition, with no waiting.
type Check func(ctx context.Context) (bool, error)

// FirstNow runs checks one after another and returns the index of the first
// that reports true, or -1 when none does. Ties go to the lowest index.
func FirstNow(ctx context.Context, checks ...Check) int {
	for i, c := range checks {
		if ok, err := c(ctx); err == nil && ok {
			return i
		}
	}
	return -1
}

// FirstFound starts every watch at once and returns the index of the first
// one to report true, or -1 when none does. Watches still running when a
// winner is picked are left to finish on their own and their results are
// dropped.
func FirstFound(ctx context.Context, watches ...Watch) int {
	results := make(chan int, len(watches))
	for i, w := range watches {
		go func(i int, w Watch) {
			ok, err := w(ctx)
			if err == nil && ok {
				results <- i
				return
			}
			results <- -1
		}(i, w)
	}

	for range watches {
		if i := <-results; i >= 0 {
			return i
		}
	}
	return -1
}
