// Package stream holds small generic channel pipeline stages.
package stream

import (
	"context"
	"time"
)

// Slice, Filter, Transform and Collect follow:
// https://betterprogramming.pub/writing-a-stream-api-in-go-afbc3c4350e2

func Slice[T any](ctx context.Context, in []T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for _, element := range in {
			select {
			case <-ctx.Done():
				return
			case out <- element:
			}
		}
	}()
	return out
}

func Filter[T any](ctx context.Context, predicate func(T) bool, in <-chan T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for element := range in {
			if !predicate(element) {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case out <- element:
			}
		}
	}()
	return out
}

func Transform[I any, O any](ctx context.Context, transformer func(I) O, in <-chan I) <-chan O {
	out := make(chan O)
	go func() {
		defer close(out)
		for element := range in {
			select {
			case <-ctx.Done():
				return
			case out <- transformer(element):
			}
		}
	}()
	return out
}

// Collect drains in. It returns early, with what it has, if ctx is done.
func Collect[T any](ctx context.Context, in <-chan T) []T {
	var out []T
	for {
		select {
		case <-ctx.Done():
			return out
		case element, ok := <-in:
			if !ok {
				return out
			}
			out = append(out, element)
		}
	}
}

// Paced re-emits elements spaced in wall time by the gaps between their timestamps,
// divided by speedup. A speedup <= 0 emits as fast as the reader takes them.
// Gaps that are negative (out of order) are not waited on.
func Paced[T any](ctx context.Context, timeOf func(T) time.Time, speedup float64, in <-chan T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		var last time.Time
		for element := range in {
			t := timeOf(element)
			if speedup > 0 && !last.IsZero() {
				if gap := time.Duration(float64(t.Sub(last)) / speedup); gap > 0 {
					timer := time.NewTimer(gap)
					select {
					case <-ctx.Done():
						timer.Stop()
						return
					case <-timer.C:
					}
				}
			}
			last = t
			select {
			case <-ctx.Done():
				return
			case out <- element:
			}
		}
	}()
	return out
}
