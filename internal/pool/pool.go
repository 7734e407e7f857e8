// Package pool runs independent tasks on a bounded set of workers.
//
// Results are collected in submission order regardless of completion order,
// so downstream merges stay deterministic. On the first task failure no new
// tasks are submitted, in-flight tasks run to completion, and the first
// error is returned.
package pool

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// maxDefaultJobs caps the default worker count on large machines.
const maxDefaultJobs = 16

// DefaultJobs returns the default worker count: min(cpu count, 16).
func DefaultJobs() int {
	n := runtime.NumCPU()
	if n > maxDefaultJobs {
		n = maxDefaultJobs
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Map runs fn for each index in [0, n) on at most jobs workers and returns
// the results indexed by submission order. If jobs < 1 the default is used.
func Map[T any](jobs, n int, fn func(i int) (T, error)) ([]T, error) {
	if jobs < 1 {
		jobs = DefaultJobs()
	}

	results := make([]T, n)
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(jobs)

	for i := 0; i < n; i++ {
		// Stop submitting once a task has failed; workers already running
		// finish on their own.
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			v, err := fn(i)
			if err != nil {
				return err
			}
			results[i] = v
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Run runs fn for each index in [0, n) on at most jobs workers, discarding
// results. Error semantics match Map.
func Run(jobs, n int, fn func(i int) error) error {
	_, err := Map(jobs, n, func(i int) (struct{}, error) {
		return struct{}{}, fn(i)
	})
	return err
}
