package pipeline

import (
	"context"
	"fmt"
	"sync"
)

// Stage names recorded on Skipped items.
const (
	StageInput      = "input"
	StageFilter     = "filter"
	StageRepair     = "repair"
	StageCenterline = "centerline"
	StageWidth      = "width"
	StageLabels     = "labels"
	StageMask       = "mask"
	StageOutline    = "outline"
	StageCancelled  = "cancelled"
)

// Skipped records a unit, or part of one, that produced no output.
type Skipped struct {
	ID    string
	Stage string
	Err   error
}

func (s Skipped) Error() string { return fmt.Sprintf("%s skipped at %s: %v", s.ID, s.Stage, s.Err) }

func (s Skipped) Unwrap() error { return s.Err }

// forEach runs fn over items on up to workers goroutines. results[i]
// belongs to items[i]; ran[i] is false for items never scheduled because
// ctx was done.
func forEach[T, R any](ctx context.Context, workers int, items []T, fn func(T) R) (results []R, ran []bool) {
	results = make([]R, len(items))
	ran = make([]bool, len(items))
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = fn(items[i])
				ran[i] = true
			}
		}()
	}

feed:
	for i := range items {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return results, ran
}
