package main

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/praetorian-inc/seek/pkg/printer"
	"github.com/praetorian-inc/seek/pkg/types"
	"github.com/praetorian-inc/seek/pkg/worker"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// runner searches subjects in parallel. Each goroutine owns one worker that
// prints into a private buffer; buffers are written out in subject order.
type runner struct {
	threads     int
	color       bool
	stopOnMatch bool
	newWorker   func(buf *printer.Buffer) *worker.SearchWorker
}

type searchJob struct {
	index   int
	subject types.Subject
}

type searchOutcome struct {
	searchJob
	output []byte
	result worker.SearchResult
	err    error
}

// runSummary aggregates the outcomes of a run.
type runSummary struct {
	searched int
	matched  bool
	failed   int
	stats    printer.Stats
}

func (r *runner) run(ctx context.Context, subjects []types.Subject, out io.Writer) (runSummary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	threads := min(r.threads, len(subjects))
	if threads < 1 {
		threads = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	jobs := make(chan searchJob, threads*2)
	outcomes := make(chan searchOutcome, threads*2)

	// Feed subjects to workers
	g.Go(func() error {
		defer close(jobs)
		for i, s := range subjects {
			select {
			case jobs <- searchJob{index: i, subject: s}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < threads; i++ {
		g.Go(func() error {
			buf := printer.NewBuffer(r.color)
			w := r.newWorker(buf)
			for job := range jobs {
				buf.Reset()
				res, err := w.Search(job.subject)
				o := searchOutcome{
					searchJob: job,
					output:    bytes.Clone(buf.Bytes()),
					result:    res,
					err:       err,
				}
				select {
				case outcomes <- o:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}

	var werr error
	go func() {
		werr = g.Wait()
		close(outcomes)
	}()

	var (
		sum     runSummary
		wrerr   error
		next    int
		pending = make(map[int]searchOutcome)
	)
	for o := range outcomes {
		pending[o.index] = o
		for {
			o, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++

			if wrerr != nil {
				continue
			}
			if wrerr = collect(&sum, o, out); wrerr != nil {
				cancel()
			}
			if r.stopOnMatch && sum.matched {
				cancel()
			}
		}
	}

	if wrerr != nil {
		return sum, wrerr
	}
	if werr != nil && !errors.Is(werr, context.Canceled) {
		return sum, werr
	}
	return sum, nil
}

// collect writes one outcome's output and folds it into sum. Only write
// errors are returned; search errors are logged and counted.
func collect(sum *runSummary, o searchOutcome, out io.Writer) error {
	if len(o.output) > 0 {
		if _, err := out.Write(o.output); err != nil {
			return err
		}
	}

	path := o.subject.Path()
	if o.err != nil {
		sum.failed++
		logrus.WithField("path", path).Error(o.err)
		return nil
	}

	sum.searched++
	if o.result.HasMatch() {
		sum.matched = true
	}
	if st := o.result.Stats(); st != nil {
		sum.stats.Add(*st)
		logrus.Debugf("%s: %s searched, %d matched lines", path, humanize.Bytes(st.BytesSearched), st.MatchedLines)
	}
	return nil
}
