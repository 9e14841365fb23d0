// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdflayers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/sassoftware/viya-pdf-layers/logger"
)

// Processor defines the contract for extracting layouts from a PDF file.
type Processor interface {
	ExtractLayers(ctx context.Context, path string) ([]PageLayers, error)
	ExtractLayout(ctx context.Context, path string) ([]*PageLayout, error)
}

// ExtractorStrategy defines how to lay out a single page.
// Different strategies handle errors differently (strict vs. best-effort).
// ctx is the context of the whole document; the page deadline is applied
// by the strategy.
type ExtractorStrategy interface {
	ExtractPage(ctx context.Context, r *Reader, num int, combos []Combination) (*Aggregator, error)
}

// pageContext derives the context of one page from the document context.
func pageContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// StrictExtractor enforces strict parsing.
// If any page fails, the entire extraction fails.
type StrictExtractor struct {
	opts    LayoutOptions
	timeout time.Duration
	log     *logger.Logger
}

func (s *StrictExtractor) ExtractPage(ctx context.Context, r *Reader, num int, combos []Combination) (*Aggregator, error) {
	pctx, cancel := pageContext(ctx, s.timeout)
	defer cancel()
	return LayoutPage(pctx, r, num, combos, s.opts, s.log)
}

// BestEffortExtractor tolerates errors.
// If a page fails, all of its layouts are dropped and the page is skipped.
// A page running out of its own time is skipped too; only the end of the
// document context is returned as an error.
type BestEffortExtractor struct {
	opts    LayoutOptions
	timeout time.Duration
	log     *logger.Logger
}

func (b *BestEffortExtractor) ExtractPage(ctx context.Context, r *Reader, num int, combos []Combination) (*Aggregator, error) {
	pctx, cancel := pageContext(ctx, b.timeout)
	defer cancel()
	agg, err := LayoutPage(pctx, r, num, combos, b.opts, b.log)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		b.log.Debug("BestEffortExtractor: failed to lay out page, skipping", "page", num, "err", err, true)
		return nil, nil
	}
	return agg, nil
}

// processor manages PDF extraction with concurrency control
// and delegates page-level work to the chosen ExtractorStrategy.
type processor struct {
	cfg       *Config
	sem       *semaphore.Weighted
	extractor ExtractorStrategy
	log       *logger.Logger
}

var _ Processor = (*processor)(nil)

// NewProcessor validates the config and creates a new processor.
// Selects the correct ExtractorStrategy (Strict or BestEffort).
func NewProcessor(cfg *Config) *processor {
	//Validate the config object
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	//Set the logger function
	if cfg.Logger != nil {
		logger.SetLogger(cfg.Logger)
	}
	DebugOn = cfg.DebugOn
	log := logger.New(cfg.Logger)

	var extractor ExtractorStrategy
	switch cfg.ParsingMode {
	case Strict:
		extractor = &StrictExtractor{opts: cfg.LayoutOptions(), timeout: cfg.PageTimeout, log: log}
	case BestEffort:
		extractor = &BestEffortExtractor{opts: cfg.LayoutOptions(), timeout: cfg.PageTimeout, log: log}
	}

	log.Debug(fmt.Sprintf("Processor initialized: parsing_mode=%v, max_concurrent_pdfs=%d, max_workers_per_pdf=%d",
		cfg.ParsingMode, cfg.MaxConcurrentPDFs, cfg.MaxWorkersPerPDF), true)

	return &processor{
		cfg:       cfg,
		sem:       semaphore.NewWeighted(int64(cfg.MaxConcurrentPDFs)),
		extractor: extractor,
		log:       log,
	}
}

// PageResult is the outcome of one page. Layers is nil when the page was
// skipped in best-effort mode.
type PageResult struct {
	Page   int
	Layers PageLayers
	Err    error
}

// ExtractLayers lays out every page of the file at path once per layer
// combination. Pages skipped in best-effort mode are nil.
func (p *processor) ExtractLayers(ctx context.Context, path string) ([]PageLayers, error) {
	out := []PageLayers{}
	err := p.withDocument(ctx, path, func(r *Reader) error {
		if err := r.CheckExtractable(); err != nil {
			return err
		}
		layers, err := r.Layers()
		if err != nil {
			return err
		}
		aggs, err := p.run(ctx, r, layers.Combinations)
		if err != nil {
			return err
		}
		for _, agg := range aggs {
			if agg == nil {
				out = append(out, nil)
				continue
			}
			out = append(out, agg.PageLayers())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExtractLayout lays out every page of the file at path, ignoring optional
// content. Pages skipped in best-effort mode are nil.
func (p *processor) ExtractLayout(ctx context.Context, path string) ([]*PageLayout, error) {
	out := []*PageLayout{}
	err := p.withDocument(ctx, path, func(r *Reader) error {
		if err := r.CheckExtractable(); err != nil {
			return err
		}
		aggs, err := p.run(ctx, r, nil)
		if err != nil {
			return err
		}
		for _, agg := range aggs {
			if agg == nil {
				out = append(out, nil)
				continue
			}
			out = append(out, agg.Results()[0])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExtractLayersAsStream emits the layers of each page in page order as
// soon as the page and all pages before it are done. The channel is closed
// after the last page; in strict mode it is closed after the first failure,
// which is delivered as the final result.
func (p *processor) ExtractLayersAsStream(ctx context.Context, path string) (<-chan PageResult, error) {
	p.log.Debug(fmt.Sprintf("Starting streaming extraction: path=%s", path), true)
	if err := p.acquireSlot(ctx); err != nil {
		return nil, err
	}
	f, r, err := Open(path)
	if err != nil {
		p.sem.Release(1)
		return nil, err
	}
	release := func() {
		_ = f.Close()
		p.sem.Release(1)
	}
	if err := r.CheckExtractable(); err != nil {
		release()
		return nil, err
	}
	layers, err := r.Layers()
	if err != nil {
		release()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	results := make(chan PageResult)
	outCh := make(chan PageResult)
	total := r.NumPage()
	go func() {
		defer close(results)
		_ = p.startWorkers(ctx, r, total, layers.Combinations, results)
	}()
	go func() {
		defer release()
		p.streamInOrder(results, outCh)
		close(outCh)
		cancel()
		for range results {
			// drain workers stopped by cancel
		}
	}()
	return outCh, nil
}

// LayerReport writes the layer report of the file at path as JSON to w.
func (p *processor) LayerReport(ctx context.Context, path string, w io.Writer) error {
	p.log.Debug(fmt.Sprintf("Reading layer report: path=%s", path), true)
	return p.withDocument(ctx, path, func(r *Reader) error {
		return r.LayerReportJSON(w)
	})
}

// withDocument opens path while holding a document slot.
func (p *processor) withDocument(ctx context.Context, path string, fn func(r *Reader) error) error {
	if err := p.acquireSlot(ctx); err != nil {
		p.log.Debug(fmt.Sprintf("Failed to acquire slot: err=%v", err), true)
		return err
	}
	defer p.sem.Release(1)

	f, r, err := Open(path)
	if err != nil {
		p.log.Debug(fmt.Sprintf("Failed to open PDF: path=%s err=%v", path, err), true)
		return err
	}
	defer f.Close()
	return fn(r)
}

// run lays out all pages of r with a bounded worker pool and returns the
// aggregators in page order.
func (p *processor) run(ctx context.Context, r *Reader, combos []Combination) ([]*Aggregator, error) {
	total := r.NumPage()
	p.log.Debug(fmt.Sprintf("Total pages detected: pages=%d", total), true)
	out := make([]*Aggregator, total)
	if total == 0 {
		return out, nil
	}

	aggs := make(chan pageAggregate, total)
	errCh := make(chan error, 1)
	go func() {
		errCh <- p.startWorkersAgg(ctx, r, total, combos, aggs)
		close(aggs)
	}()
	for res := range aggs {
		out[res.page-1] = res.agg
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return out, nil
}

type pageAggregate struct {
	page int
	agg  *Aggregator
}

// startWorkersAgg runs the page jobs and sends every finished aggregator to
// aggs. In strict mode the first error cancels the remaining pages.
func (p *processor) startWorkersAgg(ctx context.Context, r *Reader, total int, combos []Combination, aggs chan<- pageAggregate) error {
	return p.workers(ctx, r, total, combos, func(num int, agg *Aggregator, err error) error {
		if err != nil {
			return err
		}
		aggs <- pageAggregate{page: num, agg: agg}
		return nil
	})
}

// startWorkers runs the page jobs and sends one result per page to
// results, including failures.
func (p *processor) startWorkers(ctx context.Context, r *Reader, total int, combos []Combination, results chan<- PageResult) error {
	return p.workers(ctx, r, total, combos, func(num int, agg *Aggregator, err error) error {
		res := PageResult{Page: num, Err: err}
		if agg != nil {
			res.Layers = agg.PageLayers()
		}
		select {
		case results <- res:
		case <-ctx.Done():
			return ctx.Err()
		}
		return err
	})
}

func (p *processor) workers(ctx context.Context, r *Reader, total int, combos []Combination, done func(num int, agg *Aggregator, err error) error) error {
	numWorkers := p.adjustWorkerCount(p.cfg.MaxWorkersPerPDF)
	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan int, total)
	g.Go(func() error {
		defer close(jobs)
		return p.feedJobs(gctx, total, jobs)
	})
	for w := 1; w <= numWorkers; w++ {
		id := w
		g.Go(func() error {
			p.log.Debug(fmt.Sprintf("Worker started: id=%d", id), true)
			for num := range jobs {
				agg, err := p.extractor.ExtractPage(gctx, r, num, combos)
				if err != nil {
					p.log.Debug(fmt.Sprintf("Worker: page layout error: worker_id=%d page=%d err=%v", id, num, err), true)
				}
				if err := done(num, agg, err); err != nil {
					return err
				}
			}
			p.log.Debug(fmt.Sprintf("Worker finished: id=%d", id), true)
			return nil
		})
	}
	return g.Wait()
}

// streamInOrder forwards results to outCh in page order, holding back
// pages that finish early. It stops after the first failed page.
//
// A failure cancels the pages still running, so an earlier page may come
// back cancelled after a later page failed on its own. The cancelled page
// is then replaced by that failure, which is always the last result sent.
func (p *processor) streamInOrder(results <-chan PageResult, outCh chan<- PageResult) {
	pending := make(map[int]PageResult)
	var failed *PageResult
	next := 1
	for res := range results {
		if res.Err != nil && !errors.Is(res.Err, context.Canceled) && (failed == nil || res.Page < failed.Page) {
			f := res
			failed = &f
		}
		pending[res.Page] = res
		for {
			r, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			if errors.Is(r.Err, context.Canceled) && failed != nil {
				r = *failed
			}
			outCh <- r
			if r.Err != nil {
				p.log.Debug(fmt.Sprintf("Strict mode error, stopping stream: page=%d err=%v", r.Page, r.Err), true)
				return
			}
			next++
		}
	}
	if failed != nil {
		// pages before the failure never ran
		outCh <- *failed
	}
}

func (p *processor) acquireSlot(ctx context.Context) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire slot: %w", err)
	}
	p.log.Debug("Slot acquired successfully", true)
	return nil
}

func (p *processor) adjustWorkerCount(maxWorkers int) int {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if n := runtime.NumCPU(); maxWorkers > n {
		maxWorkers = n
	}
	p.log.Debug(fmt.Sprintf("Adjusted worker count: workers=%d", maxWorkers), true)
	return maxWorkers
}

func (p *processor) feedJobs(ctx context.Context, total int, jobs chan<- int) error {
	for i := 1; i <= total; i++ {
		select {
		case <-ctx.Done():
			p.log.Debug("Context cancelled while feeding jobs", true)
			return ctx.Err()
		case jobs <- i:
		}
	}
	p.log.Debug(fmt.Sprintf("All jobs queued: total_pages=%d", total), true)
	return nil
}
