// Package gateway runs image generation requests through a bounded queue so
// that bursts of avatar and cover requests do not overwhelm the provider.
package gateway

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"taleweaver/pkg/queue"
	"taleweaver/pkg/schema"
	"taleweaver/pkg/utils"
)

type Queue struct {
	gen     queue.Generator
	items   chan *Item
	stop    chan struct{}
	workers int

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

type Item struct {
	Ctx      context.Context
	Request  *schema.ImageRequest
	Response chan *schema.ImageResult
	Error    chan error
}

var _ queue.Queue = (*Queue)(nil)

// New creates a queue holding up to size pending requests, served by
// workers goroutines.
func New(gen queue.Generator, size, workers int) *Queue {
	return &Queue{
		gen:     gen,
		items:   make(chan *Item, max(size, 1)),
		stop:    make(chan struct{}),
		workers: max(workers, 1),
	}
}

func (q *Queue) Start() {
	for i := range q.workers {
		q.wg.Add(1)
		go q.processLoop(i)
	}
}

// Stop ends the workers after their current item. Pending items fail with
// queue.ErrStopped.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	close(q.stop)
	q.mu.Unlock()

	q.wg.Wait()
	for {
		select {
		case item := <-q.items:
			q.fail(item, queue.ErrStopped)
		default:
			return
		}
	}
}

// Add enqueues req without blocking. Exactly one of the returned channels
// receives a value.
func (q *Queue) Add(ctx context.Context, req *schema.ImageRequest) (chan *schema.ImageResult, chan error, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return nil, nil, queue.ErrStopped
	}

	item := &Item{
		Ctx:      ctx,
		Request:  req,
		Response: make(chan *schema.ImageResult, 1),
		Error:    make(chan error, 1),
	}
	select {
	case q.items <- item:
		return item.Response, item.Error, nil
	default:
		return nil, nil, queue.ErrFull
	}
}

// Len reports the number of waiting requests.
func (q *Queue) Len() int {
	return len(q.items)
}

func (q *Queue) processLoop(worker int) {
	defer q.wg.Done()
	log.Debug("image queue worker started", "worker", worker)
	for {
		select {
		case <-q.stop:
			log.Debug("image queue worker stopped", "worker", worker)
			return
		case item := <-q.items:
			q.processItem(item)
		}
	}
}

func (q *Queue) processItem(item *Item) {
	ctx := item.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		q.fail(item, err)
		return
	}

	log.Info("generating image", "kind", item.Request.Kind, "prompt", utils.LimitStr(item.Request.Prompt, 50))

	res, err := q.gen.Generate(ctx, item.Request)
	if err != nil {
		log.Warn("image generation failed", "error", err)
		q.fail(item, err)
		return
	}

	item.Response <- res
	close(item.Error)
}

func (q *Queue) fail(item *Item, err error) {
	item.Error <- err
	close(item.Response)
}
