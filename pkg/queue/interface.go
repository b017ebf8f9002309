package queue

import (
	"context"
	"errors"

	"taleweaver/pkg/schema"
)

var (
	ErrFull    = errors.New("queue is full")
	ErrStopped = errors.New("queue is stopped")
)

// Generator produces one image for a request.
type Generator interface {
	Generate(ctx context.Context, req *schema.ImageRequest) (*schema.ImageResult, error)
}

type Queue interface {
	Start()
	Stop()
	Add(ctx context.Context, req *schema.ImageRequest) (chan *schema.ImageResult, chan error, error)
}
