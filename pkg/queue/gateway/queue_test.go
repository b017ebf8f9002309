package gateway

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"taleweaver/pkg/queue"
	"taleweaver/pkg/schema"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeGen struct {
	calls atomic.Int32
	err   error
}

func (f *fakeGen) Generate(ctx context.Context, req *schema.ImageRequest) (*schema.ImageResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &schema.ImageResult{URL: "https://cdn/" + req.Prompt}, nil
}

func wait(t *testing.T, resCh chan *schema.ImageResult, errCh chan error) (*schema.ImageResult, error) {
	t.Helper()
	select {
	case res, ok := <-resCh:
		if ok {
			return res, nil
		}
		return nil, <-errCh
	case err, ok := <-errCh:
		if ok {
			return nil, err
		}
		return <-resCh, nil
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for queue")
	}
	return nil, nil
}

func TestQueueProcesses(t *testing.T) {
	q := New(&fakeGen{}, 4, 2)
	q.Start()
	defer q.Stop()

	resCh, errCh, err := q.Add(context.Background(), &schema.ImageRequest{Prompt: "owl"})
	require.NoError(t, err)

	res, err := wait(t, resCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/owl", res.URL)
}

func TestQueuePropagatesError(t *testing.T) {
	q := New(&fakeGen{err: errors.New("provider down")}, 4, 1)
	q.Start()
	defer q.Stop()

	resCh, errCh, err := q.Add(context.Background(), &schema.ImageRequest{Prompt: "owl"})
	require.NoError(t, err)

	_, err = wait(t, resCh, errCh)
	assert.EqualError(t, err, "provider down")
}

func TestQueueFull(t *testing.T) {
	q := New(&fakeGen{}, 1, 1)

	_, _, err := q.Add(context.Background(), &schema.ImageRequest{Prompt: "a"})
	require.NoError(t, err)
	_, _, err = q.Add(context.Background(), &schema.ImageRequest{Prompt: "b"})
	assert.ErrorIs(t, err, queue.ErrFull)
	assert.Equal(t, 1, q.Len())
}

func TestQueueSkipsCancelled(t *testing.T) {
	gen := &fakeGen{}
	q := New(gen, 2, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resCh, errCh, err := q.Add(ctx, &schema.ImageRequest{Prompt: "a"})
	require.NoError(t, err)

	q.Start()
	defer q.Stop()

	_, err = wait(t, resCh, errCh)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, gen.calls.Load())
}

func TestQueueStopFailsPending(t *testing.T) {
	q := New(&fakeGen{}, 2, 1)
	resCh, errCh, err := q.Add(context.Background(), &schema.ImageRequest{Prompt: "a"})
	require.NoError(t, err)

	q.Stop()
	q.Stop()

	_, err = wait(t, resCh, errCh)
	assert.ErrorIs(t, err, queue.ErrStopped)

	_, _, err = q.Add(context.Background(), &schema.ImageRequest{Prompt: "b"})
	assert.ErrorIs(t, err, queue.ErrStopped)
}
