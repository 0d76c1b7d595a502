package board_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/coregx/board"
	"github.com/coregx/board/internal/boardtest"
	"github.com/coregx/board/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T, opts ...board.HubOption) *board.Hub {
	t.Helper()
	hub, err := board.NewHub(append([]board.HubOption{board.WithHubLogger(&board.NoopLogger{})}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hub.Close(ctx)
	})
	return hub
}

func TestNewHub_Options(t *testing.T) {
	_, err := board.NewHub()
	assert.Equal(t, board.ErrCodeConfiguration, board.ErrorCode(err))

	_, err = board.NewHub(board.WithHubLogger(&board.NoopLogger{}), board.WithSendBuffer(0))
	assert.Equal(t, board.ErrCodeConfiguration, board.ErrorCode(err))

	_, err = board.NewHub(board.WithHubLogger(&board.NoopLogger{}), board.WithDeliveryTimeout(-time.Second))
	assert.Equal(t, board.ErrCodeConfiguration, board.ErrorCode(err))
}

func TestHub_BroadcastReachesEveryObserver(t *testing.T) {
	hub := newTestHub(t)
	a, b := boardtest.NewObserver("a"), boardtest.NewObserver("b")
	require.NoError(t, hub.Add(a))
	require.NoError(t, hub.Add(b))
	assert.Equal(t, 2, hub.Count())

	hub.Broadcast(model.EventNewComment, model.CommentEvent{CommentID: 7})

	for _, o := range []*boardtest.Observer{a, b} {
		require.True(t, o.WaitForEvents(1, time.Second), o.ID())
		ev := o.Events()[0]
		assert.Equal(t, model.EventNewComment, ev.Name)
		assert.Equal(t, model.CommentEvent{CommentID: 7}, ev.Payload)
		assert.Equal(t, uint64(1), ev.Sequence)
	}
}

func TestHub_ConcurrentBroadcastsSameOrderEverywhere(t *testing.T) {
	const (
		observers   = 5
		broadcasts  = 200
		broadcaster = 8
	)
	hub := newTestHub(t, board.WithSendBuffer(broadcasts))

	obs := make([]*boardtest.Observer, observers)
	for i := range obs {
		obs[i] = boardtest.NewObserver(fmt.Sprintf("obs-%d", i))
		require.NoError(t, hub.Add(obs[i]))
	}

	var wg sync.WaitGroup
	for g := 0; g < broadcaster; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := g; i < broadcasts; i += broadcaster {
				hub.Broadcast(model.EventNewComment, model.CommentEvent{CommentID: int64(i)})
			}
		}(g)
	}
	wg.Wait()

	for _, o := range obs {
		require.True(t, o.WaitForEvents(broadcasts, 5*time.Second), o.ID())
	}

	reference := obs[0].Events()
	require.Len(t, reference, broadcasts)
	for i, ev := range reference {
		assert.Equal(t, uint64(i+1), ev.Sequence, "sequence numbers are gapless and increasing")
	}
	for _, o := range obs[1:] {
		assert.Equal(t, reference, o.Events(), o.ID())
	}
}

func TestHub_RemovedObserverGetsNothingLater(t *testing.T) {
	hub := newTestHub(t)
	a, b := boardtest.NewObserver("a"), boardtest.NewObserver("b")
	require.NoError(t, hub.Add(a))
	require.NoError(t, hub.Add(b))

	hub.Remove("b")
	assert.True(t, b.Closed())
	hub.Broadcast(model.EventNewComment, model.CommentEvent{CommentID: 1})

	require.True(t, a.WaitForEvents(1, time.Second))
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, b.Events())
	assert.Equal(t, 1, hub.Count())

	hub.Remove("b")
	hub.Remove("unknown")
}

func TestHub_FailingObserverIsReaped(t *testing.T) {
	hub := newTestHub(t)
	good, bad := boardtest.NewObserver("good"), boardtest.NewObserver("bad")
	bad.SetFail(true)
	require.NoError(t, hub.Add(good))
	require.NoError(t, hub.Add(bad))

	hub.Broadcast(model.EventNewComment, model.CommentEvent{CommentID: 1})
	hub.Broadcast(model.EventNewComment, model.CommentEvent{CommentID: 2})

	require.True(t, good.WaitForEvents(2, time.Second))
	assert.Eventually(t, bad.Closed, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestHub_SlowObserverDoesNotBlockBroadcast(t *testing.T) {
	hub := newTestHub(t, board.WithSendBuffer(2), board.WithDeliveryTimeout(time.Minute))
	fast, slow := boardtest.NewObserver("fast"), boardtest.NewObserver("slow")
	slow.SetBlock(true)
	require.NoError(t, hub.Add(fast))
	require.NoError(t, hub.Add(slow))

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			hub.Broadcast(model.EventNewComment, model.CommentEvent{CommentID: int64(i)})
			time.Sleep(2 * time.Millisecond)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow observer")
	}

	assert.Eventually(t, slow.Closed, time.Second, 5*time.Millisecond)
	assert.True(t, fast.WaitForEvents(10, time.Second))
}

func TestHub_DeliveryTimeout(t *testing.T) {
	hub := newTestHub(t, board.WithDeliveryTimeout(20*time.Millisecond))
	stuck := boardtest.NewObserver("stuck")
	stuck.SetBlock(true)
	require.NoError(t, hub.Add(stuck))

	hub.Broadcast(model.EventNewComment, model.CommentEvent{CommentID: 1})

	assert.Eventually(t, stuck.Closed, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, hub.Count())
}

func TestHub_AddRejectsDuplicatesAndNil(t *testing.T) {
	hub := newTestHub(t)
	require.NoError(t, hub.Add(boardtest.NewObserver("a")))

	err := hub.Add(boardtest.NewObserver("a"))
	assert.True(t, board.IsConflict(err))
	assert.Error(t, hub.Add(nil))
}

func TestHub_Close(t *testing.T) {
	hub := newTestHub(t)
	a := boardtest.NewObserver("a")
	require.NoError(t, hub.Add(a))

	require.NoError(t, hub.Close(context.Background()))
	assert.True(t, a.Closed())
	assert.Equal(t, 0, hub.Count())

	hub.Broadcast(model.EventNewComment, model.CommentEvent{CommentID: 1})
	assert.ErrorIs(t, hub.Add(boardtest.NewObserver("b")), board.ErrHubClosed)
	assert.NoError(t, hub.Close(context.Background()))
}

func TestHub_NoObservers(t *testing.T) {
	hub := newTestHub(t)
	assert.NotPanics(t, func() {
		hub.Broadcast(model.EventNewComment, model.CommentEvent{CommentID: 1})
	})
}

type slowCloseObserver struct {
	id    string
	delay time.Duration
}

func (o *slowCloseObserver) ID() string { return o.id }

func (o *slowCloseObserver) Deliver(context.Context, model.Event) error { return nil }

func (o *slowCloseObserver) Close() error {
	time.Sleep(o.delay)
	return nil
}

func TestHub_CloseBoundedByContext(t *testing.T) {
	hub := newTestHub(t)
	for i := 0; i < 4; i++ {
		require.NoError(t, hub.Add(&slowCloseObserver{id: fmt.Sprintf("slow-%d", i), delay: 500 * time.Millisecond}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := hub.Close(ctx)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, elapsed, 400*time.Millisecond)
	assert.Equal(t, 0, hub.Count())
}

func TestHub_CloseStopsObserversConcurrently(t *testing.T) {
	hub := newTestHub(t)
	for i := 0; i < 4; i++ {
		require.NoError(t, hub.Add(&slowCloseObserver{id: fmt.Sprintf("slow-%d", i), delay: 200 * time.Millisecond}))
	}

	start := time.Now()
	require.NoError(t, hub.Close(context.Background()))
	assert.Less(t, time.Since(start), 700*time.Millisecond)
}
