package handle_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pierremrtn/chassis/core/asyncstate"
	"github.com/pierremrtn/chassis/core/handle"
	"github.com/pierremrtn/chassis/core/mediator"
	"github.com/pierremrtn/chassis/pkg/dispose"
)

type GetProfile struct {
	UserID string
}

type WatchOrders struct {
	Account string
}

type readResult struct {
	value string
	err   error
}

// gatedReadMediator registers a read handler whose completions the test
// releases one by one, in any order it likes.
func gatedReadMediator(t *testing.T) (*mediator.Mediator, chan chan readResult) {
	t.Helper()

	calls := make(chan chan readResult, 8)
	m := mediator.New()
	mediator.RegisterRead(m, mediator.ReadFunc[GetProfile, string](
		func(ctx context.Context, q GetProfile) (string, error) {
			release := make(chan readResult)
			calls <- release
			res := <-release
			return res.value, res.err
		},
	))
	return m, calls
}

func nextCall(t *testing.T, calls chan chan readResult) chan readResult {
	t.Helper()

	select {
	case release := <-calls:
		return release
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for read dispatch")
		return nil
	}
}

func collectStates[T any](h *handle.Handle[T]) (<-chan asyncstate.AsyncState[T], func()) {
	states := make(chan asyncstate.AsyncState[T], 32)
	remove := h.Listen(func(s asyncstate.AsyncState[T]) {
		states <- s
	})
	return states, remove
}

func awaitState[T any](t *testing.T, states <-chan asyncstate.AsyncState[T]) asyncstate.AsyncState[T] {
	t.Helper()

	select {
	case s := <-states:
		return s
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for state transition")
		panic("unreachable")
	}
}

func TestReadHandle(t *testing.T) {
	t.Parallel()

	t.Run("initial state is loading without value", func(t *testing.T) {
		t.Parallel()

		m, calls := gatedReadMediator(t)
		h := handle.NewRead[string](context.Background(), m, GetProfile{UserID: "u1"})
		defer h.Dispose()

		s := h.State()
		assert.True(t, s.IsLoading())
		assert.False(t, s.HasValue())

		nextCall(t, calls) <- readResult{value: "alice"}
	})

	t.Run("read completion transitions to data", func(t *testing.T) {
		t.Parallel()

		m, calls := gatedReadMediator(t)
		h := handle.NewRead[string](context.Background(), m, GetProfile{UserID: "u1"})
		defer h.Dispose()

		states, remove := collectStates(h)
		defer remove()

		nextCall(t, calls) <- readResult{value: "alice"}

		s := awaitState(t, states)
		assert.Equal(t, asyncstate.StatusData, s.Status())
		assert.Equal(t, "alice", s.MustValue())
	})

	t.Run("read failure becomes error state, not a throw", func(t *testing.T) {
		t.Parallel()

		m, calls := gatedReadMediator(t)
		h := handle.NewRead[string](context.Background(), m, GetProfile{UserID: "u1"})
		defer h.Dispose()

		states, remove := collectStates(h)
		defer remove()

		boom := errors.New("backend down")
		nextCall(t, calls) <- readResult{err: boom}

		s := awaitState(t, states)
		assert.True(t, s.HasError())
		assert.ErrorIs(t, s.Err(), boom)
		assert.False(t, s.HasValue())
	})

	t.Run("refresh preserves previous value while loading", func(t *testing.T) {
		t.Parallel()

		m, calls := gatedReadMediator(t)
		h := handle.NewRead[string](context.Background(), m, GetProfile{UserID: "u1"})
		defer h.Dispose()

		states, remove := collectStates(h)
		defer remove()

		nextCall(t, calls) <- readResult{value: "alice"}
		awaitState(t, states) // Data(alice)

		h.Refresh()
		s := awaitState(t, states)
		assert.True(t, s.IsLoading())
		assert.Equal(t, "alice", s.MustValue())

		nextCall(t, calls) <- readResult{err: errors.New("flaky")}
		s = awaitState(t, states)
		assert.True(t, s.HasError())
		assert.Equal(t, "alice", s.MustValue(), "error state keeps last good value")
	})

	t.Run("stale completion from superseded refresh is discarded", func(t *testing.T) {
		t.Parallel()

		m, calls := gatedReadMediator(t)
		h := handle.NewRead[string](context.Background(), m, GetProfile{UserID: "u1"})
		defer h.Dispose()

		first := nextCall(t, calls)

		states, remove := collectStates(h)
		defer remove()

		h.Refresh()
		awaitState(t, states) // Loading from refresh
		second := nextCall(t, calls)

		// The newer dispatch completes first.
		second <- readResult{value: "newer"}
		s := awaitState(t, states)
		assert.Equal(t, "newer", s.MustValue())

		// The older dispatch completes late; its result must vanish.
		first <- readResult{value: "older"}
		select {
		case s := <-states:
			t.Fatalf("unexpected notification for stale result: %v", s)
		case <-time.After(100 * time.Millisecond):
		}
		assert.Equal(t, "newer", h.State().MustValue())
	})
}

func TestWatchHandle(t *testing.T) {
	t.Parallel()

	// Each subscribe hands out a fresh emission channel, the way a real
	// handler opens a new subscription per Watch call.
	newWatchMediator := func(buf int) (*mediator.Mediator, chan chan mediator.Emission[string]) {
		subs := make(chan chan mediator.Emission[string], 4)
		m := mediator.New()
		mediator.RegisterWatch(m, mediator.WatchFunc[WatchOrders, string](
			func(ctx context.Context, q WatchOrders) (<-chan mediator.Emission[string], error) {
				src := make(chan mediator.Emission[string], buf)
				subs <- src
				return src, nil
			},
		))
		return m, subs
	}

	nextSub := func(t *testing.T, subs chan chan mediator.Emission[string]) chan mediator.Emission[string] {
		t.Helper()
		select {
		case src := <-subs:
			return src
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for watch subscription")
			return nil
		}
	}

	t.Run("emission sequence maps to state sequence", func(t *testing.T) {
		t.Parallel()

		m, subs := newWatchMediator(0)
		h := handle.NewWatch[string](context.Background(), m, WatchOrders{Account: "a"})
		defer h.Dispose()

		require.True(t, h.State().IsLoading())
		require.False(t, h.State().HasValue())

		src := nextSub(t, subs)
		states, remove := collectStates(h)
		defer remove()

		boom := errors.New("tick failed")
		src <- mediator.Emission[string]{Value: "A"}
		src <- mediator.Emission[string]{Err: boom}
		src <- mediator.Emission[string]{Value: "C"}

		s := awaitState(t, states)
		assert.Equal(t, "A", s.MustValue())

		s = awaitState(t, states)
		assert.True(t, s.HasError())
		assert.ErrorIs(t, s.Err(), boom)
		assert.Equal(t, "A", s.MustValue(), "failed emission keeps previous value")

		s = awaitState(t, states)
		assert.Equal(t, asyncstate.StatusData, s.Status())
		assert.Equal(t, "C", s.MustValue())
	})

	t.Run("failed emission does not end the subscription", func(t *testing.T) {
		t.Parallel()

		m, subs := newWatchMediator(0)
		h := handle.NewWatch[string](context.Background(), m, WatchOrders{})
		defer h.Dispose()

		src := nextSub(t, subs)
		states, remove := collectStates(h)
		defer remove()

		src <- mediator.Emission[string]{Err: errors.New("hiccup")}
		awaitState(t, states)

		src <- mediator.Emission[string]{Value: "recovered"}
		s := awaitState(t, states)
		assert.Equal(t, "recovered", s.MustValue())
	})

	t.Run("subscription failure surfaces as error state", func(t *testing.T) {
		t.Parallel()

		m := mediator.New()
		boom := errors.New("no stream")
		mediator.RegisterWatch(m, mediator.WatchFunc[WatchOrders, string](
			func(ctx context.Context, q WatchOrders) (<-chan mediator.Emission[string], error) {
				return nil, boom
			},
		))

		h := handle.NewWatch[string](context.Background(), m, WatchOrders{})
		defer h.Dispose()

		require.Eventually(t, func() bool {
			return h.State().HasError()
		}, time.Second, 5*time.Millisecond)
		assert.ErrorIs(t, h.State().Err(), boom)
	})

	t.Run("refresh resubscribes", func(t *testing.T) {
		t.Parallel()

		m, subs := newWatchMediator(4)
		h := handle.NewWatch[string](context.Background(), m, WatchOrders{})
		defer h.Dispose()

		first := nextSub(t, subs)
		states, remove := collectStates(h)
		defer remove()

		first <- mediator.Emission[string]{Value: "before"}
		awaitState(t, states)

		h.Refresh()
		s := awaitState(t, states)
		assert.True(t, s.IsLoading())
		assert.Equal(t, "before", s.MustValue())

		second := nextSub(t, subs)
		second <- mediator.Emission[string]{Value: "after"}
		s = awaitState(t, states)
		assert.Equal(t, "after", s.MustValue())

		// A late emission on the abandoned subscription changes nothing.
		first <- mediator.Emission[string]{Value: "ghost"}
		select {
		case s := <-states:
			t.Fatalf("stale subscription notified: %v", s)
		case <-time.After(100 * time.Millisecond):
		}
		assert.Equal(t, "after", h.State().MustValue())
	})
}

func TestReadWatchHandle(t *testing.T) {
	t.Parallel()

	t.Run("initial read then live updates", func(t *testing.T) {
		t.Parallel()

		src := make(chan mediator.Emission[string], 4)
		calls := make(chan chan readResult, 4)
		m := mediator.New()
		mediator.RegisterReadWatch(m, mediator.ReadWatchFunc[WatchOrders, string]{
			ReadFn: func(ctx context.Context, q WatchOrders) (string, error) {
				release := make(chan readResult)
				calls <- release
				res := <-release
				return res.value, res.err
			},
			WatchFn: func(ctx context.Context, q WatchOrders) (<-chan mediator.Emission[string], error) {
				return src, nil
			},
		})

		h := handle.NewReadWatch[string](context.Background(), m, WatchOrders{})
		defer h.Dispose()

		states, remove := collectStates(h)
		defer remove()

		nextCall(t, calls) <- readResult{value: "snapshot"}
		s := awaitState(t, states)
		assert.Equal(t, "snapshot", s.MustValue())

		src <- mediator.Emission[string]{Value: "update-1"}
		s = awaitState(t, states)
		assert.Equal(t, "update-1", s.MustValue())
	})

	t.Run("watch emission supersedes in-flight read", func(t *testing.T) {
		t.Parallel()

		src := make(chan mediator.Emission[string], 4)
		calls := make(chan chan readResult, 4)
		m := mediator.New()
		mediator.RegisterReadWatch(m, mediator.ReadWatchFunc[WatchOrders, string]{
			ReadFn: func(ctx context.Context, q WatchOrders) (string, error) {
				release := make(chan readResult)
				calls <- release
				res := <-release
				return res.value, res.err
			},
			WatchFn: func(ctx context.Context, q WatchOrders) (<-chan mediator.Emission[string], error) {
				return src, nil
			},
		})

		h := handle.NewReadWatch[string](context.Background(), m, WatchOrders{})
		defer h.Dispose()

		slowRead := nextCall(t, calls)

		states, remove := collectStates(h)
		defer remove()

		src <- mediator.Emission[string]{Value: "live"}
		s := awaitState(t, states)
		assert.Equal(t, "live", s.MustValue())

		// The slow initial read finishes after live data arrived.
		slowRead <- readResult{value: "stale snapshot"}
		select {
		case s := <-states:
			t.Fatalf("stale read should not notify: %v", s)
		case <-time.After(100 * time.Millisecond):
		}
		assert.Equal(t, "live", h.State().MustValue())
	})
}

func TestDispose(t *testing.T) {
	t.Parallel()

	t.Run("pending read completing after dispose is dropped", func(t *testing.T) {
		t.Parallel()

		m, calls := gatedReadMediator(t)
		h := handle.NewRead[string](context.Background(), m, GetProfile{})

		pending := nextCall(t, calls)

		states, remove := collectStates(h)
		defer remove()

		h.Dispose()
		require.True(t, h.Disposed())

		pending <- readResult{value: "too late"}
		select {
		case s := <-states:
			t.Fatalf("notification after dispose: %v", s)
		case <-time.After(100 * time.Millisecond):
		}
		assert.False(t, h.State().HasValue())
	})

	t.Run("subscription is canceled on dispose", func(t *testing.T) {
		t.Parallel()

		unsubscribed := make(chan struct{})
		m := mediator.New()
		mediator.RegisterWatch(m, mediator.WatchFunc[WatchOrders, string](
			func(ctx context.Context, q WatchOrders) (<-chan mediator.Emission[string], error) {
				src := make(chan mediator.Emission[string])
				go func() {
					<-ctx.Done()
					close(unsubscribed)
				}()
				return src, nil
			},
		))

		h := handle.NewWatch[string](context.Background(), m, WatchOrders{})
		h.Dispose()

		select {
		case <-unsubscribed:
		case <-time.After(time.Second):
			t.Fatal("watch context not canceled on dispose")
		}
	})

	t.Run("dispose twice is a no-op", func(t *testing.T) {
		t.Parallel()

		m, calls := gatedReadMediator(t)
		h := handle.NewRead[string](context.Background(), m, GetProfile{})

		nextCall(t, calls) <- readResult{value: "v"}

		assert.NotPanics(t, func() {
			h.Dispose()
			h.Dispose()
		})
		assert.True(t, h.Disposed())
	})

	t.Run("refresh on a disposed handle is a no-op", func(t *testing.T) {
		t.Parallel()

		m, calls := gatedReadMediator(t)
		h := handle.NewRead[string](context.Background(), m, GetProfile{})
		nextCall(t, calls) <- readResult{value: "v"}
		h.Dispose()

		h.Refresh()

		select {
		case <-calls:
			t.Fatal("refresh after dispose dispatched a read")
		case <-time.After(100 * time.Millisecond):
		}
	})

	t.Run("listen after dispose returns inert remover", func(t *testing.T) {
		t.Parallel()

		m, calls := gatedReadMediator(t)
		h := handle.NewRead[string](context.Background(), m, GetProfile{})
		nextCall(t, calls) <- readResult{value: "v"}
		h.Dispose()

		remove := h.Listen(func(asyncstate.AsyncState[string]) {
			t.Error("listener registered on disposed handle was notified")
		})
		assert.NotPanics(t, remove)
	})

	t.Run("handles cascade from a dispose bag", func(t *testing.T) {
		t.Parallel()

		m, calls := gatedReadMediator(t)
		h1 := handle.NewRead[string](context.Background(), m, GetProfile{UserID: "1"})
		h2 := handle.NewRead[string](context.Background(), m, GetProfile{UserID: "2"})
		nextCall(t, calls) <- readResult{value: "a"}
		nextCall(t, calls) <- readResult{value: "b"}

		var bag dispose.Bag
		bag.Add(h1)
		bag.Add(h2)
		bag.Dispose()

		assert.True(t, h1.Disposed())
		assert.True(t, h2.Disposed())
	})
}

func TestListen(t *testing.T) {
	t.Parallel()

	t.Run("removed listener stops receiving", func(t *testing.T) {
		t.Parallel()

		m, calls := gatedReadMediator(t)
		h := handle.NewRead[string](context.Background(), m, GetProfile{})
		defer h.Dispose()

		var mu sync.Mutex
		notified := 0
		remove := h.Listen(func(asyncstate.AsyncState[string]) {
			mu.Lock()
			notified++
			mu.Unlock()
		})
		count := func() int {
			mu.Lock()
			defer mu.Unlock()
			return notified
		}

		nextCall(t, calls) <- readResult{value: "first"}
		require.Eventually(t, func() bool { return count() == 1 }, time.Second, 5*time.Millisecond)

		remove()
		h.Refresh()
		nextCall(t, calls) <- readResult{value: "second"}

		require.Eventually(t, func() bool {
			return h.State().HasValue() && h.State().MustValue() == "second"
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, 1, count())
	})

	t.Run("multiple listeners notified in registration order", func(t *testing.T) {
		t.Parallel()

		m, calls := gatedReadMediator(t)
		h := handle.NewRead[string](context.Background(), m, GetProfile{})
		defer h.Dispose()

		var mu sync.Mutex
		var order []string
		record := func(tag string) func(asyncstate.AsyncState[string]) {
			return func(asyncstate.AsyncState[string]) {
				mu.Lock()
				order = append(order, tag)
				mu.Unlock()
			}
		}
		h.Listen(record("first"))
		h.Listen(record("second"))

		nextCall(t, calls) <- readResult{value: "v"}

		require.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(order) == 2
		}, time.Second, 5*time.Millisecond)

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []string{"first", "second"}, order)
	})
}
