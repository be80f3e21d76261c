package miniapp

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"miniapp-shop/internal/shopclient"
)

type cartFixture struct {
	sched  *fakeScheduler
	lock   *RequestLock
	api    *fakeCartAPI
	toasts *recordingToastView
	view   *recordingCartView
	page   *countingPage
	cart   *Cart
}

func newCartFixture(t *testing.T, lines ...Line) *cartFixture {
	t.Helper()
	f := &cartFixture{
		sched:  &fakeScheduler{},
		lock:   &RequestLock{},
		toasts: &recordingToastView{},
		view:   &recordingCartView{},
		page:   &countingPage{},
	}
	f.api = &fakeCartAPI{lock: f.lock}
	toaster := NewToaster(f.toasts, &recordingHaptics{}, f.sched)
	f.cart = NewCart(f.api, f.lock, toaster, lines,
		WithScheduler(f.sched),
		WithCartView(f.view),
		WithPage(f.page),
	)
	return f
}

func quantityOf(t *testing.T, c *Cart, id int64) int {
	t.Helper()
	l, ok := c.Line(id)
	require.True(t, ok)
	return l.Quantity
}

func TestBurstSendsOnlyFinalQuantity(t *testing.T) {
	f := newCartFixture(t, Line{ID: 1, Price: 100, Quantity: 1, Selected: true})

	for i := 0; i < 5; i++ {
		require.True(t, f.cart.ChangeQuantity(1, +1))
		f.sched.Advance(100 * time.Millisecond)
	}
	require.Empty(t, f.api.Calls())
	require.Equal(t, 6, quantityOf(t, f.cart, 1))

	f.sched.Advance(Quiescence)
	f.cart.Wait()
	require.Equal(t, []updateCall{{lineID: 1, qty: 6}}, f.api.Calls())
	require.True(t, f.api.lockHeld, "update must run under the request lock")
	require.Equal(t, 0, f.lock.Count())
}

func TestMixedDeltasSendNetResult(t *testing.T) {
	f := newCartFixture(t, Line{ID: 1, Price: 100, Quantity: 3, Selected: true})

	f.cart.ChangeQuantity(1, +1)
	f.cart.ChangeQuantity(1, -1)
	f.cart.ChangeQuantity(1, -1)
	f.sched.Advance(Quiescence)
	f.cart.Wait()

	require.Equal(t, []updateCall{{lineID: 1, qty: 2}}, f.api.Calls())
}

func TestDecrementBelowOneIsNoop(t *testing.T) {
	f := newCartFixture(t, Line{ID: 1, Price: 500, Quantity: 1, Selected: true})
	before := f.cart.Summary()

	require.False(t, f.cart.ChangeQuantity(1, -1))
	require.Equal(t, 1, quantityOf(t, f.cart, 1))
	require.Equal(t, before, f.cart.Summary())
	require.Zero(t, f.sched.Active())
	require.False(t, f.cart.ChangeQuantity(99, +1))
}

func TestSummaryScenario(t *testing.T) {
	f := newCartFixture(t,
		Line{ID: 1, Price: 500, Quantity: 2, Selected: true},
		Line{ID: 2, Price: 300, Quantity: 1, Selected: false},
	)
	s := f.cart.Summary()
	require.EqualValues(t, 1000, s.Total)
	require.Equal(t, 1, s.SelectedCount)
	require.True(t, s.Checkout.Enabled)
	require.Equal(t, "Оформить (1)", s.Checkout.Label)
	require.Contains(t, s.TotalText, "сум")
	require.Equal(t, "1000", digits(s.TotalText))
}

func TestSummaryInUzbek(t *testing.T) {
	lines := []Line{{ID: 1, Price: 500, Quantity: 2, Selected: true}}
	s := Summarize("uz", lines, false)
	require.Equal(t, "Rasmiylashtirish (1)", s.Checkout.Label)
	require.Contains(t, s.TotalText, "so'm")
	require.Equal(t, "Mahsulotlarni tanlang", Summarize("uz", nil, false).Checkout.Label)
	require.Equal(t, "Yangilanmoqda…", Summarize("uz", lines, true).Checkout.Label)

	c := NewCart(&fakeCartAPI{}, &RequestLock{}, NewToaster(&recordingToastView{}, nil, &fakeScheduler{}), lines,
		WithScheduler(&fakeScheduler{}), WithLanguage("uz"))
	require.Equal(t, "Rasmiylashtirish (1)", c.Summary().Checkout.Label)
}

func TestCheckoutEnabledOnlyWhenSelectedAndUnlocked(t *testing.T) {
	lines := []Line{{ID: 1, Price: 10, Quantity: 1, Selected: true}}
	for _, tc := range []struct {
		selected bool
		locked   bool
		want     bool
	}{
		{selected: true, locked: false, want: true},
		{selected: true, locked: true, want: false},
		{selected: false, locked: false, want: false},
		{selected: false, locked: true, want: false},
	} {
		ls := append([]Line(nil), lines...)
		ls[0].Selected = tc.selected
		s := Summarize("ru", ls, tc.locked)
		require.Equal(t, tc.want, s.Checkout.Enabled, "selected=%v locked=%v", tc.selected, tc.locked)
		require.Equal(t, tc.locked, s.Checkout.Updating)
	}
	require.Equal(t, "Выберите товары", Summarize("ru", nil, false).Checkout.Label)
	require.Equal(t, "Обновление…", Summarize("ru", lines, true).Checkout.Label)
}

func TestFailedUpdateRollsBack(t *testing.T) {
	f := newCartFixture(t, Line{ID: 1, Price: 100, Quantity: 2, Selected: true})
	f.api.updateErr = func(int64, int) error {
		return &shopclient.ServerError{Status: http.StatusBadRequest, Message: "Not enough stock"}
	}

	require.True(t, f.cart.ChangeQuantity(1, +1))
	require.Equal(t, 3, quantityOf(t, f.cart, 1))
	require.EqualValues(t, 300, f.cart.Summary().Total)

	f.sched.Advance(Quiescence)
	f.cart.Wait()

	require.Equal(t, 2, quantityOf(t, f.cart, 1))
	require.EqualValues(t, 200, f.cart.Summary().Total)
	require.Equal(t, 0, f.lock.Count())
	toasts := f.toasts.Presented()
	require.Len(t, toasts, 1)
	require.Equal(t, SeverityError, toasts[0].Severity)
	require.Equal(t, "Not enough stock", toasts[0].Message)

	_, summary := f.view.Last()
	require.True(t, summary.Checkout.Enabled)
}

func TestNetworkFailureUsesGenericMessage(t *testing.T) {
	f := newCartFixture(t, Line{ID: 1, Price: 100, Quantity: 2, Selected: true})
	f.api.updateErr = func(int64, int) error {
		return &shopclient.NetworkError{Op: "update quantity", Err: errors.New("connection refused")}
	}
	f.cart.ChangeQuantity(1, +1)
	f.sched.Advance(Quiescence)
	f.cart.Wait()

	toasts := f.toasts.Presented()
	require.Len(t, toasts, 1)
	require.Equal(t, msgNetwork, toasts[0].Message)
}

func TestRollbackSkippedWhenNewerChangePending(t *testing.T) {
	f := newCartFixture(t, Line{ID: 1, Price: 100, Quantity: 2, Selected: true})
	f.api.entered = make(chan updateCall)
	f.api.release = make(chan error)

	f.cart.ChangeQuantity(1, +1)
	go f.sched.Advance(Quiescence)

	first := <-f.api.entered
	require.Equal(t, 3, first.qty)
	require.True(t, f.lock.Locked())
	require.False(t, f.cart.Summary().Checkout.Enabled)

	f.cart.ChangeQuantity(1, +1)
	f.api.release <- errors.New("boom")

	require.Eventually(t, func() bool { return !f.lock.Locked() }, time.Second, time.Millisecond)
	require.Equal(t, 4, quantityOf(t, f.cart, 1), "newer pending change must not be rolled back")

	go f.sched.Advance(Quiescence)
	second := <-f.api.entered
	require.Equal(t, 4, second.qty)
	f.api.release <- nil
	f.cart.Wait()

	require.Equal(t, 4, quantityOf(t, f.cart, 1))
	require.Equal(t, 0, f.lock.Count())
}

func TestRemoveLastLineReloads(t *testing.T) {
	f := newCartFixture(t, Line{ID: 1, Price: 100, Quantity: 2, Selected: true})

	require.NoError(t, f.cart.Remove(context.Background(), 1))
	require.Empty(t, f.cart.Lines())
	require.EqualValues(t, 1, f.page.reloads.Load())
	require.True(t, f.api.lockHeld)
	require.Equal(t, 0, f.lock.Count())
}

func TestRemoveKeepsPageWhenLinesRemain(t *testing.T) {
	f := newCartFixture(t,
		Line{ID: 1, Price: 100, Quantity: 2, Selected: true},
		Line{ID: 2, Price: 50, Quantity: 1, Selected: true},
	)
	f.cart.ChangeQuantity(1, +1)

	require.NoError(t, f.cart.Remove(context.Background(), 1))
	require.Zero(t, f.page.reloads.Load())
	require.Len(t, f.cart.Lines(), 1)

	f.sched.Advance(Quiescence)
	f.cart.Wait()
	require.Empty(t, f.api.Calls(), "pending update of a removed line must not be sent")
	require.EqualValues(t, 50, f.cart.Summary().Total)
}

func TestUpdateFiredDuringRemoveIsDropped(t *testing.T) {
	f := newCartFixture(t,
		Line{ID: 1, Price: 100, Quantity: 2, Selected: true},
		Line{ID: 2, Price: 50, Quantity: 1, Selected: true},
	)
	f.api.deleteEntered = make(chan struct{})
	f.api.deleteRelease = make(chan struct{})

	removed := make(chan error)
	go func() { removed <- f.cart.Remove(context.Background(), 1) }()
	<-f.api.deleteEntered

	// The line is still on screen while the delete is in flight, so a tap schedules an update.
	require.True(t, f.cart.ChangeQuantity(1, +1))
	advanced := make(chan struct{})
	go func() {
		f.sched.Advance(Quiescence)
		close(advanced)
	}()
	time.Sleep(20 * time.Millisecond)

	close(f.api.deleteRelease)
	require.NoError(t, <-removed)
	<-advanced
	f.cart.Wait()

	require.Empty(t, f.api.Calls(), "update for a removed line must not be sent")
	require.Empty(t, f.toasts.Presented())
	_, ok := f.cart.Line(1)
	require.False(t, ok)
	require.Equal(t, 0, f.lock.Count())
}

func TestRemoveFailureKeepsLine(t *testing.T) {
	f := newCartFixture(t, Line{ID: 1, Price: 100, Quantity: 2, Selected: true})
	f.api.deleteErr = &shopclient.ServerError{Status: http.StatusInternalServerError, Message: "Internal error"}

	require.Error(t, f.cart.Remove(context.Background(), 1))
	require.Len(t, f.cart.Lines(), 1)
	require.Zero(t, f.page.reloads.Load())
	require.Equal(t, msgRemoveFailed, f.toasts.Presented()[0].Message)

	require.ErrorIs(t, f.cart.Remove(context.Background(), 42), ErrUnknownLine)
}

func TestSelectionAndCheckoutURL(t *testing.T) {
	f := newCartFixture(t,
		Line{ID: 1, Price: 100, Quantity: 1, Selected: true},
		Line{ID: 2, Price: 100, Quantity: 1, Selected: true},
		Line{ID: 3, Price: 100, Quantity: 1, Selected: true, Unavailable: true},
	)
	require.Equal(t, 2, f.cart.Summary().SelectedCount, "unavailable lines are never selected")

	u, ok := f.cart.CheckoutURL()
	require.True(t, ok)
	require.Equal(t, "/shop/checkout?items=1&items=2", u)

	f.cart.SetSelected(2, false)
	u, ok = f.cart.CheckoutURL()
	require.True(t, ok)
	require.Equal(t, "/shop/checkout?items=1", u)

	f.cart.SelectAll(false)
	_, ok = f.cart.CheckoutURL()
	require.False(t, ok)

	f.cart.SelectAll(true)
	require.Equal(t, 2, f.cart.Summary().SelectedCount)

	f.lock.Acquire()
	_, ok = f.cart.CheckoutURL()
	require.False(t, ok)
	f.lock.Release()
}

func TestFlushSendsPendingImmediately(t *testing.T) {
	lock := &RequestLock{}
	api := &fakeCartAPI{lock: lock}
	toaster := NewToaster(&recordingToastView{}, nil, &fakeScheduler{})
	c := NewCart(api, lock, toaster, []Line{{ID: 1, Price: 1, Quantity: 1}, {ID: 2, Price: 1, Quantity: 1}},
		WithQuiescence(time.Hour))

	c.ChangeQuantity(1, +2)
	c.ChangeQuantity(2, +1)
	c.Flush()

	require.ElementsMatch(t, []updateCall{{lineID: 1, qty: 3}, {lineID: 2, qty: 2}}, api.Calls())
	require.Equal(t, 0, lock.Count())
}

func TestConcurrentEditsSettleToServerState(t *testing.T) {
	lock := &RequestLock{}
	var (
		mu       sync.Mutex
		inFlight = map[int64]int{}
		maxSeen  = map[int64]int{}
		server   = map[int64]int{1: 1, 2: 1, 3: 1}
	)
	api := &fakeCartAPI{lock: lock}
	api.updateErr = func(lineID int64, qty int) error {
		mu.Lock()
		inFlight[lineID]++
		if inFlight[lineID] > maxSeen[lineID] {
			maxSeen[lineID] = inFlight[lineID]
		}
		mu.Unlock()

		time.Sleep(time.Duration(rand.Intn(500)) * time.Microsecond)

		mu.Lock()
		defer mu.Unlock()
		inFlight[lineID]--
		if qty%4 == 0 {
			return errors.New("rejected")
		}
		server[lineID] = qty
		return nil
	}

	toaster := NewToaster(&recordingToastView{}, nil, SystemScheduler)
	c := NewCart(api, lock, toaster, []Line{
		{ID: 1, Price: 10, Quantity: 1, Selected: true},
		{ID: 2, Price: 20, Quantity: 1, Selected: true},
		{ID: 3, Price: 30, Quantity: 1, Selected: true},
	}, WithQuiescence(time.Millisecond))

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 40; i++ {
				delta := 1
				if rand.Intn(3) == 0 {
					delta = -1
				}
				c.ChangeQuantity(int64(rand.Intn(3)+1), delta)
				time.Sleep(time.Duration(rand.Intn(800)) * time.Microsecond)
			}
		}()
	}
	wg.Wait()
	c.Wait()

	require.Equal(t, 0, lock.Count())
	require.False(t, lock.Release())
	require.True(t, api.lockHeld)

	mu.Lock()
	defer mu.Unlock()
	for id, n := range maxSeen {
		require.LessOrEqual(t, n, 1, "line %d had concurrent updates in flight", id)
	}
	for _, l := range c.Lines() {
		require.Equal(t, server[l.ID], l.Quantity, "line %d diverged from server", l.ID)
	}
}

func TestLinesFromSnapshot(t *testing.T) {
	lines := LinesFromSnapshot(shopclient.CartSnapshot{Lines: []shopclient.CartLine{
		{ID: 1, ProductID: 5, Name: "A", Price: 100, Quantity: 2},
		{ID: 2, ProductID: 6, Name: "B", Price: 50, Quantity: 1, Unavailable: true},
	}})
	require.Len(t, lines, 2)
	require.True(t, lines[0].Selected)
	require.False(t, lines[1].Selected)
	require.True(t, lines[1].Unavailable)
}

func digits(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			out = append(out, r)
		}
	}
	return string(out)
}
