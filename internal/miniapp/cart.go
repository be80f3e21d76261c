package miniapp

import (
	"context"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"miniapp-shop/internal/locale"
	"miniapp-shop/internal/shopclient"
)

// Quiescence is how long a line must stay untouched before its quantity is sent.
const Quiescence = 500 * time.Millisecond

const defaultSendTimeout = 15 * time.Second

// CartAPI is the subset of the shop HTTP surface the cart page calls.
type CartAPI interface {
	UpdateQuantity(ctx context.Context, lineID int64, qty int) error
	DeleteLine(ctx context.Context, lineID int64) (int, error)
}

// CartView projects the cart state onto the page.
type CartView interface {
	Render(lines []Line, s Summary)
}

type Page interface {
	Reload()
}

// Line is the view-model of one cart row.
type Line struct {
	ID          int64
	ProductID   int64
	Name        string
	Price       int64
	Quantity    int
	Selected    bool
	Unavailable bool
}

type lineState struct {
	Line
	confirmed int
	removed   bool
	send      sync.Mutex
}

// Cart owns the cart page state: optimistic quantities, selection and the
// debounced update calls that reconcile them with the server.
type Cart struct {
	api        CartAPI
	lock       *RequestLock
	toaster    *Toaster
	debounce   *Debouncer
	view       CartView
	page       Page
	badge      *Badge
	logger     *zap.Logger
	quiescence time.Duration
	timeout    time.Duration
	lang       string

	mu     sync.Mutex
	idle   *sync.Cond
	active int
	lines  []*lineState
	index  map[int64]*lineState
}

type CartOption func(*Cart)

func WithScheduler(s Scheduler) CartOption {
	return func(c *Cart) { c.debounce = NewDebouncer(s) }
}

func WithQuiescence(d time.Duration) CartOption {
	return func(c *Cart) { c.quiescence = d }
}

func WithCartView(v CartView) CartOption {
	return func(c *Cart) { c.view = v }
}

func WithPage(p Page) CartOption {
	return func(c *Cart) { c.page = p }
}

func WithBadge(b *Badge) CartOption {
	return func(c *Cart) { c.badge = b }
}

func WithLogger(l *zap.Logger) CartOption {
	return func(c *Cart) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithSendTimeout(d time.Duration) CartOption {
	return func(c *Cart) { c.timeout = d }
}

// WithLanguage sets the language of the total and checkout label.
func WithLanguage(lang string) CartOption {
	return func(c *Cart) { c.lang = locale.Normalize(lang) }
}

func NewCart(api CartAPI, lock *RequestLock, toaster *Toaster, lines []Line, opts ...CartOption) *Cart {
	c := &Cart{
		api:        api,
		lock:       lock,
		toaster:    toaster,
		logger:     zap.NewNop(),
		quiescence: Quiescence,
		timeout:    defaultSendTimeout,
		lang:       locale.Default,
		index:      make(map[int64]*lineState, len(lines)),
	}
	c.idle = sync.NewCond(&c.mu)
	for _, opt := range opts {
		opt(c)
	}
	if c.debounce == nil {
		c.debounce = NewDebouncer(SystemScheduler)
	}
	for _, l := range lines {
		if l.Unavailable {
			l.Selected = false
		}
		ls := &lineState{Line: l, confirmed: l.Quantity}
		c.lines = append(c.lines, ls)
		c.index[l.ID] = ls
	}
	return c
}

// LinesFromSnapshot builds the view-model from GET /shop/api/cart. Available
// lines start selected.
func LinesFromSnapshot(snap shopclient.CartSnapshot) []Line {
	lines := make([]Line, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		lines = append(lines, Line{
			ID:          l.ID,
			ProductID:   l.ProductID,
			Name:        l.Name,
			Price:       l.Price,
			Quantity:    l.Quantity,
			Selected:    !l.Unavailable,
			Unavailable: l.Unavailable,
		})
	}
	return lines
}

// ChangeQuantity applies delta optimistically and schedules the update call.
// It returns false, changing nothing, when the line is unknown or the result
// would drop below one.
func (c *Cart) ChangeQuantity(id int64, delta int) bool {
	c.mu.Lock()
	ls, ok := c.index[id]
	if !ok {
		c.mu.Unlock()
		return false
	}
	qty := ls.Quantity + delta
	if qty < 1 {
		c.mu.Unlock()
		return false
	}
	ls.Quantity = qty
	_, replaced := c.debounce.Schedule(id, c.quiescence, func(gen uint64) {
		c.send(id, qty, gen)
	})
	if !replaced {
		c.active++
	}
	c.mu.Unlock()

	c.render()
	return true
}

func (c *Cart) send(id int64, qty int, gen uint64) {
	defer c.settle()

	c.mu.Lock()
	ls, ok := c.index[id]
	c.mu.Unlock()
	if !ok {
		c.debounce.Done(id, gen)
		return
	}

	ls.send.Lock()
	defer ls.send.Unlock()

	// The line may have been removed while we waited for its mutex.
	c.mu.Lock()
	removed := ls.removed
	c.mu.Unlock()
	if removed {
		c.debounce.Done(id, gen)
		c.logger.Debug("quantity update dropped for removed line", zap.Int64("line_id", id), zap.Int("qty", qty))
		return
	}

	// A newer quantity for this line fired while we waited; it carries the final value.
	if !c.debounce.Current(id, gen) {
		c.logger.Debug("quantity update superseded", zap.Int64("line_id", id), zap.Int("qty", qty))
		return
	}

	c.lock.Acquire()
	c.render()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	err := c.api.UpdateQuantity(ctx, id, qty)
	cancel()
	c.lock.Release()

	c.mu.Lock()
	latest := c.debounce.Done(id, gen)
	switch {
	case err == nil:
		ls.confirmed = qty
	case latest:
		ls.Quantity = ls.confirmed
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Debug("quantity update failed",
			zap.Int64("line_id", id), zap.Int("qty", qty), zap.Bool("rolled_back", latest), zap.Error(err))
		c.toaster.Error(userMessage(err, msgUpdateFailed))
	} else {
		c.logger.Debug("quantity update confirmed", zap.Int64("line_id", id), zap.Int("qty", qty))
	}
	c.render()
}

func (c *Cart) settle() {
	c.mu.Lock()
	c.active--
	if c.active <= 0 {
		c.active = 0
		c.idle.Broadcast()
	}
	c.mu.Unlock()
}

func (c *Cart) SetSelected(id int64, selected bool) bool {
	c.mu.Lock()
	ls, ok := c.index[id]
	if ok {
		ls.Selected = selected && !ls.Unavailable
	}
	c.mu.Unlock()
	if ok {
		c.render()
	}
	return ok
}

func (c *Cart) SelectAll(selected bool) {
	c.mu.Lock()
	for _, ls := range c.lines {
		ls.Selected = selected && !ls.Unavailable
	}
	c.mu.Unlock()
	c.render()
}

// Remove deletes a line on the server. The line stays on screen until the
// call succeeds; removing the last line reloads the page.
func (c *Cart) Remove(ctx context.Context, id int64) error {
	c.mu.Lock()
	ls, ok := c.index[id]
	if !ok {
		c.mu.Unlock()
		return ErrUnknownLine
	}
	if c.debounce.Cancel(id) {
		c.active--
		if c.active <= 0 {
			c.active = 0
			c.idle.Broadcast()
		}
	}
	c.mu.Unlock()

	ls.send.Lock()
	defer ls.send.Unlock()

	c.lock.Acquire()
	c.render()
	count, err := c.api.DeleteLine(ctx, id)
	c.lock.Release()

	if err != nil {
		c.mu.Lock()
		ls.Quantity = ls.confirmed
		c.mu.Unlock()
		c.toaster.Error(userMessage(err, msgRemoveFailed))
		c.render()
		return err
	}

	c.mu.Lock()
	ls.removed = true
	delete(c.index, id)
	for i, l := range c.lines {
		if l.ID == id {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			break
		}
	}
	last := len(c.lines) == 0
	c.mu.Unlock()

	if c.badge != nil {
		c.badge.Set(count)
	}
	c.render()
	if last && c.page != nil {
		c.page.Reload()
	}
	return nil
}

// Lines returns a copy of the view-model in display order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Cart) Line(id int64) (Line, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ls, ok := c.index[id]
	if !ok {
		return Line{}, false
	}
	return ls.Line, true
}

func (c *Cart) Summary() Summary {
	c.mu.Lock()
	lines := c.snapshot()
	c.mu.Unlock()
	return Summarize(c.lang, lines, c.lock.Locked())
}

// CheckoutURL returns the checkout address for the selected lines, or false
// while checkout is not allowed.
func (c *Cart) CheckoutURL() (string, bool) {
	c.mu.Lock()
	lines := c.snapshot()
	c.mu.Unlock()
	if !Summarize(c.lang, lines, c.lock.Locked()).Checkout.Enabled {
		return "", false
	}
	q := url.Values{}
	for _, l := range lines {
		if l.Selected {
			q.Add("items", strconv.FormatInt(l.ID, 10))
		}
	}
	return "/shop/checkout?" + q.Encode(), true
}

// Flush sends every pending update immediately and waits for all calls to settle.
func (c *Cart) Flush() {
	c.debounce.Flush()
	c.Wait()
}

// Wait blocks until no update is pending or in flight.
func (c *Cart) Wait() {
	c.mu.Lock()
	for c.active > 0 {
		c.idle.Wait()
	}
	c.mu.Unlock()
}

func (c *Cart) snapshot() []Line {
	out := make([]Line, len(c.lines))
	for i, ls := range c.lines {
		out[i] = ls.Line
	}
	return out
}

func (c *Cart) render() {
	if c.view == nil {
		return
	}
	c.mu.Lock()
	lines := c.snapshot()
	c.mu.Unlock()
	c.view.Render(lines, Summarize(c.lang, lines, c.lock.Locked()))
}
