package miniapp

import "sync"

type BadgeView interface {
	Render(count int, visible bool)
}

// Badge mirrors the server-reported cart unit count. It is hidden at zero.
type Badge struct {
	view BadgeView

	mu    sync.Mutex
	count int
}

func NewBadge(view BadgeView, initial int) *Badge {
	b := &Badge{view: view}
	b.Set(initial)
	return b
}

func (b *Badge) Set(count int) {
	if count < 0 {
		count = 0
	}
	b.mu.Lock()
	b.count = count
	b.mu.Unlock()
	b.render(count)
}

// Add shifts the count by delta and returns the new value.
func (b *Badge) Add(delta int) int {
	b.mu.Lock()
	b.count += delta
	if b.count < 0 {
		b.count = 0
	}
	count := b.count
	b.mu.Unlock()
	b.render(count)
	return count
}

func (b *Badge) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func (b *Badge) render(count int) {
	if b.view != nil {
		b.view.Render(count, count > 0)
	}
}
