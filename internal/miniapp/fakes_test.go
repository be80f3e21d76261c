package miniapp

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	s    *fakeScheduler
	at   time.Duration
	f    func()
	done bool
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{s: s, at: s.now + d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock and runs due callbacks on the calling goroutine.
func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*fakeTimer
	for _, t := range s.timers {
		if !t.done && t.at <= s.now {
			t.done = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}

func (s *fakeScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.done {
			n++
		}
	}
	return n
}

type recordingToastView struct {
	mu        sync.Mutex
	presented []Toast
	dismissed int
}

func (v *recordingToastView) Present(t Toast) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.presented = append(v.presented, t)
}

func (v *recordingToastView) Dismiss() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dismissed++
}

func (v *recordingToastView) Presented() []Toast {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Toast(nil), v.presented...)
}

type recordingHaptics struct {
	mu    sync.Mutex
	kinds []string
}

func (h *recordingHaptics) NotificationOccurred(kind string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.kinds = append(h.kinds, kind)
}

type recordingCartView struct {
	mu      sync.Mutex
	renders int
	lines   []Line
	summary Summary
}

func (v *recordingCartView) Render(lines []Line, s Summary) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.renders++
	v.lines = lines
	v.summary = s
}

func (v *recordingCartView) Last() ([]Line, Summary) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lines, v.summary
}

type countingPage struct {
	reloads atomic.Int32
}

func (p *countingPage) Reload() { p.reloads.Add(1) }

type updateCall struct {
	lineID int64
	qty    int
}

type fakeCartAPI struct {
	mu        sync.Mutex
	lock      *RequestLock
	calls     []updateCall
	updateErr func(lineID int64, qty int) error
	entered   chan updateCall
	release   chan error
	deleteErr error
	deleteCnt int
	deletes   []int64
	lockHeld  bool

	deleteEntered chan struct{}
	deleteRelease chan struct{}
}

func (f *fakeCartAPI) UpdateQuantity(_ context.Context, lineID int64, qty int) error {
	f.mu.Lock()
	f.calls = append(f.calls, updateCall{lineID: lineID, qty: qty})
	if f.lock != nil && f.lock.Locked() {
		f.lockHeld = true
	}
	entered, release, errFn := f.entered, f.release, f.updateErr
	f.mu.Unlock()

	if entered != nil {
		entered <- updateCall{lineID: lineID, qty: qty}
		return <-release
	}
	if errFn != nil {
		return errFn(lineID, qty)
	}
	return nil
}

func (f *fakeCartAPI) DeleteLine(_ context.Context, lineID int64) (int, error) {
	f.mu.Lock()
	if f.lock != nil && f.lock.Locked() {
		f.lockHeld = true
	}
	f.deletes = append(f.deletes, lineID)
	entered, release := f.deleteEntered, f.deleteRelease
	cnt, err := f.deleteCnt, f.deleteErr
	f.mu.Unlock()

	if entered != nil {
		close(entered)
		<-release
	}
	return cnt, err
}

func (f *fakeCartAPI) Calls() []updateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]updateCall(nil), f.calls...)
}

type recordingGridView struct {
	mu     sync.Mutex
	events []string
	html   string
}

func (v *recordingGridView) Dim() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.events = append(v.events, "dim")
}

func (v *recordingGridView) Undim() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.events = append(v.events, "undim")
}

func (v *recordingGridView) Replace(html string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.events = append(v.events, "replace")
	v.html = html
}

type recordingBadgeView struct {
	count   int
	visible bool
}

func (v *recordingBadgeView) Render(count int, visible bool) {
	v.count = count
	v.visible = visible
}

type recordingFavoriteView struct {
	marks map[int64]bool
}

func (v *recordingFavoriteView) SetFavorite(id int64, on bool) {
	if v.marks == nil {
		v.marks = map[int64]bool{}
	}
	v.marks[id] = on
}
