package miniapp

import "sync/atomic"

// RequestLock counts in-flight mutating requests. The checkout control is
// usable only while the count is zero.
type RequestLock struct {
	n atomic.Int64
}

func (l *RequestLock) Acquire() {
	l.n.Add(1)
}

// Release decrements the counter. An unpaired release leaves the counter at
// zero and returns false.
func (l *RequestLock) Release() bool {
	for {
		cur := l.n.Load()
		if cur <= 0 {
			return false
		}
		if l.n.CompareAndSwap(cur, cur-1) {
			return true
		}
	}
}

func (l *RequestLock) Locked() bool {
	return l.n.Load() > 0
}

func (l *RequestLock) Count() int {
	return int(l.n.Load())
}
