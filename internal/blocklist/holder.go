package blocklist

import (
	"sync/atomic"
)

// Holder publishes the current List. Readers always see a complete snapshot;
// Store replaces it atomically.
type Holder struct {
	value atomic.Pointer[List]
}

// NewHolder returns a Holder serving l, or an empty List if l is nil.
func NewHolder(l *List) *Holder {
	h := &Holder{}
	h.Store(l)
	return h
}

func (h *Holder) Load() *List {
	return h.value.Load()
}

func (h *Holder) Store(l *List) {
	if l == nil {
		l = New()
	}
	h.value.Store(l)
}

// IsBlocked checks host against the current snapshot.
func (h *Holder) IsBlocked(host string) bool {
	return h.Load().IsBlocked(host)
}
