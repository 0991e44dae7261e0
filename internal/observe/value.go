// Package observe holds state containers that publish snapshots to
// subscribers whenever they change.
package observe

import "sync"

// Value is a mutex-guarded value. Every Set or Update publishes the new value
// to all current subscribers.
//
// Delivery never blocks the writer: each subscriber has a one-slot buffer and
// a pending snapshot is replaced by a newer one, so a slow reader only ever
// sees the latest state.
type Value[T any] struct {
	mu     sync.Mutex
	value  T
	nextID int
	subs   map[int]chan T
}

func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{value: initial, subs: make(map[int]chan T)}
}

func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

func (v *Value[T]) Set(value T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = value
	v.publishLocked()
}

// Update applies fn to the current value atomically and publishes the result.
// fn must not call back into v.
func (v *Value[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = fn(v.value)
	v.publishLocked()
	return v.value
}

// Subscribe returns a channel that receives the current value immediately and
// every later change. The cancel func closes the channel.
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextID
	v.nextID++
	ch := make(chan T, 1)
	ch <- v.value
	v.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			delete(v.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

func (v *Value[T]) publishLocked() {
	for _, ch := range v.subs {
		select {
		case ch <- v.value:
		default:
			// drop the stale pending snapshot, then deliver the latest
			select {
			case <-ch:
			default:
			}
			ch <- v.value
		}
	}
}
