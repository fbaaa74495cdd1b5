// Package pool implements a fixed-capacity object pool.
//
// Every slot is in one of three states: Null (no object), Ready (holds an
// object available for claiming) or Claimed (holds an object in use).
// Objects are compared by ==, so T is usually a pointer type; the zero
// value of T means "no object".
package pool

// Status is the lifecycle state of a pool slot.
type Status int

const (
	Null Status = iota
	Ready
	Claimed
)

func (s Status) String() string {
	switch s {
	case Null:
		return "null"
	case Ready:
		return "ready"
	case Claimed:
		return "claimed"
	default:
		return "unknown"
	}
}

type item[T comparable] struct {
	obj    T
	status Status
}

// Pool holds a fixed number of slots. Claims and returns scan the slots in
// construction order. Per-status counts are kept incrementally.
//
// A Pool is not safe for concurrent use.
type Pool[T comparable] struct {
	items []item[T]
	dtor  func(T)

	ready   int
	claimed int
}

// New creates a pool with size Null slots. Fill it with Put.
func New[T comparable](size int) *Pool[T] {
	if size < 0 {
		size = 0
	}
	return &Pool[T]{items: make([]item[T], size)}
}

// NewWith creates a pool with size slots, each populated by calling ctor.
// A slot whose ctor result is the zero value stays Null. dtor, if not nil,
// is called by DestroyObject. Either function may be nil.
func NewWith[T comparable](size int, ctor func() T, dtor func(T)) *Pool[T] {
	p := New[T](size)
	p.dtor = dtor
	if ctor == nil {
		return p
	}
	var zero T
	for i := range p.items {
		obj := ctor()
		if obj == zero {
			continue
		}
		p.items[i] = item[T]{obj: obj, status: Ready}
		p.ready++
	}
	return p
}

// Size returns the pool capacity.
func (p *Pool[T]) Size() int {
	return len(p.items)
}

// ReadyCount returns the number of Ready slots.
func (p *Pool[T]) ReadyCount() int {
	return p.ready
}

// ClaimedCount returns the number of Claimed slots.
func (p *Pool[T]) ClaimedCount() int {
	return p.claimed
}

// NullCount returns the number of empty slots.
func (p *Pool[T]) NullCount() int {
	return len(p.items) - p.ready - p.claimed
}

// GetReadyObject claims the first Ready object. It returns false when no
// object is Ready; the pool is left unchanged in that case.
func (p *Pool[T]) GetReadyObject() (T, bool) {
	for i := range p.items {
		it := &p.items[i]
		if it.status != Ready {
			continue
		}
		it.status = Claimed
		p.ready--
		p.claimed++
		return it.obj, true
	}
	var zero T
	return zero, false
}

// ReturnObject marks obj Ready again. Unknown objects are ignored.
func (p *Pool[T]) ReturnObject(obj T) {
	it := p.find(obj)
	if it == nil || it.status == Ready {
		return
	}
	it.status = Ready
	p.claimed--
	p.ready++
}

// DestroyObject runs the destructor on obj and empties its slot. Unknown
// objects are ignored.
func (p *Pool[T]) DestroyObject(obj T) {
	it := p.find(obj)
	if it == nil {
		return
	}
	if p.dtor != nil {
		p.dtor(it.obj)
	}
	switch it.status {
	case Ready:
		p.ready--
	case Claimed:
		p.claimed--
	}
	*it = item[T]{}
}

// Put stores obj as Ready in the first Null slot. It returns false if obj
// is the zero value, is already pooled, or the pool has no Null slot.
func (p *Pool[T]) Put(obj T) bool {
	var zero T
	if obj == zero || p.find(obj) != nil {
		return false
	}
	for i := range p.items {
		it := &p.items[i]
		if it.status != Null {
			continue
		}
		*it = item[T]{obj: obj, status: Ready}
		p.ready++
		return true
	}
	return false
}

// Status returns the status of the slot holding obj, and false if obj is
// not pooled.
func (p *Pool[T]) Status(obj T) (Status, bool) {
	it := p.find(obj)
	if it == nil {
		return Null, false
	}
	return it.status, true
}

// Each calls fn for every non-empty slot in scan order.
func (p *Pool[T]) Each(fn func(obj T, status Status)) {
	for _, it := range p.items {
		if it.status != Null {
			fn(it.obj, it.status)
		}
	}
}

func (p *Pool[T]) find(obj T) *item[T] {
	var zero T
	if obj == zero {
		return nil
	}
	for i := range p.items {
		it := &p.items[i]
		if it.status != Null && it.obj == obj {
			return it
		}
	}
	return nil
}
