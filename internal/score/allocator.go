//go:generate mockgen -package $GOPACKAGE -source $GOFILE -destination allocator_mock.go

package score

import (
	"container/heap"
)

// Allocator supplies opaque slot identifiers and takes back the ones a
// timeline no longer needs.
type Allocator interface {
	Allocate() string
	Release(id string)
}

// IDAllocator is the default Allocator. Released ids are handed out again
// smallest first before new ids are generated, which keeps reuse
// deterministic for a deterministic generator.
type IDAllocator struct {
	gen   IDGenerator
	free  stringHeap
	inUse map[string]bool
}

// NewIDAllocator creates an allocator drawing new ids from gen.
func NewIDAllocator(gen IDGenerator) *IDAllocator {
	return &IDAllocator{gen: gen, inUse: make(map[string]bool)}
}

// Allocate returns a free id.
func (a *IDAllocator) Allocate() string {
	var id string
	if a.free.Len() > 0 {
		id = heap.Pop(&a.free).(string)
	} else {
		id = a.gen.Generate()
	}
	a.inUse[id] = true
	return id
}

// Release returns id to the pool. Unknown or already released ids are ignored.
func (a *IDAllocator) Release(id string) {
	if !a.inUse[id] {
		return
	}
	delete(a.inUse, id)
	heap.Push(&a.free, id)
}

// InUse returns the number of ids currently allocated.
func (a *IDAllocator) InUse() int { return len(a.inUse) }

type stringHeap []string

func (h stringHeap) Len() int           { return len(h) }
func (h stringHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h stringHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *stringHeap) Push(x any)        { *h = append(*h, x.(string)) }
func (h *stringHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
