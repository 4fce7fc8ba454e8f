package light

import "sync/atomic"

type node struct {
	op   Operation
	next *node
}

// stack is a lock-free LIFO (Treiber stack).
// Thread-Safety:
//   - push: CAS loop, any number of producers
//   - pop: CAS loop, intended for the single consumer
type stack struct {
	top atomic.Pointer[node]
	n   atomic.Int64
}

func (s *stack) push(op Operation) {
	nd := &node{op: op}
	for {
		old := s.top.Load()
		nd.next = old
		if s.top.CompareAndSwap(old, nd) {
			s.n.Add(1)
			return
		}
	}
}

func (s *stack) pop() (Operation, bool) {
	for {
		old := s.top.Load()
		if old == nil {
			return Operation{}, false
		}
		// Nodes are never reused, so a stale old.next cannot be resurrected (no ABA).
		if s.top.CompareAndSwap(old, old.next) {
			s.n.Add(-1)
			return old.op, true
		}
	}
}

// Queue holds pending lighting operations in one stream per channel. Enqueue
// never blocks and is safe from any goroutine; Dequeue is a non-blocking poll
// for the single consumer and prefers sky work over block work.
type Queue struct {
	sky   stack
	block stack
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Enqueue(seed Vec3i, ch Channel, kind Kind, mode Mode, magnitude int) {
	q.Push(NewOperation(seed, ch, kind, mode, magnitude))
}

func (q *Queue) Push(op Operation) {
	if op.Channel == Sky {
		q.sky.push(op)
		return
	}
	q.block.push(op)
}

// Dequeue removes one operation. ok is false when both streams are empty.
func (q *Queue) Dequeue() (op Operation, ok bool) {
	if op, ok = q.sky.pop(); ok {
		return op, true
	}
	return q.block.pop()
}

// Len returns the approximate number of pending operations.
func (q *Queue) Len() int {
	return q.LenChannel(Sky) + q.LenChannel(Block)
}

func (q *Queue) LenChannel(ch Channel) int {
	var n int64
	if ch == Sky {
		n = q.sky.n.Load()
	} else {
		n = q.block.n.Load()
	}
	if n < 0 {
		return 0
	}
	return int(n)
}
