package patchbay

import "sync"

// Mutation streams are the message-passing discipline of the tree: handlers
// never receive a mutable tree reference, they emit pure functions scoped to
// the subtree they own, and the owning level applies them in arrival order.

// Mutation is a pure tree transform scoped to a node of type T.
type Mutation[T any] func(T) T

// Keyed pairs a mutation with the sibling key it targets, so a parent can
// route it to the right child.
type Keyed[T any] struct {
	Key int
	Mut Mutation[T]
}

// TagWithKey lifts a stream of mutations into a stream of keyed mutations.
func TagWithKey[T any](key int, in <-chan Mutation[T]) <-chan Keyed[T] {
	out := make(chan Keyed[T])
	go func() {
		defer close(out)
		for m := range in {
			out <- Keyed[T]{Key: key, Mut: m}
		}
	}()
	return out
}

// MapChan applies f to every value of in.
func MapChan[A, B any](in <-chan A, f func(A) B) <-chan B {
	out := make(chan B)
	go func() {
		defer close(out)
		for a := range in {
			out <- f(a)
		}
	}()
	return out
}

// Merge interleaves any number of streams into one, preserving per-source
// order. The output closes when all inputs have closed; with zero inputs it
// is an already-closed (empty) stream.
func Merge[T any](ins ...<-chan T) <-chan T {
	out := make(chan T)
	done := make(chan struct{})
	for _, in := range ins {
		go func(in <-chan T) {
			for v := range in {
				out <- v
			}
			done <- struct{}{}
		}(in)
	}
	go func() {
		for range ins {
			<-done
		}
		close(out)
	}()
	return out
}

// FlattenSeq projects a stream of streams into one stream, draining one
// inner stream at a time. Inner streams that arrive while a previous one is
// still open are processed only after it closes.
func FlattenSeq[T any](in <-chan (<-chan T)) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for inner := range in {
			for v := range inner {
				out <- v
			}
		}
	}()
	return out
}

// FlattenAll projects a stream of streams into one stream, interleaving all
// inner streams concurrently. Required where several children can emit in
// the same tick. The output closes once in has closed and every inner
// stream seen so far has closed. Forwarders exit as their inner closes, so
// a long-lived outer stream that churns through inners holds no goroutines
// for the closed ones.
func FlattenAll[T any](in <-chan (<-chan T)) <-chan T {
	out := make(chan T)
	go func() {
		var wg sync.WaitGroup
		for inner := range in {
			wg.Add(1)
			go func(inner <-chan T) {
				defer wg.Done()
				for v := range inner {
					out <- v
				}
			}(inner)
		}
		wg.Wait()
		close(out)
	}()
	return out
}

// ChildAccess locates and replaces a keyed child inside a parent snapshot.
// Set must be copy-on-write: it returns a new parent value.
type ChildAccess[P, C any] struct {
	Get func(P, int) (C, bool)
	Set func(P, int, C) P
}

// LiftToParent turns keyed child mutations into parent mutations: the child
// with the matching key is replaced by the mutation applied to its current
// snapshot. A key that is no longer present yields the identity — stale
// mutations from a removed child never corrupt the parent.
func LiftToParent[P, C any](in <-chan Keyed[C], acc ChildAccess[P, C]) <-chan Mutation[P] {
	return MapChan(in, func(k Keyed[C]) Mutation[P] {
		return func(p P) P {
			c, ok := acc.Get(p, k.Key)
			if !ok {
				return p
			}
			return acc.Set(p, k.Key, k.Mut(c))
		}
	})
}

// applyKeyed applies a keyed child mutation directly to a parent snapshot.
// Same stale-key policy as LiftToParent.
func applyKeyed[P, C any](p P, k Keyed[C], acc ChildAccess[P, C]) P {
	c, ok := acc.Get(p, k.Key)
	if !ok {
		return p
	}
	return acc.Set(p, k.Key, k.Mut(c))
}

// planeNodes accesses a plane's GraphNode children by key.
var planeNodes = ChildAccess[Plane, GraphNode]{
	Get: func(p Plane, key int) (GraphNode, bool) { return p.NodeByKey(key) },
	Set: func(p Plane, key int, n GraphNode) Plane {
		i := p.nodeIndex(key)
		if i < 0 {
			return p
		}
		return p.withNode(i, n)
	},
}

// nodeOuts accesses a node's OutEdge children by key.
var nodeOuts = ChildAccess[GraphNode, OutEdge]{
	Get: func(n GraphNode, key int) (OutEdge, bool) { return n.OutByKey(key) },
	Set: func(n GraphNode, key int, o OutEdge) GraphNode {
		i := n.outIndex(key)
		if i < 0 {
			return n
		}
		return n.withOut(i, o)
	},
}

// mailbox returns an unbounded buffered forwarder: sends on the in channel
// never block, values come out in order on the out channel. Closing in
// closes out once the queue drains. This is what keeps mutation producers
// non-blocking while the applier works.
func mailbox[T any]() (chan<- T, <-chan T) {
	in := make(chan T)
	out := make(chan T)
	go func() {
		defer close(out)
		var queue []T
		for {
			if len(queue) == 0 {
				v, ok := <-in
				if !ok {
					return
				}
				queue = append(queue, v)
			}
			select {
			case v, ok := <-in:
				if !ok {
					for _, q := range queue {
						out <- q
					}
					return
				}
				queue = append(queue, v)
			case out <- queue[0]:
				queue = queue[1:]
			}
		}
	}()
	return in, out
}

// Conflate forwards only the most recent value of in: a slow reader sees the
// latest snapshot, never a backlog. Used for snapshot fan-out to controllers
// and to the renderer.
func Conflate[T any](in <-chan T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		var cur T
		have := false
		for {
			if !have {
				v, ok := <-in
				if !ok {
					return
				}
				cur, have = v, true
			}
			select {
			case v, ok := <-in:
				if !ok {
					out <- cur
					return
				}
				cur = v
			case out <- cur:
				have = false
			}
		}
	}()
	return out
}
