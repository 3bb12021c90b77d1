package provider

import "sync"

// Stream is a lazy, finite, single-pass sequence of text fragments produced
// by a Provider. The producer runs in its own goroutine; the consumer pulls
// with Next/Text and may stop early with Close, after which the producer's
// emit callback reports failure so it can release process resources.
type Stream struct {
	ch     chan string
	closed chan struct{}
	once   sync.Once
	cur    string
}

// NewStream starts produce in a goroutine and returns the consumer handle.
// produce receives an emit callback that returns false once the consumer has
// closed the stream; produce must then stop and clean up. The sequence ends
// when produce returns.
func NewStream(buffer int, produce func(emit func(string) bool)) *Stream {
	s := &Stream{
		ch:     make(chan string, buffer),
		closed: make(chan struct{}),
	}
	go func() {
		defer close(s.ch)
		produce(s.emit)
	}()
	return s
}

func (s *Stream) emit(text string) bool {
	select {
	case <-s.closed:
		return false
	case s.ch <- text:
		return true
	}
}

// Next advances to the next fragment, blocking until one is available.
// It returns false when the sequence is exhausted or the stream was closed.
func (s *Stream) Next() bool {
	select {
	case <-s.closed:
		return false
	case text, ok := <-s.ch:
		if !ok {
			return false
		}
		s.cur = text
		return true
	}
}

// Text returns the fragment most recently yielded by Next.
func (s *Stream) Text() string { return s.cur }

// Close stops consumption early. The producer observes the close on its next
// emit and tears down the backing process. Safe to call multiple times and
// after exhaustion.
func (s *Stream) Close() {
	s.once.Do(func() { close(s.closed) })
}

// Collect drains the remaining fragments into a slice. Intended for tests
// and non-streaming callers.
func (s *Stream) Collect() []string {
	var out []string
	for s.Next() {
		out = append(out, s.Text())
	}
	return out
}
