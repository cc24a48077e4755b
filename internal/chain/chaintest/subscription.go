package chaintest

import (
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
)

// Subscription is an ethereum.Subscription fed by Backend.Emit.
type Subscription struct {
	query ethereum.FilterQuery
	sink  chan<- types.Log
	errc  chan error

	mu   sync.Mutex
	done bool
	quit chan struct{}
}

func newSubscription(q ethereum.FilterQuery, sink chan<- types.Log) *Subscription {
	return &Subscription{
		query: q,
		sink:  sink,
		errc:  make(chan error, 1),
		quit:  make(chan struct{}),
	}
}

func (s *Subscription) matches(l types.Log) bool {
	return !s.closed() && matchQuery(s.query, l)
}

func (s *Subscription) deliver(l types.Log) {
	select {
	case s.sink <- l:
	case <-s.quit:
	}
}

func (s *Subscription) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.done = true
	close(s.quit)
	s.errc <- err
}

func (s *Subscription) closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Unsubscribe stops delivery and closes the error channel.
func (s *Subscription) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.done = true
	close(s.quit)
	close(s.errc)
}

// Err returns the subscription error channel.
func (s *Subscription) Err() <-chan error {
	return s.errc
}
