package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vovakirdan/recipechat-server/internal/store"
)

var errPeerGone = errors.New("peer gone")

type fakePeer struct {
	id string

	mu       sync.Mutex
	received []*Message
	sendErr  error
	block    bool
	panics   bool
	closes   int
}

func newFakePeer(id string) *fakePeer {
	return &fakePeer{id: id}
}

func (p *fakePeer) ID() string { return p.id }

func (p *fakePeer) Send(ctx context.Context, msg *Message) error {
	p.mu.Lock()
	block, panics, sendErr := p.block, p.panics, p.sendErr
	p.mu.Unlock()

	if panics {
		panic("boom")
	}
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if sendErr != nil {
		return sendErr
	}

	p.mu.Lock()
	p.received = append(p.received, msg)
	p.mu.Unlock()
	return nil
}

func (p *fakePeer) Close(string) error {
	p.mu.Lock()
	p.closes++
	p.mu.Unlock()
	return nil
}

func (p *fakePeer) messages() []*Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Message(nil), p.received...)
}

func (p *fakePeer) closeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closes
}

// memoryStore is a MessageStore with injectable failures.
type memoryStore struct {
	mu        sync.Mutex
	rows      []*store.Message
	insertErr error
	recentErr error
}

func (s *memoryStore) InsertMessage(_ context.Context, msg *store.Message) (*store.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.insertErr != nil {
		return nil, s.insertErr
	}
	stored := *msg
	stored.ID = int64(len(s.rows) + 1)
	stored.CreatedAt = time.Date(2026, 1, 1, 0, 0, len(s.rows), 0, time.UTC)
	s.rows = append(s.rows, &stored)
	return &stored, nil
}

func (s *memoryStore) RecentMessages(_ context.Context, limit int) ([]*store.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.recentErr != nil {
		return nil, s.recentErr
	}
	out := make([]*store.Message, 0, limit)
	for i := len(s.rows) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.rows[i])
	}
	return out, nil
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
