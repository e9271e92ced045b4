package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xiebiao/bookshop/internal/domain/librarian"
)

// LibrarianRequestStore 馆员申请存储
type LibrarianRequestStore struct {
	mu       sync.RWMutex
	nextID   uint
	requests map[uint]*librarian.Request
}

// NewLibrarianRequestStore 创建申请存储
func NewLibrarianRequestStore() *LibrarianRequestStore {
	return &LibrarianRequestStore{requests: make(map[uint]*librarian.Request)}
}

var _ librarian.Repository = (*LibrarianRequestStore)(nil)

// Create 检查待处理申请和写入在同一把锁内
func (s *LibrarianRequestStore) Create(ctx context.Context, r *librarian.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.requests {
		if existing.UserID == r.UserID && !existing.IsProcessed {
			return librarian.ErrPendingRequest
		}
	}
	s.nextID++
	r.ID = s.nextID
	cp := *r
	s.requests[r.ID] = &cp
	return nil
}

func (s *LibrarianRequestStore) FindByID(ctx context.Context, id uint) (*librarian.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, librarian.ErrRequestNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *LibrarianRequestStore) Update(ctx context.Context, r *librarian.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[r.ID]; !ok {
		return librarian.ErrRequestNotFound
	}
	cp := *r
	s.requests[r.ID] = &cp
	return nil
}

func (s *LibrarianRequestStore) ListPending(ctx context.Context) ([]*librarian.Request, error) {
	s.mu.RLock()
	var out []*librarian.Request
	for _, r := range s.requests {
		if !r.IsProcessed {
			cp := *r
			out = append(out, &cp)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *LibrarianRequestStore) CountPending(ctx context.Context) (int64, error) {
	pending, err := s.ListPending(ctx)
	return int64(len(pending)), err
}
