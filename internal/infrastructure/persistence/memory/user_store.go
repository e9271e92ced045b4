package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xiebiao/bookshop/internal/domain/user"
)

type userRecord struct {
	mu   sync.Mutex
	user user.User
}

// UserStore 用户存储,同时实现积分账本
type UserStore struct {
	mu     sync.RWMutex
	nextID uint
	users  map[uint]*userRecord
	emails map[string]uint
}

// NewUserStore 创建用户存储
func NewUserStore() *UserStore {
	return &UserStore{
		users:  make(map[uint]*userRecord),
		emails: make(map[string]uint),
	}
}

var (
	_ user.Repository   = (*UserStore)(nil)
	_ user.CreditLedger = (*UserStore)(nil)
)

// Create 邮箱唯一
func (s *UserStore) Create(ctx context.Context, u *user.User) error {
	email := strings.ToLower(u.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.emails[email]; ok {
		return user.ErrEmailDuplicate
	}
	if u.Credits < 0 {
		return user.ErrInvalidAmount
	}
	s.nextID++
	u.ID = s.nextID
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	s.users[u.ID] = &userRecord{user: *u}
	s.emails[email] = u.ID
	return nil
}

func (s *UserStore) record(id uint) (*userRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[id]
	return rec, ok
}

func (s *UserStore) FindByID(ctx context.Context, id uint) (*user.User, error) {
	rec, ok := s.record(id)
	if !ok {
		return nil, user.ErrUserNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	cp := rec.user
	return &cp, nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mu.RLock()
	id, ok := s.emails[strings.ToLower(email)]
	s.mu.RUnlock()
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return s.FindByID(ctx, id)
}

// Update 只更新资料、角色和启用状态,积分走CreditLedger
func (s *UserStore) Update(ctx context.Context, u *user.User) error {
	rec, ok := s.record(u.ID)
	if !ok {
		return user.ErrUserNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.user.FirstName = u.FirstName
	rec.user.LastName = u.LastName
	rec.user.Role = u.Role
	rec.user.IsActive = u.IsActive
	rec.user.UpdatedAt = time.Now()
	return nil
}

func (s *UserStore) List(ctx context.Context, filter user.ListFilter) ([]*user.User, error) {
	var out []*user.User
	for _, u := range s.snapshot() {
		if filter.Role != 0 && u.Role != filter.Role {
			continue
		}
		if filter.ActiveOnly && !u.IsActive {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *UserStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

func (s *UserStore) Recent(ctx context.Context, n int) ([]*user.User, error) {
	all := s.snapshot()
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if n >= 0 && len(all) > n {
		all = all[:n]
	}
	return all, nil
}

func (s *UserStore) snapshot() []*user.User {
	s.mu.RLock()
	recs := make([]*userRecord, 0, len(s.users))
	for _, rec := range s.users {
		recs = append(recs, rec)
	}
	s.mu.RUnlock()

	out := make([]*user.User, 0, len(recs))
	for _, rec := range recs {
		rec.mu.Lock()
		cp := rec.user
		rec.mu.Unlock()
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ---------- CreditLedger ----------

func (s *UserStore) Balance(ctx context.Context, userID uint) (int64, error) {
	rec, ok := s.record(userID)
	if !ok {
		return 0, user.ErrUserNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.user.Credits, nil
}

func (s *UserStore) Credit(ctx context.Context, userID uint, amount int64) error {
	if amount <= 0 {
		return user.ErrInvalidAmount
	}
	return s.mutate(userID, func(u *user.User) error {
		u.Credits += amount
		return nil
	})
}

func (s *UserStore) Debit(ctx context.Context, userID uint, amount int64) error {
	if amount <= 0 {
		return user.ErrInvalidAmount
	}
	return s.mutate(userID, func(u *user.User) error {
		if u.Credits < amount {
			return user.ErrInsufficientCredits
		}
		u.Credits -= amount
		return nil
	})
}

func (s *UserStore) SetBalance(ctx context.Context, userID uint, amount int64) error {
	if amount < 0 {
		return user.ErrInvalidAmount
	}
	return s.mutate(userID, func(u *user.User) error {
		u.Credits = amount
		return nil
	})
}

// mutate 在记录锁内执行读-改-写,fn返回错误时不做修改
func (s *UserStore) mutate(userID uint, fn func(u *user.User) error) error {
	rec, ok := s.record(userID)
	if !ok {
		return user.ErrUserNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	next := rec.user
	if err := fn(&next); err != nil {
		return err
	}
	next.UpdatedAt = time.Now()
	rec.user = next
	return nil
}
