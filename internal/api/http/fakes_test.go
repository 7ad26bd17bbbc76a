package http

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/testimonial-service/internal/domain"
	"github.com/spec-kit/testimonial-service/internal/repository"
)

type memoryUsers struct {
	mu    sync.Mutex
	byID  map[string]*domain.User
	order []string
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: map[string]*domain.User{}}
}

func (m *memoryUsers) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	m.byID[user.ID] = &stored
	m.order = append(m.order, user.ID)
	return nil
}

func (m *memoryUsers) find(match func(*domain.User) bool) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memoryUsers) update(id string, apply func(*domain.User) bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok || !apply(u) {
		return pgx.ErrNoRows
	}
	return nil
}

func (m *memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.ID == id })
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.Email == email })
}

func (m *memoryUsers) GetByResetToken(_ context.Context, token string) (*domain.User, error) {
	return m.find(func(u *domain.User) bool { return u.ResetToken != nil && *u.ResetToken == token })
}

func (m *memoryUsers) List(_ context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.User{}
	for i := len(m.order) - 1; i >= 0; i-- {
		if u, ok := m.byID[m.order[i]]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memoryUsers) SetResetToken(_ context.Context, id, token string, expiresAt time.Time) error {
	return m.update(id, func(u *domain.User) bool {
		u.ResetToken = &token
		u.ResetTokenExpiry = &expiresAt
		return true
	})
}

func (m *memoryUsers) ResetPassword(_ context.Context, id, token, passwordHash string) error {
	return m.update(id, func(u *domain.User) bool {
		if u.ResetToken == nil || *u.ResetToken != token {
			return false
		}
		u.PasswordHash = passwordHash
		u.ResetToken = nil
		u.ResetTokenExpiry = nil
		return true
	})
}

func (m *memoryUsers) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return m.update(id, func(u *domain.User) bool {
		u.PasswordHash = passwordHash
		return true
	})
}

func (m *memoryUsers) UpdateRole(_ context.Context, id string, role domain.Role) error {
	return m.update(id, func(u *domain.User) bool {
		u.Role = role
		return true
	})
}

func (m *memoryUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.byID, id)
	return nil
}

type memoryTestimonials struct {
	mu    sync.Mutex
	users *memoryUsers
	items []domain.Testimonial
	clock time.Time
}

func newMemoryTestimonials(users *memoryUsers) *memoryTestimonials {
	return &memoryTestimonials{users: users, clock: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (m *memoryTestimonials) Create(ctx context.Context, testimonial *domain.Testimonial) error {
	owner, err := m.users.GetByID(ctx, testimonial.OwnerID)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = m.clock.Add(time.Minute)
	testimonial.ID = uuid.NewString()
	testimonial.OwnerName = owner.Name
	testimonial.CreatedAt = m.clock
	testimonial.UpdatedAt = m.clock
	m.items = append(m.items, *testimonial)
	return nil
}

func (m *memoryTestimonials) GetByID(_ context.Context, id string) (*domain.Testimonial, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.ID == id {
			cp := item
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memoryTestimonials) UpdateContent(_ context.Context, testimonial *domain.Testimonial) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == testimonial.ID {
			m.clock = m.clock.Add(time.Minute)
			m.items[i].Content = testimonial.Content
			m.items[i].UpdatedAt = m.clock
			testimonial.UpdatedAt = m.clock
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *memoryTestimonials) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *memoryTestimonials) List(_ context.Context, filter repository.TestimonialFilter) ([]domain.Testimonial, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Testimonial{}
	for _, item := range m.items {
		if filter.OwnerID != nil && item.OwnerID != *filter.OwnerID {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

type capturingNotifier struct {
	mu    sync.Mutex
	links []string
}

func (n *capturingNotifier) SendPasswordReset(_ context.Context, _, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.links = append(n.links, link)
	return nil
}

func (n *capturingNotifier) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.links) == 0 {
		return ""
	}
	return n.links[len(n.links)-1]
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }
