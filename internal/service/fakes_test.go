package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/testimonial-service/internal/domain"
	"github.com/spec-kit/testimonial-service/internal/events"
	"github.com/spec-kit/testimonial-service/internal/repository"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	order  []string
	seq    int
	failOn error

	setResetCalls      int
	resetPasswordCalls int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (r *fakeUserRepo) add(user domain.User) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		r.seq++
		user.ID = fmt.Sprintf("u-%d", r.seq)
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	u := user
	r.users[u.ID] = &u
	r.order = append(r.order, u.ID)
	return &u
}

func (r *fakeUserRepo) get(id string) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	if r.failOn != nil {
		return r.failOn
	}
	r.mu.Lock()
	for _, u := range r.users {
		if u.Email == user.Email {
			r.mu.Unlock()
			return repository.ErrEmailTaken
		}
	}
	r.mu.Unlock()
	stored := r.add(*user)
	user.ID = stored.ID
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if r.failOn != nil {
		return nil, r.failOn
	}
	if u := r.get(id); u != nil {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.failOn != nil {
		return nil, r.failOn
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByResetToken(_ context.Context, token string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ResetToken != nil && *u.ResetToken == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context) ([]domain.User, error) {
	if r.failOn != nil {
		return nil, r.failOn
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for i := len(r.order) - 1; i >= 0; i-- {
		if u, ok := r.users[r.order[i]]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) SetResetToken(_ context.Context, id, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setResetCalls++
	u, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.ResetToken = &token
	u.ResetTokenExpiry = &expiresAt
	return nil
}

func (r *fakeUserRepo) ResetPassword(_ context.Context, id, token, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetPasswordCalls++
	u, ok := r.users[id]
	if !ok || u.ResetToken == nil || *u.ResetToken != token {
		return pgx.ErrNoRows
	}
	u.PasswordHash = passwordHash
	u.ResetToken = nil
	u.ResetTokenExpiry = nil
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) UpdateRole(_ context.Context, id string, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.Role = role
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	return nil
}

type fakeTestimonialRepo struct {
	mu     sync.Mutex
	items  []domain.Testimonial
	names  map[string]string
	seq    int
	clock  time.Time
	failOn error
}

func newFakeTestimonialRepo() *fakeTestimonialRepo {
	return &fakeTestimonialRepo{
		names: map[string]string{},
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// seed appends a testimonial with an explicit creation time.
func (r *fakeTestimonialRepo) seed(ownerID, ownerName, content string, createdAt time.Time) domain.Testimonial {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.names[ownerID] = ownerName
	item := domain.Testimonial{
		ID:        fmt.Sprintf("t-%d", r.seq),
		Content:   content,
		OwnerID:   ownerID,
		OwnerName: ownerName,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	r.items = append(r.items, item)
	return item
}

func (r *fakeTestimonialRepo) find(id string) (int, bool) {
	for i, item := range r.items {
		if item.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (r *fakeTestimonialRepo) Create(_ context.Context, testimonial *domain.Testimonial) error {
	if r.failOn != nil {
		return r.failOn
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.clock = r.clock.Add(time.Second)
	testimonial.ID = fmt.Sprintf("t-%d", r.seq)
	testimonial.OwnerName = r.names[testimonial.OwnerID]
	testimonial.CreatedAt = r.clock
	testimonial.UpdatedAt = r.clock
	r.items = append(r.items, *testimonial)
	return nil
}

func (r *fakeTestimonialRepo) GetByID(_ context.Context, id string) (*domain.Testimonial, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.find(id); ok {
		cp := r.items[i]
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTestimonialRepo) UpdateContent(_ context.Context, testimonial *domain.Testimonial) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.find(testimonial.ID)
	if !ok {
		return pgx.ErrNoRows
	}
	r.clock = r.clock.Add(time.Second)
	r.items[i].Content = testimonial.Content
	r.items[i].UpdatedAt = r.clock
	testimonial.UpdatedAt = r.clock
	return nil
}

func (r *fakeTestimonialRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.find(id)
	if !ok {
		return pgx.ErrNoRows
	}
	r.items = append(r.items[:i], r.items[i+1:]...)
	return nil
}

func (r *fakeTestimonialRepo) List(_ context.Context, filter repository.TestimonialFilter) ([]domain.Testimonial, error) {
	if r.failOn != nil {
		return nil, r.failOn
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Testimonial
	for _, item := range r.items {
		if filter.OwnerID != nil && item.OwnerID != *filter.OwnerID {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

type fakeRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
	err     error
}

func newFakeRevocations() *fakeRevocations {
	return &fakeRevocations{revoked: map[string]time.Duration{}}
}

func (f *fakeRevocations) Revoke(_ context.Context, id string, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[id] = ttl
	return nil
}

func (f *fakeRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.revoked[id]
	return ok, nil
}

type sentMail struct {
	email string
	link  string
}

type recordingNotifier struct {
	sent []sentMail
	err  error
}

func (n *recordingNotifier) SendPasswordReset(_ context.Context, email, link string) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{email: email, link: link})
	return nil
}

type recordingDispatcher struct {
	mu        sync.Mutex
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.published))
	for _, e := range d.published {
		out = append(out, e.Type)
	}
	return out
}

var errStoreDown = errors.New("store down")
