package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"skybound/internal/domain"
	"skybound/internal/repository"

	"github.com/google/uuid"
)

// Mock repositories for testing

type mockSubscriptionRepository struct {
	mu   sync.Mutex
	subs map[string]*domain.Subscription
	err  error
}

func newMockSubscriptionRepository() *mockSubscriptionRepository {
	return &mockSubscriptionRepository{subs: make(map[string]*domain.Subscription)}
}

func (m *mockSubscriptionRepository) CreateOrReactivate(ctx context.Context, email, source string) (*domain.Subscription, repository.SubscribeOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, 0, m.err
	}

	if sub, ok := m.subs[email]; ok {
		if sub.IsActive {
			return sub, repository.SubscriptionAlreadyActive, nil
		}
		sub.IsActive = true
		sub.Source = source
		return sub, repository.SubscriptionReactivated, nil
	}

	now := time.Now()
	sub := &domain.Subscription{ID: uuid.New(), Email: email, IsActive: true, Source: source, CreatedAt: now, UpdatedAt: now}
	m.subs[email] = sub
	return sub, repository.SubscriptionCreated, nil
}

func (m *mockSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sub := range m.subs {
		if sub.ID == id {
			return sub, nil
		}
	}
	return nil, repository.ErrSubscriptionNotFound
}

func (m *mockSubscriptionRepository) FindByEmail(ctx context.Context, email string) (*domain.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub, ok := m.subs[email]; ok {
		return sub, nil
	}
	return nil, repository.ErrSubscriptionNotFound
}

func (m *mockSubscriptionRepository) List(ctx context.Context, filter repository.SubscriptionFilter) ([]*domain.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Subscription{}
	for _, sub := range m.subs {
		if filter.Active != nil && sub.IsActive != *filter.Active {
			continue
		}
		if filter.Source != "" && sub.Source != filter.Source {
			continue
		}
		if !filter.Since.IsZero() && sub.CreatedAt.Before(filter.Since) {
			continue
		}
		out = append(out, sub)
	}
	return out, nil
}

func (m *mockSubscriptionRepository) SetActive(ctx context.Context, ids []uuid.UUID, active bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, sub := range m.subs {
		for _, id := range ids {
			if sub.ID == id {
				sub.IsActive = active
				n++
			}
		}
	}
	return n, nil
}

func (m *mockSubscriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for email, sub := range m.subs {
		if sub.ID == id {
			delete(m.subs, email)
			return nil
		}
	}
	return repository.ErrSubscriptionNotFound
}

func (m *mockSubscriptionRepository) Count(ctx context.Context, activeOnly bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, sub := range m.subs {
		if !activeOnly || sub.IsActive {
			n++
		}
	}
	return n, nil
}

type mockProductRepository struct {
	products map[uuid.UUID]*domain.Product
	// beforeWrite runs ahead of Create and Update; used to simulate a
	// concurrent writer taking the slug.
	beforeWrite func(p *domain.Product)
	writes      int
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
}

func (m *mockProductRepository) slugTaken(slug string, self uuid.UUID) bool {
	for _, p := range m.products {
		if p.Slug == slug && p.ID != self {
			return true
		}
	}
	return false
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.writes++
	if m.beforeWrite != nil {
		m.beforeWrite(product)
	}
	if m.slugTaken(product.Slug, product.ID) {
		return repository.ErrSlugTaken
	}
	cp := *product
	m.products[product.ID] = &cp
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	m.writes++
	if m.beforeWrite != nil {
		m.beforeWrite(product)
	}
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	if m.slugTaken(product.Slug, product.ID) {
		return repository.ErrSlugTaken
	}
	cp := *product
	m.products[product.ID] = &cp
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) FindActiveBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	for _, p := range m.products {
		if p.Slug == slug && p.IsActive {
			return p, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) sorted(keep func(p *domain.Product) bool) []*domain.Product {
	out := []*domain.Product{}
	for _, p := range m.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *mockProductRepository) ListActive(ctx context.Context, categorySlug string) ([]*domain.Product, error) {
	return m.sorted(func(p *domain.Product) bool {
		if !p.IsActive {
			return false
		}
		return categorySlug == "" || (p.Category != nil && p.Category.Slug == categorySlug)
	}), nil
}

func (m *mockProductRepository) ListFeatured(ctx context.Context, limit int) ([]*domain.Product, error) {
	out := m.sorted(func(p *domain.Product) bool { return p.IsActive && p.IsFeatured })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockProductRepository) ListRelated(ctx context.Context, product *domain.Product, limit int) ([]*domain.Product, error) {
	if product.CategoryID == nil {
		return []*domain.Product{}, nil
	}
	out := m.sorted(func(p *domain.Product) bool {
		return p.IsActive && p.ID != product.ID && p.CategoryID != nil && *p.CategoryID == *product.CategoryID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockProductRepository) ListPriced(ctx context.Context) ([]*domain.Product, error) {
	return m.sorted(func(p *domain.Product) bool { return p.IsActive && p.Price != nil }), nil
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error) {
	return m.sorted(func(p *domain.Product) bool {
		if filter.Active != nil && p.IsActive != *filter.Active {
			return false
		}
		if filter.Featured != nil && p.IsFeatured != *filter.Featured {
			return false
		}
		return filter.Query == "" || strings.Contains(strings.ToLower(p.Title), strings.ToLower(filter.Query))
	}), nil
}

func (m *mockProductRepository) SlugsWithPrefix(ctx context.Context, base string, exclude *uuid.UUID) ([]string, error) {
	var out []string
	for _, p := range m.products {
		if exclude != nil && p.ID == *exclude {
			continue
		}
		if p.Slug == base || strings.HasPrefix(p.Slug, base+"-") {
			out = append(out, p.Slug)
		}
	}
	return out, nil
}

func (m *mockProductRepository) SetActive(ctx context.Context, ids []uuid.UUID, active bool) (int, error) {
	n := 0
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			p.IsActive = active
			n++
		}
	}
	return n, nil
}

func (m *mockProductRepository) SetFeatured(ctx context.Context, ids []uuid.UUID, featured bool) (int, error) {
	n := 0
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			p.IsFeatured = featured
			n++
		}
	}
	return n, nil
}

type mockCategoryRepository struct {
	categories map[uuid.UUID]*domain.ProductCategory
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{categories: make(map[uuid.UUID]*domain.ProductCategory)}
}

func (m *mockCategoryRepository) check(c *domain.ProductCategory) error {
	for _, other := range m.categories {
		if other.ID == c.ID {
			continue
		}
		if other.Name == c.Name {
			return repository.ErrCategoryNameTaken
		}
		if other.Slug == c.Slug {
			return repository.ErrSlugTaken
		}
	}
	return nil
}

func (m *mockCategoryRepository) Create(ctx context.Context, c *domain.ProductCategory) error {
	if err := m.check(c); err != nil {
		return err
	}
	cp := *c
	m.categories[c.ID] = &cp
	return nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, c *domain.ProductCategory) error {
	if _, ok := m.categories[c.ID]; !ok {
		return repository.ErrCategoryNotFound
	}
	if err := m.check(c); err != nil {
		return err
	}
	cp := *c
	m.categories[c.ID] = &cp
	return nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ProductCategory, error) {
	if c, ok := m.categories[id]; ok {
		return c, nil
	}
	return nil, repository.ErrCategoryNotFound
}

func (m *mockCategoryRepository) byName(keep func(c *domain.ProductCategory) bool) []*domain.ProductCategory {
	out := []*domain.ProductCategory{}
	for _, c := range m.categories {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]*domain.ProductCategory, error) {
	return m.byName(func(*domain.ProductCategory) bool { return true }), nil
}

func (m *mockCategoryRepository) ListActive(ctx context.Context) ([]*domain.ProductCategory, error) {
	return m.byName(func(c *domain.ProductCategory) bool { return c.IsActive }), nil
}

func (m *mockCategoryRepository) SlugsWithPrefix(ctx context.Context, base string, exclude *uuid.UUID) ([]string, error) {
	var out []string
	for _, c := range m.categories {
		if exclude != nil && c.ID == *exclude {
			continue
		}
		if c.Slug == base || strings.HasPrefix(c.Slug, base+"-") {
			out = append(out, c.Slug)
		}
	}
	return out, nil
}

func (m *mockCategoryRepository) SetActive(ctx context.Context, ids []uuid.UUID, active bool) (int, error) {
	n := 0
	for _, id := range ids {
		if c, ok := m.categories[id]; ok {
			c.IsActive = active
			n++
		}
	}
	return n, nil
}

type mockAdminUserRepository struct {
	users map[string]*domain.AdminUser
}

func newMockAdminUserRepository() *mockAdminUserRepository {
	return &mockAdminUserRepository{users: make(map[string]*domain.AdminUser)}
}

func (m *mockAdminUserRepository) Create(ctx context.Context, user *domain.AdminUser) error {
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrEmailTaken
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockAdminUserRepository) FindByEmail(ctx context.Context, email string) (*domain.AdminUser, error) {
	if user, ok := m.users[email]; ok {
		return user, nil
	}
	return nil, repository.ErrAdminNotFound
}

func (m *mockAdminUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.AdminUser, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrAdminNotFound
}

func (m *mockAdminUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	for _, user := range m.users {
		if user.ID == id {
			user.PasswordHash = passwordHash
			return nil
		}
	}
	return repository.ErrAdminNotFound
}
