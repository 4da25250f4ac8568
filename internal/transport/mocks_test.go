package transport

import (
	"context"
	"sync"
	"time"

	"skybound/internal/domain"
	"skybound/internal/repository"
	"skybound/internal/service"
	"skybound/internal/slug"

	"github.com/google/uuid"
)

type fakeCatalog struct {
	mu           sync.Mutex
	home         *service.HomePage
	programs     *service.ProgramsPage
	pages        map[string]*service.ProductPage
	pricing      []*domain.Product
	active       []*domain.Product
	err          error
	calls        int
	lastCategory string
}

func (f *fakeCatalog) record(category string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastCategory = category
}

func (f *fakeCatalog) Home(ctx context.Context, categorySlug string) (*service.HomePage, error) {
	f.record(categorySlug)
	if f.err != nil {
		return nil, f.err
	}
	if f.home == nil {
		return &service.HomePage{}, nil
	}
	return f.home, nil
}

func (f *fakeCatalog) Programs(ctx context.Context, categorySlug string) (*service.ProgramsPage, error) {
	f.record(categorySlug)
	if f.err != nil {
		return nil, f.err
	}
	if f.programs == nil {
		return &service.ProgramsPage{}, nil
	}
	return f.programs, nil
}

func (f *fakeCatalog) Product(ctx context.Context, s string) (*service.ProductPage, error) {
	f.record("")
	if f.err != nil {
		return nil, f.err
	}
	page, ok := f.pages[s]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return page, nil
}

func (f *fakeCatalog) Pricing(ctx context.Context) ([]*domain.Product, error) {
	f.record("")
	return f.pricing, f.err
}

func (f *fakeCatalog) ActiveProducts(ctx context.Context) ([]*domain.Product, error) {
	f.record("")
	return f.active, f.err
}

type fakeSubscriptions struct {
	subscribe  func(ctx context.Context, email, source string) (*domain.Subscription, bool, error)
	calls      int
	lastFilter repository.SubscriptionFilter
	bulkAction string
	bulkIDs    []uuid.UUID
	deleted    []uuid.UUID
}

func (f *fakeSubscriptions) Subscribe(ctx context.Context, email, source string) (*domain.Subscription, bool, error) {
	f.calls++
	return f.subscribe(ctx, email, source)
}

func (f *fakeSubscriptions) Recent(ctx context.Context, days int) ([]*domain.Subscription, error) {
	return nil, nil
}

func (f *fakeSubscriptions) List(ctx context.Context, filter repository.SubscriptionFilter) ([]*domain.Subscription, error) {
	f.lastFilter = filter
	return []*domain.Subscription{}, nil
}

func (f *fakeSubscriptions) BulkAction(ctx context.Context, action string, ids []uuid.UUID) (int, error) {
	if action != service.ActionActivate && action != service.ActionDeactivate {
		return 0, service.ErrUnknownAction
	}
	f.bulkAction = action
	f.bulkIDs = ids
	return len(ids), nil
}

func (f *fakeSubscriptions) Delete(ctx context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeProducts struct {
	items      map[uuid.UUID]*domain.Product
	lastFilter repository.ProductFilter
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{items: make(map[uuid.UUID]*domain.Product)}
}

func (f *fakeProducts) Save(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
		p.CreatedAt = time.Now()
	}
	if p.Slug == "" {
		p.Slug = slug.Slugify(p.Title)
	}
	p.ApplyDerivedFields("Skybound Academy")
	f.items[p.ID] = p
	return p, nil
}

func (f *fakeProducts) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := f.items[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error) {
	f.lastFilter = filter
	out := []*domain.Product{}
	for _, p := range f.items {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProducts) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.items[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeProducts) BulkAction(ctx context.Context, action string, ids []uuid.UUID) (int, error) {
	n := 0
	for _, id := range ids {
		p, ok := f.items[id]
		if !ok {
			continue
		}
		switch action {
		case service.ActionActivate:
			p.IsActive = true
		case service.ActionDeactivate:
			p.IsActive = false
		case service.ActionFeature:
			p.IsFeatured = true
		case service.ActionUnfeature:
			p.IsFeatured = false
		default:
			return 0, service.ErrUnknownAction
		}
		n++
	}
	return n, nil
}

type fakeCategories struct {
	items map[uuid.UUID]*domain.ProductCategory
}

func newFakeCategories() *fakeCategories {
	return &fakeCategories{items: make(map[uuid.UUID]*domain.ProductCategory)}
}

func (f *fakeCategories) Save(ctx context.Context, c *domain.ProductCategory) (*domain.ProductCategory, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	for _, other := range f.items {
		if other.ID != c.ID && other.Name == c.Name {
			return nil, domain.NewValidationError("name", "A category with this name already exists")
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Slug == "" {
		c.Slug = slug.Slugify(c.Name)
	}
	f.items[c.ID] = c
	return c, nil
}

func (f *fakeCategories) Get(ctx context.Context, id uuid.UUID) (*domain.ProductCategory, error) {
	c, ok := f.items[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCategories) List(ctx context.Context) ([]*domain.ProductCategory, error) {
	out := []*domain.ProductCategory{}
	for _, c := range f.items {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCategories) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.items[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeCategories) BulkAction(ctx context.Context, action string, ids []uuid.UUID) (int, error) {
	if action != service.ActionActivate && action != service.ActionDeactivate {
		return 0, service.ErrUnknownAction
	}
	n := 0
	for _, id := range ids {
		if c, ok := f.items[id]; ok {
			c.IsActive = action == service.ActionActivate
			n++
		}
	}
	return n, nil
}

const (
	testAdminEmail    = "admin@skybound.example"
	testAdminPassword = "correct-horse"
)

type fakeAdmins struct {
	expiresAt time.Time
}

func (f *fakeAdmins) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	if email != testAdminEmail || password != testAdminPassword {
		return "", time.Time{}, service.ErrInvalidCredentials
	}
	return "signed-token", f.expiresAt, nil
}

func (f *fakeAdmins) Provision(ctx context.Context, email, password string) (*domain.AdminUser, bool, error) {
	return nil, false, nil
}

func (f *fakeAdmins) ValidateToken(tokenString string) (*service.Claims, error) {
	return nil, service.ErrInvalidToken
}
