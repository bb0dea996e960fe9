// Package memstore is an in-memory implementation of the service store and
// the idempotency durable store for unit and handler tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/idempotency"
	"github.com/ayo6706/exchange-brokerage/internal/models"
	"github.com/google/uuid"
)

type Store struct {
	mu             sync.Mutex
	now            time.Time
	users          map[uuid.UUID]models.User
	currencies     []*models.Currency
	paymentMethods []*models.PaymentMethod
	accounts       []*models.Account
	orders         []*models.Order
	configs        []models.SiteConfig
	audit          []models.AuditEntry
	idem           map[string]*idempotency.Row

	// FailCommissionUpdate makes UpdateCurrencyCommissions fail for these titles.
	FailCommissionUpdate map[string]error
}

func New() *Store {
	return &Store{
		now:                  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users:                map[uuid.UUID]models.User{},
		idem:                 map[string]*idempotency.Row{},
		FailCommissionUpdate: map[string]error{},
	}
}

// tick returns strictly increasing timestamps so "newest" is deterministic.
func (s *Store) tick() time.Time {
	s.now = s.now.Add(time.Second)
	return s.now
}

func (s *Store) AddUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.CreatedAt = s.tick()
	s.users[u.ID] = u
}

// UpsertUser mirrors the users table: id is the conflict key and email is unique.
func (s *Store) UpsertUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, other := range s.users {
		if id != u.ID && other.Email == u.Email {
			return domain.ErrAlreadyExists
		}
	}
	if prev, ok := s.users[u.ID]; ok {
		u.CreatedAt = prev.CreatedAt
	} else {
		u.CreatedAt = s.tick()
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Store) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func cloneCurrency(c *models.Currency) *models.Currency {
	cp := *c
	cp.BuyCommissions = append(domain.Commissions(nil), c.BuyCommissions...)
	cp.SellCommissions = append(domain.Commissions(nil), c.SellCommissions...)
	cp.ExchangeCommissions = append(domain.Commissions(nil), c.ExchangeCommissions...)
	return &cp
}

func (s *Store) activeCurrencyTitleTaken(title string, except uuid.UUID) bool {
	for _, c := range s.currencies {
		if !c.IsArchived && c.Title == title && c.ID != except {
			return true
		}
	}
	return false
}

func (s *Store) CreateCurrency(_ context.Context, c *models.Currency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeCurrencyTitleTaken(c.Title, c.ID) {
		return domain.ErrAlreadyExists
	}
	c.CreatedAt = s.tick()
	c.UpdatedAt = c.CreatedAt
	s.currencies = append(s.currencies, cloneCurrency(c))
	return nil
}

func (s *Store) findCurrency(id uuid.UUID) *models.Currency {
	for _, c := range s.currencies {
		if c.ID == id && !c.IsArchived {
			return c
		}
	}
	return nil
}

func (s *Store) GetCurrency(_ context.Context, id uuid.UUID) (*models.Currency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.findCurrency(id)
	if c == nil {
		return nil, domain.ErrCurrencyNotFound
	}
	return cloneCurrency(c), nil
}

func (s *Store) GetCurrencyByTitle(_ context.Context, title string) (*models.Currency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.currencies {
		if !c.IsArchived && c.Title == title {
			return cloneCurrency(c), nil
		}
	}
	return nil, domain.ErrCurrencyNotFound
}

func (s *Store) ListActiveCurrencies(_ context.Context) ([]models.Currency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Currency
	for _, c := range s.currencies {
		if !c.IsArchived {
			out = append(out, *cloneCurrency(c))
		}
	}
	return out, nil
}

func (s *Store) ListCurrencies(ctx context.Context, p models.ListParams) ([]models.Currency, int, error) {
	all, _ := s.ListActiveCurrencies(ctx)
	var matched []models.Currency
	for _, c := range all {
		if p.Search == "" || containsFold(c.Title, p.Search) {
			matched = append(matched, c)
		}
	}
	if p.SortBy == "title" {
		sort.SliceStable(matched, func(i, j int) bool { return less(matched[i].Title, matched[j].Title, p.SortDesc) })
	}
	return paginate(matched, p), len(matched), nil
}

func (s *Store) UpdateCurrency(_ context.Context, c *models.Currency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.findCurrency(c.ID)
	if existing == nil {
		return domain.ErrCurrencyNotFound
	}
	if s.activeCurrencyTitleTaken(c.Title, c.ID) {
		return domain.ErrAlreadyExists
	}
	c.UpdatedAt = s.tick()
	*existing = *cloneCurrency(c)
	return nil
}

func (s *Store) UpdateCurrencyCommissions(_ context.Context, id uuid.UUID, sched domain.CommissionSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.findCurrency(id)
	if existing == nil {
		return domain.ErrCurrencyNotFound
	}
	if err := s.FailCommissionUpdate[existing.Title]; err != nil {
		return err
	}
	existing.SetSchedule(sched)
	existing.UpdatedAt = s.tick()
	return nil
}

func (s *Store) ArchiveCurrency(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.findCurrency(id)
	if c == nil {
		return domain.ErrCurrencyNotFound
	}
	c.IsArchived = true
	return nil
}

func (s *Store) CreatePaymentMethod(_ context.Context, pm *models.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.paymentMethods {
		if !existing.IsArchived && existing.Title == pm.Title {
			return domain.ErrAlreadyExists
		}
	}
	pm.CreatedAt = s.tick()
	pm.UpdatedAt = pm.CreatedAt
	cp := *pm
	s.paymentMethods = append(s.paymentMethods, &cp)
	return nil
}

func (s *Store) findPaymentMethod(id uuid.UUID) *models.PaymentMethod {
	for _, pm := range s.paymentMethods {
		if pm.ID == id && !pm.IsArchived {
			return pm
		}
	}
	return nil
}

func (s *Store) GetPaymentMethod(_ context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pm := s.findPaymentMethod(id)
	if pm == nil {
		return nil, domain.ErrPaymentMethodNotFound
	}
	cp := *pm
	return &cp, nil
}

func (s *Store) ListActivePaymentMethods(_ context.Context) ([]models.PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PaymentMethod
	for _, pm := range s.paymentMethods {
		if !pm.IsArchived {
			out = append(out, *pm)
		}
	}
	return out, nil
}

func (s *Store) ListPaymentMethods(ctx context.Context, p models.ListParams) ([]models.PaymentMethod, int, error) {
	all, _ := s.ListActivePaymentMethods(ctx)
	var matched []models.PaymentMethod
	for _, pm := range all {
		if p.Search == "" || containsFold(pm.Title, p.Search) {
			matched = append(matched, pm)
		}
	}
	if p.SortBy == "title" {
		sort.SliceStable(matched, func(i, j int) bool { return less(matched[i].Title, matched[j].Title, p.SortDesc) })
	}
	return paginate(matched, p), len(matched), nil
}

func (s *Store) UpdatePaymentMethod(_ context.Context, pm *models.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.findPaymentMethod(pm.ID)
	if existing == nil {
		return domain.ErrPaymentMethodNotFound
	}
	for _, other := range s.paymentMethods {
		if !other.IsArchived && other.ID != pm.ID && other.Title == pm.Title {
			return domain.ErrAlreadyExists
		}
	}
	pm.UpdatedAt = s.tick()
	*existing = *pm
	return nil
}

func (s *Store) ArchivePaymentMethod(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pm := s.findPaymentMethod(id)
	if pm == nil {
		return domain.ErrPaymentMethodNotFound
	}
	pm.IsArchived = true
	return nil
}

// assetTitle mirrors the repository join: the live title of the referenced
// asset and whether that asset is still active.
func (s *Store) assetTitle(a *models.Account) (string, bool) {
	if a.PaymentMethodID != nil {
		for _, pm := range s.paymentMethods {
			if pm.ID == *a.PaymentMethodID {
				return pm.Title, !pm.IsArchived
			}
		}
	}
	if a.CurrencyID != nil {
		for _, c := range s.currencies {
			if c.ID == *a.CurrencyID {
				return c.Title, !c.IsArchived
			}
		}
	}
	return "", false
}

func (s *Store) readAccount(a *models.Account) models.Account {
	cp := *a
	cp.AssetTitle, _ = s.assetTitle(a)
	return cp
}

func (s *Store) CreateAccount(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[a.OwnerID]; !ok {
		return fmt.Errorf("create account: %w: accounts_owner_id_fkey", domain.ErrInvalidParameters)
	}
	a.CreatedAt = s.tick()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	s.accounts = append(s.accounts, &cp)
	return nil
}

func (s *Store) findAccount(id uuid.UUID) *models.Account {
	for _, a := range s.accounts {
		if a.ID == id && !a.IsArchived {
			return a
		}
	}
	return nil
}

func (s *Store) GetAccount(_ context.Context, id uuid.UUID) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.findAccount(id)
	if a == nil {
		return nil, domain.ErrAccountNotFound
	}
	out := s.readAccount(a)
	return &out, nil
}

func (s *Store) ListAccounts(_ context.Context, ownerID uuid.UUID) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Account
	for i := len(s.accounts) - 1; i >= 0; i-- {
		a := s.accounts[i]
		if a.OwnerID == ownerID && !a.IsArchived {
			out = append(out, s.readAccount(a))
		}
	}
	return out, nil
}

func (s *Store) FindActiveAccount(_ context.Context, ownerID uuid.UUID, t domain.AccountType, assetTitle string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var newest *models.Account
	for _, a := range s.accounts {
		if a.OwnerID != ownerID || a.AccountType != t || a.IsArchived {
			continue
		}
		title, active := s.assetTitle(a)
		if !active || title != assetTitle {
			continue
		}
		if newest == nil || a.CreatedAt.After(newest.CreatedAt) {
			newest = a
		}
	}
	if newest == nil {
		return nil, domain.ErrAccountNotFound
	}
	out := s.readAccount(newest)
	return &out, nil
}

func (s *Store) UpdateAccount(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.findAccount(a.ID)
	if existing == nil {
		return domain.ErrAccountNotFound
	}
	existing.AccountName = a.AccountName
	existing.AccountNumber = a.AccountNumber
	existing.BankName = a.BankName
	existing.BankAddress = a.BankAddress
	existing.BankSwiftCode = a.BankSwiftCode
	existing.Details = a.Details
	existing.UpdatedAt = s.tick()
	a.UpdatedAt = existing.UpdatedAt
	return nil
}

func (s *Store) ArchiveAccount(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.findAccount(id)
	if a == nil {
		return domain.ErrAccountNotFound
	}
	a.IsArchived = true
	return nil
}

func (s *Store) CreateOrder(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[o.UserID]; !ok {
		return fmt.Errorf("create order: %w: orders_user_id_fkey", domain.ErrInvalidParameters)
	}
	o.CreatedAt = s.tick()
	o.UpdatedAt = o.CreatedAt
	cp := *o
	s.orders = append(s.orders, &cp)
	return nil
}

func (s *Store) findOrder(id uuid.UUID) *models.Order {
	for _, o := range s.orders {
		if o.ID == id && !o.IsArchived {
			return o
		}
	}
	return nil
}

func (s *Store) GetOrder(_ context.Context, id uuid.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.findOrder(id)
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *Store) ListOrders(_ context.Context, f models.OrderFilter) ([]models.Order, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.Order
	for _, o := range s.orders {
		if o.IsArchived {
			continue
		}
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		if f.Type != "" && o.Type != f.Type {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.Search != "" && !containsFold(o.ID.String(), f.Search) && !containsFold(o.SentFrom.Title, f.Search) &&
			!containsFold(o.ReceivedIn.Title, f.Search) && !containsFold(string(o.Status), f.Search) {
			continue
		}
		matched = append(matched, *o)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if f.SortDesc {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return paginate(matched, f.ListParams), len(matched), nil
}

func (s *Store) TransitionOrderStatus(_ context.Context, id uuid.UUID, next domain.OrderStatus, actorID *uuid.UUID, check func(current domain.OrderStatus) (bool, error)) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.findOrder(id)
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	apply, err := check(o.Status)
	if err != nil {
		return nil, err
	}
	if apply {
		s.audit = append(s.audit, models.AuditEntry{
			ID:         int64(len(s.audit) + 1),
			EntityType: "order",
			EntityID:   id,
			ActorID:    actorID,
			Action:     "order.status_changed",
			PrevState:  string(o.Status),
			NextState:  string(next),
			CreatedAt:  s.tick(),
		})
		o.Status = next
		o.UpdatedAt = s.now
	}
	cp := *o
	return &cp, nil
}

func (s *Store) AmendOrder(_ context.Context, id uuid.UUID, actorID *uuid.UUID, amend func(o *models.Order) (bool, error)) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.findOrder(id)
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	draft := *o
	apply, err := amend(&draft)
	if err != nil {
		return nil, err
	}
	if apply {
		s.audit = append(s.audit, models.AuditEntry{
			ID:         int64(len(s.audit) + 1),
			EntityType: "order",
			EntityID:   id,
			ActorID:    actorID,
			Action:     "order.amended",
			PrevState:  o.PricingSummary(),
			NextState:  draft.PricingSummary(),
			CreatedAt:  s.tick(),
		})
		o.FirstAmount = draft.FirstAmount
		o.SecondAmount = draft.SecondAmount.Round(2)
		o.ServiceCharges = draft.ServiceCharges
		o.UpdatedAt = s.now
	}
	cp := *o
	return &cp, nil
}

func (s *Store) ArchiveOrder(_ context.Context, id uuid.UUID, actorID *uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.findOrder(id)
	if o == nil {
		return domain.ErrOrderNotFound
	}
	o.IsArchived = true
	s.audit = append(s.audit, models.AuditEntry{
		ID:         int64(len(s.audit) + 1),
		EntityType: "order",
		EntityID:   id,
		ActorID:    actorID,
		Action:     "order.archived",
		PrevState:  "active",
		NextState:  "archived",
		CreatedAt:  s.tick(),
	})
	return nil
}

// Audit returns a copy of every recorded audit entry.
func (s *Store) Audit() []models.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AuditEntry(nil), s.audit...)
}

func (s *Store) ListSiteConfigs(_ context.Context, limit int) ([]models.SiteConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > len(s.configs) {
		limit = len(s.configs)
	}
	return append([]models.SiteConfig(nil), s.configs[:limit]...), nil
}

func (s *Store) CreateSiteConfig(_ context.Context, c *models.SiteConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.UpdatedAt = s.tick()
	s.configs = append(s.configs, *c)
	return nil
}

func (s *Store) UpdateSiteConfig(_ context.Context, c *models.SiteConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.configs {
		if s.configs[i].ID == c.ID {
			c.UpdatedAt = s.tick()
			s.configs[i] = *c
			return nil
		}
	}
	return domain.ErrConfigNotFound
}

func (s *Store) GetIdempotencyKey(_ context.Context, key string) (*idempotency.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.idem[key]
	if !ok {
		return nil, idempotency.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (s *Store) ReserveIdempotencyKey(_ context.Context, key, requestHash, _, _ string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.idem[key]; ok {
		return false, nil
	}
	s.idem[key] = &idempotency.Row{Key: key, RequestHash: requestHash, InProgress: true}
	return true, nil
}

func (s *Store) FinalizeIdempotencyKey(_ context.Context, key, requestHash string, status int, body []byte, contentType string) (*idempotency.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.idem[key]
	if !ok || row.RequestHash != requestHash {
		return nil, idempotency.ErrNotFound
	}
	row.Status = status
	row.Body = append([]byte(nil), body...)
	row.ContentType = contentType
	row.InProgress = false
	cp := *row
	return &cp, nil
}

func (s *Store) ReleaseIdempotencyKey(_ context.Context, key, requestHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.idem[key]; ok && row.RequestHash == requestHash && row.InProgress {
		delete(s.idem, key)
	}
	return nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(sub)))
}

func less(a, b string, desc bool) bool {
	if desc {
		return a > b
	}
	return a < b
}

func paginate[T any](items []T, p models.ListParams) []T {
	p = p.Normalize()
	start := p.Offset()
	if start >= len(items) {
		return nil
	}
	end := start + p.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
