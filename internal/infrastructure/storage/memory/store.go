// Package memory is an in-process implementation of every repository.
// It backs STORAGE=memory and the service tests.
//
// Transactions are serialized by one lock. A transaction snapshots the whole
// state on entry and restores it when fn fails, so a failed confirmation
// leaves batches, balances, vouchers and sequences exactly as they were.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"erpcore/internal/core/id"
	"erpcore/internal/core/tx"
	"erpcore/internal/domain/accounts"
	"erpcore/internal/domain/catalogs/party"
	"erpcore/internal/domain/catalogs/warehouse"
	"erpcore/internal/domain/documents"
	"erpcore/internal/domain/finance"
	"erpcore/internal/domain/stock"
	"erpcore/internal/domain/vouchers"
)

type state struct {
	accounts     map[id.ID]accounts.Account
	voucherTypes map[vouchers.Type]vouchers.TypeInfo
	vouchers     map[id.ID]vouchers.Voucher
	batches      map[id.ID]stock.Batch
	movements    []stock.Movement
	parties      map[id.ID]party.Party
	warehouses   map[id.ID]warehouse.Warehouse
	years        map[id.ID]finance.Year
	terms        map[id.ID]finance.Term
	schedules    []finance.Schedule
	documents    map[id.ID]documents.Document
	sequences    map[string]int64
}

func newState() *state {
	return &state{
		accounts:     make(map[id.ID]accounts.Account),
		voucherTypes: make(map[vouchers.Type]vouchers.TypeInfo),
		vouchers:     make(map[id.ID]vouchers.Voucher),
		batches:      make(map[id.ID]stock.Batch),
		parties:      make(map[id.ID]party.Party),
		warehouses:   make(map[id.ID]warehouse.Warehouse),
		years:        make(map[id.ID]finance.Year),
		terms:        make(map[id.ID]finance.Term),
		documents:    make(map[id.ID]documents.Document),
		sequences:    make(map[string]int64),
	}
}

// clone copies every table. Slices held inside rows (entries, lines) are
// never mutated in place, so a shallow row copy is enough.
func (s *state) clone() *state {
	return &state{
		accounts:     maps.Clone(s.accounts),
		voucherTypes: maps.Clone(s.voucherTypes),
		vouchers:     maps.Clone(s.vouchers),
		batches:      maps.Clone(s.batches),
		movements:    slices.Clone(s.movements),
		parties:      maps.Clone(s.parties),
		warehouses:   maps.Clone(s.warehouses),
		years:        maps.Clone(s.years),
		terms:        maps.Clone(s.terms),
		schedules:    slices.Clone(s.schedules),
		documents:    maps.Clone(s.documents),
		sequences:    maps.Clone(s.sequences),
	}
}

// Store holds all tables.
type Store struct {
	mu sync.RWMutex
	st *state
}

// Compile-time check that Store implements tx.Manager interface.
var _ tx.Manager = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{st: newState()}
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txKey{}).(*Store)
	return ok && owner == s
}

// RunInTransaction runs fn holding the store lock. Nested calls reuse the
// outer transaction; only the outermost call commits or rolls back.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	defer func() {
		if r := recover(); r != nil {
			s.st = snapshot
			panic(r)
		}
		if err != nil {
			s.st = snapshot
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, s))
}

// read runs fn against the current state, under a shared lock outside a transaction.
func (s *Store) read(ctx context.Context, fn func(st *state) error) error {
	if s.inTx(ctx) {
		return fn(s.st)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.st)
}

// write runs fn as its own transaction unless one is already open.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	return s.RunInTransaction(ctx, func(context.Context) error {
		return fn(s.st)
	})
}

// Reset drops all data.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = newState()
}

// Repositories returns all repositories over s.
func (s *Store) Repositories() *Repositories {
	return &Repositories{
		Accounts:   &AccountRepo{s},
		Vouchers:   &VoucherRepo{s},
		Stock:      &StockRepo{s},
		Parties:    &PartyRepo{s},
		Warehouses: &WarehouseRepo{s},
		Finance:    &FinanceRepo{s},
		Documents:  &DocumentRepo{s},
		Reports:    &ReportRepo{s},
		Numerator:  &Numerator{s},
	}
}

// Repositories groups the per-domain views of a Store.
type Repositories struct {
	Accounts   *AccountRepo
	Vouchers   *VoucherRepo
	Stock      *StockRepo
	Parties    *PartyRepo
	Warehouses *WarehouseRepo
	Finance    *FinanceRepo
	Documents  *DocumentRepo
	Reports    *ReportRepo
	Numerator  *Numerator
}
