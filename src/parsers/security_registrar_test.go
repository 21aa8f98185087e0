package parsers

import (
	"errors"
	"sync"
	"testing"

	"github.com/spacious-team/investbook-sub001/src/models"
)

// memorySecurityStore mimics the database store including its
// uniqueness constraint, with an optional hook to widen the race
// window between find and insert.
type memorySecurityStore struct {
	mu           sync.Mutex
	nextID       int64
	rows         []models.Security
	beforeInsert func()
}

func (s *memorySecurityStore) findBy(match func(models.Security) bool) (*models.Security, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if match(row) {
			found := row
			return &found, nil
		}
	}
	return nil, nil
}

func (s *memorySecurityStore) FindByISIN(isin string) (*models.Security, error) {
	return s.findBy(func(r models.Security) bool { return r.ISIN == isin })
}

func (s *memorySecurityStore) FindByTicker(ticker string) (*models.Security, error) {
	return s.findBy(func(r models.Security) bool { return r.Ticker == ticker })
}

func (s *memorySecurityStore) FindByName(name string) (*models.Security, error) {
	return s.findBy(func(r models.Security) bool { return r.Name == name })
}

func (s *memorySecurityStore) Insert(security models.Security) (int64, error) {
	if s.beforeInsert != nil {
		s.beforeInsert()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if (security.ISIN != "" && row.ISIN == security.ISIN) ||
			(security.Ticker != "" && row.Ticker == security.Ticker) ||
			(security.Name != "" && row.Name == security.Name) {
			return 0, ErrUniqueViolation
		}
	}
	s.nextID++
	security.ID = s.nextID
	s.rows = append(s.rows, security)
	return security.ID, nil
}

func stockBuilder(isin string) func() models.Security {
	return func() models.Security {
		return models.Security{ISIN: isin, Type: models.TypeStock}
	}
}

func TestDeclareInsertsOnFirstSight(t *testing.T) {
	store := &memorySecurityStore{}
	r := NewSecurityRegistrar(store)

	id, err := r.DeclareByISIN("RU000A0JX0J2", stockBuilder("RU000A0JX0J2"))
	if err != nil {
		t.Fatalf("DeclareByISIN: %v", err)
	}
	if id == 0 {
		t.Fatal("id must be assigned")
	}
	again, err := r.DeclareByISIN("RU000A0JX0J2", stockBuilder("RU000A0JX0J2"))
	if err != nil {
		t.Fatalf("second DeclareByISIN: %v", err)
	}
	if again != id {
		t.Errorf("second declare = %d, want %d", again, id)
	}
	if len(store.rows) != 1 {
		t.Errorf("store has %d rows, want 1", len(store.rows))
	}
}

func TestDeclareConcurrentSameISIN(t *testing.T) {
	store := &memorySecurityStore{}

	const workers = 8
	ids := make([]int64, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		// Each worker gets its own registrar so the id cache cannot
		// serialize them; only the store arbitrates.
		r := NewSecurityRegistrar(store)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = r.DeclareByISIN("US0378331005", stockBuilder("US0378331005"))
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("worker %d got id %d, worker 0 got %d", i, ids[i], ids[0])
		}
	}
	if len(store.rows) != 1 {
		t.Errorf("store has %d rows, want exactly 1", len(store.rows))
	}
}

func TestDeclareRecoversFromLostRace(t *testing.T) {
	store := &memorySecurityStore{}
	// Simulate losing the race: another import inserts the same ISIN
	// between this registrar's lookup and its insert.
	store.beforeInsert = func() {
		store.beforeInsert = nil
		if _, err := store.Insert(models.Security{ISIN: "DE0005557508", Type: models.TypeStock}); err != nil {
			t.Fatalf("competing insert: %v", err)
		}
	}
	r := NewSecurityRegistrar(store)

	id, err := r.DeclareByISIN("DE0005557508", stockBuilder("DE0005557508"))
	if err != nil {
		t.Fatalf("DeclareByISIN after lost race: %v", err)
	}
	if id != 1 {
		t.Errorf("id = %d, want the competing row's id 1", id)
	}
	if len(store.rows) != 1 {
		t.Errorf("store has %d rows, want 1", len(store.rows))
	}
}

func TestDeclareUnresolvedAfterConflict(t *testing.T) {
	store := &brokenStore{}
	r := NewSecurityRegistrar(store)
	_, err := r.DeclareByISIN("XS0000000001", stockBuilder("XS0000000001"))
	if !errors.Is(err, ErrSecurityNotResolved) {
		t.Errorf("err = %v, want ErrSecurityNotResolved", err)
	}
}

// brokenStore reports a conflict on insert yet never finds the row,
// which must surface as an unresolved instrument.
type brokenStore struct{}

func (brokenStore) FindByISIN(string) (*models.Security, error)   { return nil, nil }
func (brokenStore) FindByTicker(string) (*models.Security, error) { return nil, nil }
func (brokenStore) FindByName(string) (*models.Security, error)   { return nil, nil }
func (brokenStore) Insert(models.Security) (int64, error)         { return 0, ErrUniqueViolation }

func TestDeclareSecurityKeyPriority(t *testing.T) {
	store := &memorySecurityStore{}
	r := NewSecurityRegistrar(store)

	derivativeID, err := r.DeclareDerivative("Si-6.24")
	if err != nil {
		t.Fatalf("DeclareDerivative: %v", err)
	}
	if store.rows[0].Type != models.TypeDerivative || store.rows[0].Ticker != "Si-6.24" {
		t.Errorf("derivative row = %+v", store.rows[0])
	}

	pairID, err := r.DeclareCurrencyPair("USDRUB_TOM")
	if err != nil {
		t.Fatalf("DeclareCurrencyPair: %v", err)
	}
	if pairID == derivativeID {
		t.Error("distinct instruments share an id")
	}
	if store.rows[1].Type != models.TypeCurrencyPair {
		t.Errorf("currency pair row = %+v", store.rows[1])
	}
}

func TestDeclareDefaultsUnspecifiedType(t *testing.T) {
	store := &memorySecurityStore{}
	r := NewSecurityRegistrar(store)
	_, err := r.DeclareByISIN("RU000A101X76", func() models.Security {
		return models.Security{ISIN: "RU000A101X76"}
	})
	if err != nil {
		t.Fatalf("DeclareByISIN: %v", err)
	}
	if store.rows[0].Type != models.TypeStockOrBond {
		t.Errorf("type = %v, want stock_or_bond default", store.rows[0].Type)
	}
}

func TestDeclareEmptyKeyRejected(t *testing.T) {
	r := NewSecurityRegistrar(&memorySecurityStore{})
	if _, err := r.DeclareByISIN("", stockBuilder("")); err == nil {
		t.Error("empty natural key must be rejected")
	}
}
