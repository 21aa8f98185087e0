package parsers

import (
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/spacious-team/investbook-sub001/src/models"
)

// ErrUniqueViolation is returned by a SecurityStore insert that lost a
// natural-key race against a concurrent import.
var ErrUniqueViolation = errors.New("unique constraint violation")

// ErrSecurityNotResolved reports an instrument that could neither be
// inserted nor found again after an insert conflict.
var ErrSecurityNotResolved = errors.New("could not save instrument")

// SecurityStore looks instruments up by natural key and inserts new
// ones. Find methods return (nil, nil) for an unknown key. Insert
// returns ErrUniqueViolation on a natural-key collision.
type SecurityStore interface {
	FindByISIN(isin string) (*models.Security, error)
	FindByTicker(ticker string) (*models.Security, error)
	FindByName(name string) (*models.Security, error)
	Insert(security models.Security) (int64, error)
}

// SecurityRegistrar assigns each instrument a stable id, creating the
// row on first sight. Reports are parsed in parallel and may declare
// the same instrument simultaneously; the registrar takes no lock and
// lets the store's uniqueness constraint arbitrate, re-selecting after
// a lost race.
type SecurityRegistrar struct {
	store SecurityStore
	ids   *gocache.Cache
}

func NewSecurityRegistrar(store SecurityStore) *SecurityRegistrar {
	return &SecurityRegistrar{
		store: store,
		ids:   gocache.New(time.Hour, 2*time.Hour),
	}
}

// DeclareByISIN returns the id of the instrument with the given ISIN,
// inserting the built candidate when the ISIN is unknown.
func (r *SecurityRegistrar) DeclareByISIN(isin string, build func() models.Security) (int64, error) {
	return r.declare("isin:"+isin, r.store.FindByISIN, isin, build)
}

func (r *SecurityRegistrar) DeclareByTicker(ticker string, build func() models.Security) (int64, error) {
	return r.declare("ticker:"+ticker, r.store.FindByTicker, ticker, build)
}

func (r *SecurityRegistrar) DeclareByName(name string, build func() models.Security) (int64, error) {
	return r.declare("name:"+name, r.store.FindByName, name, build)
}

// DeclareSecurity registers an instrument by its type-driven natural
// key: ISIN first for shares and bonds, ticker for derivatives and
// currency pairs, name for free-form assets.
func (r *SecurityRegistrar) DeclareSecurity(security models.Security) (int64, error) {
	build := func() models.Security { return security }
	switch security.Type {
	case models.TypeDerivative, models.TypeCurrencyPair:
		return r.DeclareByTicker(security.Ticker, build)
	case models.TypeAsset:
		return r.DeclareByName(security.Name, build)
	}
	if security.ISIN != "" {
		return r.DeclareByISIN(security.ISIN, build)
	}
	if security.Ticker != "" {
		return r.DeclareByTicker(security.Ticker, build)
	}
	return r.DeclareByName(security.Name, build)
}

// DeclareDerivative registers a futures or option contract by its
// exchange code.
func (r *SecurityRegistrar) DeclareDerivative(code string) (int64, error) {
	return r.DeclareByTicker(code, func() models.Security {
		return models.Security{Ticker: code, Type: models.TypeDerivative}
	})
}

// DeclareCurrencyPair registers a currency exchange contract such as
// USDRUB_TOM by its contract code.
func (r *SecurityRegistrar) DeclareCurrencyPair(contract string) (int64, error) {
	return r.DeclareByTicker(contract, func() models.Security {
		return models.Security{Ticker: contract, Type: models.TypeCurrencyPair}
	})
}

func (r *SecurityRegistrar) declare(cacheKey string, find func(string) (*models.Security, error), key string, build func() models.Security) (int64, error) {
	if key == "" {
		return 0, fmt.Errorf("declaring instrument: empty natural key")
	}
	if id, ok := r.ids.Get(cacheKey); ok {
		return id.(int64), nil
	}
	existing, err := find(key)
	if err != nil {
		return 0, fmt.Errorf("looking up instrument %q: %w", key, err)
	}
	if existing != nil {
		r.ids.Set(cacheKey, existing.ID, gocache.DefaultExpiration)
		return existing.ID, nil
	}

	candidate := build()
	if candidate.Type == models.TypeUnspecified {
		candidate.Type = models.TypeStockOrBond
	}
	if err := candidate.Validate(); err != nil {
		return 0, err
	}
	id, insertErr := r.store.Insert(candidate)
	if insertErr == nil {
		r.ids.Set(cacheKey, id, gocache.DefaultExpiration)
		return id, nil
	}
	if !errors.Is(insertErr, ErrUniqueViolation) {
		return 0, fmt.Errorf("inserting instrument %q: %w", key, insertErr)
	}

	// Lost the race: a parallel import created the row first.
	existing, err = find(key)
	if err != nil {
		return 0, fmt.Errorf("re-selecting instrument %q: %w", key, err)
	}
	if existing == nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrSecurityNotResolved, key, insertErr)
	}
	r.ids.Set(cacheKey, existing.ID, gocache.DefaultExpiration)
	return existing.ID, nil
}
