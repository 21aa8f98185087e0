package processors

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spacious-team/investbook-sub001/src/logger"
	"github.com/spacious-team/investbook-sub001/src/models"
	"github.com/spacious-team/investbook-sub001/src/utils"
)

// ErrRateUnknown reports that no rate is recorded for a currency pair
// on the requested day.
var ErrRateUnknown = errors.New("exchange rate unknown")

// RateStore persists official exchange rates between runs. SaveRate
// tolerates re-registration of an already stored day.
type RateStore interface {
	SaveRate(rate models.ForeignExchangeRate) error
	LoadRates() ([]models.ForeignExchangeRate, error)
}

// RateService keeps per-day official exchange rates. Reports carry the
// central bank rates for their own period, so rates are registered
// while parsing and consulted moments later by the fee reconciler.
type RateService struct {
	mu    sync.RWMutex
	rates map[string]decimal.Decimal
	store RateStore
}

func NewRateService(store RateStore) (*RateService, error) {
	s := &RateService{
		rates: make(map[string]decimal.Decimal),
		store: store,
	}
	if store != nil {
		stored, err := store.LoadRates()
		if err != nil {
			return nil, fmt.Errorf("loading stored exchange rates: %w", err)
		}
		for _, rate := range stored {
			s.rates[rateKey(rate.Date, rate.BaseCurrency, rate.QuoteCurrency)] = rate.Rate
		}
	}
	return s, nil
}

func rateKey(date, base, quote string) string {
	return date + "/" + base + "/" + quote
}

// Register records one rate in memory and in the store. A rate already
// known for that day is overwritten in memory; the store decides its
// own conflict policy.
func (s *RateService) Register(rate models.ForeignExchangeRate) error {
	rate.BaseCurrency = utils.NormalizeCurrency(rate.BaseCurrency)
	rate.QuoteCurrency = utils.NormalizeCurrency(rate.QuoteCurrency)
	if rate.Rate.Sign() <= 0 {
		return fmt.Errorf("non-positive %s/%s rate %s on %s",
			rate.BaseCurrency, rate.QuoteCurrency, rate.Rate, rate.Date)
	}
	s.mu.Lock()
	s.rates[rateKey(rate.Date, rate.BaseCurrency, rate.QuoteCurrency)] = rate.Rate
	s.mu.Unlock()
	if s.store != nil {
		return s.store.SaveRate(rate)
	}
	return nil
}

// Rate returns how many units of quote one unit of base costs at the
// given instant. The inverse pair serves when only it is recorded.
func (s *RateService) Rate(base, quote string, timestamp int64) (decimal.Decimal, error) {
	base = utils.NormalizeCurrency(base)
	quote = utils.NormalizeCurrency(quote)
	if base == quote {
		return decimal.NewFromInt(1), nil
	}
	date := utils.FormatDate(time.Unix(timestamp, 0))
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rate, ok := s.rates[rateKey(date, base, quote)]; ok {
		return rate, nil
	}
	if rate, ok := s.rates[rateKey(date, quote, base)]; ok {
		return decimal.NewFromInt(1).Div(rate), nil
	}
	return decimal.Zero, fmt.Errorf("%w: %s/%s on %s", ErrRateUnknown, base, quote, date)
}

// Convert implements RateProvider.
func (s *RateService) Convert(amount decimal.Decimal, from, to string, timestamp int64) (decimal.Decimal, error) {
	rate, err := s.Rate(from, to, timestamp)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}

type historicalRate struct {
	Date  string `json:"date"`
	Base  string `json:"base"`
	Quote string `json:"quote"`
	Rate  string `json:"rate"`
}

// LoadHistoricalRates seeds the service from a bundled JSON file of
// past official rates, covering report periods older than any uploaded
// report. A missing file is not an error.
func (s *RateService) LoadHistoricalRates(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.L.Warn("historical exchange rates file not found, skipping", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading historical rates: %w", err)
	}
	var entries []historicalRate
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parsing historical rates: %w", err)
	}
	loaded := 0
	for _, entry := range entries {
		rate, err := decimal.NewFromString(entry.Rate)
		if err != nil {
			logger.L.Warn("skipping malformed historical rate",
				"date", entry.Date, "base", entry.Base, "quote", entry.Quote, "rate", entry.Rate)
			continue
		}
		s.mu.Lock()
		s.rates[rateKey(entry.Date,
			utils.NormalizeCurrency(entry.Base),
			utils.NormalizeCurrency(entry.Quote))] = rate
		s.mu.Unlock()
		loaded++
	}
	logger.L.Info("historical exchange rates loaded", "count", loaded, "path", path)
	return nil
}
