package processors

import (
	"errors"
	"testing"
	"time"

	"github.com/spacious-team/investbook-sub001/src/models"
	"github.com/spacious-team/investbook-sub001/src/utils"
)

func tsOf(t *testing.T, date string) int64 {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02", date, utils.MoscowTime)
	if err != nil {
		t.Fatalf("bad test date %q: %v", date, err)
	}
	return parsed.Unix()
}

func TestRateDirectAndInverse(t *testing.T) {
	s := newTestRateService(t, models.ForeignExchangeRate{
		Date: "2024-06-01", BaseCurrency: "USD", QuoteCurrency: "RUB", Rate: d("90"),
	})

	direct, err := s.Rate("USD", "RUB", tsOf(t, "2024-06-01"))
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if !direct.Equal(d("90")) {
		t.Errorf("direct rate = %s, want 90", direct)
	}

	inverse, err := s.Rate("RUB", "USD", tsOf(t, "2024-06-01"))
	if err != nil {
		t.Fatalf("inverse Rate: %v", err)
	}
	product := direct.Mul(inverse)
	if product.Sub(d("1")).Abs().GreaterThan(d("0.0000001")) {
		t.Errorf("direct*inverse = %s, want 1", product)
	}
}

func TestRateSameCurrency(t *testing.T) {
	s := newTestRateService(t)
	rate, err := s.Rate("RUB", "RUR", tsOf(t, "2024-06-01"))
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if !rate.Equal(d("1")) {
		t.Errorf("rate = %s, want 1 for an aliased pair", rate)
	}
}

func TestRateUnknownDay(t *testing.T) {
	s := newTestRateService(t, models.ForeignExchangeRate{
		Date: "2024-06-01", BaseCurrency: "USD", QuoteCurrency: "RUB", Rate: d("90"),
	})
	_, err := s.Rate("USD", "RUB", tsOf(t, "2024-06-02"))
	if !errors.Is(err, ErrRateUnknown) {
		t.Errorf("err = %v, want ErrRateUnknown for a day with no rate", err)
	}
}

func TestRegisterRejectsNonPositiveRate(t *testing.T) {
	s := newTestRateService(t)
	err := s.Register(models.ForeignExchangeRate{
		Date: "2024-06-01", BaseCurrency: "USD", QuoteCurrency: "RUB", Rate: d("0"),
	})
	if err == nil {
		t.Error("zero rate must be rejected")
	}
}

func TestRegisterNormalizesLegacyCode(t *testing.T) {
	s := newTestRateService(t, models.ForeignExchangeRate{
		Date: "2024-06-01", BaseCurrency: "USD", QuoteCurrency: "RUR", Rate: d("90"),
	})
	rate, err := s.Rate("USD", "RUB", tsOf(t, "2024-06-01"))
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if !rate.Equal(d("90")) {
		t.Errorf("rate = %s, want 90 via the normalized code", rate)
	}
}
