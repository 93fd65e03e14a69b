package yahoo

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/dividend-seeker/internal/contracts"
)

var errMalformed = errors.New("out of range")

// toRawQuote maps one quoteSummary result to a RawQuote
// Fields that Yahoo omits stay nil. Impossible values are rejected as MalformedData.
func (r *summaryResult) toRawQuote(symbol string) (*contracts.RawQuote, error) {
	p := r.Price
	if p == nil {
		p = &priceModule{}
	}
	sd := r.SummaryDetail
	if sd == nil {
		sd = &summaryDetailModule{}
	}
	ks := r.DefaultKeyStatistics
	if ks == nil {
		ks = &defaultKeyStatisticsModule{}
	}
	fd := r.FinancialData
	if fd == nil {
		fd = &financialDataModule{}
	}

	q := &contracts.RawQuote{
		Ticker:   symbol,
		Name:     firstString(p.ShortName, p.LongName, symbol),
		Currency: firstString(p.Currency, sd.Currency),

		DividendRate:  firstValue(sd.DividendRate, sd.TrailingAnnualDividendRate),
		DividendYield: percent(firstValue(sd.DividendYield, sd.TrailingAnnualDividendYield)),

		NetIncome:           ks.NetIncomeToCommon.Raw,
		SharesOutstanding:   ks.SharesOutstanding.Raw,
		TrailingEPS:         ks.TrailingEps.Raw,
		ProviderPayoutRatio: percent(sd.PayoutRatio.Raw),
		TrailingPE:          sd.TrailingPE.Raw,

		MarketCap:        firstValue(p.MarketCap, sd.MarketCap),
		FiftyTwoWeekHigh: sd.FiftyTwoWeekHigh.Raw,
		FiftyTwoWeekLow:  sd.FiftyTwoWeekLow.Raw,
	}

	if r.AssetProfile != nil {
		q.Sector = r.AssetProfile.Sector
		q.Industry = r.AssetProfile.Industry
	}

	if ex := sd.ExDividendDate.Raw; ex != nil && *ex > 0 {
		q.ExDividendDate = time.Unix(int64(*ex), 0).UTC().Format(contracts.DateLayout)
	}

	price := firstValue(fd.CurrentPrice, p.RegularMarketPrice)
	if price == nil || *price <= 0 || math.IsNaN(*price) {
		return nil, fmt.Errorf("%w: price missing or non-positive", errMalformed)
	}
	q.Price = *price

	if err := checkRanges(q); err != nil {
		return nil, err
	}
	return q, nil
}

func checkRanges(q *contracts.RawQuote) error {
	if q.DividendYield != nil && *q.DividendYield < 0 {
		return fmt.Errorf("%w: negative dividend yield %v", errMalformed, *q.DividendYield)
	}
	if q.DividendRate != nil && *q.DividendRate < 0 {
		return fmt.Errorf("%w: negative dividend rate %v", errMalformed, *q.DividendRate)
	}
	if q.FiftyTwoWeekHigh != nil && q.FiftyTwoWeekLow != nil && *q.FiftyTwoWeekLow > *q.FiftyTwoWeekHigh {
		return fmt.Errorf("%w: 52w low %v above high %v", errMalformed, *q.FiftyTwoWeekLow, *q.FiftyTwoWeekHigh)
	}
	return nil
}

// percent converts a fraction to percent, rounded to 2 decimals (0.05 → 5.00)
func percent(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	f, _ := decimal.NewFromFloat(*v).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return &f
}

func firstValue(values ...value) *float64 {
	for _, v := range values {
		if v.Raw != nil {
			return v.Raw
		}
	}
	return nil
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
