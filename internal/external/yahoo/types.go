package yahoo

// value is Yahoo's {"raw": ..., "fmt": "..."} wrapper; missing fields decode as {}
type value struct {
	Raw *float64 `json:"raw"`
}

// quoteSummaryResponse is the /v10/finance/quoteSummary envelope
type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []summaryResult `json:"result"`
		Error  *apiError       `json:"error"`
	} `json:"quoteSummary"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type summaryResult struct {
	Price                *priceModule                `json:"price"`
	SummaryDetail        *summaryDetailModule        `json:"summaryDetail"`
	DefaultKeyStatistics *defaultKeyStatisticsModule `json:"defaultKeyStatistics"`
	FinancialData        *financialDataModule        `json:"financialData"`
	AssetProfile         *assetProfileModule         `json:"assetProfile"`
}

type priceModule struct {
	ShortName          string `json:"shortName"`
	LongName           string `json:"longName"`
	Currency           string `json:"currency"`
	RegularMarketPrice value  `json:"regularMarketPrice"`
	MarketCap          value  `json:"marketCap"`
}

type summaryDetailModule struct {
	Currency                    string `json:"currency"`
	DividendRate                value  `json:"dividendRate"`
	DividendYield               value  `json:"dividendYield"` // fraction (0.0577)
	TrailingAnnualDividendRate  value  `json:"trailingAnnualDividendRate"`
	TrailingAnnualDividendYield value  `json:"trailingAnnualDividendYield"`
	PayoutRatio                 value  `json:"payoutRatio"` // fraction
	ExDividendDate              value  `json:"exDividendDate"`
	TrailingPE                  value  `json:"trailingPE"`
	MarketCap                   value  `json:"marketCap"`
	FiftyTwoWeekHigh            value  `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow             value  `json:"fiftyTwoWeekLow"`
}

type defaultKeyStatisticsModule struct {
	NetIncomeToCommon value `json:"netIncomeToCommon"`
	SharesOutstanding value `json:"sharesOutstanding"`
	TrailingEps       value `json:"trailingEps"`
}

type financialDataModule struct {
	CurrentPrice value `json:"currentPrice"`
}

type assetProfileModule struct {
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
}

// modules requested from quoteSummary
const summaryModules = "price,summaryDetail,defaultKeyStatistics,financialData,assetProfile"
