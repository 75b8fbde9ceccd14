// Package eodhd provides a client for the EODHD API
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/thesis/internal/common"
	"github.com/bobmcallan/thesis/internal/interfaces"
	"github.com/bobmcallan/thesis/internal/models"
)

// flexFloat64 handles JSON values that may be either a number or a string.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" || s == "N/A" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

const (
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Client implements the MarketDataClient interface
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("EODHD API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// eodBarResponse represents the API response for EOD data
type eodBarResponse struct {
	Date          string  `json:"date"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	AdjustedClose float64 `json:"adjusted_close"`
	Volume        int64   `json:"volume"`
}

// GetEOD retrieves end-of-day price data
func (c *Client) GetEOD(ctx context.Context, ticker string, opts ...interfaces.EODOption) ([]models.EODBar, error) {
	params := &interfaces.EODParams{
		Period: "d",
		Order:  "a", // ascending (oldest first, chart-ready)
	}

	for _, opt := range opts {
		opt(params)
	}

	urlParams := url.Values{}
	urlParams.Set("period", params.Period)
	urlParams.Set("order", params.Order)

	if !params.From.IsZero() {
		urlParams.Set("from", params.From.Format("2006-01-02"))
	}
	if !params.To.IsZero() {
		urlParams.Set("to", params.To.Format("2006-01-02"))
	}

	path := fmt.Sprintf("/eod/%s", ticker)

	var bars []eodBarResponse
	if err := c.get(ctx, path, urlParams, &bars); err != nil {
		return nil, err
	}

	result := make([]models.EODBar, len(bars))
	for i, bar := range bars {
		date, _ := time.Parse("2006-01-02", bar.Date)
		result[i] = models.EODBar{
			Date:     date,
			Open:     bar.Open,
			High:     bar.High,
			Low:      bar.Low,
			Close:    bar.Close,
			AdjClose: bar.AdjustedClose,
			Volume:   bar.Volume,
		}
	}

	return result, nil
}

// fundamentalsResponse represents the API response structure
type fundamentalsResponse struct {
	General struct {
		Code        string `json:"Code"`
		Name        string `json:"Name"`
		Sector      string `json:"Sector"`
		Industry    string `json:"Industry"`
		Description string `json:"Description"`
	} `json:"General"`
	Highlights struct {
		MarketCapitalization flexFloat64 `json:"MarketCapitalization"`
		PERatio              flexFloat64 `json:"PERatio"`
		EarningsShare        flexFloat64 `json:"EarningsShare"`
		DividendYield        flexFloat64 `json:"DividendYield"`
	} `json:"Highlights"`
	Valuation struct {
		PriceBookMRQ flexFloat64 `json:"PriceBookMRQ"`
	} `json:"Valuation"`
	Technicals struct {
		Beta flexFloat64 `json:"Beta"`
	} `json:"Technicals"`
	Financials struct {
		IncomeStatement statementGroup `json:"Income_Statement"`
		BalanceSheet    statementGroup `json:"Balance_Sheet"`
		CashFlow        statementGroup `json:"Cash_Flow"`
	} `json:"Financials"`
}

// statementGroup holds period-indexed statement records keyed by date.
type statementGroup struct {
	Yearly map[string]map[string]flexFloat64 `json:"yearly"`
}

// GetFundamentals retrieves company identity, valuation highlights, and the
// yearly financial statements for a ticker.
func (c *Client) GetFundamentals(ctx context.Context, ticker string) (*models.FinancialSnapshot, error) {
	path := fmt.Sprintf("/fundamentals/%s", ticker)

	var resp fundamentalsResponse
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}

	snapshot := &models.FinancialSnapshot{
		Ticker:      ticker,
		Name:        resp.General.Name,
		Sector:      resp.General.Sector,
		Industry:    resp.General.Industry,
		Description: resp.General.Description,
		Fundamentals: &models.Fundamentals{
			MarketCap:     float64(resp.Highlights.MarketCapitalization),
			PE:            float64(resp.Highlights.PERatio),
			PB:            float64(resp.Valuation.PriceBookMRQ),
			EPS:           float64(resp.Highlights.EarningsShare),
			DividendYield: float64(resp.Highlights.DividendYield),
			Beta:          float64(resp.Technicals.Beta),
		},
		Statements: map[models.StatementType][]models.StatementPeriod{},
	}

	for stype, group := range map[models.StatementType]statementGroup{
		models.StatementIncome:   resp.Financials.IncomeStatement,
		models.StatementBalance:  resp.Financials.BalanceSheet,
		models.StatementCashFlow: resp.Financials.CashFlow,
	} {
		periods := normalizeStatement(group)
		if len(periods) > 0 {
			snapshot.Statements[stype] = periods
		}
	}

	return snapshot, nil
}

// normalizeStatement converts a date-keyed statement group into an ordered
// slice, most recent period first, keeping only the latest four years.
func normalizeStatement(group statementGroup) []models.StatementPeriod {
	if len(group.Yearly) == 0 {
		return nil
	}

	dates := make([]string, 0, len(group.Yearly))
	for date := range group.Yearly {
		dates = append(dates, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	if len(dates) > 4 {
		dates = dates[:4]
	}

	periods := make([]models.StatementPeriod, 0, len(dates))
	for _, date := range dates {
		values := make(map[string]float64, len(group.Yearly[date]))
		for field, v := range group.Yearly[date] {
			if v != 0 {
				values[field] = float64(v)
			}
		}
		periods = append(periods, models.StatementPeriod{Date: date, Values: values})
	}
	return periods
}

type newsSentiment struct {
	Polarity float64 `json:"polarity"`
	Neg      float64 `json:"neg"`
	Neu      float64 `json:"neu"`
	Pos      float64 `json:"pos"`
}

func (s newsSentiment) classify() string {
	if s.Polarity > 0.5 {
		return "positive"
	} else if s.Polarity < -0.5 {
		return "negative"
	}
	return "neutral"
}

type newsResponse struct {
	Date      string        `json:"date"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	Link      string        `json:"link"`
	Source    string        `json:"source"`
	Sentiment newsSentiment `json:"sentiment"`
}

// GetNews retrieves news for a ticker
func (c *Client) GetNews(ctx context.Context, ticker string, limit int) ([]models.NewsItem, error) {
	path := "/news"

	params := url.Values{}
	params.Set("s", ticker)
	params.Set("limit", strconv.Itoa(limit))

	var newsResp []newsResponse
	if err := c.get(ctx, path, params, &newsResp); err != nil {
		return nil, err
	}

	news := make([]models.NewsItem, len(newsResp))
	for i, item := range newsResp {
		publishedAt, _ := time.Parse("2006-01-02T15:04:05+00:00", item.Date)
		news[i] = models.NewsItem{
			Title:       item.Title,
			URL:         item.Link,
			Source:      item.Source,
			PublishedAt: publishedAt,
			Sentiment:   item.Sentiment.classify(),
		}
	}

	return news, nil
}

// Ensure Client implements MarketDataClient
var _ interfaces.MarketDataClient = (*Client)(nil)
