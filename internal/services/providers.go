package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jamesincognito/signal-dashboard/internal/config"
	"github.com/jamesincognito/signal-dashboard/internal/models"
	"github.com/jamesincognito/signal-dashboard/internal/utils"
)

// Observation is one (date, value) pair as recovered from a provider,
// before persistence.
type Observation struct {
	Date  time.Time
	Value decimal.Decimal
}

// DataProviderClient fetches raw observations for one series definition.
type DataProviderClient interface {
	FetchObservations(ctx context.Context, series models.DataSeries) ([]Observation, error)
}

// observationHistory bounds how far back providers are asked for data.
const observationHistory = 730 * 24 * time.Hour

const (
	fredAPIBaseURL     = "https://api.stlouisfed.org/fred"
	fredGraphCSVURL    = "https://fred.stlouisfed.org/graph/fredgraph.csv"
	blsAPIBaseURL      = "https://api.bls.gov/publicAPI/v2"
	secEdgarBaseURL    = "https://data.sec.gov/api/xbrl"
	secFallbackConcept = "PaymentsToAcquirePropertyPlantAndEquipment"
)

// fredClient pulls observations from the St. Louis Fed. With an API key it
// uses the JSON API; without one it falls back to the public fredgraph CSV
// export, which needs no credentials.
type fredClient struct {
	httpClient *http.Client
	apiKey     string
}

type fredSeriesConfig struct {
	SeriesID string `json:"series_id"`
}

func (c *fredClient) FetchObservations(ctx context.Context, series models.DataSeries) ([]Observation, error) {
	var cfg fredSeriesConfig
	if err := json.Unmarshal([]byte(series.Config), &cfg); err != nil || cfg.SeriesID == "" {
		return nil, utils.NewValidationErrorf("series %q has invalid fred config", series.ID)
	}

	if c.apiKey == "" {
		return c.fetchCSV(ctx, series.ID, cfg.SeriesID)
	}
	return c.fetchJSON(ctx, series.ID, cfg.SeriesID)
}

type fredObservationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

func (c *fredClient) fetchJSON(ctx context.Context, seriesID, fredID string) ([]Observation, error) {
	params := url.Values{}
	params.Set("series_id", fredID)
	params.Set("api_key", c.apiKey)
	params.Set("file_type", "json")
	params.Set("observation_start", time.Now().UTC().Add(-observationHistory).Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fredAPIBaseURL+"/series/observations?"+params.Encode(), nil)
	if err != nil {
		return nil, utils.NewFetchError(seriesID, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, utils.NewFetchError(seriesID, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, utils.NewFetchError(seriesID, fmt.Errorf("fred returned status %d", resp.StatusCode))
	}

	var body fredObservationsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, utils.NewFetchError(seriesID, fmt.Errorf("decode response: %w", err))
	}

	var out []Observation
	for _, o := range body.Observations {
		obs, ok := parseObservation(o.Date, o.Value)
		if !ok {
			continue
		}
		out = append(out, obs)
	}
	return out, nil
}

func (c *fredClient) fetchCSV(ctx context.Context, seriesID, fredID string) ([]Observation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fredGraphCSVURL+"?id="+url.QueryEscape(fredID), nil)
	if err != nil {
		return nil, utils.NewFetchError(seriesID, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, utils.NewFetchError(seriesID, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, utils.NewFetchError(seriesID, fmt.Errorf("fredgraph returned status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, utils.NewFetchError(seriesID, err)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, utils.NewFetchError(seriesID, fmt.Errorf("parse csv: %w", err))
	}

	cutoff := time.Now().UTC().Add(-observationHistory)
	var out []Observation
	for i, rec := range records {
		if i == 0 || len(rec) < 2 {
			// header row: observation_date,<SERIES>
			continue
		}
		obs, ok := parseObservation(rec[0], rec[1])
		if !ok || obs.Date.Before(cutoff) {
			continue
		}
		out = append(out, obs)
	}
	return out, nil
}

// blsClient pulls observations from the BLS public timeseries API. The
// registration key is optional; without it the API serves a reduced
// request quota.
type blsClient struct {
	httpClient *http.Client
	apiKey     string
}

type blsSeriesConfig struct {
	SeriesID string `json:"series_id"`
}

type blsRequest struct {
	SeriesID        []string `json:"seriesid"`
	StartYear       string   `json:"startyear"`
	EndYear         string   `json:"endyear"`
	RegistrationKey string   `json:"registrationkey,omitempty"`
}

type blsResponse struct {
	Status  string   `json:"status"`
	Message []string `json:"message"`
	Results struct {
		Series []struct {
			Data []struct {
				Year   string `json:"year"`
				Period string `json:"period"`
				Value  string `json:"value"`
			} `json:"data"`
		} `json:"series"`
	} `json:"Results"`
}

func (c *blsClient) FetchObservations(ctx context.Context, series models.DataSeries) ([]Observation, error) {
	var cfg blsSeriesConfig
	if err := json.Unmarshal([]byte(series.Config), &cfg); err != nil || cfg.SeriesID == "" {
		return nil, utils.NewValidationErrorf("series %q has invalid bls config", series.ID)
	}

	now := time.Now().UTC()
	payload := blsRequest{
		SeriesID:        []string{cfg.SeriesID},
		StartYear:       strconv.Itoa(now.Year() - 2),
		EndYear:         strconv.Itoa(now.Year()),
		RegistrationKey: c.apiKey,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, utils.NewFetchError(series.ID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		blsAPIBaseURL+"/timeseries/data/", bytes.NewReader(body))
	if err != nil {
		return nil, utils.NewFetchError(series.ID, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, utils.NewFetchError(series.ID, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, utils.NewFetchError(series.ID, fmt.Errorf("bls returned status %d", resp.StatusCode))
	}

	var parsed blsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, utils.NewFetchError(series.ID, fmt.Errorf("decode response: %w", err))
	}
	if parsed.Status != "REQUEST_SUCCEEDED" {
		return nil, utils.NewFetchError(series.ID,
			fmt.Errorf("bls status %s: %s", parsed.Status, strings.Join(parsed.Message, "; ")))
	}
	if len(parsed.Results.Series) == 0 {
		return nil, nil
	}

	var out []Observation
	for _, d := range parsed.Results.Series[0].Data {
		// Monthly periods are M01..M12; M13 is the annual average.
		if !strings.HasPrefix(d.Period, "M") || d.Period == "M13" {
			continue
		}
		month, err := strconv.Atoi(strings.TrimPrefix(d.Period, "M"))
		if err != nil || month < 1 || month > 12 {
			continue
		}
		year, err := strconv.Atoi(d.Year)
		if err != nil {
			continue
		}
		value, err := decimal.NewFromString(d.Value)
		if err != nil {
			continue
		}
		out = append(out, Observation{
			Date:  time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC),
			Value: value,
		})
	}
	return out, nil
}

// secEdgarClient pulls XBRL company-concept facts from SEC EDGAR. EDGAR
// needs no credentials, only a descriptive User-Agent identifying the
// caller.
type secEdgarClient struct {
	httpClient *http.Client
	userAgent  string
}

type secSeriesConfig struct {
	CIK     string `json:"cik"`
	Concept string `json:"concept"`
}

type secConceptResponse struct {
	Units map[string][]struct {
		End  string          `json:"end"`
		Val  decimal.Decimal `json:"val"`
		Form string          `json:"form"`
	} `json:"units"`
}

func (c *secEdgarClient) FetchObservations(ctx context.Context, series models.DataSeries) ([]Observation, error) {
	var cfg secSeriesConfig
	if err := json.Unmarshal([]byte(series.Config), &cfg); err != nil || cfg.CIK == "" {
		return nil, utils.NewValidationErrorf("series %q has invalid sec_edgar config", series.ID)
	}
	if cfg.Concept == "" {
		cfg.Concept = secFallbackConcept
	}

	// CIKs in the companyconcept URL are zero-padded to ten digits.
	cik := strings.TrimPrefix(cfg.CIK, "CIK")
	for len(cik) < 10 {
		cik = "0" + cik
	}

	obs, err := c.fetchConcept(ctx, series.ID, cik, cfg.Concept)
	if err == nil && len(obs) > 0 {
		return obs, nil
	}
	if cfg.Concept != secFallbackConcept {
		// Some filers tag capex under the generic PP&E concept instead.
		if fallback, ferr := c.fetchConcept(ctx, series.ID, cik, secFallbackConcept); ferr == nil && len(fallback) > 0 {
			return fallback, nil
		}
	}
	return obs, err
}

func (c *secEdgarClient) fetchConcept(ctx context.Context, seriesID, cik, concept string) ([]Observation, error) {
	endpoint := fmt.Sprintf("%s/companyconcept/CIK%s/us-gaap/%s.json", secEdgarBaseURL, cik, concept)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, utils.NewFetchError(seriesID, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, utils.NewFetchError(seriesID, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, utils.NewFetchError(seriesID, fmt.Errorf("sec edgar returned status %d for %s", resp.StatusCode, concept))
	}

	var parsed secConceptResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, utils.NewFetchError(seriesID, fmt.Errorf("decode response: %w", err))
	}

	facts, ok := parsed.Units["USD"]
	if !ok {
		return nil, nil
	}

	cutoff := time.Now().UTC().Add(-observationHistory)
	byDate := make(map[string]Observation)
	for _, f := range facts {
		if f.Form != "10-Q" && f.Form != "10-K" {
			continue
		}
		end, err := time.Parse("2006-01-02", f.End)
		if err != nil || end.Before(cutoff) {
			continue
		}
		// Periods are reported repeatedly across amendments; last one wins.
		byDate[f.End] = Observation{Date: end, Value: f.Val}
	}

	out := make([]Observation, 0, len(byDate))
	for _, o := range byDate {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// parseObservation converts provider date/value strings, skipping the "."
// placeholder FRED uses for missing values.
func parseObservation(date, value string) (Observation, bool) {
	value = strings.TrimSpace(value)
	if value == "" || value == "." {
		return Observation{}, false
	}
	d, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return Observation{}, false
	}
	v, err := decimal.NewFromString(value)
	if err != nil {
		return Observation{}, false
	}
	return Observation{Date: d, Value: v}, true
}

// NewProviderClients builds the provider registry from configuration.
func NewProviderClients(cfg config.ProvidersConfig, timeout time.Duration) map[models.DataProvider]DataProviderClient {
	client := &http.Client{Timeout: timeout}
	return map[models.DataProvider]DataProviderClient{
		models.ProviderFRED:     &fredClient{httpClient: client, apiKey: cfg.FREDAPIKey},
		models.ProviderBLS:      &blsClient{httpClient: client, apiKey: cfg.BLSAPIKey},
		models.ProviderSECEdgar: &secEdgarClient{httpClient: client, userAgent: cfg.SECUserAgent},
	}
}
