// Package elecprice implements the Electricity-price fetcher component
// (spec §4.3): ELERING HTTP and ENTSOE external-helper providers, fitting
// a (possibly sparse) price series onto the canonical time line, and
// broadcasting it into per-market up/down variants.
package elecprice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sells-group/hertta/internal/fetcher"
	"github.com/sells-group/hertta/internal/model"
)

// Point is a single (stamp, price) sample.
type Point struct {
	Stamp time.Time
	Price float64
}

// Up/down multipliers hard-coded per spec §9's Open Question: whether they
// should be per-market or configurable is unclear, so they stay constants.
const (
	upMultiplier   = 1.10
	downMultiplier = 0.90
)

const cliTimeFormat = "2006-01-02 15:04"

// ForecastNames enumerates the two accepted electricity forecast providers.
const (
	ForecastNameElering = "ELERING"
	ForecastNameEntsoe  = "ENTSOE"
)

// countryCodes maps a country name to its ELERING two-letter code.
var countryCodes = map[string]string{
	"Estonia":   "ee",
	"Finland":   "fi",
	"Latvia":    "lv",
	"Lithuania": "lt",
}

// CountryCode resolves an ELERING country code, mirroring
// electricity_price_job_elering.rs's as_elering_country.
func CountryCode(country string) (string, error) {
	code, ok := countryCodes[country]
	if !ok {
		return "", eris.New("unknown or unsupported country")
	}
	return code, nil
}

// ApplicableMarkets returns the names of markets whose price is a
// "electricity"-typed Forecast. invalid holds the provider name of each such
// market whose name is neither ELERING nor ENTSOE, one entry per market (not
// deduplicated).
func ApplicableMarkets(markets map[string]model.Market) (names []string, invalid []string) {
	for name, m := range markets {
		if m.Price.Kind != model.ForecastableKindForecast || m.Price.Forecast.FType != "electricity" {
			continue
		}
		names = append(names, name)
		switch m.Price.Forecast.Name {
		case ForecastNameElering, ForecastNameEntsoe:
		default:
			invalid = append(invalid, m.Price.Forecast.Name)
		}
	}
	return names, invalid
}

// eleringResponse mirrors the JSON shape documented in spec §4.3.
type eleringResponse struct {
	Success bool                     `json:"success"`
	Data    map[string][]eleringItem `json:"data"`
}

type eleringItem struct {
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
}

// FetchElering fetches the ELERING day-ahead price series over [start, end]
// for country, via the given HTTP fetcher.
func FetchElering(ctx context.Context, f *fetcher.HTTPFetcher, country string, start, end time.Time) ([]Point, error) {
	code, err := CountryCode(country)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("https://dashboard.elering.ee/api/nps/price?start=%s&end=%s",
		start.UTC().Format("2006-01-02T15:04:05.000Z"),
		end.UTC().Format("2006-01-02T15:04:05.000Z"))

	body, err := f.Download(ctx, url)
	if err != nil {
		return nil, eris.Wrap(err, "elering fetch failed")
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, eris.Wrap(err, "failed to read elering response")
	}
	return parseEleringResponse(raw, code)
}

func parseEleringResponse(raw []byte, countryCode string) ([]Point, error) {
	var resp eleringResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, eris.Wrapf(err, "failed to parse response")
	}
	if !resp.Success {
		return nil, eris.New("electricity price query unsuccessful")
	}
	items, ok := resp.Data[countryCode]
	if !ok {
		return nil, eris.Errorf("requested country '%s' not found in response", countryCode)
	}
	points := make([]Point, len(items))
	for i, item := range items {
		points[i] = Point{Stamp: time.Unix(item.Timestamp, 0).UTC(), Price: item.Price}
	}
	return points, nil
}

// FetchEntsoe invokes the external ENTSOE helper, per the CLI contract in
// spec §6: args "start_utc end_utc country_code api_token" formatted
// "%Y-%m-%d %H:%M"; stdout a JSON array of [ISO8601_naive, float].
func FetchEntsoe(ctx context.Context, helperExec string, start, end time.Time, countryCode, apiToken string) ([]Point, error) {
	cmd := exec.CommandContext(ctx, helperExec,
		start.UTC().Format(cliTimeFormat),
		end.UTC().Format(cliTimeFormat),
		countryCode,
		apiToken,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, eris.Wrap(err, "entsoe fetching returned non-zero exit status")
	}
	return parseNaiveISOPairs(output)
}

func parseNaiveISOPairs(output []byte) ([]Point, error) {
	const naiveFormat = "2006-01-02T15:04:05"
	var rows []json.RawMessage
	if err := json.Unmarshal(output, &rows); err != nil {
		return nil, eris.Wrapf(err, "failed to parse output")
	}
	points := make([]Point, 0, len(rows))
	for _, raw := range rows {
		var pair [2]json.RawMessage
		if err := json.Unmarshal(raw, &pair); err != nil {
			return nil, eris.New("failed to parse data pair in time series")
		}
		var stampStr string
		if err := json.Unmarshal(pair[0], &stampStr); err != nil {
			return nil, eris.New("failed to parse time stamp")
		}
		stamp, err := time.Parse(naiveFormat, stampStr)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to parse stamp from string %s", stampStr)
		}
		var price float64
		if err := json.Unmarshal(pair[1], &price); err != nil {
			return nil, eris.New("failed to convert price to float")
		}
		points = append(points, Point{Stamp: stamp.UTC(), Price: price})
	}
	return points, nil
}

// FitToTimeLine carries the latest price forward through T, matching
// next price stamps as they come, extending the last price to the tail if
// prices run out before T. Grounded exactly on optimization_job.rs's
// fit_prices_to_time_line. Requires prices[0].Stamp == timeLine[0].
func FitToTimeLine(prices []Point, timeLine []time.Time) ([]Point, error) {
	if len(prices) == 0 {
		return nil, eris.New("electricity prices should have at least one time stamp")
	}
	if len(timeLine) == 0 || !prices[0].Stamp.Equal(timeLine[0]) {
		return nil, eris.New("first electricity price time stamp mismatches with time line start")
	}

	fitted := make([]Point, 0, len(timeLine))
	idx := 1
	currentPrice := prices[0].Price
	hasNext := idx < len(prices)

	for _, stamp := range timeLine {
		if hasNext && stamp.Equal(prices[idx].Stamp) {
			currentPrice = prices[idx].Price
			idx++
			hasNext = idx < len(prices)
		}
		fitted = append(fitted, Point{Stamp: stamp, Price: currentPrice})
	}
	return fitted, nil
}

// Fuse sets market.Price/UpPrice/DownPrice to the fitted per-scenario
// TimeSeriesData for every market still carrying an (electricity) Forecast,
// deriving up/down variants by scaling. Grounded on optimization_job.rs's
// update_npe_market_prices.
func Fuse(markets map[string]model.Market, fitted []Point, scenarios []string) {
	series := make(map[time.Time]float64, len(fitted))
	for _, p := range fitted {
		series[p.Stamp] = p.Price
	}
	base := broadcast(series, scenarios)
	up := base.Scale(upMultiplier)
	down := base.Scale(downMultiplier)

	for name, m := range markets {
		if m.Price.Kind != model.ForecastableKindForecast || m.Price.Forecast.FType != "electricity" {
			continue
		}
		m.Price = model.NewResolvedForecastable(base)
		m.UpPrice = model.NewResolvedForecastable(up)
		m.DownPrice = model.NewResolvedForecastable(down)
		markets[name] = m
	}
}

func broadcast(series map[time.Time]float64, scenarios []string) model.TimeSeriesData {
	out := model.TimeSeriesData{TSData: make([]model.TimeSeries, len(scenarios))}
	for i, scenario := range scenarios {
		copySeries := make(map[time.Time]float64, len(series))
		for k, v := range series {
			copySeries[k] = v
		}
		out.TSData[i] = model.TimeSeries{Scenario: scenario, Series: copySeries}
	}
	return out
}

// UnsupportedForecastNameError formats the error spec §4.3 mandates for
// any electricity forecast name other than ELERING/ENTSOE.
func UnsupportedForecastNameError(names []string) error {
	msg := "unsupported electricity forecast name(s):"
	for i, n := range names {
		if i > 0 {
			msg += ","
		}
		msg += " " + n
	}
	return eris.New(msg)
}
