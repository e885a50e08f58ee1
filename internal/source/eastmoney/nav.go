package eastmoney

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"time"

	"resty.dev/v3"

	"github.com/C-Plusone/fund-app/internal/ratelimit"
	"github.com/C-Plusone/fund-app/internal/source"
)

// NAVSourceName identifies the published-NAV adapter. It is the default
// authoritative source: values it reports are confirmed by the fund company,
// not estimated.
const NAVSourceName = "eastmoney-nav"

// The f10/lsjz endpoint wraps its JSON in the callback named by the
// `callback` query parameter.
var jqueryRe = regexp.MustCompile(`jQuery\((.*)\)`)

// navHistoryResponse represents the payload inside the jQuery(...) wrapper.
// Only the newest row is requested (pageSize=1).
type navHistoryResponse struct {
	Data struct {
		Rows []navRow `json:"LSJZList"`
	} `json:"Data"`
}

// navRow is one published valuation. JZZZL is empty for money-market funds.
type navRow struct {
	Date   string `json:"FSRQ"`
	NAV    string `json:"DWJZ"`
	Change string `json:"JZZZL"`
}

// NAVSource fetches the most recently published unit NAV from the Eastmoney
// valuation history endpoint.
type NAVSource struct {
	client *resty.Client
}

// NewNAVSource creates a new published-NAV source
func NewNAVSource(baseURL string) *NAVSource {
	client := source.NewHTTPClient(baseURL).
		SetHeader("Referer", "https://fund.eastmoney.com/")

	return &NAVSource{client: client}
}

// Name returns the stable source identifier
func (s *NAVSource) Name() string {
	return NAVSourceName
}

// Fetch retrieves the latest published NAV snapshot for a fund code
func (s *NAVSource) Fetch(ctx context.Context, code string) (source.Snapshot, error) {
	if err := ratelimit.GetLimiter().Wait(ctx, ratelimit.APIEastmoneyNAV); err != nil {
		return source.Snapshot{}, source.NewTransportError(NAVSourceName, err)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"callback":  "jQuery",
			"fundCode":  code,
			"pageIndex": "1",
			"pageSize":  "1",
			"_":         strconv.FormatInt(time.Now().UnixMilli(), 10),
		}).
		Get("/f10/lsjz")

	if err != nil {
		return source.Snapshot{}, source.NewTransportError(NAVSourceName, err)
	}

	if !resp.IsSuccess() {
		return source.Snapshot{}, source.NewUpstreamError(NAVSourceName, resp.StatusCode())
	}

	match := jqueryRe.FindStringSubmatch(resp.String())
	if match == nil {
		return source.Snapshot{}, source.NewMalformedError(NAVSourceName, "response is not a jQuery callback", nil)
	}

	var payload navHistoryResponse
	if err := json.Unmarshal([]byte(match[1]), &payload); err != nil {
		return source.Snapshot{}, source.NewMalformedError(NAVSourceName, "invalid valuation history payload", err)
	}

	snapshot := source.Snapshot{
		Source:    NAVSourceName,
		FetchedAt: time.Now(),
	}

	// No rows is a valid answer for a brand-new fund: the source ran but has
	// nothing published yet.
	if len(payload.Data.Rows) == 0 {
		return snapshot, nil
	}

	latest := payload.Data.Rows[0]
	snapshot.NAV = source.Float(latest.NAV)
	snapshot.NAVDate = latest.Date
	snapshot.NAVChange = source.Float(latest.Change)

	return snapshot, nil
}
