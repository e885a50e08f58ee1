package antfund

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"resty.dev/v3"

	"github.com/C-Plusone/fund-app/internal/ratelimit"
	"github.com/C-Plusone/fund-app/internal/source"
)

// SourceName identifies the Ant Fund adapter.
const SourceName = "antfund"

// infoResponse is the queryFundInfo envelope. The endpoint reports refusals
// in-band: an HTTP 200 with success=false or a missing result.
type infoResponse struct {
	Success bool        `json:"success"`
	Result  *infoResult `json:"result"`
}

type infoResult struct {
	FundName      string `json:"fundName"`
	NetValue      string `json:"netValue"`
	EstimateValue string `json:"estimateValue"`
	EstimateRate  string `json:"estimateRate"`
	EstimateTime  string `json:"estimateTime"`
}

// InfoSource fetches fund name, last NAV and intraday estimate from the Ant
// Fund web API.
type InfoSource struct {
	client *resty.Client
}

// New creates a new Ant Fund source
func New(baseURL string) *InfoSource {
	return &InfoSource{client: source.NewHTTPClient(baseURL)}
}

// Name returns the stable source identifier
func (s *InfoSource) Name() string {
	return SourceName
}

// Fetch retrieves the fund info snapshot for a fund code
func (s *InfoSource) Fetch(ctx context.Context, code string) (source.Snapshot, error) {
	if err := ratelimit.GetLimiter().Wait(ctx, ratelimit.APIAntFund); err != nil {
		return source.Snapshot{}, source.NewTransportError(SourceName, err)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"fundCode": code,
			"_":        strconv.FormatInt(time.Now().UnixMilli(), 10),
		}).
		Get("/api/fund/queryFundInfo")

	if err != nil {
		return source.Snapshot{}, source.NewTransportError(SourceName, err)
	}

	if !resp.IsSuccess() {
		return source.Snapshot{}, source.NewUpstreamError(SourceName, resp.StatusCode())
	}

	var payload infoResponse
	if err := json.Unmarshal(resp.Bytes(), &payload); err != nil {
		return source.Snapshot{}, source.NewMalformedError(SourceName, "invalid fund info payload", err)
	}

	if !payload.Success || payload.Result == nil {
		return source.Snapshot{}, source.NewUpstreamRefusal(SourceName, "queryFundInfo reported failure")
	}

	info := payload.Result

	return source.Snapshot{
		Name:           info.FundName,
		NAV:            source.Float(info.NetValue),
		Estimate:       source.Float(info.EstimateValue),
		EstimateChange: source.Float(info.EstimateRate),
		EstimateTime:   info.EstimateTime,
		Source:         SourceName,
		FetchedAt:      time.Now(),
	}, nil
}
