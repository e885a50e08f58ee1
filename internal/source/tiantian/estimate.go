package tiantian

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"resty.dev/v3"

	"github.com/C-Plusone/fund-app/internal/ratelimit"
	"github.com/C-Plusone/fund-app/internal/source"
)

// SourceName identifies this adapter in priority lists and availability maps.
const SourceName = "tiantian"

// The endpoint serves JavaScript, not JSON: jsonpgz({...});
var jsonpRe = regexp.MustCompile(`jsonpgz\((.*)\)`)

// estimatePayload represents the object inside the jsonpgz wrapper. Every
// numeric field arrives as a string.
type estimatePayload struct {
	FundCode       string `json:"fundcode"`
	Name           string `json:"name"`
	NAVDate        string `json:"jzrq"`
	NAV            string `json:"dwjz"`  // previous day's published NAV
	Estimate       string `json:"gsz"`   // realtime estimated NAV
	EstimateChange string `json:"gszzl"` // estimated day change percent
	EstimateTime   string `json:"gztime"`
}

// EstimateSource fetches realtime intraday estimates from Tiantian. The
// estimate refreshes every second during trading hours, which makes this the
// preferred estimate provider.
type EstimateSource struct {
	client *resty.Client
}

// New creates a new Tiantian estimate source
func New(baseURL string) *EstimateSource {
	return &EstimateSource{
		client: source.NewHTTPClient(baseURL),
	}
}

// Name returns the stable source identifier
func (s *EstimateSource) Name() string {
	return SourceName
}

// Fetch retrieves the current estimate snapshot for a fund code
func (s *EstimateSource) Fetch(ctx context.Context, code string) (source.Snapshot, error) {
	if err := ratelimit.GetLimiter().Wait(ctx, ratelimit.APITiantian); err != nil {
		return source.Snapshot{}, source.NewTransportError(SourceName, err)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("rt", strconv.FormatInt(time.Now().UnixMilli(), 10)).
		Get(fmt.Sprintf("/js/%s.js", code))

	if err != nil {
		return source.Snapshot{}, source.NewTransportError(SourceName, err)
	}

	if !resp.IsSuccess() {
		return source.Snapshot{}, source.NewUpstreamError(SourceName, resp.StatusCode())
	}

	match := jsonpRe.FindStringSubmatch(resp.String())
	if match == nil {
		return source.Snapshot{}, source.NewMalformedError(SourceName, "response is not a jsonpgz callback", nil)
	}

	var payload estimatePayload
	if err := json.Unmarshal([]byte(match[1]), &payload); err != nil {
		return source.Snapshot{}, source.NewMalformedError(SourceName, "invalid jsonpgz payload", err)
	}

	return source.Snapshot{
		Name:           payload.Name,
		NAV:            source.Float(payload.NAV),
		NAVDate:        payload.NAVDate,
		Estimate:       source.Float(payload.Estimate),
		EstimateTime:   payload.EstimateTime,
		EstimateChange: source.Float(payload.EstimateChange),
		Source:         SourceName,
		FetchedAt:      time.Now(),
	}, nil
}
