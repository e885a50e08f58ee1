package eastmoney

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"resty.dev/v3"

	"github.com/C-Plusone/fund-app/internal/ratelimit"
	"github.com/C-Plusone/fund-app/internal/source"
)

// DetailSourceName identifies the mobile-app detail adapter. It reports both
// the last published NAV and the intraday estimate, alongside fund identity.
const DetailSourceName = "eastmoney-detail"

// detailResponse is the FundMNFInfo payload. Datas carries one entry per
// requested code; we only ever request one.
type detailResponse struct {
	Datas []detailRow `json:"Datas"`
}

type detailRow struct {
	Code           string `json:"FCODE"`
	ShortName      string `json:"SHORTNAME"`
	Type           string `json:"FTYPE"`
	NAV            string `json:"DWJZ"`
	NAVDate        string `json:"PDATE"`
	Estimate       string `json:"GSZ"`
	EstimateChange string `json:"GSZZL"`
	EstimateTime   string `json:"GZTIME"`
}

// DetailSource fetches fund identity, published NAV and intraday estimate
// from the Eastmoney mobile API.
type DetailSource struct {
	client *resty.Client
}

// NewDetailSource creates a new mobile detail source
func NewDetailSource(baseURL string) *DetailSource {
	client := source.NewHTTPClient(baseURL).
		SetHeader("Referer", "https://fund.eastmoney.com/")

	return &DetailSource{client: client}
}

// Name returns the stable source identifier
func (s *DetailSource) Name() string {
	return DetailSourceName
}

// Fetch retrieves the full detail snapshot for a fund code
func (s *DetailSource) Fetch(ctx context.Context, code string) (source.Snapshot, error) {
	if err := ratelimit.GetLimiter().Wait(ctx, ratelimit.APIEastmoneyDetail); err != nil {
		return source.Snapshot{}, source.NewTransportError(DetailSourceName, err)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"plat":     "Android",
			"appType":  "ttjj",
			"product":  "EFund",
			"Version":  "6.9.2",
			"deviceid": "1",
			"Fcodes":   code,
			"_":        strconv.FormatInt(time.Now().UnixMilli(), 10),
		}).
		Get("/FundMNewApi/FundMNFInfo")

	if err != nil {
		return source.Snapshot{}, source.NewTransportError(DetailSourceName, err)
	}

	if !resp.IsSuccess() {
		return source.Snapshot{}, source.NewUpstreamError(DetailSourceName, resp.StatusCode())
	}

	var payload detailResponse
	if err := json.Unmarshal(resp.Bytes(), &payload); err != nil {
		return source.Snapshot{}, source.NewMalformedError(DetailSourceName, "invalid detail payload", err)
	}

	snapshot := source.Snapshot{
		Source:    DetailSourceName,
		FetchedAt: time.Now(),
	}

	if len(payload.Datas) == 0 {
		return snapshot, nil
	}

	detail := payload.Datas[0]
	snapshot.Name = detail.ShortName
	snapshot.Type = detail.Type
	snapshot.NAV = source.Float(detail.NAV)
	snapshot.NAVDate = detail.NAVDate
	snapshot.Estimate = source.Float(detail.Estimate)
	snapshot.EstimateChange = source.Float(detail.EstimateChange)
	snapshot.EstimateTime = detail.EstimateTime

	return snapshot, nil
}
