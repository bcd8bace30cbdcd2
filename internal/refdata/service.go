package refdata

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/trogers1052/oms-service/internal/models"
	"golang.org/x/sync/errgroup"
)

// ErrUnsupportedType is returned for asset types without a field map
var ErrUnsupportedType = fmt.Errorf("%w: no reference data fields for asset type", models.ErrValidation)

// AssetData is the subset of reference data used to prefill a new asset.
// Numbers are rounded to two places.
type AssetData struct {
	Issuer                *string  `json:"issuer"`
	DealName              *string  `json:"deal_name"`
	SpreadCoupon          *float64 `json:"spread_coupon"`
	Maturity              *string  `json:"maturity"`
	PaymentRank           *string  `json:"payment_rank"`
	RtgMoodyLongTerm      *string  `json:"rtg_moody_long_term"`
	RtgMoody              *string  `json:"rtg_moody"`
	RtgSPLTLCIssuerCredit *string  `json:"rtg_sp_lt_lc_issuer_credit"`
	RtgSP                 *string  `json:"rtg_sp"`
	AmtOutstanding        *float64 `json:"amt_outstanding"`
}

// MacroRow is one ticker of the macro panel
type MacroRow struct {
	Ticker    string   `json:"ticker"`
	LastPrice *float64 `json:"last_price"`
	ChgNet1D  *float64 `json:"chg_net_1d"`
	ChgPct1D  *float64 `json:"chg_pct_1d"`
	ChgPct5D  *float64 `json:"chg_pct_5d"`
	ChgPct1M  *float64 `json:"chg_pct_1m"`
	ChgPct6M  *float64 `json:"chg_pct_6m"`
	ChgPctYTD *float64 `json:"chg_pct_ytd"`
	Group     string   `json:"group"`
}

// Service shapes bridge responses for the watch list, asset prefill and
// macro panel
type Service struct {
	fetcher Fetcher
	log     zerolog.Logger
}

// NewService creates a new reference data Service
func NewService(fetcher Fetcher, log zerolog.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		log:     log.With().Str("component", "refdata").Logger(),
	}
}

// lookup fetches fields for a single CUSIP
func (s *Service) lookup(ctx context.Context, cusip string, fields []string) (map[string]string, error) {
	data, err := s.fetcher.Fetch(ctx, []string{SecurityKey(cusip)}, fields)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || data[0].Error != "" || len(data[0].FieldData) == 0 {
		return nil, fmt.Errorf("%s: %w", cusip, ErrNotFound)
	}
	return data[0].FieldData, nil
}

// WatchData returns the live fields for a watched CUSIP. Only the reference
// data fields of the result are set.
func (s *Service) WatchData(ctx context.Context, cusip string, assetType models.AssetType) (*models.WatchItemWithData, error) {
	fields, ok := watchFieldMaps[assetType]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedType, assetType)
	}

	values, err := s.lookup(ctx, cusip, fields)
	if err != nil {
		return nil, err
	}

	item := &models.WatchItemWithData{CUSIP: cusip, AssetType: assetType}
	for _, field := range fields {
		if raw, ok := values[field]; ok {
			applyWatchField(item, field, raw)
		}
	}
	return item, nil
}

func applyWatchField(item *models.WatchItemWithData, field, raw string) {
	switch field {
	case fieldIssuer:
		item.Issuer = text(raw)
	case fieldDealName, fieldName:
		item.DealName = text(raw)
	case fieldSecurityDes:
		item.DisplayName = text(raw)
	case fieldLoanMargin, fieldCoupon:
		item.SpreadCoupon = number(raw)
	case fieldMaturity:
		item.Maturity = text(raw)
	case fieldPxBid:
		item.PxBid = number(raw)
	case fieldPxAsk:
		item.PxAsk = number(raw)
	case fieldYldCnvBid:
		item.YldCnvBid = number(raw)
	case fieldDiscMarginBid, fieldZSpread:
		item.DMZSpread = number(raw)
	case fieldChgNet1D:
		item.ChgNet1D = number(raw)
	case fieldChgNet5D:
		item.ChgNet5D = number(raw)
	case fieldChgNet1M:
		item.ChgNet1M = number(raw)
	case fieldChgNet6M:
		item.ChgNet6M = number(raw)
	case fieldChgNetYTD:
		item.ChgNetYTD = number(raw)
	case fieldIntervalHigh:
		item.IntervalHigh = number(raw)
	case fieldIntervalLow:
		item.IntervalLow = number(raw)
	case fieldPaymentRank:
		item.PaymentRank = text(raw)
	case fieldMoodyLongTerm:
		item.RtgMoodyLongTerm = text(raw)
	case fieldMoody:
		item.RtgMoody = text(raw)
	case fieldSPIssuerCredit:
		item.RtgSPLTLCIssuerCredit = text(raw)
	case fieldSP:
		item.RtgSP = text(raw)
	case fieldAmtOutstanding:
		item.AmtOutstanding = number(raw)
	}
}

// AssetData returns the fields used to prefill a new asset
func (s *Service) AssetData(ctx context.Context, cusip string, assetType models.AssetType) (*AssetData, error) {
	fields, ok := assetDataFieldMaps[assetType]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedType, assetType)
	}

	values, err := s.lookup(ctx, cusip, fields)
	if err != nil {
		return nil, err
	}

	out := &AssetData{}
	for _, field := range fields {
		raw, ok := values[field]
		if !ok {
			continue
		}
		switch field {
		case fieldIssuer:
			out.Issuer = text(raw)
		case fieldDealName, fieldName:
			out.DealName = text(raw)
		case fieldLoanMargin, fieldCoupon:
			out.SpreadCoupon = rounded(raw)
		case fieldMaturity:
			out.Maturity = text(raw)
		case fieldPaymentRank:
			out.PaymentRank = text(raw)
		case fieldMoodyLongTerm:
			out.RtgMoodyLongTerm = text(raw)
		case fieldMoody:
			out.RtgMoody = text(raw)
		case fieldSPIssuerCredit:
			out.RtgSPLTLCIssuerCredit = text(raw)
		case fieldSP:
			out.RtgSP = text(raw)
		case fieldAmtOutstanding:
			out.AmtOutstanding = rounded(raw)
		}
	}
	return out, nil
}

// Macro fetches every macro group concurrently and returns the rows in
// panel order. Any group failing fails the whole panel.
func (s *Service) Macro(ctx context.Context) ([]MacroRow, error) {
	results := make([][]MacroRow, len(MacroGroups))

	g, gctx := errgroup.WithContext(ctx)
	for i, group := range MacroGroups {
		g.Go(func() error {
			data, err := s.fetcher.Fetch(gctx, group.Tickers, MacroFields)
			if err != nil {
				return fmt.Errorf("error fetching %s data: %w", group.Name, err)
			}
			results[i] = macroRows(group, data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Error().Err(err).Msg("Macro panel fetch failed")
		return nil, err
	}

	var rows []MacroRow
	for _, r := range results {
		rows = append(rows, r...)
	}
	return rows, nil
}

func macroRows(group MacroGroup, data []SecurityData) []MacroRow {
	bySecurity := make(map[string]map[string]string, len(data))
	for _, sd := range data {
		bySecurity[sd.Security] = sd.FieldData
	}

	rows := make([]MacroRow, 0, len(group.Tickers))
	for _, ticker := range group.Tickers {
		values := bySecurity[ticker]
		rows = append(rows, MacroRow{
			Ticker:    ticker,
			LastPrice: number(values[fieldLastPrice]),
			ChgNet1D:  number(values[fieldChgNet1D]),
			ChgPct1D:  number(values[fieldChgPct1D]),
			ChgPct5D:  number(values[fieldChgPct5D]),
			ChgPct1M:  number(values[fieldChgPct1M]),
			ChgPct6M:  number(values[fieldChgPct6M]),
			ChgPctYTD: number(values[fieldChgPctYTD]),
			Group:     group.Name,
		})
	}
	return rows
}
