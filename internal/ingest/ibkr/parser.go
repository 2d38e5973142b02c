// Package ibkr parses Interactive Brokers Flex Query XML reports into
// ingest.Transaction records. Ported from the teacher's
// src/parsers/ibkr/parser.go: the XML shape (FlexQueryResponse >
// FlexStatements > Trades > Trade) and the IDEALFX-exchange skip
// (internal currency conversion legs, not trades) are kept verbatim.
// Only Trade elements are decoded; dividend and cash-transaction
// elements are ignored by the decoder — the engine has no use for them.
package ibkr

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/tugsousa/taxlots/internal/ingest"
	"github.com/tugsousa/taxlots/internal/logger"
)

type flexQueryResponse struct {
	XMLName        xml.Name        `xml:"FlexQueryResponse"`
	FlexStatements []flexStatement `xml:"FlexStatements>FlexStatement"`
}

type flexStatement struct {
	AccountId string  `xml:"accountId,attr"`
	Trades    []trade `xml:"Trades>Trade"`
}

type trade struct {
	AssetCategory        string  `xml:"assetCategory,attr"`
	Symbol               string  `xml:"symbol,attr"`
	Description          string  `xml:"description,attr"`
	ISIN                 string  `xml:"isin,attr"`
	DateTime             string  `xml:"dateTime,attr"`
	Quantity             float64 `xml:"quantity,attr"`
	TradePrice           float64 `xml:"tradePrice,attr"`
	Currency             string  `xml:"currency,attr"`
	Exchange             string  `xml:"exchange,attr"`
	IBCommission         float64 `xml:"ibCommission,attr"`
	IBCommissionCurrency string  `xml:"ibCommissionCurrency,attr"`
	BuySell              string  `xml:"buySell,attr"`
	IBOrderID            string  `xml:"ibOrderID,attr"`
	PutCall              string  `xml:"putCall,attr"`
}

// Parser implements trade extraction from an IBKR Flex Query XML report.
type Parser struct{}

// New creates an IBKR Parser.
func New() *Parser {
	return &Parser{}
}

// Parse decodes a Flex Query XML report and returns its trade rows.
// IDEALFX rows (internal currency-exchange legs IBKR books as pseudo
// trades) are skipped, matching the teacher's behavior.
func (p *Parser) Parse(r io.Reader) ([]ingest.Transaction, error) {
	var resp flexQueryResponse
	if err := xml.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("ibkr: decoding XML: %w", err)
	}

	var out []ingest.Transaction
	for _, stmt := range resp.FlexStatements {
		for _, t := range stmt.Trades {
			if t.Exchange == "IDEALFX" {
				continue
			}
			tx, err := convertTrade(t)
			if err != nil {
				logger.L.Warn("ibkr: skipping trade", "ibOrderID", t.IBOrderID, "error", err)
				continue
			}
			out = append(out, tx)
		}
	}
	return out, nil
}

func convertTrade(t trade) (ingest.Transaction, error) {
	date, err := parseDateTime(t.DateTime)
	if err != nil {
		return ingest.Transaction{}, err
	}

	var kind string
	switch t.AssetCategory {
	case "STK":
		kind = "STOCK"
	case "OPT":
		kind = "OPTION"
	default:
		return ingest.Transaction{}, fmt.Errorf("unsupported asset category %q", t.AssetCategory)
	}

	productID := strings.TrimSpace(t.ISIN)
	if productID == "" {
		productID = "ibkr:" + t.Symbol
	}

	return ingest.Transaction{
		Source:      "ibkr",
		Time:        date,
		ProductID:   productID,
		DisplayName: t.Description,
		Kind:        kind,
		BuySell:     strings.ToUpper(t.BuySell),
		Quantity:    math.Abs(t.Quantity),
		UnitPrice:   t.TradePrice,
		Currency:    t.Currency,
		Commission:  math.Abs(t.IBCommission),
		FeeCurrency: t.IBCommissionCurrency,
		OrderID:     t.IBOrderID,
	}, nil
}

// parseDateTime converts IBKR's "YYYYMMDD;HHMMSS" format to time.Time.
func parseDateTime(datetime string) (time.Time, error) {
	layout := "20060102;150405"
	if !strings.Contains(datetime, ";") {
		layout = "20060102"
	}
	t, err := time.Parse(layout, datetime)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid ibkr datetime %q: %w", datetime, err)
	}
	return t, nil
}
