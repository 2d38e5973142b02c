// Package degiro parses DEGIRO's "Account" CSV export into
// ingest.Transaction records. Ported from the teacher's
// src/parsers/degiro/parser.go, which classifies each row by matching its
// free-text Portuguese description column rather than relying on a typed
// transaction-type field (DEGIRO's export has none). The regex-based
// trade classifier and commission-lookup-by-order-id logic are kept
// verbatim; only the output shape changed, from the teacher's
// models.CanonicalTransaction (which also carried dividends and cash
// movements) to ingest.Transaction (trades only, the engine's unit of
// work).
package degiro

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tugsousa/taxlots/internal/ingest"
	"github.com/tugsousa/taxlots/internal/logger"
)

// rawRow holds the direct string values from one row of a DEGIRO CSV.
type rawRow struct {
	OrderDate, OrderTime, ValueDate, Name, ISIN, Description, ExchangeRate, Currency, Amount, OrderID string
}

// Parser implements trade extraction from a DEGIRO CSV export.
type Parser struct{}

// New creates a DEGIRO Parser.
func New() *Parser {
	return &Parser{}
}

// Parse reads a DEGIRO CSV export and returns the trade rows it contains
// (stock and option buys/sells). Dividends, fees, deposits and other cash
// movements are classified internally to compute commissions but are not
// themselves returned, since the engine has no use for them.
func (p *Parser) Parse(r io.Reader) ([]ingest.Transaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("degiro: reading CSV header: %w", err)
	}
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("degiro: reading CSV rows: %w", err)
	}

	var rows []rawRow
	for _, record := range records {
		if len(record) < 12 {
			continue
		}
		rows = append(rows, rawRow{
			OrderDate: record[0], OrderTime: record[1], ValueDate: record[2],
			Name: record[3], ISIN: record[4], Description: record[5],
			ExchangeRate: record[6], Currency: record[7], Amount: record[8],
			OrderID: record[11],
		})
	}

	var out []ingest.Transaction
	for _, raw := range rows {
		date, err := time.Parse("02-01-2006", raw.OrderDate)
		if err != nil {
			logger.L.Warn("degiro: skipping row with invalid date", "date", raw.OrderDate, "orderID", raw.OrderID)
			continue
		}

		kind, buySell, productName, quantity, price := classify(raw)
		if kind != "STOCK" && kind != "OPTION" {
			continue
		}

		commission, err := commissionForOrder(raw.OrderID, rows)
		if err != nil {
			return nil, fmt.Errorf("degiro: %w", err)
		}

		out = append(out, ingest.Transaction{
			Source:      "degiro",
			Time:        date,
			ProductID:   productID(raw.ISIN, productName),
			DisplayName: productName,
			Kind:        kind,
			BuySell:     buySell,
			Quantity:    quantity,
			UnitPrice:   price,
			Currency:    raw.Currency,
			Commission:  commission,
			FeeCurrency: raw.Currency,
			OrderID:     raw.OrderID,
		})
	}
	return out, nil
}

func productID(isin, name string) string {
	isin = strings.TrimSpace(isin)
	if isin != "" {
		return isin
	}
	return "degiro:" + strings.TrimSpace(name)
}

// classify mirrors the teacher's classifyDeGiroTransaction: DEGIRO's
// export carries no transaction-type column, only a free-text
// Portuguese description, so trades are recognized by pattern
// ("Compra"/"Venda" <qty> <product> @<price>") rather than a field.
func classify(raw rawRow) (kind, buySell, productName string, quantity, price float64) {
	desc := strings.TrimSpace(strings.ReplaceAll(raw.Description, " ", " "))

	stockOrOption := regexp.MustCompile(`(?i)\s*(compra|venda)\s+([\d\s.,]+)\s+(.+?)\s*@([\d,.]+)`)
	matches := stockOrOption.FindStringSubmatch(desc)
	if matches == nil {
		return "", "", "", 0, 0
	}

	switch strings.ToLower(matches[1]) {
	case "compra":
		buySell = "BUY"
	case "venda":
		buySell = "SELL"
	}

	productName = strings.TrimSpace(matches[3])

	quantityStr := strings.ReplaceAll(strings.ReplaceAll(matches[2], " ", ""), ".", "")
	quantityStr = strings.ReplaceAll(quantityStr, ",", ".")
	quantity, _ = strconv.ParseFloat(quantityStr, 64)

	priceStr := strings.ReplaceAll(matches[4], ",", ".")
	price, _ = strconv.ParseFloat(priceStr, 64)

	optionPattern := regexp.MustCompile(`\s+[CP]\d+(\.\d+)?\s+\d{2}[A-Z]{3}\d{2}$`)
	if optionPattern.MatchString(productName) {
		kind = "OPTION"
	} else {
		kind = "STOCK"
	}
	return
}

// commissionForOrder sums the absolute value of every "transaction fee"
// row sharing orderID, since DEGIRO reports the commission as a separate
// line rather than folding it into the trade row.
func commissionForOrder(orderID string, rows []rawRow) (float64, error) {
	if orderID == "" {
		return 0, nil
	}
	var total float64
	for _, row := range rows {
		if row.OrderID != orderID {
			continue
		}
		if !strings.Contains(row.Description, "Comissões de transação") {
			continue
		}
		amount, err := strconv.ParseFloat(row.Amount, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid commission amount for order %s: %w", orderID, err)
		}
		total += math.Abs(amount)
	}
	return total, nil
}
