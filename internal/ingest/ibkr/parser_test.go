package ibkr

import (
	"strings"
	"testing"

	"github.com/tugsousa/taxlots/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init("error")
	m.Run()
}

const sampleXML = `<?xml version="1.0"?>
<FlexQueryResponse>
  <FlexStatements>
    <FlexStatement accountId="U1234567">
      <Trades>
        <Trade assetCategory="STK" symbol="WIDG" description="WIDGET INC"
               isin="US0000000000" dateTime="20210301;090000"
               quantity="10" tradePrice="25.50" tradeMoney="-255.00"
               currency="USD" exchange="NYSE" ibCommission="-0.35"
               ibCommissionCurrency="USD" buySell="BUY" ibOrderID="111"/>
        <Trade assetCategory="OPT" symbol="WIDG" description="WIDGET INC CALL"
               isin="US0000000001" dateTime="20210302;090000"
               quantity="2" tradePrice="1.20" tradeMoney="-240.00"
               currency="USD" exchange="CBOE" ibCommission="-1.00"
               ibCommissionCurrency="USD" buySell="BUY" ibOrderID="112" putCall="C"/>
        <Trade assetCategory="CASH" symbol="EUR.USD" description="IDEALFX"
               dateTime="20210302;090000" quantity="100" tradePrice="1.10"
               tradeMoney="-110.00" currency="USD" exchange="IDEALFX"
               ibCommission="0" buySell="BUY" ibOrderID="113"/>
      </Trades>
    </FlexStatement>
  </FlexStatements>
</FlexQueryResponse>`

func TestParseExtractsStockAndOptionTrades(t *testing.T) {
	p := New()
	txs, err := p.Parse(strings.NewReader(sampleXML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("trades = %d, want 2 (IDEALFX row skipped)", len(txs))
	}

	stock := txs[0]
	if stock.Kind != "STOCK" || stock.ProductID != "US0000000000" || stock.Quantity != 10 {
		t.Errorf("stock = %+v, want STOCK US0000000000 qty=10", stock)
	}
	if stock.Commission != 0.35 {
		t.Errorf("commission = %v, want 0.35 (sign stripped)", stock.Commission)
	}

	option := txs[1]
	if option.Kind != "OPTION" || option.Quantity != 2 {
		t.Errorf("option = %+v, want OPTION qty=2", option)
	}
}

func TestParseSkipsUnsupportedAssetCategory(t *testing.T) {
	xml := strings.Replace(sampleXML, `assetCategory="CASH"`, `assetCategory="FUT"`, 1)
	xml = strings.Replace(xml, `exchange="IDEALFX"`, `exchange="CME"`, 1)
	p := New()
	txs, err := p.Parse(strings.NewReader(xml))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("trades = %d, want 2 (FUT row skipped as unsupported)", len(txs))
	}
}
