package ingest

import (
	"fmt"
	"io"

	"github.com/tugsousa/taxlots/internal/ingest/degiro"
	"github.com/tugsousa/taxlots/internal/ingest/ibkr"
)

// SourceParser parses one broker's export format into canonical trade
// records. Ported from the teacher's parsers.CSVParser interface,
// renamed to describe what it returns rather than the wire format it
// reads (IBKR's export is XML, not CSV).
type SourceParser interface {
	Parse(r io.Reader) ([]Transaction, error)
}

// NewParser resolves a broker source name ("degiro" or "ibkr") to its
// SourceParser. Ported from the teacher's parsers.GetParser factory.
func NewParser(source string) (SourceParser, error) {
	switch source {
	case "degiro":
		return degiro.New(), nil
	case "ibkr":
		return ibkr.New(), nil
	default:
		return nil, fmt.Errorf("ingest: no parser available for source %q", source)
	}
}
