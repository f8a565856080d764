// Package spreadsheet turns a delimited-text statement export into
// schema-valid candidates via a categorization-capable model call.
package spreadsheet

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/avolkov/finledger/internal/domain"
	"github.com/avolkov/finledger/internal/extract"
)

// Adapter parses delimited text and submits the rows for extraction.
type Adapter struct {
	model    extract.Caller
	maxBytes int64
	log      zerolog.Logger
}

// NewAdapter builds a spreadsheet adapter.
func NewAdapter(model extract.Caller, maxBytes int64, log zerolog.Logger) *Adapter {
	return &Adapter{model: model, maxBytes: maxBytes, log: log}
}

// Parse runs the full spreadsheet path. The accounts array of the result is
// usually empty — spreadsheet exports rarely carry an account header.
func (a *Adapter) Parse(ctx context.Context, data []byte) (*extract.Result, error) {
	rows, err := a.ReadRows(data)
	if err != nil {
		return nil, err
	}

	raw, err := a.model.Extract(ctx, extract.SpreadsheetPrompt(), renderRows(rows))
	if err != nil {
		return nil, err
	}
	return extract.Parse(raw, a.log)
}

// ReadRows parses the delimited text into records, header row included.
func (a *Adapter) ReadRows(data []byte) ([][]string, error) {
	if int64(len(data)) > a.maxBytes {
		return nil, domain.InputRejected(fmt.Sprintf("export exceeds %d bytes", a.maxBytes))
	}

	reader := csv.NewReader(bufio.NewReader(bytes.NewReader(data)))
	reader.FieldsPerRecord = -1 // ragged exports are common; rows are re-shaped by the model

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, domain.InputRejected("malformed delimited text: " + err.Error())
		}
		rows = append(rows, record)
	}
	if len(rows) == 0 {
		return nil, domain.InputRejected("export contains no rows")
	}
	return rows, nil
}

// renderRows flattens records back into one line per transaction for the
// model call.
func renderRows(rows [][]string) string {
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(strings.Join(row, " | "))
		b.WriteString("\n")
	}
	return b.String()
}
