// Package batch is the codec for uploaded event results.
//
// A batch is newline-delimited CSV, one record per guild, with exactly five
// whitespace-trimmed fields in this order:
//
//	rank, name, points, guild_id, is_seed
//
// Points may be empty. is_seed accepts the forms strconv.ParseBool accepts.
// Blank lines between records are rejected.
package batch

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/okian/gwrank/internal/domain/model"
)

// FieldsPerRecord is the number of columns every record must carry.
const FieldsPerRecord = 5

// Record is one batch line in upload column order.
type Record struct {
	Rank    int    `csv:"rank"`
	Name    string `csv:"name"`
	Points  string `csv:"points"`
	GuildID int64  `csv:"guild_id"`
	IsSeed  bool   `csv:"is_seed"`
}

// Parse decodes a batch into entries. EventNum is left zero for the caller
// to assign. Any malformed record fails the whole batch.
func Parse(text string) ([]model.Entry, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmpty
	}
	if n := blankLine(text); n > 0 {
		return nil, &LineError{Line: n, Err: ErrFieldCount}
	}

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	// Names are free text; a quote inside an unquoted name is kept as is.
	r.LazyQuotes = true

	var entries []model.Entry
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			le := &LineError{Err: fmt.Errorf("%w: %v", ErrSyntax, err)}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				le.Line = pe.Line
			}
			return nil, le
		}
		line, _ := r.FieldPos(0)
		if len(fields) != FieldsPerRecord {
			return nil, &LineError{Line: line, Err: ErrFieldCount}
		}
		e, err := parseRecord(fields)
		if err != nil {
			var le *LineError
			if errors.As(err, &le) {
				le.Line = line
			}
			return nil, err
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, ErrEmpty
	}
	return entries, nil
}

// blankLine returns the 1-based number of the first empty line, ignoring the
// final line break, or 0. csv.Reader would skip such lines silently.
func blankLine(text string) int {
	for i, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		if strings.TrimSuffix(line, "\r") == "" {
			return i + 1
		}
	}
	return 0
}

func parseRecord(fields []string) (model.Entry, error) {
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	invalid := func(field string, err error) error {
		return &LineError{Field: field, Err: fmt.Errorf("%w: %v", ErrInvalidField, err)}
	}

	rank, err := strconv.Atoi(fields[0])
	if err != nil {
		return model.Entry{}, invalid("rank", err)
	}
	if rank < 1 {
		return model.Entry{}, invalid("rank", errors.New("must be positive"))
	}
	name := fields[1]
	if name == "" {
		return model.Entry{}, invalid("name", errors.New("must not be empty"))
	}
	var points *int64
	if fields[2] != "" {
		p, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return model.Entry{}, invalid("points", err)
		}
		points = &p
	}
	id, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return model.Entry{}, invalid("guild_id", err)
	}
	if id < 1 {
		return model.Entry{}, invalid("guild_id", errors.New("must be positive"))
	}
	seed, err := strconv.ParseBool(fields[4])
	if err != nil {
		return model.Entry{}, invalid("is_seed", err)
	}

	return model.Entry{GuildID: id, Name: name, Rank: rank, Points: points, IsSeed: seed}, nil
}

// ToRecord converts an entry to its batch line.
func ToRecord(e model.Entry) Record {
	rec := Record{Rank: e.Rank, Name: e.Name, GuildID: e.GuildID, IsSeed: e.IsSeed}
	if e.Points != nil {
		rec.Points = strconv.FormatInt(*e.Points, 10)
	}
	return rec
}

// Format encodes entries in the upload layout, without a header line, so the
// output can be uploaded again as-is.
func Format(entries []model.Entry) ([]byte, error) {
	if len(entries) == 0 {
		return []byte{}, nil
	}
	records := make([]Record, len(entries))
	for i, e := range entries {
		records[i] = ToRecord(e)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := gocsv.MarshalCSVWithoutHeaders(records, w); err != nil {
		return nil, fmt.Errorf("marshal batch: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush batch: %w", err)
	}
	return buf.Bytes(), nil
}
