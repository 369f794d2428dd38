// Package table reads and writes the CSV tables consumed and produced by a run.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/climate-trend-etl/internal/domain"
)

// Input column names.
const (
	ColFIPS       = "fips"
	ColYear       = "year"
	ColMonth      = "month"
	ColTemp       = "temp"
	ColPopulation = "pop_2018"
	ColCountyName = "county_name"
	ColStateName  = "state_name"
	ColStateFIPS  = "state_fips"
	ColStateAbbr  = "state_abbr"
)

// Unit id widths.
const (
	StateIDWidth  = 2
	CountyIDWidth = 5
)

// CountyName is one row of the county names table.
type CountyName struct {
	Name      string
	StateName string
}

// rows wraps a csv.Reader with case-insensitive header lookup and schema
// errors tagged with the table name and 1-based data row.
type rows struct {
	table  string
	cr     *csv.Reader
	cols   map[string]int
	record []string
	row    int
}

func newRows(r io.Reader, table string, required ...string) (*rows, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	hdr, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &domain.SchemaError{Table: table, Reason: "empty table"}
	}
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", table, err)
	}

	cols := make(map[string]int, len(hdr))
	for i, h := range hdr {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range required {
		if _, ok := cols[strings.ToLower(c)]; !ok {
			return nil, &domain.SchemaError{Table: table, Column: c, Reason: "missing column"}
		}
	}
	return &rows{table: table, cr: cr, cols: cols}, nil
}

// next advances to the following data row. It returns false at end of input.
func (r *rows) next() (bool, error) {
	rec, err := r.cr.Read()
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	r.row++
	if err != nil {
		return false, fmt.Errorf("read %s row %d: %w", r.table, r.row, err)
	}
	r.record = rec
	return true, nil
}

func (r *rows) str(col string) string {
	i, ok := r.cols[strings.ToLower(col)]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func (r *rows) schemaErr(col, format string, args ...any) error {
	return &domain.SchemaError{Table: r.table, Column: col, Row: r.row, Reason: fmt.Sprintf(format, args...)}
}

func (r *rows) id(col string, width int) (string, error) {
	s := r.str(col)
	if s == "" {
		return "", r.schemaErr(col, "empty id")
	}
	return NormalizeID(s, width), nil
}

func (r *rows) integer(col string) (int, error) {
	s := r.str(col)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, r.schemaErr(col, "not an integer: %q", s)
	}
	return n, nil
}

// finite parses a required finite float.
func (r *rows) finite(col string) (float64, error) {
	s := r.str(col)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, r.schemaErr(col, "not a number: %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, r.schemaErr(col, "non-finite value %q", s)
	}
	return v, nil
}

// nullable parses an optional float; an empty cell is nil.
func (r *rows) nullable(col string) (*float64, error) {
	s := r.str(col)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, r.schemaErr(col, "not a number: %q", s)
	}
	return &v, nil
}

// NormalizeID left-pads an all-digit id with zeros to width, restoring FIPS
// codes whose leading zeros were lost to a numeric column type.
func NormalizeID(s string, width int) string {
	s = strings.TrimSpace(s)
	if len(s) >= width || !isDigits(s) {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// ReadMonthly reads a fips,year,month,temp table.
func ReadMonthly(r io.Reader, table string, idWidth int) ([]domain.Record, error) {
	return readRecords(r, table, idWidth, true)
}

// ReadAnnual reads a fips,year,temp table.
func ReadAnnual(r io.Reader, table string, idWidth int) ([]domain.Record, error) {
	return readRecords(r, table, idWidth, false)
}

func readRecords(r io.Reader, table string, idWidth int, monthly bool) ([]domain.Record, error) {
	required := []string{ColFIPS, ColYear, ColTemp}
	if monthly {
		required = append(required, ColMonth)
	}
	rs, err := newRows(r, table, required...)
	if err != nil {
		return nil, err
	}

	var out []domain.Record
	for {
		ok, err := rs.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		id, err := rs.id(ColFIPS, idWidth)
		if err != nil {
			return nil, err
		}
		year, err := rs.integer(ColYear)
		if err != nil {
			return nil, err
		}
		temp, err := rs.finite(ColTemp)
		if err != nil {
			return nil, err
		}
		rec := domain.Record{UnitID: id, Year: year, Value: temp}
		if monthly {
			rec.Month = rs.str(ColMonth)
		}
		out = append(out, rec)
	}
}

// ReadPopulation reads a fips,pop_2018 table. Empty population cells map to nil.
func ReadPopulation(r io.Reader, table string) (map[string]*float64, error) {
	rs, err := newRows(r, table, ColFIPS, ColPopulation)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*float64)
	for {
		ok, err := rs.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		id, err := rs.id(ColFIPS, CountyIDWidth)
		if err != nil {
			return nil, err
		}
		pop, err := rs.nullable(ColPopulation)
		if err != nil {
			return nil, err
		}
		if pop != nil && (*pop < 0 || math.IsNaN(*pop) || math.IsInf(*pop, 0)) {
			return nil, rs.schemaErr(ColPopulation, "invalid population %v", *pop)
		}
		out[id] = pop
	}
}

// ReadCountyNames reads a fips,county_name,state_name table.
func ReadCountyNames(r io.Reader, table string) (map[string]CountyName, error) {
	rs, err := newRows(r, table, ColFIPS, ColCountyName, ColStateName)
	if err != nil {
		return nil, err
	}
	out := make(map[string]CountyName)
	for {
		ok, err := rs.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		id, err := rs.id(ColFIPS, CountyIDWidth)
		if err != nil {
			return nil, err
		}
		out[id] = CountyName{Name: rs.str(ColCountyName), StateName: rs.str(ColStateName)}
	}
}

// ReadStates reads a state_fips,state_name,state_abbr table into a state lookup.
func ReadStates(r io.Reader, table string) (domain.Lookup, error) {
	rs, err := newRows(r, table, ColStateFIPS, ColStateName)
	if err != nil {
		return nil, err
	}
	out := make(domain.Lookup)
	for {
		ok, err := rs.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		id, err := rs.id(ColStateFIPS, StateIDWidth)
		if err != nil {
			return nil, err
		}
		name := rs.str(ColStateName)
		out[id] = domain.UnitInfo{UnitID: id, Name: name, StateName: name, StateAbbr: rs.str(ColStateAbbr)}
	}
}

// CountyLookup merges county names and population into one lookup keyed by
// 5-digit FIPS. A county present in either table is included. State
// abbreviations come from states by the first two digits of the id.
func CountyLookup(names map[string]CountyName, population map[string]*float64, states domain.Lookup) domain.Lookup {
	out := make(domain.Lookup, len(names))
	for id, n := range names {
		out[id] = domain.UnitInfo{UnitID: id, Name: n.Name, StateName: n.StateName}
	}
	for id, pop := range population {
		info, ok := out[id]
		if !ok {
			info = domain.UnitInfo{UnitID: id}
		}
		info.Population = pop
		out[id] = info
	}
	for id, info := range out {
		if len(id) < StateIDWidth {
			continue
		}
		if st, ok := states[id[:StateIDWidth]]; ok {
			info.StateAbbr = st.StateAbbr
			if info.StateName == "" {
				info.StateName = st.StateName
			}
			out[id] = info
		}
	}
	return out
}
