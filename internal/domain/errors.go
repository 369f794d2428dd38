package domain

import (
	"errors"
	"fmt"
)

// ErrInsufficientData is returned by Fit when a series has fewer than two
// points or no variance in year, which would leave the slope undefined.
var ErrInsufficientData = errors.New("insufficient data for trend")

// SchemaError reports a missing or mistyped column in an input table.
type SchemaError struct {
	Table  string
	Column string
	Row    int // 1-based data row; 0 for header problems
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("schema: table %q row %d column %q: %s", e.Table, e.Row, e.Column, e.Reason)
	}
	return fmt.Sprintf("schema: table %q column %q: %s", e.Table, e.Column, e.Reason)
}

// UnrecognizedMonthError reports a month value outside the twelve
// three-letter abbreviations.
type UnrecognizedMonthError struct {
	UnitID string
	Year   int
	Month  string
}

func (e *UnrecognizedMonthError) Error() string {
	return fmt.Sprintf("unrecognized month %q for unit %s year %d", e.Month, e.UnitID, e.Year)
}

// GroupError ties a failed fit to the group that produced it.
type GroupError struct {
	Group string
	Err   error
}

func (e *GroupError) Error() string {
	return fmt.Sprintf("group %s: %v", e.Group, e.Err)
}

func (e *GroupError) Unwrap() error { return e.Err }

// ErrJoinMismatch is wrapped when strict joins are enabled and a join leaves
// ids unmatched on either side.
var ErrJoinMismatch = errors.New("join mismatch")
