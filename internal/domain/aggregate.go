package domain

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/sourcegraph/conc/iter"
)

// InsufficientDataPolicy decides what happens when a group cannot be fit.
type InsufficientDataPolicy string

const (
	// PolicySkip drops the group, logs a warning and records a Skip.
	PolicySkip InsufficientDataPolicy = "skip"
	// PolicyFail aborts the aggregation on the first unfit group.
	PolicyFail InsufficientDataPolicy = "fail"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (InsufficientDataPolicy, error) {
	switch p := InsufficientDataPolicy(s); p {
	case PolicySkip, PolicyFail:
		return p, nil
	default:
		return "", fmt.Errorf("unknown insufficient data policy %q (want skip or fail)", s)
	}
}

// Aggregator fits one trend per group.
type Aggregator struct {
	Policy  InsufficientDataPolicy
	Workers int     // concurrent fits; 0 uses GOMAXPROCS
	Span    float64 // years a slope is projected over; 0 uses DefaultWindow
	Logger  *slog.Logger
}

// Skip records a group excluded from the results.
type Skip struct {
	Stage  string // set by Analyze, e.g. "county seasonal"
	Group  string
	Points int
	Reason string
}

// GroupTrend is the fitted trend for one group key.
type GroupTrend[K comparable] struct {
	Key   K
	Trend Trend
}

// Aggregation holds fitted groups in first-appearance key order plus any
// groups skipped under PolicySkip.
type Aggregation[K comparable] struct {
	Results []GroupTrend[K]
	Skipped []Skip
}

type group[K comparable] struct {
	key    K
	points []Point
}

type fitOutcome struct {
	trend Trend
	err   error
}

// Aggregate partitions items by key, builds each group's (year, value) series
// with point, and fits every group independently. Fits run concurrently; the
// result order only depends on the input order.
func Aggregate[T any, K comparable](agg Aggregator, items []T, key func(T) K, point func(T) Point) (Aggregation[K], error) {
	groups := partition(items, key, point)

	span := agg.Span
	if span == 0 {
		span = DefaultWindow.Span()
	}

	mapper := iter.Mapper[group[K], fitOutcome]{MaxGoroutines: agg.Workers}
	outcomes := mapper.Map(groups, func(g *group[K]) fitOutcome {
		t, err := FitSpan(g.points, span)
		return fitOutcome{trend: t, err: err}
	})

	logger := agg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var out Aggregation[K]
	out.Results = make([]GroupTrend[K], 0, len(groups))
	for i, o := range outcomes {
		g := groups[i]
		if o.err == nil {
			out.Results = append(out.Results, GroupTrend[K]{Key: g.key, Trend: o.trend})
			continue
		}
		name := fmt.Sprint(g.key)
		if agg.Policy == PolicyFail || !errors.Is(o.err, ErrInsufficientData) {
			return Aggregation[K]{}, &GroupError{Group: name, Err: o.err}
		}
		logger.Warn("skipping group with insufficient data",
			"group", name,
			"points", len(g.points),
			"error", o.err,
		)
		out.Skipped = append(out.Skipped, Skip{Group: name, Points: len(g.points), Reason: o.err.Error()})
	}
	return out, nil
}

func partition[T any, K comparable](items []T, key func(T) K, point func(T) Point) []group[K] {
	index := make(map[K]int)
	groups := make([]group[K], 0)
	for _, item := range items {
		k := key(item)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, group[K]{key: k})
		}
		groups[i].points = append(groups[i].points, point(item))
	}
	return groups
}
