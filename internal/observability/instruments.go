package observability

import (
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// instrumentSet creates the instruments of one metrics type on a meter. Every
// creation failure is kept and reported together by err.
type instrumentSet struct {
	meter    metric.Meter
	failures []error
}

func (s *instrumentSet) count(name, desc, unit string) metric.Int64Counter {
	c, err := s.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	s.note(name, err)

	return c
}

func (s *instrumentSet) level(name, desc, unit string) metric.Int64UpDownCounter {
	c, err := s.meter.Int64UpDownCounter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	s.note(name, err)

	return c
}

// seconds creates a duration histogram with fixed bucket boundaries.
func (s *instrumentSet) seconds(name, desc string, bounds []float64) metric.Float64Histogram {
	h, err := s.meter.Float64Histogram(name,
		metric.WithDescription(desc),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(bounds...),
	)
	s.note(name, err)

	return h
}

func (s *instrumentSet) note(name string, err error) {
	if err != nil {
		s.failures = append(s.failures, fmt.Errorf("instrument %s: %w", name, err))
	}
}

func (s *instrumentSet) err() error {
	return errors.Join(s.failures...)
}
