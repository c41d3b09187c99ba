// Package results accumulates per-source pipeline counts.
package results

import (
	"time"
)

// Counts tallies documents through one pipeline.
type Counts struct {
	Read    int
	Matched int
	Written int
	Failed  int
}

func (c *Counts) add(other Counts) {
	c.Read += other.Read
	c.Matched += other.Matched
	c.Written += other.Written
	c.Failed += other.Failed
}

type SourceResult struct {
	Source   string
	Counts   Counts
	Duration time.Duration
	Error    error
}

type SourceResultBuilder struct {
	source   string
	counts   Counts
	duration time.Duration
	err      error
}

func NewSourceResultBuilder(source string) *SourceResultBuilder {
	return &SourceResultBuilder{
		source: source,
	}
}

func (b *SourceResultBuilder) WithCounts(counts Counts) *SourceResultBuilder {
	b.counts = counts
	return b
}

func (b *SourceResultBuilder) WithDuration(duration time.Duration) *SourceResultBuilder {
	b.duration = duration
	return b
}

func (b *SourceResultBuilder) WithError(err error) *SourceResultBuilder {
	b.err = err
	return b
}

func (b *SourceResultBuilder) Build() SourceResult {
	return SourceResult{
		Source:   b.source,
		Counts:   b.counts,
		Duration: b.duration,
		Error:    b.err,
	}
}

type Summary struct {
	Sources       []SourceResult
	Totals        Counts
	FailedSources int
	TotalDuration time.Duration
}

func NewSummary(expectedSources int) *Summary {
	return &Summary{
		Sources: make([]SourceResult, 0, expectedSources),
	}
}

func (s *Summary) Add(builder *SourceResultBuilder) {
	result := builder.Build()

	s.Sources = append(s.Sources, result)
	s.Totals.add(result.Counts)

	if result.Error != nil {
		s.FailedSources++
	}
}

func (s *Summary) SetTotalDuration(duration time.Duration) {
	s.TotalDuration = duration
}

func (s *Summary) DocumentsPerSecond() float64 {
	if s.TotalDuration == 0 {
		return 0
	}
	return float64(s.Totals.Read) / s.TotalDuration.Seconds()
}

func (s *Summary) MatchPercentage() float64 {
	if s.Totals.Read == 0 {
		return 0
	}
	return (float64(s.Totals.Matched) / float64(s.Totals.Read)) * 100
}
