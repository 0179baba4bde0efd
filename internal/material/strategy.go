// Package material classifies texture batches into a strategy, resolves
// material identifiers and keeps the shared material registry.
package material

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultSinglePrefix marks materials created under the Single strategy.
const DefaultSinglePrefix = "__SINGLE__"

// Classification errors.
var (
	ErrNoEntries    = errors.New("no texture entries to classify")
	ErrInvalidCount = errors.New("invalid texture entry count")
)

// Strategy is the material-count policy of one batch.
type Strategy int

const (
	Multi Strategy = iota
	Single
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case Multi:
		return "multi"
	case Single:
		return "single"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// Opposite returns the other strategy.
func (s Strategy) Opposite() Strategy {
	if s == Single {
		return Multi
	}
	return Single
}

// ParseStrategy parses "multi" or "single", case-insensitively.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "multi", "multiple":
		return Multi, nil
	case "single":
		return Single, nil
	}
	return Multi, fmt.Errorf("unknown strategy %q", name)
}

// Naming derives identifier prefixes and partitions.
type Naming struct {
	SinglePrefix string
}

// DefaultNaming returns the naming with DefaultSinglePrefix.
func DefaultNaming() Naming {
	return Naming{SinglePrefix: DefaultSinglePrefix}
}

func (n Naming) singlePrefix() string {
	if n.SinglePrefix == "" {
		return DefaultSinglePrefix
	}
	return n.SinglePrefix
}

// Classify picks the strategy for a batch of count entries.
func (n Naming) Classify(count int) (Strategy, error) {
	switch {
	case count < 0:
		return Multi, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	case count == 0:
		return Multi, ErrNoEntries
	case count == 1:
		return Single, nil
	default:
		return Multi, nil
	}
}

// Prefix returns the identifier prefix of a strategy.
func (n Naming) Prefix(s Strategy) string {
	if s == Single {
		return n.singlePrefix()
	}
	return ""
}

// PartitionOf reports which strategy produced a material name.
func (n Naming) PartitionOf(name string) Strategy {
	if strings.HasPrefix(name, n.singlePrefix()) {
		return Single
	}
	return Multi
}
