package labels

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mcmespana/mcmAutoPDF/internal/pdf/extraction"
)

// Strategy names accepted by NewStrategy
const (
	StrategyKeyword = "keyword"
	StrategySpatial = "spatial"
)

// Strategy computes one label per catalog field, in catalog order.
// Labels may collide; the mapping step disambiguates them.
type Strategy interface {
	Name() string
	Labels(cat *extraction.Catalog) []string
}

// NewStrategy returns the named strategy
func NewStrategy(name string, suggester *Suggester, logger *zap.Logger) (Strategy, error) {
	if suggester == nil {
		suggester = NewSuggester(nil)
	}

	switch name {
	case "", StrategyKeyword:
		return NewKeywordHeuristic(suggester), nil
	case StrategySpatial:
		return NewSpatialProximity(suggester, logger), nil
	default:
		return nil, fmt.Errorf("unknown label strategy %q (want %s or %s)", name, StrategyKeyword, StrategySpatial)
	}
}

// KeywordHeuristic labels fields from their technical names only
type KeywordHeuristic struct {
	suggester *Suggester
}

// NewKeywordHeuristic creates the keyword strategy
func NewKeywordHeuristic(suggester *Suggester) *KeywordHeuristic {
	if suggester == nil {
		suggester = NewSuggester(nil)
	}
	return &KeywordHeuristic{suggester: suggester}
}

// Name returns the strategy name
func (k *KeywordHeuristic) Name() string {
	return StrategyKeyword
}

// Labels suggests a label for every field
func (k *KeywordHeuristic) Labels(cat *extraction.Catalog) []string {
	fields := cat.Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = k.suggester.Suggest(f.Name, f.Kind)
	}
	return out
}
