package simulation

import (
	"encoding/json"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/crmsim/consortium-engine/internal/model"
)

// Memo caches engine results keyed by a hash of the input tuple. Capacity is
// bounded; the least recently used entry is evicted first. Safe for
// concurrent use.
type Memo struct {
	engine *Engine
	cache  *lru.Cache[uint64, *model.SimulationResult]
}

// NewMemo wraps engine with a cache of at most capacity results.
// A capacity below 1 disables caching.
func NewMemo(engine *Engine, capacity int) *Memo {
	m := &Memo{engine: engine}
	if capacity > 0 {
		// Only fails for a non-positive size.
		m.cache, _ = lru.New[uint64, *model.SimulationResult](capacity)
	}
	return m
}

// Run returns the result for in, computing it on a miss. The returned result
// is a private copy. hit reports whether it came from the cache.
func (m *Memo) Run(in model.SimulationInput) (result *model.SimulationResult, hit bool) {
	if m.cache == nil {
		return m.engine.Run(in), false
	}

	key, err := InputKey(in)
	if err != nil {
		return m.engine.Run(in), false
	}

	if cached, ok := m.cache.Get(key); ok {
		return cloneResult(cached), true
	}

	computed := m.engine.Run(in)
	m.cache.ContainsOrAdd(key, computed)
	return cloneResult(computed), false
}

// Len returns the number of cached results.
func (m *Memo) Len() int {
	if m.cache == nil {
		return 0
	}
	return m.cache.Len()
}

// InputKey hashes the canonical JSON encoding of the input tuple.
func InputKey(in model.SimulationInput) (uint64, error) {
	// Catalog metadata does not affect the numbers.
	in.Administrator.ID, in.Administrator.CompanyID, in.Administrator.Name = "", "", ""
	in.Administrator.CreatedAt = time.Time{}
	in.Product.ID, in.Product.CompanyID, in.Product.Name, in.Product.AdministratorID = "", "", "", ""
	in.Product.CreatedAt = time.Time{}
	if in.Property != nil {
		p := *in.Property
		p.ID, p.CompanyID, p.Name = "", "", ""
		p.CreatedAt = time.Time{}
		in.Property = &p
	}

	data, err := json.Marshal(in)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(data), nil
}

func cloneResult(r *model.SimulationResult) *model.SimulationResult {
	return &model.SimulationResult{
		Schedule:          append(make([]model.InstallmentCalculation, 0, len(r.Schedule)), r.Schedule...),
		PostContemplation: append(make([]model.PostContemplationCalculation, 0, len(r.PostContemplation)), r.PostContemplation...),
		CapitalGain:       append(make([]model.CapitalGainCalculation, 0, len(r.CapitalGain)), r.CapitalGain...),
		Leverage:          append(make([]model.LeverageCalculation, 0, len(r.Leverage)), r.Leverage...),
		Summary:           r.Summary,
	}
}
