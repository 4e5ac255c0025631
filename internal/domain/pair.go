// Package domain defines core data structures used throughout the trading bot.
package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Pair cryptocurrency trading pair.
type Pair struct {
	// Base currency code, e.g. btc.
	Base string
	// Quote currency code, e.g. uah.
	Quote string
}

// String returns the string representation.
func (p Pair) String() string {
	return fmt.Sprintf("%s/%s", p.Base, p.Quote)
}

// ID returns the pair identifier used in configuration, e.g. btcuah.
func (p Pair) ID() string {
	return p.Base + p.Quote
}

// Symbol returns the exchange symbol representation, e.g. BTCUAH.
func (p Pair) Symbol() string {
	return strings.ToUpper(p.Base + p.Quote)
}

// Known pair identifiers of the Kuna exchange.
const (
	PairBTCUAH   = "btcuah"
	PairGOLBTC   = "golbtc"
	PairETHUAH   = "ethuah"
	PairWAVESUAH = "wavesuah"
	PairKUNBTC   = "kunbtc"
	PairBCHBTC   = "bchbtc"
	PairGBGUAH   = "gbguah"
	PairGBGGOL   = "gbggol"
)

var knownPairs = map[string]Pair{
	PairBTCUAH:   {Base: "btc", Quote: "uah"},
	PairGOLBTC:   {Base: "gol", Quote: "btc"},
	PairETHUAH:   {Base: "eth", Quote: "uah"},
	PairWAVESUAH: {Base: "waves", Quote: "uah"},
	PairKUNBTC:   {Base: "kun", Quote: "btc"},
	PairBCHBTC:   {Base: "bch", Quote: "btc"},
	PairGBGUAH:   {Base: "gbg", Quote: "uah"},
	PairGBGGOL:   {Base: "gbg", Quote: "gol"},
}

// PairRegistry maps pair identifiers to their base/quote split.
// Identifiers are never split by length heuristics: an id missing from the
// registry is an error.
type PairRegistry struct {
	pairs map[string]Pair
}

// NewPairRegistry returns the registry of known exchange pairs extended with extra entries.
// Extra entries override known ones with the same id.
func NewPairRegistry(extra map[string]Pair) (*PairRegistry, error) {
	pairs := make(map[string]Pair, len(knownPairs)+len(extra))
	for id, p := range knownPairs {
		pairs[id] = p
	}

	for id, p := range extra {
		id = normalizePairID(id)
		if id == "" {
			return nil, errors.New("pair id cannot be empty")
		}
		p = Pair{Base: strings.ToLower(strings.TrimSpace(p.Base)), Quote: strings.ToLower(strings.TrimSpace(p.Quote))}
		if p.Base == "" || p.Quote == "" {
			return nil, errors.Errorf("pair %s: base and quote are required", id)
		}
		pairs[id] = p
	}

	return &PairRegistry{pairs: pairs}, nil
}

// Split returns the base and quote currencies of the pair identifier.
func (r *PairRegistry) Split(pairID string) (Pair, error) {
	p, ok := r.pairs[normalizePairID(pairID)]
	if !ok {
		return Pair{}, errors.Wrapf(ErrUnknownPair, "pair %q", pairID)
	}

	return p, nil
}

// IDs returns all registered pair identifiers in sorted order.
func (r *PairRegistry) IDs() []string {
	ids := make([]string, 0, len(r.pairs))
	for id := range r.pairs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

// SplitPair splits one of the known exchange pair identifiers.
func SplitPair(pairID string) (Pair, error) {
	p, ok := knownPairs[normalizePairID(pairID)]
	if !ok {
		return Pair{}, errors.Wrapf(ErrUnknownPair, "pair %q", pairID)
	}

	return p, nil
}

func normalizePairID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
