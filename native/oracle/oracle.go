package oracle

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"
)

var (
	// ErrStalePrice indicates the latest round is older than the configured
	// freshness window. Callers must abort the operation that requested it.
	ErrStalePrice = errors.New("oracle: price is stale")
	// ErrInvalidPrice indicates the feed reported a zero or negative price.
	ErrInvalidPrice = errors.New("oracle: price must be positive")
	// ErrUnknownFeed indicates no round data exists for the feed identifier.
	ErrUnknownFeed = errors.New("oracle: unknown feed")
)

// Round is a single price observation. Price is a signed fixed-point value
// using FeedDecimals decimals, matching the upstream aggregator format.
type Round struct {
	Price     *big.Int
	UpdatedAt time.Time
}

// FeedDecimals is the decimal precision reported by the price feeds the
// engine consumes.
const FeedDecimals = 8

// Clone returns a deep copy so callers cannot mutate shared round state.
func (r Round) Clone() Round {
	clone := Round{UpdatedAt: r.UpdatedAt}
	if r.Price != nil {
		clone.Price = new(big.Int).Set(r.Price)
	}
	return clone
}

// PriceFeed resolves the most recent round for a feed identifier.
type PriceFeed interface {
	LatestRound(feedID string) (Round, error)
}

// Gate wraps a PriceFeed and enforces the freshness and validity rules the
// engine relies on. A round older than maxAge is rejected with ErrStalePrice.
type Gate struct {
	feed   PriceFeed
	maxAge time.Duration
	now    func() time.Time
}

// NewGate constructs a staleness gate over the provided feed. A non-positive
// maxAge disables the staleness check, which callers should only do in tests.
func NewGate(feed PriceFeed, maxAge time.Duration) *Gate {
	return &Gate{feed: feed, maxAge: maxAge, now: time.Now}
}

// SetClock overrides the time source used for staleness cutoffs.
func (g *Gate) SetClock(now func() time.Time) {
	if g == nil || now == nil {
		return
	}
	g.now = now
}

// LatestRound returns the current round after validating both price sign and
// freshness.
func (g *Gate) LatestRound(feedID string) (Round, error) {
	round, err := g.LatestRoundUnchecked(feedID)
	if err != nil {
		return Round{}, err
	}
	if g.maxAge > 0 {
		cutoff := g.now().Add(-g.maxAge)
		if round.UpdatedAt.Before(cutoff) {
			return Round{}, fmt.Errorf("%w: feed %s updated %s", ErrStalePrice, feedID, round.UpdatedAt.UTC().Format(time.RFC3339))
		}
	}
	return round, nil
}

// LatestRoundUnchecked returns the current round validating only the price
// sign, not freshness. The liquidation seizure sizing path reads through this
// deliberately; every other engine path must use LatestRound.
func (g *Gate) LatestRoundUnchecked(feedID string) (Round, error) {
	if g == nil || g.feed == nil {
		return Round{}, errors.New("oracle: gate not configured")
	}
	round, err := g.feed.LatestRound(feedID)
	if err != nil {
		return Round{}, err
	}
	if round.Price == nil || round.Price.Sign() <= 0 {
		return Round{}, fmt.Errorf("%w: feed %s", ErrInvalidPrice, feedID)
	}
	return round.Clone(), nil
}

// ManualFeed is an in-memory feed used by tests and for manual overrides
// during incident response.
type ManualFeed struct {
	mu     sync.RWMutex
	rounds map[string]Round
}

// NewManualFeed constructs an empty manual feed.
func NewManualFeed() *ManualFeed {
	return &ManualFeed{rounds: make(map[string]Round)}
}

func feedKey(feedID string) string {
	return strings.ToLower(strings.TrimSpace(feedID))
}

// Set stores the price for the feed with the supplied observation time.
func (m *ManualFeed) Set(feedID string, price *big.Int, updatedAt time.Time) {
	if m == nil || price == nil {
		return
	}
	key := feedKey(feedID)
	if key == "" {
		return
	}
	m.mu.Lock()
	m.rounds[key] = Round{Price: new(big.Int).Set(price), UpdatedAt: updatedAt}
	m.mu.Unlock()
}

// SetDecimal parses a decimal string into a feed price using FeedDecimals
// precision and stores it.
func (m *ManualFeed) SetDecimal(feedID, price string, updatedAt time.Time) error {
	trimmed := strings.TrimSpace(price)
	if trimmed == "" {
		return fmt.Errorf("oracle: price required for feed %s", feedID)
	}
	rat, ok := new(big.Rat).SetString(trimmed)
	if !ok {
		return fmt.Errorf("oracle: invalid price %q for feed %s", price, feedID)
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(FeedDecimals), nil)
	scaled := new(big.Rat).Mul(rat, new(big.Rat).SetInt(scale))
	value := new(big.Int).Quo(scaled.Num(), scaled.Denom())
	if value.Sign() <= 0 {
		return fmt.Errorf("%w: feed %s", ErrInvalidPrice, feedID)
	}
	m.Set(feedID, value, updatedAt)
	return nil
}

// LatestRound retrieves the stored round for the feed.
func (m *ManualFeed) LatestRound(feedID string) (Round, error) {
	if m == nil {
		return Round{}, errors.New("oracle: manual feed not configured")
	}
	m.mu.RLock()
	round, ok := m.rounds[feedKey(feedID)]
	m.mu.RUnlock()
	if !ok {
		return Round{}, fmt.Errorf("%w: %s", ErrUnknownFeed, feedID)
	}
	return round.Clone(), nil
}
