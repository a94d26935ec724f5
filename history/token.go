package history

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/hupe1980/chatmesh/core"
)

// DefaultEncoding is the tiktoken encoding used by NewTiktokenCounter.
const DefaultEncoding = "cl100k_base"

// messageOverhead approximates the per-message framing tokens of chat APIs.
const messageOverhead = 4

// TokenCounter estimates the token footprint of a text.
type TokenCounter interface {
	CountTokens(text string) int
}

// TiktokenCounter counts tokens with a tiktoken encoding. The encoding is
// loaded lazily on first use; when it cannot be loaded the counter falls back
// to a len/4 estimate.
type TiktokenCounter struct {
	encoding string
	enc      *tiktoken.Tiktoken
	once     sync.Once
	initErr  error
}

// NewTiktokenCounter creates a counter for the given encoding ("" means
// DefaultEncoding).
func NewTiktokenCounter(encoding string) *TiktokenCounter {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	return &TiktokenCounter{encoding: encoding}
}

func (c *TiktokenCounter) init() error {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(c.encoding)
		if err != nil {
			c.initErr = fmt.Errorf("init tiktoken encoding %s: %w", c.encoding, err)
			return
		}
		c.enc = enc
	})
	return c.initErr
}

// Err reports why the encoding could not be loaded, if it failed.
func (c *TiktokenCounter) Err() error { return c.init() }

// CountTokens implements TokenCounter.
func (c *TiktokenCounter) CountTokens(text string) int {
	if err := c.init(); err != nil {
		return EstimateTokens(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

// EstimateTokens is the character based fallback estimate (len/4, rounded up).
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// EstimateCounter counts with EstimateTokens only.
type EstimateCounter struct{}

// CountTokens implements TokenCounter.
func (EstimateCounter) CountTokens(text string) int { return EstimateTokens(text) }

// TokenReducer keeps the longest suffix whose estimated token count fits in
// Budget. The most recent message is always kept, even when it alone exceeds
// the budget.
type TokenReducer struct {
	Budget  int
	Counter TokenCounter
}

// NewTokenReducer creates a budget based reducer using a cl100k_base counter.
func NewTokenReducer(budget int) *TokenReducer {
	return &TokenReducer{Budget: budget, Counter: NewTiktokenCounter(DefaultEncoding)}
}

// Reduce implements Reducer.
func (r *TokenReducer) Reduce(messages []core.Message) []core.Message {
	if len(messages) == 0 {
		return []core.Message{}
	}

	counter := r.Counter
	if counter == nil {
		counter = EstimateCounter{}
	}

	start := len(messages) - 1
	used := messageTokens(counter, messages[start])

	for i := start - 1; i >= 0; i-- {
		cost := messageTokens(counter, messages[i])
		if used+cost > r.Budget {
			break
		}
		used += cost
		start = i
	}

	return clone(messages[start:])
}

func messageTokens(c TokenCounter, m core.Message) int {
	return c.CountTokens(m.Speaker) + c.CountTokens(m.Content) + messageOverhead
}
