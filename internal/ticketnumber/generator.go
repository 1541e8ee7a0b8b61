// Package ticketnumber allocates human readable ticket codes.
package ticketnumber

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"regexp"
)

const (
	// Prefix starts every ticket number.
	Prefix = "TK"
	// DefaultMaxAttempts bounds collision retries.
	DefaultMaxAttempts = 100
)

// ErrGenerationExhausted is returned when every attempt collided.
var ErrGenerationExhausted = errors.New("ticket number generation exhausted")

var (
	keyspace = big.NewInt(100_000_000)
	pattern  = regexp.MustCompile(`^TK\d{8}$`)
)

// Checker reports whether a ticket number is already stored.
type Checker interface {
	TicketNumberExists(ctx context.Context, number string) (bool, error)
}

// Generator produces "TK" plus eight random digits, skipping stored numbers.
type Generator struct {
	checker     Checker
	maxAttempts int
	random      io.Reader
}

// NewGenerator builds a generator backed by crypto/rand.
func NewGenerator(checker Checker, maxAttempts int) *Generator {
	return NewGeneratorWithSource(checker, maxAttempts, rand.Reader)
}

// NewGeneratorWithSource builds a generator reading randomness from random.
func NewGeneratorWithSource(checker Checker, maxAttempts int, random io.Reader) *Generator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Generator{checker: checker, maxAttempts: maxAttempts, random: random}
}

// Generate returns a number not currently present in the store.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		candidate, err := g.candidate()
		if err != nil {
			return "", err
		}
		exists, err := g.checker.TicketNumberExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check ticket number: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrGenerationExhausted, g.maxAttempts)
}

func (g *Generator) candidate() (string, error) {
	n, err := rand.Int(g.random, keyspace)
	if err != nil {
		return "", fmt.Errorf("read randomness: %w", err)
	}
	return fmt.Sprintf("%s%08d", Prefix, n.Int64()), nil
}

// Valid reports whether number has the ticket number format.
func Valid(number string) bool {
	return pattern.MatchString(number)
}
