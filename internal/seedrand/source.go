// Package seedrand provides a deterministic random source keyed by a seed string.
//
// The same seed text yields the same sequence of draws on every run and
// platform. Empty or whitespace-only text mints a fresh random seed instead.
package seedrand

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// ErrInvalidArgument is returned when a draw is requested with arguments
// that cannot produce a value (inverted range, empty choice set).
var ErrInvalidArgument = errors.New("seedrand: invalid argument")

// mintedPrefix marks seeds that were generated rather than supplied.
const mintedPrefix = "mystic-"

// Source is a seeded pseudo-random number generator.
// A Source is not safe for concurrent use.
type Source struct {
	seed      string
	generated bool
	rng       *rand.Rand
}

// New creates a Source for the given seed text.
// Text that is empty or only whitespace is replaced by a freshly minted seed;
// anything else is used verbatim.
func New(seedText string) *Source {
	seed := seedText
	generated := false
	if strings.TrimSpace(seedText) == "" {
		seed = NewSeed()
		generated = true
	}

	return &Source{
		seed:      seed,
		generated: generated,
		rng:       rand.New(rand.NewSource(HashSeed(seed))),
	}
}

// NewSeed returns a new high-entropy seed string.
func NewSeed() string {
	return mintedPrefix + uuid.NewString()
}

// HashSeed converts a seed string into the numeric seed of the underlying
// generator. BLAKE2b-256 over the UTF-8 bytes, first 8 bytes little endian.
func HashSeed(seed string) int64 {
	sum := blake2b.Sum256([]byte(seed))
	return int64(binary.LittleEndian.Uint64(sum[:8]))
}

// Seed returns the canonical seed string.
func (s *Source) Seed() string {
	return s.seed
}

// Generated reports whether the seed was minted because the input was blank.
func (s *Source) Generated() bool {
	return s.generated
}

// NextInt returns an integer in [minInclusive, maxExclusive).
func (s *Source) NextInt(minInclusive, maxExclusive int) (int, error) {
	if minInclusive >= maxExclusive {
		return 0, fmt.Errorf("%w: NextInt range [%d, %d) is empty", ErrInvalidArgument, minInclusive, maxExclusive)
	}

	span := int64(maxExclusive) - int64(minInclusive)
	if span > 0 {
		return minInclusive + int(s.rng.Int63n(span)), nil
	}

	// The span overflowed int64; more than half of all values are in range,
	// so rejection sampling terminates quickly.
	for {
		v := int(s.rng.Uint64())
		if v >= minInclusive && v < maxExclusive {
			return v, nil
		}
	}
}

// NextFloat returns a value in [0, 1).
func (s *Source) NextFloat() float64 {
	return s.rng.Float64()
}

// Shuffle pseudo-randomizes the order of n elements using Fisher-Yates.
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := int(s.rng.Int63n(int64(i + 1)))
		swap(i, j)
	}
}
