package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
)

var (
	ErrInvalidPairCount = errors.New("pair count must be greater than zero")
	ErrPoolTooSmall     = errors.New("face key pool is smaller than pair count")
)

// RandomSource supplies uniform integers in [0, n). *rand.Rand satisfies it.
type RandomSource interface {
	IntN(n int) int
}

// NewRandomSource returns a PCG generator seeded from crypto/rand
func NewRandomSource() RandomSource {
	var b [16]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("read random seed: %v", err))
	}
	return rand.New(rand.NewPCG(binary.LittleEndian.Uint64(b[:8]), binary.LittleEndian.Uint64(b[8:])))
}

// NewSeededRandomSource returns a deterministic generator, used by simulations and tests
func NewSeededRandomSource(seed uint64) RandomSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// SelectFaceKeys draws pairCount distinct keys from 1..poolSize without replacement.
// Keys are returned in draw order.
func SelectFaceKeys(pairCount, poolSize int, rng RandomSource) ([]int, error) {
	if pairCount < MinPairs {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPairCount, pairCount)
	}
	if poolSize < pairCount {
		return nil, fmt.Errorf("%w: pool %d, pairs %d", ErrPoolTooSmall, poolSize, pairCount)
	}

	pool := make([]int, poolSize)
	for i := range pool {
		pool[i] = i + 1
	}

	// Partial Fisher-Yates: the first pairCount slots end up as a uniform sample
	for i := 0; i < pairCount; i++ {
		j := i + rng.IntN(poolSize-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	return pool[:pairCount], nil
}

// ShuffleCards applies an unbiased Fisher-Yates permutation in place
func ShuffleCards(cards []Card, rng RandomSource) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// BuildDeck creates two face-down cards per face key and shuffles them.
// Card ids are 2i and 2i+1 for the i-th key, assigned before shuffling.
func BuildDeck(faceKeys []int, assetPattern string, rng RandomSource) []Card {
	cards := make([]Card, 0, len(faceKeys)*2)
	for i, key := range faceKeys {
		asset := FaceAsset(assetPattern, key)
		cards = append(cards,
			Card{ID: i * 2, FaceKey: key, FaceAsset: asset},
			Card{ID: i*2 + 1, FaceKey: key, FaceAsset: asset},
		)
	}

	ShuffleCards(cards, rng)
	return cards
}

// FaceAsset renders the display asset reference for a face key
func FaceAsset(pattern string, faceKey int) string {
	if pattern == "" {
		return ""
	}
	return fmt.Sprintf(pattern, faceKey)
}
