package heuristic

import (
	"math"
)

// EntropyWindow is the number of leading bytes the entropy signal looks at
const EntropyWindow = 64 * 1024

// MaxByteEntropy is the Shannon entropy of uniformly distributed bytes
const MaxByteEntropy = 8.0

// CalculateEntropy calculates Shannon entropy of a byte slice
// Returns value between 0 (uniform) and 8 (maximum randomness for bytes)
func CalculateEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}

	// Count byte frequencies
	var freq [256]int
	for _, b := range data {
		freq[b]++
	}

	// Calculate entropy
	length := float64(len(data))
	var entropy float64

	for _, count := range freq {
		if count > 0 {
			p := float64(count) / length
			entropy -= p * math.Log2(p)
		}
	}

	return entropy
}

// NormalizedEntropy returns the entropy of the first EntropyWindow bytes
// divided by 8 and clamped to [0,1]
func NormalizedEntropy(data []byte) float64 {
	if len(data) > EntropyWindow {
		data = data[:EntropyWindow]
	}

	e := CalculateEntropy(data) / MaxByteEntropy
	if e < 0 {
		return 0
	}
	if e > 1 {
		return 1
	}
	return e
}

// CalculateEntropyForChunks calculates entropy for chunks of data
// Useful for detecting localized high-entropy payloads
func CalculateEntropyForChunks(data []byte, chunkSize int) []float64 {
	if len(data) == 0 || chunkSize <= 0 {
		return nil
	}

	var results []float64
	for i := 0; i < len(data); i += chunkSize {
		end := i + chunkSize
		if end > len(data) {
			end = len(data)
		}
		results = append(results, CalculateEntropy(data[i:end]))
	}

	return results
}

// GetMaxChunkEntropy returns maximum entropy among all chunks
func GetMaxChunkEntropy(data []byte, chunkSize int) float64 {
	chunks := CalculateEntropyForChunks(data, chunkSize)
	if len(chunks) == 0 {
		return 0
	}

	maxEntropy := chunks[0]
	for _, e := range chunks[1:] {
		if e > maxEntropy {
			maxEntropy = e
		}
	}
	return maxEntropy
}
