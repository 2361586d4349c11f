package heuristic

import (
	"bytes"
	"math"
	"math/rand"
	"strings"
	"testing"
)

func TestCalculateEntropy(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		minValue float64
		maxValue float64
	}{
		{
			name:     "empty input",
			input:    "",
			minValue: 0,
			maxValue: 0,
		},
		{
			name:     "single byte",
			input:    "a",
			minValue: 0,
			maxValue: 0,
		},
		{
			name:     "repeated bytes - zero entropy",
			input:    "aaaaaaaaaa",
			minValue: 0,
			maxValue: 0.01,
		},
		{
			name:     "two different bytes - entropy ~1",
			input:    "ababababab",
			minValue: 0.9,
			maxValue: 1.1,
		},
		{
			name:     "pdf header and catalog - moderate entropy",
			input:    "%PDF-1.4\n1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj",
			minValue: 3.5,
			maxValue: 5.0,
		},
		{
			name:     "base64-like string - high entropy",
			input:    "YWJjZGVmZ2hpamtsbW5vcHFyc3R1dnd4eXoxMjM0NTY3ODkwQUJDREVGR0hJSktMTU5PUFFSU1RVVldYWVo=",
			minValue: 5.0,
			maxValue: 6.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateEntropy([]byte(tt.input))
			if result < tt.minValue || result > tt.maxValue {
				t.Errorf("CalculateEntropy(%q) = %v, want between %v and %v",
					tt.input, result, tt.minValue, tt.maxValue)
			}
		})
	}
}

func TestCalculateEntropy_MaxValue(t *testing.T) {
	// Maximum entropy for bytes is 8 (log2(256))
	var allBytes []byte
	for i := 0; i < 256; i++ {
		allBytes = append(allBytes, byte(i))
	}
	data := bytes.Repeat(allBytes, 10)

	result := CalculateEntropy(data)
	if result < 7.9 || result > 8.0 {
		t.Errorf("Maximum entropy should be close to 8, got %v", result)
	}
}

func TestNormalizedEntropy(t *testing.T) {
	if got := NormalizedEntropy(nil); got != 0 {
		t.Errorf("NormalizedEntropy(nil) = %v, want 0", got)
	}

	if got := NormalizedEntropy(bytes.Repeat([]byte{0x41}, 4096)); got != 0 {
		t.Errorf("constant input = %v, want 0", got)
	}

	var allBytes []byte
	for i := 0; i < 256; i++ {
		allBytes = append(allBytes, byte(i))
	}
	if got := NormalizedEntropy(bytes.Repeat(allBytes, 4)); math.Abs(got-1) > 1e-9 {
		t.Errorf("uniform bytes = %v, want 1", got)
	}
}

func TestNormalizedEntropy_Range(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		data := make([]byte, rng.Intn(100000))
		rng.Read(data)
		got := NormalizedEntropy(data)
		if got < 0 || got > 1 {
			t.Fatalf("NormalizedEntropy out of range: %v", got)
		}
	}
}

func TestNormalizedEntropy_IgnoresBytesPastWindow(t *testing.T) {
	head := bytes.Repeat([]byte("abcd"), EntropyWindow/4)

	tail := make([]byte, 100000)
	rand.New(rand.NewSource(1)).Read(tail)

	withTail := append(append([]byte{}, head...), tail...)

	if a, b := NormalizedEntropy(head), NormalizedEntropy(withTail); a != b {
		t.Errorf("bytes past the window changed entropy: %v != %v", a, b)
	}
}

func TestCalculateEntropyForChunks(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		chunkSize  int
		wantChunks int
	}{
		{
			name:       "empty input",
			input:      "",
			chunkSize:  100,
			wantChunks: 0,
		},
		{
			name:       "zero chunk size",
			input:      "test data",
			chunkSize:  0,
			wantChunks: 0,
		},
		{
			name:       "negative chunk size",
			input:      "test data",
			chunkSize:  -1,
			wantChunks: 0,
		},
		{
			name:       "single chunk",
			input:      "short",
			chunkSize:  100,
			wantChunks: 1,
		},
		{
			name:       "uneven chunks",
			input:      strings.Repeat("a", 350),
			chunkSize:  100,
			wantChunks: 4, // 100 + 100 + 100 + 50
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateEntropyForChunks([]byte(tt.input), tt.chunkSize)
			if len(result) != tt.wantChunks {
				t.Errorf("CalculateEntropyForChunks() returned %d chunks, want %d",
					len(result), tt.wantChunks)
			}
		})
	}
}

func TestGetMaxChunkEntropy(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		chunkSize int
		wantMax   float64
		tolerance float64
	}{
		{
			name:      "empty input",
			input:     "",
			chunkSize: 100,
			wantMax:   0,
			tolerance: 0.01,
		},
		{
			name:      "uniform content",
			input:     strings.Repeat("a", 500),
			chunkSize: 100,
			wantMax:   0,
			tolerance: 0.01,
		},
		{
			name:      "low then high entropy",
			input:     strings.Repeat("a", 100) + "YWJjZGVmZ2hpamtsbW5vcHFyc3R1dnd4eXoxMjM0NTY3ODkwQUJDREVGR0hJSktMTU5PUFFSU1RVVldYWVo=",
			chunkSize: 100,
			wantMax:   5.5,
			tolerance: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GetMaxChunkEntropy([]byte(tt.input), tt.chunkSize)
			if math.Abs(result-tt.wantMax) > tt.tolerance {
				t.Errorf("GetMaxChunkEntropy() = %v, want %v (+/-%v)",
					result, tt.wantMax, tt.tolerance)
			}
		})
	}
}

// Benchmarks

func BenchmarkNormalizedEntropy(b *testing.B) {
	data := bytes.Repeat([]byte("test data with some variation 12345"), 4000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		NormalizedEntropy(data)
	}
}
