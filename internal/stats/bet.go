package stats

import (
	"errors"
	"fmt"
	"sort"
)

var ErrInvalidBet = errors.New("invalid bet")

// NormalizeBet checks that numbers holds DefaultBetSize distinct values
// in MinNumber..MaxNumber and returns them sorted ascending.
func NormalizeBet(numbers []int) ([]int, error) {
	if len(numbers) != DefaultBetSize {
		return nil, fmt.Errorf("%w: want %d numbers, got %d", ErrInvalidBet, DefaultBetSize, len(numbers))
	}

	seen := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		if n < MinNumber || n > MaxNumber {
			return nil, fmt.Errorf("%w: %d out of range %d-%d", ErrInvalidBet, n, MinNumber, MaxNumber)
		}
		if seen[n] {
			return nil, fmt.Errorf("%w: %d repeated", ErrInvalidBet, n)
		}
		seen[n] = true
	}

	sorted := make([]int, len(numbers))
	copy(sorted, numbers)
	sort.Ints(sorted)
	return sorted, nil
}

// Hits counts how many bet numbers were drawn.
func Hits(bet, drawn []int) int {
	in := make(map[int]bool, len(drawn))
	for _, n := range drawn {
		in[n] = true
	}
	hits := 0
	for _, n := range bet {
		if in[n] {
			hits++
		}
	}
	return hits
}
