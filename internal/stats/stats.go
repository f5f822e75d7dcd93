// Package stats computes the client-side conveniences over a local bundle:
// frequency based suggestions and a summary of the draw history.
package stats

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"

	"lotofacil_sync/internal/domain"
)

const (
	MinNumber = 1
	MaxNumber = 25

	// DefaultBetSize is the number of picks in a Lotofácil bet.
	DefaultBetSize = 15
)

// Summary mirrors the statistics block the backend publishes in a bundle.
type Summary struct {
	SampleSize     int         `json:"sampleSize"`
	Frequency      map[int]int `json:"frequency"`
	MostFrequent   int         `json:"mostFrequent"`
	LeastFrequent  int         `json:"leastFrequent"`
	EvenPercent    float64     `json:"evenPercent"`
	OddPercent     float64     `json:"oddPercent"`
	SumMean        float64     `json:"sumMean"`
	RepetitionMean float64     `json:"repetitionMean"`
	StreakMax      int         `json:"streakMax"`
}

type count struct {
	number int
	hits   int
}

// TopNumbers returns the limit most drawn numbers, most frequent first.
// Ties go to the smaller number.
func TopNumbers(draws []domain.LocalDraw, limit int) []int {
	freq := make(map[int]int)
	for _, d := range draws {
		for _, n := range d.Numbers {
			freq[n]++
		}
	}
	return rank(freq, limit)
}

// SuggestedBet reads the backend's absolute frequency table from the raw
// stats block and returns its limit top numbers. Entries that do not
// parse are ignored; an absent table yields an empty suggestion.
func SuggestedBet(rawStats map[string]any, limit int) []int {
	table, ok := rawStats["frequencia_absoluta"].(map[string]any)
	if !ok {
		return []int{}
	}

	freq := make(map[int]int, len(table))
	for k, v := range table {
		n, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		hits, ok := number(v)
		if !ok {
			continue
		}
		freq[n] = int(hits)
	}
	return rank(freq, limit)
}

// Summarize computes the history summary. Draws are ordered by contest
// id for the repetition mean regardless of their order in the bundle.
func Summarize(draws []domain.LocalDraw) Summary {
	s := Summary{
		SampleSize: len(draws),
		Frequency:  make(map[int]int),
	}
	if len(draws) == 0 {
		return s
	}

	var total, evens, sumTotal int
	for _, d := range draws {
		for _, n := range d.Numbers {
			s.Frequency[n]++
			total++
			sumTotal += n
			if n%2 == 0 {
				evens++
			}
		}
		if run := longestRun(d.Numbers); run > s.StreakMax {
			s.StreakMax = run
		}
	}

	if total > 0 {
		s.EvenPercent = round2(float64(evens) / float64(total) * 100)
		s.OddPercent = round2(float64(total-evens) / float64(total) * 100)
		s.MostFrequent, s.LeastFrequent = extremes(s.Frequency)
	}
	s.SumMean = round4(float64(sumTotal) / float64(len(draws)))
	s.RepetitionMean = round4(repetitionMean(draws))

	return s
}

func rank(freq map[int]int, limit int) []int {
	counts := make([]count, 0, len(freq))
	for n, hits := range freq {
		counts = append(counts, count{number: n, hits: hits})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].hits != counts[j].hits {
			return counts[i].hits > counts[j].hits
		}
		return counts[i].number < counts[j].number
	})

	if limit < 0 {
		limit = 0
	}
	if limit > len(counts) {
		limit = len(counts)
	}

	out := make([]int, limit)
	for i := 0; i < limit; i++ {
		out[i] = counts[i].number
	}
	return out
}

// extremes picks the smallest number among those with the highest and
// lowest frequency.
func extremes(freq map[int]int) (most, least int) {
	maxHits, minHits := -1, math.MaxInt
	for n, hits := range freq {
		if hits > maxHits || (hits == maxHits && n < most) {
			maxHits, most = hits, n
		}
		if hits < minHits || (hits == minHits && n < least) {
			minHits, least = hits, n
		}
	}
	return most, least
}

func repetitionMean(draws []domain.LocalDraw) float64 {
	if len(draws) < 2 {
		return 0
	}

	sorted := make([]domain.LocalDraw, len(draws))
	copy(sorted, draws)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var repeated int
	for i := 1; i < len(sorted); i++ {
		prev := make(map[int]struct{}, len(sorted[i-1].Numbers))
		for _, n := range sorted[i-1].Numbers {
			prev[n] = struct{}{}
		}
		seen := make(map[int]struct{}, len(sorted[i].Numbers))
		for _, n := range sorted[i].Numbers {
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			if _, ok := prev[n]; ok {
				repeated++
			}
		}
	}
	return float64(repeated) / float64(len(sorted)-1)
}

func longestRun(numbers []int) int {
	if len(numbers) == 0 {
		return 0
	}
	sorted := append([]int(nil), numbers...)
	sort.Ints(sorted)

	best, cur := 1, 1
	for i := 1; i < len(sorted); i++ {
		switch {
		case sorted[i] == sorted[i-1]+1:
			cur++
			if cur > best {
				best = cur
			}
		case sorted[i] == sorted[i-1]:
		default:
			cur = 1
		}
	}
	return best
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
