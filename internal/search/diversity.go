package search

import (
	"math"
	"sort"

	"scenforge/internal/model"
	"scenforge/internal/scenario"
)

// diversityScores measures, for each instance, its mean distance to every
// peer in the population: half normalized Euclidean distance over the shared
// parameter vector, half Jaccard distance over structural tags. Scores lie in
// [0,1]. A population of one has nothing to be distinct from and scores zero.
func diversityScores(population []*model.ScenarioInstance) []float64 {
	scores := make([]float64, len(population))
	if len(population) < 2 {
		return scores
	}

	keys, ranges := parameterRanges(population)
	tags := make([][]string, len(population))
	for i, inst := range population {
		tags[i] = scenario.StructuralTags(inst.Prototype)
	}

	for i := range population {
		total := 0.0
		for j := range population {
			if i == j {
				continue
			}
			d := 0.5*parameterDistance(population[i].Parameters, population[j].Parameters, keys, ranges) +
				0.5*jaccardDistance(tags[i], tags[j])
			total += d
		}
		scores[i] = total / float64(len(population)-1)
	}
	return scores
}

// parameterRanges collects the union of parameter names and the observed
// min/max spread per name, used to normalize per-key differences.
func parameterRanges(population []*model.ScenarioInstance) ([]string, map[string][2]float64) {
	ranges := map[string][2]float64{}
	for _, inst := range population {
		for k, v := range inst.Parameters {
			bounds, seen := ranges[k]
			if !seen {
				ranges[k] = [2]float64{v, v}
				continue
			}
			if v < bounds[0] {
				bounds[0] = v
			}
			if v > bounds[1] {
				bounds[1] = v
			}
			ranges[k] = bounds
		}
	}
	keys := make([]string, 0, len(ranges))
	for k := range ranges {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, ranges
}

// parameterDistance is the normalized Euclidean distance over the keys both
// instances bind. Keys missing on either side are skipped; two instances with
// no shared keys are maximally distant.
func parameterDistance(a, b map[string]float64, keys []string, ranges map[string][2]float64) float64 {
	sum := 0.0
	compared := 0
	for _, k := range keys {
		va, okA := a[k]
		vb, okB := b[k]
		if !okA || !okB {
			continue
		}
		compared++
		spread := ranges[k][1] - ranges[k][0]
		if spread <= 0 {
			continue
		}
		d := (va - vb) / spread
		sum += d * d
	}
	if compared == 0 {
		return 1.0
	}
	return math.Sqrt(sum / float64(compared))
}

// jaccardDistance over two sorted tag slices.
func jaccardDistance(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	i, j, intersection := 0, 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			intersection++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	union := len(a) + len(b) - intersection
	return 1 - float64(intersection)/float64(union)
}
