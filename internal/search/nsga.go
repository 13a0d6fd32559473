package search

import (
	"math"
	"sort"

	"scenforge/internal/model"
	"scenforge/internal/scenario"
)

// CollapseDuplicates removes instances that match an earlier pool member
// exactly on prototype topology and parameter vector, keeping first
// occurrences in order. Returns the deduplicated pool and the number of
// collapsed instances.
func CollapseDuplicates(pool []*model.ScenarioInstance) ([]*model.ScenarioInstance, int) {
	seen := make(map[string]struct{}, len(pool))
	out := make([]*model.ScenarioInstance, 0, len(pool))
	for _, inst := range pool {
		key := scenario.InstanceKey(inst)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, inst)
	}
	return out, len(pool) - len(out)
}

// dominates reports whether a dominates b under uniform minimization: a is no
// worse on every objective and strictly better on at least one.
func dominates(a, b ObjectiveVector) bool {
	better := false
	for m := 0; m < ObjectiveCount; m++ {
		if a[m] > b[m] {
			return false
		}
		if a[m] < b[m] {
			better = true
		}
	}
	return better
}

// NonDominatedFronts partitions pool indices into Pareto fronts, rank 0
// first. Within a front, indices keep insertion order.
func NonDominatedFronts(objs []ObjectiveVector) [][]int {
	remaining := make([]int, len(objs))
	for i := range objs {
		remaining[i] = i
	}

	var fronts [][]int
	for len(remaining) > 0 {
		var front, rest []int
		for _, i := range remaining {
			dominated := false
			for _, j := range remaining {
				if i == j {
					continue
				}
				if dominates(objs[j], objs[i]) {
					dominated = true
					break
				}
			}
			if dominated {
				rest = append(rest, i)
			} else {
				front = append(front, i)
			}
		}
		fronts = append(fronts, front)
		remaining = rest
	}
	return fronts
}

// crowdingDistances computes the NSGA-II crowding metric for one front:
// per-objective normalized spacing to the nearest neighbors, summed across
// objectives, with boundary points at +Inf. Objectives with zero or infinite
// spread contribute only their boundary assignment.
func crowdingDistances(objs []ObjectiveVector, front []int) map[int]float64 {
	distances := make(map[int]float64, len(front))
	for _, i := range front {
		distances[i] = 0
	}
	if len(front) <= 2 {
		for _, i := range front {
			distances[i] = math.Inf(1)
		}
		return distances
	}

	order := make([]int, len(front))
	for m := 0; m < ObjectiveCount; m++ {
		copy(order, front)
		sort.SliceStable(order, func(a, b int) bool {
			return objs[order[a]][m] < objs[order[b]][m]
		})

		distances[order[0]] = math.Inf(1)
		distances[order[len(order)-1]] = math.Inf(1)

		spread := objs[order[len(order)-1]][m] - objs[order[0]][m]
		if spread <= 0 || math.IsInf(spread, 0) {
			continue
		}
		for k := 1; k < len(order)-1; k++ {
			gap := objs[order[k+1]][m] - objs[order[k-1]][m]
			distances[order[k]] += gap / spread
		}
	}
	return distances
}

// SelectSurvivors performs NSGA-II survival selection on an already
// deduplicated pool: fronts are admitted in rank order, and the last
// partially admitted front is truncated by descending crowding distance.
// Equal crowding distances break by insertion order, so the output is
// deterministic for a given pool order. Returns survivors and their
// objective vectors, index-aligned.
func SelectSurvivors(pool []*model.ScenarioInstance, objs []ObjectiveVector, size int) ([]*model.ScenarioInstance, []ObjectiveVector) {
	if size >= len(pool) {
		return pool, objs
	}

	survivors := make([]*model.ScenarioInstance, 0, size)
	survivorObjs := make([]ObjectiveVector, 0, size)
	admit := func(i int) {
		survivors = append(survivors, pool[i])
		survivorObjs = append(survivorObjs, objs[i])
	}

	for _, front := range NonDominatedFronts(objs) {
		if len(survivors)+len(front) <= size {
			for _, i := range front {
				admit(i)
			}
			if len(survivors) == size {
				break
			}
			continue
		}

		distances := crowdingDistances(objs, front)
		truncated := append([]int(nil), front...)
		sort.SliceStable(truncated, func(a, b int) bool {
			return distances[truncated[a]] > distances[truncated[b]]
		})
		for _, i := range truncated[:size-len(survivors)] {
			admit(i)
		}
		break
	}
	return survivors, survivorObjs
}
