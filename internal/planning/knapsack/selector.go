// Package knapsack implements C3, the per-flight priority-reservation
// cargo selector: high/medium cargo always board (emergency override if
// capacity demands it); low-priority cargo is chosen to maximize an
// aggregate utility score within whatever capacity remains.
package knapsack

import (
	"fmt"
	"sort"

	"github.com/airfreight/cargoplan/internal/config"
	"github.com/airfreight/cargoplan/internal/models"
)

// Candidate is one cargo competing for space on a flight.
type Candidate struct {
	Cargo      models.Cargo
	DwellHours float64 // dwell after this flight on the cargo's itinerary, 0 if final leg
}

// Selection is the outcome of running the selector against one flight's
// candidates: who boards, who doesn't (with a reason), and any alerts the
// emergency-override protocol raised. Boarded is sorted by cargo ID.
type Selection struct {
	Boarded    []string
	NotBoarded map[string]string
	Alerts     []models.Alert
}

// exhaustiveLimit is the |L| cutoff between exact subset enumeration and
// the greedy + 2-opt fallback.
const exhaustiveLimit = 12

// Select runs the priority-reservation protocol for one flight, per the
// three-phase scheme: reserve H and M, fill the residual with the best
// low-priority subset, or fall back to the emergency override when H+M
// alone oversubscribe the flight. overrideFactor bounds how far beyond
// nominal capacity the override may load the flight: high cargo always
// boards, medium boards while total usage stays within
// (1+overrideFactor) of capacity on both axes. Deterministic: ties break
// by ascending cargo identifier.
func Select(flight models.Flight, candidates []Candidate, weights config.KnapsackWeights, overrideFactor float64) Selection {
	sel := Selection{NotBoarded: make(map[string]string)}

	var high, medium, low []Candidate
	for _, c := range candidates {
		switch c.Cargo.Priority {
		case models.PriorityHigh:
			high = append(high, c)
		case models.PriorityMedium:
			medium = append(medium, c)
		default:
			low = append(low, c)
		}
	}
	sortByID(high)
	sortByID(medium)
	sortByID(low)

	weightHM := sumWeight(high) + sumWeight(medium)
	volumeHM := sumVolume(high) + sumVolume(medium)

	residualWeight := flight.WeightCapacityKg - weightHM
	residualVolume := flight.VolumeCapacityM3 - volumeHM

	if residualWeight >= 0 && residualVolume >= 0 {
		for _, c := range high {
			sel.Boarded = append(sel.Boarded, c.Cargo.ID)
		}
		for _, c := range medium {
			sel.Boarded = append(sel.Boarded, c.Cargo.ID)
		}
		boardedLow := selectLowSubset(low, residualWeight, residualVolume, flight, weights)
		for _, c := range low {
			if boardedLow[c.Cargo.ID] {
				sel.Boarded = append(sel.Boarded, c.Cargo.ID)
			} else {
				sel.NotBoarded[c.Cargo.ID] = "insufficient residual capacity on flight " + flight.ID
			}
		}
		sort.Strings(sel.Boarded)
		return sel
	}

	// Emergency override: all H board unconditionally, even beyond nominal
	// capacity. Medium boards in descending revenue density while total
	// usage stays within the override bound; anything further is a
	// guarantee violation.
	for _, c := range high {
		sel.Boarded = append(sel.Boarded, c.Cargo.ID)
	}
	usedWeight := sumWeight(high)
	usedVolume := sumVolume(high)
	maxWeight := flight.WeightCapacityKg * (1 + overrideFactor)
	maxVolume := flight.VolumeCapacityM3 * (1 + overrideFactor)

	sort.SliceStable(medium, func(i, j int) bool {
		di, dj := medium[i].Cargo.RevenueDensity(), medium[j].Cargo.RevenueDensity()
		if di != dj {
			return di > dj
		}
		return medium[i].Cargo.ID < medium[j].Cargo.ID
	})
	for _, c := range medium {
		if usedWeight+c.Cargo.WeightKg <= maxWeight && usedVolume+c.Cargo.VolumeM3 <= maxVolume {
			sel.Boarded = append(sel.Boarded, c.Cargo.ID)
			usedWeight += c.Cargo.WeightKg
			usedVolume += c.Cargo.VolumeM3
		} else {
			sel.NotBoarded[c.Cargo.ID] = "medium priority cargo lost capacity contest on flight " + flight.ID
			sel.Alerts = append(sel.Alerts, models.NewAlert(
				models.AlertPriorityGuaranteeViolation, models.SeverityCritical,
				"medium priority cargo "+c.Cargo.ID+" could not be guaranteed on flight "+flight.ID,
			).WithCargo(c.Cargo.ID).WithFlight(flight.ID))
		}
	}

	if usedWeight > flight.WeightCapacityKg || usedVolume > flight.VolumeCapacityM3 {
		axis, over := "weight", usedWeight-flight.WeightCapacityKg
		if usedVolume-flight.VolumeCapacityM3 > over {
			axis, over = "volume", usedVolume-flight.VolumeCapacityM3
		}
		sel.Alerts = append(sel.Alerts, models.NewAlert(
			models.AlertCapacityBreach, models.SeverityCritical,
			fmt.Sprintf("emergency override boarded priority cargo %.2f over %s capacity on flight %s", over, axis, flight.ID),
		).WithFlight(flight.ID))
	}

	for _, c := range low {
		sel.NotBoarded[c.Cargo.ID] = "low priority cargo bumped by emergency override on flight " + flight.ID
	}

	sort.Strings(sel.Boarded)
	return sel
}

// selectLowSubset picks the low-priority subset maximizing the aggregate
// score within the residual capacity. Exact enumeration up to
// exhaustiveLimit candidates, greedy-by-density plus 2-opt beyond that.
func selectLowSubset(low []Candidate, residualWeight, residualVolume float64, flight models.Flight, weights config.KnapsackWeights) map[string]bool {
	chosen := make(map[string]bool)
	if len(low) == 0 || residualWeight <= 0 || residualVolume <= 0 {
		return chosen
	}

	var best []int
	if len(low) <= exhaustiveLimit {
		best = enumerateSubsets(low, residualWeight, residualVolume, flight, weights)
	} else {
		best = greedyTwoOpt(low, residualWeight, residualVolume, flight, weights)
	}
	for _, i := range best {
		chosen[low[i].Cargo.ID] = true
	}
	return chosen
}

// enumerateSubsets walks every bitmask over low in ascending order, so the
// first subset reaching the best score wins; with low sorted by ID that
// makes the lowest-ID subset the deterministic tiebreak.
func enumerateSubsets(low []Candidate, residualWeight, residualVolume float64, flight models.Flight, weights config.KnapsackWeights) []int {
	bestScore := scoreSubset(nil, low, flight, weights, residualWeight, residualVolume)
	var best []int
	for mask := 1; mask < 1<<len(low); mask++ {
		var idx []int
		var w, v float64
		for i := 0; i < len(low); i++ {
			if mask&(1<<i) != 0 {
				idx = append(idx, i)
				w += low[i].Cargo.WeightKg
				v += low[i].Cargo.VolumeM3
			}
		}
		if w > residualWeight || v > residualVolume {
			continue
		}
		if s := scoreSubset(idx, low, flight, weights, residualWeight, residualVolume); s > bestScore {
			bestScore = s
			best = idx
		}
	}
	return best
}

// greedyTwoOpt seeds the subset greedily by descending revenue density and
// then swaps in/out pairs while any swap improves the score.
func greedyTwoOpt(low []Candidate, residualWeight, residualVolume float64, flight models.Flight, weights config.KnapsackWeights) []int {
	order := make([]int, len(low))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		da, db := low[order[a]].Cargo.RevenueDensity(), low[order[b]].Cargo.RevenueDensity()
		if da != db {
			return da > db
		}
		return low[order[a]].Cargo.ID < low[order[b]].Cargo.ID
	})

	in := make(map[int]bool)
	var w, v float64
	for _, i := range order {
		c := low[i].Cargo
		if w+c.WeightKg <= residualWeight && v+c.VolumeM3 <= residualVolume {
			in[i] = true
			w += c.WeightKg
			v += c.VolumeM3
		}
	}

	current := indexSet(in, len(low))
	currentScore := scoreSubset(current, low, flight, weights, residualWeight, residualVolume)

	improved := true
	for improved {
		improved = false
		for out := 0; out < len(low); out++ {
			if in[out] {
				continue
			}
			for rem := 0; rem < len(low); rem++ {
				if !in[rem] {
					continue
				}
				nw := w - low[rem].Cargo.WeightKg + low[out].Cargo.WeightKg
				nv := v - low[rem].Cargo.VolumeM3 + low[out].Cargo.VolumeM3
				if nw > residualWeight || nv > residualVolume {
					continue
				}
				in[rem] = false
				in[out] = true
				trial := indexSet(in, len(low))
				s := scoreSubset(trial, low, flight, weights, residualWeight, residualVolume)
				if s > currentScore {
					currentScore = s
					current = trial
					w, v = nw, nv
					improved = true
				} else {
					in[out] = false
					in[rem] = true
				}
			}
		}
	}
	return current
}

func indexSet(in map[int]bool, n int) []int {
	var idx []int
	for i := 0; i < n; i++ {
		if in[i] {
			idx = append(idx, i)
		}
	}
	return idx
}

// scoreSubset computes the w1..w4 aggregate from the selection scheme:
// revenue density, priority weight, a utilization term that peaks in the
// 60-90% band of the tighter axis, and a dwell-hours penalty.
func scoreSubset(idx []int, low []Candidate, flight models.Flight, weights config.KnapsackWeights, residualWeight, residualVolume float64) float64 {
	var density, prio, dwell, w, v float64
	for _, i := range idx {
		c := low[i]
		density += c.Cargo.RevenueDensity()
		prio += priorityWeight(c.Cargo.Priority)
		dwell += c.DwellHours
		w += c.Cargo.WeightKg
		v += c.Cargo.VolumeM3
	}
	return weights.RevenueDensity*density +
		weights.PriorityWeight*prio +
		weights.Utilization*utilizationScore(w, v, residualWeight, residualVolume) -
		weights.Dwell*dwell
}

func priorityWeight(p models.Priority) float64 {
	switch p {
	case models.PriorityHigh:
		return 3
	case models.PriorityMedium:
		return 2
	default:
		return 1
	}
}

// utilizationScore peaks at 1.0 when the tighter axis sits in the 60-90%
// band and falls off linearly outside it, discouraging both under-fill and
// bin fragmentation.
func utilizationScore(weight, volume, residualWeight, residualVolume float64) float64 {
	var uw, uv float64
	if residualWeight > 0 {
		uw = weight / residualWeight
	}
	if residualVolume > 0 {
		uv = volume / residualVolume
	}
	u := uw
	if uv > u {
		u = uv
	}
	switch {
	case u < 0.6:
		return u / 0.6
	case u <= 0.9:
		return 1.0
	default:
		s := 1.0 - (u-0.9)/0.1
		if s < 0 {
			return 0
		}
		return s
	}
}

func sortByID(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Cargo.ID < cs[j].Cargo.ID })
}

func sumWeight(cs []Candidate) float64 {
	var sum float64
	for _, c := range cs {
		sum += c.Cargo.WeightKg
	}
	return sum
}

func sumVolume(cs []Candidate) float64 {
	var sum float64
	for _, c := range cs {
		sum += c.Cargo.VolumeM3
	}
	return sum
}
