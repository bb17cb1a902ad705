package routing

import (
	"sort"
	"strings"
)

// Ranking constants. A risk above the step threshold adds a penalty far
// larger than any plausible duration difference, so such routes lose to any
// clean alternative almost absolutely; below it, risk trades off
// continuously against travel time.
const (
	riskStepThreshold = 60

	floodStepPenalty   = 10000
	potholeStepPenalty = 5000
	garbageStepPenalty = 2000

	floodWeight   = 10
	potholeWeight = 5
	garbageWeight = 2

	// Tolerances for the recommendation reason labels.
	riskReasonTolerance     = 5   // risk points
	durationReasonTolerance = 120 // seconds
)

// SelectionScore returns the total ranking score for a route. Lower is
// better.
func SelectionScore(r Route) int {
	score := r.DurationSeconds

	if r.FloodRisk > riskStepThreshold {
		score += floodStepPenalty
	} else {
		score += r.FloodRisk * floodWeight
	}

	if r.PotholeRisk > riskStepThreshold {
		score += potholeStepPenalty
	} else {
		score += r.PotholeRisk * potholeWeight
	}

	if r.GarbageRisk > riskStepThreshold {
		score += garbageStepPenalty
	} else {
		score += r.GarbageRisk * garbageWeight
	}

	return score
}

// RankRoutes orders routes by selection score ascending and flags the best
// one as recommended with a human-readable reason. Ties keep the input
// order (stable sort). The reason text is cosmetic only and never affects
// which route wins. The input slice is not modified.
func RankRoutes(routes []Route) []Route {
	if len(routes) == 0 {
		return nil
	}

	ranked := make([]Route, len(routes))
	copy(ranked, routes)

	sort.SliceStable(ranked, func(i, j int) bool {
		return SelectionScore(ranked[i]) < SelectionScore(ranked[j])
	})

	for i := range ranked {
		ranked[i].IsRecommended = false
		ranked[i].RecommendReason = ""
	}
	ranked[0].IsRecommended = true
	ranked[0].RecommendReason = recommendReason(ranked[0], routes)

	return ranked
}

// recommendReason builds the justification text for the recommended route
// by checking which of its metrics sit within tolerance of the best value
// across all candidates.
func recommendReason(best Route, all []Route) string {
	minFlood, minPothole, minGarbage := all[0].FloodRisk, all[0].PotholeRisk, all[0].GarbageRisk
	minDuration := all[0].DurationSeconds
	for _, r := range all[1:] {
		if r.FloodRisk < minFlood {
			minFlood = r.FloodRisk
		}
		if r.PotholeRisk < minPothole {
			minPothole = r.PotholeRisk
		}
		if r.GarbageRisk < minGarbage {
			minGarbage = r.GarbageRisk
		}
		if r.DurationSeconds < minDuration {
			minDuration = r.DurationSeconds
		}
	}

	var labels []string
	if best.FloodRisk <= minFlood+riskReasonTolerance {
		labels = append(labels, "low flood risk")
	}
	if best.PotholeRisk <= minPothole+riskReasonTolerance {
		labels = append(labels, "low pothole risk")
	}
	if best.GarbageRisk <= minGarbage+riskReasonTolerance {
		labels = append(labels, "low garbage risk")
	}
	fast := best.DurationSeconds <= minDuration+durationReasonTolerance
	if fast {
		labels = append(labels, "fast")
	}

	switch {
	case len(labels) == 0:
		return "Balanced route"
	case len(labels) == 1 && fast:
		return "Fastest route"
	case len(labels) <= 2:
		return "Good balance (" + strings.Join(labels, " & ") + ")"
	default:
		return "Overall best balance"
	}
}
