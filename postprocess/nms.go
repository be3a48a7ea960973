package postprocess

import (
	"fmt"
	"sort"
)

// NMS implements a class agnostic greedy Non-Maximum Suppression algorithm.
// Candidates scoring below scoreThreshold or NaN are discarded, the remainder are
// visited in descending score order and any candidate overlapping an already
// kept box by more than nmsThreshold IoU is suppressed.  The returned indices
// refer to positions in boxes and scores and are listed in selection order.
func NMS(boxes []Box, scores []float32, scoreThreshold, nmsThreshold float32) []int {

	if len(boxes) != len(scores) {
		panic(fmt.Sprintf("postprocess: NMS got %d boxes and %d scores",
			len(boxes), len(scores)))
	}

	// order holds the index of each candidate passing the score threshold
	order := make([]int, 0, len(scores))

	for i, s := range scores {
		if !(s >= scoreThreshold) {
			continue
		}
		order = append(order, i)
	}

	// stable so equal scores keep their input order
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	// suppressed marks positions in order removed from consideration
	suppressed := make([]bool, len(order))
	keep := make([]int, 0, len(order))

	for i, n := range order {

		if suppressed[i] {
			continue
		}

		keep = append(keep, n)

		for j := i + 1; j < len(order); j++ {

			if suppressed[j] {
				continue
			}

			if boxes[n].IoU(boxes[order[j]]) > nmsThreshold {
				suppressed[j] = true
			}
		}
	}

	return keep
}
