package postprocess

import "sort"

// NMS performs class-agnostic greedy non-maximum suppression and returns the
// kept indices into boxes/scores, highest score first. A box suppresses any
// lower-scored box whose IoU with it exceeds threshold, regardless of class.
func NMS(boxes [][4]float32, scores []float32, threshold float32) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	kept := make([]int, 0, len(order))
	suppressed := make([]bool, len(order))
	for i, idx := range order {
		if suppressed[i] {
			continue
		}
		kept = append(kept, idx)
		for j := i + 1; j < len(order); j++ {
			if suppressed[j] {
				continue
			}
			if IoU(boxes[idx], boxes[order[j]]) > threshold {
				suppressed[j] = true
			}
		}
	}
	return kept
}
