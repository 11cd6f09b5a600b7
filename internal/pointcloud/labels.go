package pointcloud

import (
	"fmt"

	"github.com/banshee-data/sidewalk.report/internal/config"
)

// LabelMask selects points by class label. With include set, only those
// labels pass; with exclude set, everything but those labels passes; with
// neither, every point passes. Supplying both is a configuration error.
func LabelMask(labels []int, include, exclude []int) ([]bool, error) {
	if len(include) > 0 && len(exclude) > 0 {
		return nil, fmt.Errorf("%w: label mask accepts include or exclude labels, not both", config.ErrConfiguration)
	}

	mask := make([]bool, len(labels))
	switch {
	case len(include) > 0:
		set := labelSet(include)
		for i, l := range labels {
			mask[i] = set[l]
		}
	case len(exclude) > 0:
		set := labelSet(exclude)
		for i, l := range labels {
			mask[i] = !set[l]
		}
	default:
		for i := range mask {
			mask[i] = true
		}
	}
	return mask, nil
}

func labelSet(labels []int) map[int]bool {
	set := make(map[int]bool, len(labels))
	for _, l := range labels {
		set[l] = true
	}
	return set
}
