package pointcloud

import "sort"

// Cluster is the set of point indices sharing one connectivity label.
type Cluster struct {
	Label   int
	Indices []int
}

// Partition groups point indices by label. Every index lands in exactly
// one cluster or in noise. Clusters are ordered by label.
func Partition(labels []int) (clusters []Cluster, noise []int) {
	byLabel := make(map[int][]int)
	for i, l := range labels {
		if l < 0 {
			noise = append(noise, i)
			continue
		}
		byLabel[l] = append(byLabel[l], i)
	}

	clusters = make([]Cluster, 0, len(byLabel))
	for l, idx := range byLabel {
		clusters = append(clusters, Cluster{Label: l, Indices: idx})
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].Label < clusters[j].Label })
	return clusters, noise
}

// Remap translates cluster indices from a subset back to the indices of
// the set the subset was taken from.
func (c Cluster) Remap(subset []int) Cluster {
	out := Cluster{Label: c.Label, Indices: make([]int, len(c.Indices))}
	for k, i := range c.Indices {
		out.Indices[k] = subset[i]
	}
	return out
}
