package network

import (
	"sort"
)

// uniqueRegions converts declared tags, keeping first occurrences in order.
func uniqueRegions(tags []string) []Region {
	regions := make([]Region, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		regions = append(regions, Region(tag))
	}
	return regions
}

// indexRegions builds the reverse map from region to the nodes occupying it.
// Each list is in id order.
func indexRegions(nodes []Node) (map[Region][]NodeID, []Region) {
	index := make(map[Region][]NodeID)
	for _, node := range nodes {
		for _, r := range node.Regions {
			index[r] = append(index[r], node.ID)
		}
	}

	names := make([]Region, 0, len(index))
	for r := range index {
		names = append(names, r)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return index, names
}
