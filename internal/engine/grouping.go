package engine

import (
	"fmt"
	"sort"

	"github.com/merinolabs/flockrank/internal/store"
)

// Group is a contemporary group: animals in the same management group born
// within the configured window of each other. Each animal belongs to exactly
// one group per run.
type Group struct {
	ID        string   `json:"group_id"`
	MgmtGroup string   `json:"mgmt_group"`
	Members   []string `json:"members"`
	Small     bool     `json:"small"`
}

func (g *Group) Size() int { return len(g.Members) }

// BuildGroups partitions animals into contemporary groups. Within each
// management group, animals are sorted by birth date and a new group starts
// whenever the gap to the previous animal's birth date exceeds windowDays.
// Sorting makes the result independent of input order; birth-date ties are
// broken by animal id.
func BuildGroups(animals []*store.Animal, windowDays, minGroupSize int) ([]*Group, map[string]string) {
	byMgmt := make(map[string][]*store.Animal)
	for _, a := range animals {
		byMgmt[a.MgmtGroup] = append(byMgmt[a.MgmtGroup], a)
	}

	mgmtNames := make([]string, 0, len(byMgmt))
	for name := range byMgmt {
		mgmtNames = append(mgmtNames, name)
	}
	sort.Strings(mgmtNames)

	var groups []*Group
	membership := make(map[string]string, len(animals))

	for _, mgmt := range mgmtNames {
		members := byMgmt[mgmt]
		sort.Slice(members, func(i, j int) bool {
			if members[i].BirthDate.Equal(members[j].BirthDate) {
				return members[i].ID < members[j].ID
			}
			return members[i].BirthDate.Before(members[j].BirthDate)
		})

		seq := 0
		var current *Group
		for i, a := range members {
			newGroup := current == nil
			if !newGroup {
				gap := a.BirthDate.Sub(members[i-1].BirthDate).Hours() / 24
				if gap > float64(windowDays) {
					newGroup = true
				}
			}
			if newGroup {
				seq++
				current = &Group{
					ID:        fmt.Sprintf("%s_G%d", mgmt, seq),
					MgmtGroup: mgmt,
				}
				groups = append(groups, current)
			}
			current.Members = append(current.Members, a.ID)
			membership[a.ID] = current.ID
		}
	}

	for _, g := range groups {
		g.Small = g.Size() < minGroupSize
	}
	return groups, membership
}
