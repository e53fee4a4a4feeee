// Package grouping partitions a request's roster into (route, sub-route)
// groups and computes per-group headcounts. Both legs of the key are
// nullable: a group with no route at all ("no route assigned") is valid and
// sorts last. The output ordering is a contract — the TA screens and the
// report renderers rely on it being deterministic for a given snapshot.
package grouping

import (
	"sort"
	"strconv"
)

// Key identifies a group. Nil means "not assigned" on that leg and two nil
// legs compare equal, which plain pointer comparison would get wrong.
type Key struct {
	RouteID    *uint
	SubRouteID *uint
}

func (k Key) Equal(o Key) bool {
	return idEqual(k.RouteID, o.RouteID) && idEqual(k.SubRouteID, o.SubRouteID)
}

// Covers reports whether an assignment keyed k serves the group keyed g.
// A nil sub-route on the assignment side means it covers every sub-route
// group of its route; the route legs still compare null-safely.
func (k Key) Covers(g Key) bool {
	if !idEqual(k.RouteID, g.RouteID) {
		return false
	}
	return k.SubRouteID == nil || idEqual(k.SubRouteID, g.SubRouteID)
}

func idEqual(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Member is one roster row with its routing already resolved: the per-request
// override when present, otherwise the employee's stored default.
type Member struct {
	EmployeeID   uint
	EmpNo        string
	FullName     string
	DepartmentID uint

	RouteID    *uint
	SubRouteID *uint
	RouteNo    *string
	RouteName  *string
	SubName    *string
}

// Group is one distinct (route, sub-route) bucket with its headcount and the
// members that landed in it.
type Group struct {
	Key       Key
	RouteNo   *string
	RouteName *string
	SubName   *string
	Headcount int
	Members   []Member
}

// Compute partitions members into groups ordered by route number ascending
// (nulls last), then sub-route name ascending (nulls last). Every member
// lands in exactly one group, so headcounts always sum to len(members).
func Compute(members []Member) []Group {
	var groups []Group
	for _, m := range members {
		key := Key{RouteID: m.RouteID, SubRouteID: m.SubRouteID}
		idx := -1
		for i := range groups {
			if groups[i].Key.Equal(key) {
				idx = i
				break
			}
		}
		if idx == -1 {
			groups = append(groups, Group{
				Key:       key,
				RouteNo:   m.RouteNo,
				RouteName: m.RouteName,
				SubName:   m.SubName,
			})
			idx = len(groups) - 1
		}
		groups[idx].Members = append(groups[idx].Members, m)
		groups[idx].Headcount++
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if c := compareRouteNo(groups[i].RouteNo, groups[j].RouteNo); c != 0 {
			return c < 0
		}
		return compareNullable(groups[i].SubName, groups[j].SubName) < 0
	})
	return groups
}

// compareRouteNo orders route numbers numerically when both are plain
// integers, so "2" comes before "10" without operators zero-padding. Anything
// non-numeric falls back to the lexicographic nulls-last ordering.
func compareRouteNo(a, b *string) int {
	if a == nil || b == nil {
		return compareNullable(a, b)
	}
	ai, aerr := strconv.Atoi(*a)
	bi, berr := strconv.Atoi(*b)
	if aerr != nil || berr != nil {
		return compareNullable(a, b)
	}
	switch {
	case ai < bi:
		return -1
	case ai > bi:
		return 1
	}
	return 0
}

// compareNullable orders present values ascending and sorts nil after any
// present value.
func compareNullable(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}
