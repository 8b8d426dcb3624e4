package usecase

import (
	"fmt"

	"flightwatch-service/internal/domain/entity"
)

// Group keys that are not airline codes
const (
	UnknownAirlineKey = "unknown"
	CombinedGroupKey  = "all"
)

// Grouping modes
const (
	GroupingPerAirline = "per_airline"
	GroupingCombined   = "combined"
)

// GroupKeyFunc assigns a change to a notification group
type GroupKeyFunc func(change entity.Change) string

// GroupByAirline puts every airline in its own group. Changes without a carrier code share
// the UnknownAirlineKey group.
func GroupByAirline(change entity.Change) string {
	code := entity.NormalizeAirlineCode(change.AirlineCode)
	if code == "" {
		return UnknownAirlineKey
	}
	return code
}

// CombineAll puts every change in a single group
func CombineAll(entity.Change) string {
	return CombinedGroupKey
}

// GroupKeyFuncFor resolves a grouping mode name
func GroupKeyFuncFor(mode string) (GroupKeyFunc, error) {
	switch mode {
	case GroupingPerAirline, "":
		return GroupByAirline, nil
	case GroupingCombined:
		return CombineAll, nil
	default:
		return nil, fmt.Errorf("unknown grouping mode %q", mode)
	}
}

// SummaryPolicy composes the body of a group with more than one change
type SummaryPolicy func(group ChangeGroup) string

// ChangeGroup is a set of changes sent as one notification
type ChangeGroup struct {
	Key               string
	Changes           []entity.Change
	AirlineCodes      []string
	HasUnknownAirline bool
}

// Count is the number of changes in the group
func (g ChangeGroup) Count() int {
	return len(g.Changes)
}

// First returns the earliest change of the group
func (g ChangeGroup) First() entity.Change {
	if len(g.Changes) == 0 {
		return entity.Change{}
	}
	return g.Changes[0]
}

// IsMostlyDeparture reports departures >= total/2; an even split counts as departure
func (g ChangeGroup) IsMostlyDeparture() bool {
	departures := 0
	for _, change := range g.Changes {
		if change.Type == entity.FlightDeparture {
			departures++
		}
	}
	return 2*departures >= len(g.Changes)
}

// Category is the presentation category of the group
func (g ChangeGroup) Category() entity.Category {
	if g.IsMostlyDeparture() {
		return entity.CategoryDeparture
	}
	return entity.CategoryArrival
}

// SummaryMessage returns the only change's message verbatim, or the policy's summary when
// the group holds several changes
func (g ChangeGroup) SummaryMessage(policy SummaryPolicy) string {
	switch len(g.Changes) {
	case 0:
		return ""
	case 1:
		return g.Changes[0].Message
	}
	if policy == nil {
		return g.Changes[0].Message
	}
	return policy(g)
}

// AggregateChanges groups changes by key. Groups come back in order of first appearance and
// keep the input order of their changes.
func AggregateChanges(changes []entity.Change, key GroupKeyFunc) []ChangeGroup {
	if key == nil {
		key = GroupByAirline
	}

	var groups []ChangeGroup
	index := make(map[string]int)
	seenCodes := make(map[string]map[string]bool)

	for _, change := range changes {
		groupKey := key(change)
		i, ok := index[groupKey]
		if !ok {
			i = len(groups)
			index[groupKey] = i
			seenCodes[groupKey] = make(map[string]bool)
			groups = append(groups, ChangeGroup{Key: groupKey})
		}

		group := &groups[i]
		group.Changes = append(group.Changes, change)

		code := entity.NormalizeAirlineCode(change.AirlineCode)
		if code == "" {
			group.HasUnknownAirline = true
			continue
		}
		if !seenCodes[groupKey][code] {
			seenCodes[groupKey][code] = true
			group.AirlineCodes = append(group.AirlineCodes, code)
		}
	}
	return groups
}
