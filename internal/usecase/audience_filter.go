package usecase

import (
	"strings"

	"flightwatch-service/internal/domain/entity"
)

// DefaultAllFlightsTag is the tag of subscribers that follow every airline
const DefaultAllFlightsTag = "all_flights"

// AudienceFilterBuilder compiles the audience of a notification:
//
//	all-flights subscribers OR subscribers of a changed airline OR subscribers with no tags
//
// The filter format has no parentheses and the service evaluates it as OR-separated
// clauses, so the AND-joined "no tags" block must stay at the tail.
type AudienceFilterBuilder struct {
	unconfigured  entity.FilterExpression
	allFlightsTag string
}

// NewAudienceFilterBuilder precomputes the unconfigured-user block from the known tags
func NewAudienceFilterBuilder(knownTags []string, allFlightsTag string) *AudienceFilterBuilder {
	if allFlightsTag == "" {
		allFlightsTag = DefaultAllFlightsTag
	}

	var block entity.FilterExpression
	seen := map[string]bool{}
	for _, tag := range knownTags {
		if tag == "" || seen[tag] || strings.EqualFold(tag, allFlightsTag) {
			continue
		}
		seen[tag] = true
		if len(block) > 0 {
			block = append(block, entity.And())
		}
		block = append(block, entity.TagNotExists(tag))
	}

	return &AudienceFilterBuilder{
		unconfigured:  block,
		allFlightsTag: allFlightsTag,
	}
}

// Build returns the filter for a set of changed airline codes. Codes are deduplicated in
// first-seen order; blanks, the unknown-airline key and the all-flights tag (in any case)
// never become conditions.
func (b *AudienceFilterBuilder) Build(changedAirlineCodes []string) entity.FilterExpression {
	filters := entity.FilterExpression{entity.TagEquals(b.allFlightsTag)}

	seen := map[string]bool{}
	for _, code := range changedAirlineCodes {
		if code == "" || code == UnknownAirlineKey || seen[code] || strings.EqualFold(code, b.allFlightsTag) {
			continue
		}
		seen[code] = true
		filters = append(filters, entity.Or(), entity.TagEquals(code))
	}

	if len(b.unconfigured) > 0 {
		filters = append(filters, entity.Or())
		filters = append(filters, b.unconfigured...)
	}
	return filters
}

// BuildAudienceFilter is Build without keeping a builder around
func BuildAudienceFilter(changedAirlineCodes, knownTags []string, allFlightsTag string) entity.FilterExpression {
	return NewAudienceFilterBuilder(knownTags, allFlightsTag).Build(changedAirlineCodes)
}
