package entity

import "strings"

// Tag relations understood by the notification service
const (
	RelationEquals    = "="
	RelationNotExists = "not_exists"
)

// Boolean operators of a filter expression
const (
	OperatorOr  = "OR"
	OperatorAnd = "AND"
)

const (
	tagField    = "tag"
	tagSetValue = "1"
)

// FilterToken is either a tag condition or an operator. The JSON shape is the one the
// notification service expects: {field, key, relation, value?} or {operator}.
type FilterToken struct {
	Field    string `json:"field,omitempty"`
	Key      string `json:"key,omitempty"`
	Relation string `json:"relation,omitempty"`
	Value    string `json:"value,omitempty"`
	Operator string `json:"operator,omitempty"`
}

// TagEquals matches subscribers that opted into the tag
func TagEquals(key string) FilterToken {
	return FilterToken{Field: tagField, Key: key, Relation: RelationEquals, Value: tagSetValue}
}

// TagNotExists matches subscribers that never set the tag
func TagNotExists(key string) FilterToken {
	return FilterToken{Field: tagField, Key: key, Relation: RelationNotExists}
}

// Or is the OR operator token
func Or() FilterToken {
	return FilterToken{Operator: OperatorOr}
}

// And is the AND operator token
func And() FilterToken {
	return FilterToken{Operator: OperatorAnd}
}

// IsOperator reports whether the token is an operator
func (t FilterToken) IsOperator() bool {
	return t.Operator != ""
}

func (t FilterToken) matches(tags map[string]string) bool {
	value, ok := tags[t.Key]
	switch t.Relation {
	case RelationEquals:
		return ok && value == t.Value
	case RelationNotExists:
		return !ok
	default:
		return false
	}
}

func (t FilterToken) String() string {
	if t.IsOperator() {
		return t.Operator
	}
	if t.Relation == RelationNotExists {
		return "!" + t.Key
	}
	return t.Key + t.Relation + t.Value
}

// FilterExpression is a flat, parenthesis-free audience formula
type FilterExpression []FilterToken

// Matches evaluates the expression against a subscriber's tags the way the notification
// service does: OR splits the sequence into clauses, conditions inside a clause must all hold.
func (e FilterExpression) Matches(tags map[string]string) bool {
	clause, empty := true, true
	for _, token := range e {
		if token.Operator == OperatorOr {
			if !empty && clause {
				return true
			}
			clause, empty = true, true
			continue
		}
		if token.IsOperator() {
			continue
		}
		clause = clause && token.matches(tags)
		empty = false
	}
	return !empty && clause
}

func (e FilterExpression) String() string {
	parts := make([]string, len(e))
	for i, token := range e {
		parts[i] = token.String()
	}
	return strings.Join(parts, " ")
}
