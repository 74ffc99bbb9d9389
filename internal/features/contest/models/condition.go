package models

import (
	"encoding/json"
	"fmt"
)

// ConditionType вид условия участия
type ConditionType string

const (
	ConditionLike          ConditionType = "like"
	ConditionRepost        ConditionType = "repost"
	ConditionComment       ConditionType = "comment"
	ConditionSubscription  ConditionType = "subscription"
	ConditionMemberOfGroup ConditionType = "member_of_group"
	ConditionMailing       ConditionType = "mailing"
)

// Condition одно условие участия. Набор параметров зависит от Type:
// comment использует TextContains, member_of_group использует GroupID.
type Condition struct {
	Type         ConditionType `json:"type"`
	TextContains string        `json:"text_contains,omitempty"`
	GroupID      int64         `json:"group_id,omitempty"`
}

// ConditionGroup условия внутри группы объединяются через AND,
// группы между собой через OR.
type ConditionGroup struct {
	All []Condition `json:"all"`
}

func (c Condition) Validate() error {
	switch c.Type {
	case ConditionLike, ConditionRepost, ConditionSubscription, ConditionMailing:
		if c.TextContains != "" || c.GroupID != 0 {
			return fmt.Errorf("condition %s takes no parameters", c.Type)
		}
	case ConditionComment:
		if c.GroupID != 0 {
			return fmt.Errorf("condition comment accepts only text_contains")
		}
	case ConditionMemberOfGroup:
		if c.GroupID <= 0 {
			return fmt.Errorf("condition member_of_group requires group_id")
		}
		if c.TextContains != "" {
			return fmt.Errorf("condition member_of_group accepts only group_id")
		}
	default:
		return fmt.Errorf("unknown condition type: %q", c.Type)
	}
	return nil
}

// UnmarshalJSON отклоняет неизвестные параметры условия
func (c *Condition) UnmarshalJSON(data []byte) error {
	type rawCondition Condition
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key := range raw {
		switch key {
		case "type", "text_contains", "group_id":
		default:
			return fmt.Errorf("unknown condition field: %q", key)
		}
	}

	var parsed rawCondition
	if err := json.Unmarshal(data, &parsed); err != nil {
		return err
	}
	*c = Condition(parsed)
	return nil
}

func ValidateConditions(groups []ConditionGroup) error {
	if len(groups) == 0 {
		return fmt.Errorf("at least one condition group is required")
	}
	for i, group := range groups {
		if len(group.All) == 0 {
			return fmt.Errorf("condition group %d is empty", i+1)
		}
		for _, cond := range group.All {
			if err := cond.Validate(); err != nil {
				return fmt.Errorf("condition group %d: %w", i+1, err)
			}
		}
	}
	return nil
}
