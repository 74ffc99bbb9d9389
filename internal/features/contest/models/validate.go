package models

import (
	"fmt"

	"contest-tool-backend/internal/common/validation"
)

// ValidateContest проверяет настройки конкурса до того, как они попадут в ядро
func ValidateContest(c *Contest) error {
	if err := validation.ValidateTitle(c.Title); err != nil {
		return err
	}

	if c.ProjectID == "" {
		return fmt.Errorf("project_id is required")
	}

	if err := validation.ValidatePositiveInt(c.GroupID, "group_id"); err != nil {
		return err
	}

	switch c.Kind {
	case ContestKindReviews, ContestKindGeneral:
	default:
		return ErrInvalidKind
	}

	switch c.Start.Type {
	case StartTypeNewPost:
	case StartTypeExistingPost:
		if c.Start.PostLink == "" {
			return ErrInvalidStart
		}
		if err := validation.ValidatePostLink(c.Start.PostLink); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown start type: %q", c.Start.Type)
	}

	if c.WinnersCount < 1 {
		return ErrInvalidWinnersCount
	}

	if c.RestartDelayHours < 0 {
		return fmt.Errorf("restart_delay_hours cannot be negative")
	}
	if c.RestartDelayHours > MaxRestartDelayHours {
		return fmt.Errorf("restart_delay_hours cannot exceed %d", MaxRestartDelayHours)
	}

	if err := ValidateConditions(c.Conditions); err != nil {
		return err
	}

	if err := c.Finish.Validate(); err != nil {
		return err
	}

	return validateTemplates(c.Templates)
}

func validateTemplates(t Templates) error {
	if err := validation.ValidateTemplate("result_post", t.ResultPost); err != nil {
		return err
	}
	if err := validation.ValidateTemplate("direct_message", t.DirectMessage, "promo_code"); err != nil {
		return err
	}
	if err := validation.ValidateTemplate("comment_fallback", t.CommentFallback); err != nil {
		return err
	}
	return validation.ValidateTemplate("registration", t.Registration)
}
