package service

import (
	"fmt"
	"regexp"
	"strings"

	"contest-tool-backend/internal/features/contest/models"
)

const globalPrefix = "global_"

var tokenRegex = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// RenderTemplate подставляет значения вместо {name}.
// {global_KEY} берется из переменных проекта, при отсутствии заменяется пустой строкой.
// Остальные неизвестные токены остаются как есть.
func RenderTemplate(tpl string, vars map[string]string, globals map[string]string) string {
	return tokenRegex.ReplaceAllStringFunc(tpl, func(token string) string {
		name := token[1 : len(token)-1]

		if value, ok := vars[name]; ok {
			return value
		}
		if strings.HasPrefix(name, globalPrefix) {
			return globals[strings.TrimPrefix(name, globalPrefix)]
		}
		return token
	})
}

// RenderWinnersList строки вида "1. Имя (№12)"
func RenderWinnersList(winners []models.WinnerSnapshot) string {
	lines := make([]string, 0, len(winners))
	for i, w := range winners {
		lines = append(lines, fmt.Sprintf("%d. %s (№%d)", i+1, w.UserName, w.EntryNumber))
	}
	return strings.Join(lines, "\n")
}

func directMessageVars(log *models.DeliveryLog) map[string]string {
	return map[string]string{
		"promo_code":  log.PromoCode,
		"description": log.Description,
		"user_name":   log.UserName,
	}
}

func commentFallbackTemplate(t models.Templates) string {
	if t.CommentFallback != "" {
		return t.CommentFallback
	}
	return DefaultCommentFallbackTemplate
}

func registrationTemplate(t models.Templates) string {
	if t.Registration != "" {
		return t.Registration
	}
	return DefaultRegistrationTemplate
}
