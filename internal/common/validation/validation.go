package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// Максимальные длины для различных полей
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
	MaxPromoCodeLength   = 64
	MaxGlobalKeyLength   = 64
	MaxGlobalValueLength = 4096
	// Ограничение VK на длину сообщения
	MaxTemplateLength = 4096

	MinTitleLength = 1
)

var (
	globalKeyRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	postLinkRegex  = regexp.MustCompile(`^https?://(m\.)?vk\.com/.*wall-?\d+_\d+`)
)

// ValidateTitle проверяет заголовок
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("title cannot be empty")
	}

	length := utf8.RuneCountInString(title)
	if length < MinTitleLength {
		return fmt.Errorf("title must be at least %d characters long", MinTitleLength)
	}

	if length > MaxTitleLength {
		return fmt.Errorf("title cannot exceed %d characters", MaxTitleLength)
	}

	return nil
}

// ValidateDescription проверяет описание промокода, пустое допускается
func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return fmt.Errorf("description cannot exceed %d characters", MaxDescriptionLength)
	}
	return nil
}

// ValidatePromoCode проверяет промокод: непустой, без пробельных символов
func ValidatePromoCode(code string) error {
	if code == "" {
		return fmt.Errorf("promo code cannot be empty")
	}

	if utf8.RuneCountInString(code) > MaxPromoCodeLength {
		return fmt.Errorf("promo code cannot exceed %d characters", MaxPromoCodeLength)
	}

	for _, r := range code {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("promo code cannot contain whitespace")
		}
	}

	return nil
}

// ValidateVkID проверяет идентификатор пользователя VK
func ValidateVkID(id int64) error {
	return ValidatePositiveInt(id, "user_vk_id")
}

// ValidatePostLink проверяет ссылку на пост VK вида https://vk.com/wall-123_456
func ValidatePostLink(link string) error {
	if !postLinkRegex.MatchString(strings.TrimSpace(link)) {
		return fmt.Errorf("invalid VK post link: %s", link)
	}
	return nil
}

// ValidateTemplate проверяет длину шаблона и наличие обязательных плейсхолдеров
func ValidateTemplate(name, template string, required ...string) error {
	if utf8.RuneCountInString(template) > MaxTemplateLength {
		return fmt.Errorf("%s template cannot exceed %d characters", name, MaxTemplateLength)
	}

	for _, token := range required {
		if !strings.Contains(template, "{"+token+"}") {
			return fmt.Errorf("%s template must contain {%s}", name, token)
		}
	}

	return nil
}

// ValidateGlobalKey проверяет ключ глобальной переменной проекта
func ValidateGlobalKey(key string) error {
	if key == "" {
		return fmt.Errorf("global key cannot be empty")
	}

	if len(key) > MaxGlobalKeyLength {
		return fmt.Errorf("global key cannot exceed %d characters", MaxGlobalKeyLength)
	}

	if !globalKeyRegex.MatchString(key) {
		return fmt.Errorf("global key must contain only letters, numbers, and underscores")
	}

	return nil
}

func ValidateGlobalValue(value string) error {
	if utf8.RuneCountInString(value) > MaxGlobalValueLength {
		return fmt.Errorf("global value cannot exceed %d characters", MaxGlobalValueLength)
	}
	return nil
}

// ValidatePositiveInt проверяет, что число положительное
func ValidatePositiveInt(value int64, fieldName string) error {
	if value <= 0 {
		return fmt.Errorf("%s must be positive", fieldName)
	}
	return nil
}

// ValidateNonNegativeInt проверяет, что число неотрицательное
func ValidateNonNegativeInt(value int64, fieldName string) error {
	if value < 0 {
		return fmt.Errorf("%s cannot be negative", fieldName)
	}
	return nil
}
