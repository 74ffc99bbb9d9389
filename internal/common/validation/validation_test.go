package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTitle(t *testing.T) {
	assert.NoError(t, ValidateTitle("Лучший отзыв недели"))
	assert.Error(t, ValidateTitle("   "))
	assert.Error(t, ValidateTitle(strings.Repeat("я", MaxTitleLength+1)))
	assert.NoError(t, ValidateTitle(strings.Repeat("я", MaxTitleLength)))
}

func TestValidatePromoCode(t *testing.T) {
	tests := []struct {
		code    string
		wantErr bool
	}{
		{"SALE-2024", false},
		{"", true},
		{"WITH SPACE", true},
		{"TAB\tCODE", true},
		{strings.Repeat("A", MaxPromoCodeLength), false},
		{strings.Repeat("A", MaxPromoCodeLength+1), true},
	}

	for _, tt := range tests {
		err := ValidatePromoCode(tt.code)
		if tt.wantErr {
			assert.Error(t, err, tt.code)
		} else {
			assert.NoError(t, err, tt.code)
		}
	}
}

func TestValidatePostLink(t *testing.T) {
	assert.NoError(t, ValidatePostLink("https://vk.com/wall-123_456"))
	assert.NoError(t, ValidatePostLink("https://m.vk.com/club1?w=wall-123_456"))
	assert.Error(t, ValidatePostLink("https://example.com/wall-123_456"))
	assert.Error(t, ValidatePostLink("vk.com/wall-123"))
}

func TestValidateTemplate(t *testing.T) {
	assert.NoError(t, ValidateTemplate("direct_message", "Ваш код: {promo_code}", "promo_code"))
	assert.EqualError(t,
		ValidateTemplate("direct_message", "Ваш код", "promo_code"),
		"direct_message template must contain {promo_code}")
	assert.Error(t, ValidateTemplate("result_post", strings.Repeat("x", MaxTemplateLength+1)))
}

func TestValidateGlobalKey(t *testing.T) {
	assert.NoError(t, ValidateGlobalKey("shop_name"))
	assert.Error(t, ValidateGlobalKey(""))
	assert.Error(t, ValidateGlobalKey("shop name"))
	assert.Error(t, ValidateGlobalKey("магазин"))
	assert.Error(t, ValidateGlobalKey(strings.Repeat("k", MaxGlobalKeyLength+1)))
}

func TestValidateNumbers(t *testing.T) {
	assert.NoError(t, ValidateVkID(1))
	assert.EqualError(t, ValidateVkID(0), "user_vk_id must be positive")
	assert.NoError(t, ValidateNonNegativeInt(0, "restart_delay_hours"))
	assert.Error(t, ValidateNonNegativeInt(-1, "restart_delay_hours"))
}
