package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/tradeclub/escrow-backend/internal/pkg/apperror"
)

// Константы валидации
const (
	MinDealTitleLength       = 3
	MaxDealTitleLength       = 200
	MinDealDescriptionLength = 10
	MaxDealDescriptionLength = 5000
	MinDisputeReasonLength   = 10
	MaxDisputeReasonLength   = 2000
	MinMessageLength         = 1
	MaxMessageLength         = 5000
)

func checkLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return apperror.Newf(apperror.ErrCodeValidation, "%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return apperror.Newf(apperror.ErrCodeValidation, "%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// DealTitle проверяет заголовок лота и возвращает нормализованное значение.
func DealTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperror.New(apperror.ErrCodeValidation, "заголовок лота обязателен")
	}
	if err := checkLength("заголовок лота", title, MinDealTitleLength, MaxDealTitleLength); err != nil {
		return "", err
	}
	return title, nil
}

// DealDescription проверяет описание лота и возвращает нормализованное значение.
func DealDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", apperror.New(apperror.ErrCodeValidation, "описание лота обязательно")
	}
	if err := checkLength("описание лота", description, MinDealDescriptionLength, MaxDealDescriptionLength); err != nil {
		return "", err
	}
	return description, nil
}

// DisputeReason проверяет причину спора и возвращает нормализованное значение.
func DisputeReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", apperror.New(apperror.ErrCodeValidation, "причина спора обязательна")
	}
	if err := checkLength("причина спора", reason, MinDisputeReasonLength, MaxDisputeReasonLength); err != nil {
		return "", err
	}
	return reason, nil
}

// MessageContent проверяет содержимое сообщения и возвращает нормализованное значение.
func MessageContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperror.New(apperror.ErrCodeValidation, "сообщение не может быть пустым")
	}
	if err := checkLength("сообщение", content, MinMessageLength, MaxMessageLength); err != nil {
		return "", err
	}
	return content, nil
}
