// Package validation содержит проверки входных данных заявки на доставку.
package validation

import (
	"time"
	"unicode/utf8"
)

const (
	// DescriptionMinLen и DescriptionMaxLen ограничивают длину описания заявки в символах.
	DescriptionMinLen = 5
	DescriptionMaxLen = 1000
	// InstructionsMaxLen ограничивает длину указаний курьеру в символах.
	InstructionsMaxLen = 500
)

// IsValidDescription проверяет длину описания заявки.
func IsValidDescription(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= DescriptionMinLen && n <= DescriptionMaxLen
}

// IsValidInstructions проверяет длину указаний курьеру. Пустая строка допустима.
func IsValidInstructions(s string) bool {
	return utf8.RuneCountInString(s) <= InstructionsMaxLen
}

// IsValidTimeOfDay проверяет, что строка является временем суток в формате HH:MM.
func IsValidTimeOfDay(s string) bool {
	if len(s) != 5 {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}
