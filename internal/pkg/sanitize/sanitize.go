package sanitize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/frontandrew/fleettrack/internal/domain"
)

// MaxNameLength - максимальная длина имени водителя и имени пользователя
const MaxNameLength = 50

// MaxTextLength - максимальная длина произвольного текста из форм
const MaxTextLength = 255

var (
	// Имя водителя: буквы (включая немецкие умлауты), цифры, пробелы, точки, дефисы
	driverNamePattern = regexp.MustCompile(`^[a-zA-ZäöüÄÖÜß0-9\s.\-]+$`)

	// Имя пользователя: латиница, цифры, подчеркивания, точки, дефисы
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.\-]+$`)
)

// ValidDriverName проверяет допустимость имени водителя
func ValidDriverName(name string) bool {
	if name == "" || len([]rune(name)) > MaxNameLength {
		return false
	}
	return driverNamePattern.MatchString(name)
}

// ValidUsername проверяет допустимость имени пользователя
func ValidUsername(username string) bool {
	if username == "" || len([]rune(username)) > MaxNameLength {
		return false
	}
	return usernamePattern.MatchString(username)
}

// ValidOdometerKM проверяет правдоподобность показания одометра
func ValidOdometerKM(km int64) bool {
	return km >= 0 && km <= domain.MaxOdometerKM
}

// CleanText убирает пробелы по краям и непечатаемые символы,
// длина ограничивается MaxTextLength
// HTML-экранирование здесь не выполняется: им занимается html/template
func CleanText(text string) string {
	text = strings.TrimSpace(text)
	text = strings.Map(func(r rune) rune {
		if !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, text)
	return Truncate(text, MaxTextLength)
}

// Truncate обрезает текст до максимальной длины в символах
func Truncate(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	return string(runes[:maxLength])
}
