package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ignatzorin/mechanic-backend/internal/geo"
)

// Константы валидации
const (
	MinProblemLength     = 5
	MaxProblemLength     = 2000
	MaxAddressLength     = 300
	MaxFullNameLength    = 100
	MinFullNameLength    = 2
	MaxSpecializationLen = 100
	MinRating            = 1
	MaxRating            = 5
	MaxCost              = 100000000.0 // 100 миллионов
	MinSearchRadiusKm    = 0.1
	MaxSearchRadiusKm    = 100.0
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.ToLower(strings.TrimSpace(email))

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart := parts[0]
	domainPart := parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}

	localRegex := regexp.MustCompile(`^[a-z0-9._+-]+$`)
	if !localRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}

	domainRegex := regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	if !domainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidateCoordinates проверяет широту и долготу.
func ValidateCoordinates(lat, lon float64) error {
	if !geo.ValidCoordinates(lat, lon) {
		return fmt.Errorf("координаты вне допустимых пределов")
	}
	return nil
}

// ValidateRadiusKm проверяет радиус поиска.
func ValidateRadiusKm(radius float64) error {
	if radius < MinSearchRadiusKm || radius > MaxSearchRadiusKm {
		return fmt.Errorf("радиус поиска должен быть от %.1f до %.0f км", MinSearchRadiusKm, MaxSearchRadiusKm)
	}
	return nil
}

// ValidateProblem проверяет описание проблемы в заявке.
func ValidateProblem(problem string) error {
	if strings.TrimSpace(problem) == "" {
		return fmt.Errorf("описание проблемы обязательно")
	}
	return ValidateLength("описание проблемы", strings.TrimSpace(problem), MinProblemLength, MaxProblemLength)
}

// ValidateRating проверяет оценку клиента.
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("оценка должна быть от %d до %d", MinRating, MaxRating)
	}
	return nil
}

// ValidateCost проверяет стоимость (материалы или работа).
func ValidateCost(fieldName string, cost float64) error {
	if cost < 0 {
		return fmt.Errorf("%s не может быть отрицательной", fieldName)
	}
	if cost > MaxCost {
		return fmt.Errorf("%s не может превышать %.0f", fieldName, MaxCost)
	}
	return nil
}

// ValidateAmount проверяет сумму вывода средств.
func ValidateAmount(amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("сумма должна быть положительной")
	}
	if amount > MaxCost {
		return fmt.Errorf("сумма не может превышать %.0f", MaxCost)
	}
	return nil
}

// ValidateFullName проверяет имя пользователя.
func ValidateFullName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("имя обязательно")
	}
	return ValidateLength("имя", strings.TrimSpace(name), MinFullNameLength, MaxFullNameLength)
}
