package validation

import (
	"fmt"
	"math"
	"strings"
)

// MaxDescriptionLen ограничивает описание нарушения (в рунах)
const MaxDescriptionLen = 2000

// ValidateDescription проверяет описание нарушения: непустое после обрезки пробелов
func ValidateDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("description cannot be empty")
	}
	if len([]rune(description)) > MaxDescriptionLen {
		return fmt.Errorf("description must not exceed %d characters", MaxDescriptionLen)
	}
	return nil
}

// ValidateOwner проверяет идентификатор владельца записи
func ValidateOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return fmt.Errorf("owner id cannot be empty")
	}
	return nil
}

// ValidateCoordinates проверяет, что координаты конечны и лежат в допустимых диапазонах
func ValidateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) {
		return fmt.Errorf("latitude must be a finite number")
	}
	if math.IsNaN(lng) || math.IsInf(lng, 0) {
		return fmt.Errorf("longitude must be a finite number")
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude must be within [-90, 90], got %v", lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude must be within [-180, 180], got %v", lng)
	}
	return nil
}

// ValidateRadius проверяет радиус пространственного фильтра в километрах
func ValidateRadius(radiusKm float64) error {
	if math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) || radiusKm < 0 {
		return fmt.Errorf("radius must be a non-negative finite number")
	}
	return nil
}
