package utils

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ParseInt converts string to int with default value
func ParseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}

	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	if result < 1 {
		return defaultValue
	}

	return result
}

// GenerateOrderID creates a unique correlation ID shared with the
// payment gateway. Suffix uuid supaya dua ID yang dibuat dalam detik
// yang sama tetap tidak mungkin tabrakan.
func GenerateOrderID() string {
	now := time.Now()

	// Format: PARK-YYYYMMDD-HHMMSS-UUIDPART
	datePart := now.Format("20060102")
	timePart := now.Format("150405")
	randomPart := uuid.NewString()[:8]

	return fmt.Sprintf("PARK-%s-%s-%s", datePart, timePart, randomPart)
}
