package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"

const (
	DEFAULT_RESERVATION_TTL_MINUTES = 15
	DEFAULT_SWEEP_INTERVAL_MINUTES  = 2
	DEFAULT_SWEEP_BATCH_SIZE        = 500
)

// ReservationTTL is the window a pending reservation holds inventory
// before it becomes eligible for expiry.
func ReservationTTL() time.Duration {
	return minutesEnv("RESERVATION_TTL_MINUTES", DEFAULT_RESERVATION_TTL_MINUTES)
}

func SweepInterval() time.Duration {
	return minutesEnv("SWEEP_INTERVAL_MINUTES", DEFAULT_SWEEP_INTERVAL_MINUTES)
}

func SweepBatchSize() int {
	atoi, err := strconv.Atoi(os.Getenv("SWEEP_BATCH_SIZE"))
	if err != nil || atoi <= 0 {
		return DEFAULT_SWEEP_BATCH_SIZE
	}
	return atoi
}

func minutesEnv(key string, fallback int) time.Duration {
	atoi, err := strconv.Atoi(os.Getenv(key))
	if err != nil || atoi <= 0 {
		atoi = fallback
	}
	return time.Duration(atoi) * time.Minute
}
