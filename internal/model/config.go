package model

import (
	"errors"
	"strings"
)

// UserID identifies the owner of a configuration record.
type UserID string

// Validate rejects identities that cannot be used as storage keys.
func (u UserID) Validate() error {
	if strings.TrimSpace(string(u)) == "" {
		return errors.New("user id is empty")
	}
	if strings.ContainsRune(string(u), 0) {
		return errors.New("user id contains NUL")
	}
	return nil
}

// Protection bounds enforced when a configuration is created.
const (
	MaxTargetPercentage = 50
	MinThresholdBP      = 50
	MaxThresholdBP      = 1000
)

// UserConfig is the per-user protection configuration.
type UserConfig struct {
	User             UserID `json:"user"`
	LocalCurrency    string `json:"local_currency"`
	TargetPercentage uint32 `json:"target_percentage"`
	ThresholdBP      int64  `json:"threshold_bp"`
	LastConversion   uint64 `json:"last_conversion"` // 0 = never converted
	TotalProtected   Amount `json:"total_protected"`
}
