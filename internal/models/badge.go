package models

import "time"

type Badge struct {
	ID          int64   `db:"id" json:"-"`
	Code        string  `db:"code" json:"code"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description"`
}

type UserBadge struct {
	ID       int64     `db:"id" json:"id"`
	UserID   int64     `db:"user_id" json:"user_id"`
	BadgeID  int64     `db:"badge_id" json:"badge_id"`
	EarnedAt time.Time `db:"earned_at" json:"earned_at"`
}

// EarnedBadge is a badge definition resolved through an award record.
type EarnedBadge struct {
	Badge
	EarnedAt time.Time `db:"earned_at" json:"earned_at"`
}

type AwardStatus string

const (
	AwardAwarded AwardStatus = "awarded"
	AwardExists  AwardStatus = "exists"
)

type AwardResult struct {
	Status AwardStatus `json:"status"`
	Code   string      `json:"code"`
}
