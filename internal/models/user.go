package models

import (
	"fmt"
	"strings"
	"time"
)

type User struct {
	ID                int64     `db:"id" json:"id"`
	Auth0Sub          string    `db:"auth0_sub" json:"-"`
	Coins             int64     `db:"coins" json:"coins"`
	DisplayName       *string   `db:"display_name" json:"display_name"`
	Bio               *string   `db:"bio" json:"bio"`
	ProfileBackground *string   `db:"profile_background" json:"profile_background"`
	PictureURL        *string   `db:"picture_url" json:"picture_url"`
	ShowcasedBadges   *string   `db:"showcased_badges" json:"showcased_badges"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// UserSummary is the public projection of a user shown in friend lists and
// browse results. ShowcasedBadges is the raw comma separated code list.
type UserSummary struct {
	ID                int64   `json:"id"`
	DisplayName       string  `json:"display_name"`
	Bio               *string `json:"bio"`
	ProfileBackground *string `json:"profile_background"`
	PictureURL        *string `json:"picture_url"`
	ShowcasedBadges   *string `json:"showcased_badges"`
}

// Summarize projects u, substituting "Player #<id>" for a blank display name.
func Summarize(u User) UserSummary {
	name := ""
	if u.DisplayName != nil {
		name = strings.TrimSpace(*u.DisplayName)
	}
	if name == "" {
		name = fmt.Sprintf("Player #%d", u.ID)
	}
	return UserSummary{
		ID:                u.ID,
		DisplayName:       name,
		Bio:               u.Bio,
		ProfileBackground: u.ProfileBackground,
		PictureURL:        u.PictureURL,
		ShowcasedBadges:   u.ShowcasedBadges,
	}
}

// ProfileUpdate carries a partial profile change; nil fields are left as-is.
type ProfileUpdate struct {
	DisplayName       *string `json:"display_name" binding:"omitempty,max=50"`
	Bio               *string `json:"bio" binding:"omitempty,max=500"`
	ProfileBackground *string `json:"profile_background" binding:"omitempty,max=100"`
	ShowcasedBadges   *string `json:"showcased_badges" binding:"omitempty,max=200"`
	PictureURL        *string `json:"picture_url" binding:"omitempty,max=512"`
}

func (p ProfileUpdate) Empty() bool {
	return p.DisplayName == nil && p.Bio == nil && p.ProfileBackground == nil &&
		p.ShowcasedBadges == nil && p.PictureURL == nil
}

type OwnedItem struct {
	ID        int64     `db:"id" json:"-"`
	UserID    int64     `db:"user_id" json:"-"`
	ItemID    string    `db:"item_id" json:"item_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Profile is the editable profile view. Unlike UserSummary it reports the
// stored display name without a placeholder.
type Profile struct {
	ID                int64   `json:"id"`
	DisplayName       *string `json:"display_name"`
	Bio               *string `json:"bio"`
	ProfileBackground *string `json:"profile_background"`
	ShowcasedBadges   *string `json:"showcased_badges"`
	PictureURL        *string `json:"picture_url"`
}

func ProfileOf(u User) Profile {
	return Profile{
		ID:                u.ID,
		DisplayName:       u.DisplayName,
		Bio:               u.Bio,
		ProfileBackground: u.ProfileBackground,
		ShowcasedBadges:   u.ShowcasedBadges,
		PictureURL:        u.PictureURL,
	}
}
