package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role names carried in the access token's "role" claim.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a row in the `users` table. FreeFireUID is empty until
// the player binds a game account; the column is NULL in that case so the
// unique key only applies to bound accounts.
//
// Fields:
//
//	ID            – opaque uuid generated at creation.
//	Email         – unique, stored lower-cased.
//	PasswordHash  – bcrypt hash, never serialized.
//	Username      – unique display handle.
//	WalletBalance – never negative.
//	FreeFire      – profile returned by the UID lookup plus self-reported stats.
type User struct {
	ID            string          `json:"user_id"`
	Email         string          `json:"email"`
	PasswordHash  string          `json:"-"`
	Username      string          `json:"username"`
	FullName      string          `json:"full_name"`
	FreeFireUID   string          `json:"free_fire_uid,omitempty"`
	Region        string          `json:"region,omitempty"`
	WalletBalance decimal.Decimal `json:"wallet_balance"`
	IsVerified    bool            `json:"is_verified"`
	IsAdmin       bool            `json:"is_admin"`
	FreeFire      FreeFireData    `json:"free_fire_data"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Role maps the admin flag to a token role.
func (u User) Role() string {
	if u.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// FreeFireData is persisted as a JSON document alongside the user row.
type FreeFireData struct {
	Player *PlayerInfo  `json:"player,omitempty"`
	Stats  *PlayerStats `json:"stats,omitempty"`
}

// PlayerInfo is the subset of the external player lookup we keep.
type PlayerInfo struct {
	UID       string `json:"uid"`
	Region    string `json:"region"`
	Nickname  string `json:"nickname"`
	Level     int    `json:"level"`
	Exp       int    `json:"exp"`
	AvatarID  string `json:"avatar_id,omitempty"`
	Liked     int    `json:"liked"`
	ClanName  string `json:"clan_name,omitempty"`
	ClanLevel int    `json:"clan_level,omitempty"`
}

// PlayerStats are self-reported by the player. Rates are percentages.
type PlayerStats struct {
	Level        int     `json:"level"`
	Rank         string  `json:"rank,omitempty"`
	TotalMatches int     `json:"total_matches"`
	Wins         int     `json:"wins"`
	Kills        int     `json:"kills"`
	SurvivalRate float64 `json:"survival_rate"`
	AvgDamage    int     `json:"avg_damage"`
	HeadshotRate float64 `json:"headshot_rate"`
}
