package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Role is an administrative role. Every user of the API is an administrator of
// the portfolio; visitors are anonymous.
type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleManager    Role = "manager"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleSuperAdmin || r == RoleManager
}

// User represents a portfolio administrator and the public profile they own.
type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string        `bson:"email" json:"email"`
	PasswordHash string        `bson:"password_hash" json:"-"`
	Role         Role          `bson:"role" json:"role"`
	Profile      Profile       `bson:"profile" json:"profile"`
	LastLoginAt  *time.Time    `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
	CreatedAt    time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at" json:"updated_at"`
}

// Profile holds the fields rendered by the portfolio's hero, about and CV sections.
type Profile struct {
	Name         string        `bson:"name" json:"name"`
	Headline     string        `bson:"headline,omitempty" json:"headline,omitempty"`
	Bio          string        `bson:"bio,omitempty" json:"bio,omitempty"`
	Affiliation  string        `bson:"affiliation,omitempty" json:"affiliation,omitempty"`
	Location     string        `bson:"location,omitempty" json:"location,omitempty"`
	AvatarURL    string        `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	CVURL        string        `bson:"cv_url,omitempty" json:"cv_url,omitempty"`
	Education    []Education   `bson:"education" json:"education"`
	Experience   []Experience  `bson:"experience" json:"experience"`
	Skills       []string      `bson:"skills" json:"skills"`
	Certificates []Certificate `bson:"certificates" json:"certificates"`
	Links        SocialLinks   `bson:"links" json:"links"`
}

type Education struct {
	Degree      string `bson:"degree" json:"degree"`
	Field       string `bson:"field,omitempty" json:"field,omitempty"`
	Institution string `bson:"institution" json:"institution"`
	StartYear   int    `bson:"start_year,omitempty" json:"start_year,omitempty"`
	EndYear     int    `bson:"end_year,omitempty" json:"end_year,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
}

type Experience struct {
	Position     string `bson:"position" json:"position"`
	Organization string `bson:"organization" json:"organization"`
	Location     string `bson:"location,omitempty" json:"location,omitempty"`
	StartDate    string `bson:"start_date,omitempty" json:"start_date,omitempty"`
	EndDate      string `bson:"end_date,omitempty" json:"end_date,omitempty"`
	Current      bool   `bson:"current" json:"current"`
	Description  string `bson:"description,omitempty" json:"description,omitempty"`
}

type Certificate struct {
	Name   string `bson:"name" json:"name"`
	Issuer string `bson:"issuer,omitempty" json:"issuer,omitempty"`
	Year   int    `bson:"year,omitempty" json:"year,omitempty"`
	URL    string `bson:"url,omitempty" json:"url,omitempty"`
}

type SocialLinks struct {
	Website       string `bson:"website,omitempty" json:"website,omitempty"`
	GitHub        string `bson:"github,omitempty" json:"github,omitempty"`
	LinkedIn      string `bson:"linkedin,omitempty" json:"linkedin,omitempty"`
	GoogleScholar string `bson:"google_scholar,omitempty" json:"google_scholar,omitempty"`
	ORCID         string `bson:"orcid,omitempty" json:"orcid,omitempty"`
}
