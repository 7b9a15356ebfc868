/**
 * @description
 * This file defines the core profile models for the card service: the Profile
 * itself, its ordered social links, and the public projection served to
 * unauthenticated viewers.
 */
package domain

import (
	"strings"
	"time"
)

// CoverType selects how a profile renders its cover area.
type CoverType string

const (
	CoverColor CoverType = "color"
	CoverImage CoverType = "image"
)

// CardStyle is the visual variant of the rendered card.
type CardStyle string

const (
	CardProfessional CardStyle = "professional"
	CardSocial       CardStyle = "social"
)

// Profile represents a user's digital business card. The Handle is the sole
// public lookup key and is unique across all profiles.
type Profile struct {
	ID         string    `json:"id"`
	Handle     string    `json:"handle"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Title      string    `json:"title"`
	Company    string    `json:"company"`
	Bio        string    `json:"bio"`
	Location   string    `json:"location"`
	Phone      string    `json:"phone"`
	Avatar     string    `json:"avatar"`
	CoverType  CoverType `json:"cover_type"`
	CoverColor string    `json:"cover_color,omitempty"`
	CoverImage string    `json:"cover_image,omitempty"`
	CardStyle  CardStyle `json:"card_style"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SocialLink is one entry of a profile's link list. Position defines render
// order and is kept contiguous (0..n-1) per profile by the store. The ID stays
// stable across reorders.
type SocialLink struct {
	ID        string `json:"id"`
	ProfileID string `json:"profile_id,omitempty"`
	Platform  string `json:"platform"`
	URL       string `json:"url"`
	Label     string `json:"label"`
	Position  int    `json:"position"`
}

// KnownPlatforms are the platform tags with first-class rendering support.
// Anything else falls back to the generic "website" treatment.
var KnownPlatforms = []string{
	"instagram",
	"linkedin",
	"twitter",
	"github",
	"facebook",
	"tiktok",
	"youtube",
	"whatsapp",
	"telegram",
	"website",
}

// NormalizePlatform lowercases a platform tag and maps unknown values to
// "website".
func NormalizePlatform(platform string) string {
	p := strings.ToLower(strings.TrimSpace(platform))
	for _, known := range KnownPlatforms {
		if p == known {
			return p
		}
	}
	return "website"
}

// PublicProfile is the projection of a Profile safe to expose to
// unauthenticated viewers. It deliberately omits the email address.
type PublicProfile struct {
	Handle     string       `json:"handle"`
	Name       string       `json:"name"`
	Title      string       `json:"title"`
	Company    string       `json:"company"`
	Bio        string       `json:"bio"`
	Location   string       `json:"location"`
	Phone      string       `json:"phone"`
	Avatar     string       `json:"avatar"`
	CoverType  CoverType    `json:"cover_type"`
	CoverColor string       `json:"cover_color,omitempty"`
	CoverImage string       `json:"cover_image,omitempty"`
	CardStyle  CardStyle    `json:"card_style"`
	Links      []SocialLink `json:"links"`
}

// PublicView builds the public projection of a profile and its links.
func (p *Profile) PublicView(links []SocialLink) PublicProfile {
	return PublicProfile{
		Handle:     p.Handle,
		Name:       p.Name,
		Title:      p.Title,
		Company:    p.Company,
		Bio:        p.Bio,
		Location:   p.Location,
		Phone:      p.Phone,
		Avatar:     p.Avatar,
		CoverType:  p.CoverType,
		CoverColor: p.CoverColor,
		CoverImage: p.CoverImage,
		CardStyle:  p.CardStyle,
		Links:      links,
	}
}

// DeriveHandle builds a profile handle from an email address: the local part,
// lowercased, with everything outside [a-z0-9] stripped.
func DeriveHandle(email string) string {
	local := email
	if at := strings.Index(email, "@"); at >= 0 {
		local = email[:at]
	}
	local = strings.ToLower(local)

	var b strings.Builder
	for _, r := range local {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SignupRequest is the payload required to register a new profile.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfilePatch carries a partial profile update. Only non-nil fields are
// persisted; a nil Links slice leaves the link list untouched while a non-nil
// one triggers a full replace.
type ProfilePatch struct {
	Name       *string      `json:"name,omitempty"`
	Title      *string      `json:"title,omitempty"`
	Company    *string      `json:"company,omitempty"`
	Bio        *string      `json:"bio,omitempty"`
	Location   *string      `json:"location,omitempty"`
	Phone      *string      `json:"phone,omitempty"`
	Avatar     *string      `json:"avatar,omitempty"`
	CoverType  *CoverType   `json:"cover_type,omitempty"`
	CoverColor *string      `json:"cover_color,omitempty"`
	CoverImage *string      `json:"cover_image,omitempty"`
	CardStyle  *CardStyle   `json:"card_style,omitempty"`
	Links      []SocialLink `json:"social_links,omitempty"`
}

// IsEmpty reports whether the patch carries no profile fields and no link
// replacement.
func (p ProfilePatch) IsEmpty() bool {
	return p.Name == nil && p.Title == nil && p.Company == nil && p.Bio == nil &&
		p.Location == nil && p.Phone == nil && p.Avatar == nil &&
		p.CoverType == nil && p.CoverColor == nil && p.CoverImage == nil &&
		p.CardStyle == nil && p.Links == nil
}
