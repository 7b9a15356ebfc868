/**
 * @description
 * This file implements the profile draft: the locally editable copy of a
 * profile and its social links, decoupled from the session state until an
 * explicit commit. All operations here are pure local state; only Commit
 * touches the gateway, and at most one commit may be in flight at a time.
 */
package session

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Ghavvvo/pulpy/internal/domain"
)

// MaxImageBytes is the upload ceiling for avatar and cover images.
const MaxImageBytes = 5 * 1024 * 1024

// ImageUpload is a raw image picked by the user, before validation.
type ImageUpload struct {
	Data        []byte
	ContentType string
}

// Draft holds the editable copy of a profile and its links.
type Draft struct {
	mu         sync.Mutex
	profile    domain.Profile
	links      []domain.SocialLink
	committing bool
}

// NewDraft creates an empty draft. Call Seed before editing.
func NewDraft() *Draft {
	return &Draft{}
}

// Seed replaces the entire draft wholesale with the authoritative profile
// and links. Called whenever the session's bundle changes, including right
// after login and right after a successful commit's refetch.
func (d *Draft) Seed(profile domain.Profile, links []domain.SocialLink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.profile = profile
	d.links = append([]domain.SocialLink(nil), links...)
}

// Profile returns a copy of the draft profile.
func (d *Draft) Profile() domain.Profile {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.profile
}

// Links returns a copy of the draft link list in its current order.
func (d *Draft) Links() []domain.SocialLink {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.SocialLink(nil), d.links...)
}

// UpdateField shallow-merges one profile field into the draft. Unknown field
// names are rejected with a ValidationError.
func (d *Draft) UpdateField(field, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch field {
	case "name":
		d.profile.Name = value
	case "title":
		d.profile.Title = value
	case "company":
		d.profile.Company = value
	case "bio":
		d.profile.Bio = value
	case "location":
		d.profile.Location = value
	case "phone":
		d.profile.Phone = value
	case "avatar":
		d.profile.Avatar = value
	case "cover_type":
		d.profile.CoverType = domain.CoverType(value)
	case "cover_color":
		d.profile.CoverColor = value
	case "cover_image":
		d.profile.CoverImage = value
	case "card_style":
		d.profile.CardStyle = domain.CardStyle(value)
	default:
		return domain.NewValidationError(field, "unknown profile field")
	}
	return nil
}

// AddLink appends a new social link at the end of the list. URL and label
// are required.
func (d *Draft) AddLink(platform, url, label string) (domain.SocialLink, error) {
	if strings.TrimSpace(url) == "" {
		return domain.SocialLink{}, domain.NewValidationError("url", "url is required")
	}
	if strings.TrimSpace(label) == "" {
		return domain.SocialLink{}, domain.NewValidationError("label", "label is required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	link := domain.SocialLink{
		ID:       uuid.NewString(),
		Platform: domain.NormalizePlatform(platform),
		URL:      url,
		Label:    label,
		Position: len(d.links),
	}
	d.links = append(d.links, link)
	return link, nil
}

// RemoveLink deletes a link by id. No-op when the id is absent.
func (d *Draft) RemoveLink(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, link := range d.links {
		if link.ID == id {
			d.links = append(d.links[:i], d.links[i+1:]...)
			d.renumberLocked()
			return
		}
	}
}

// UpdateLink shallow-updates one field of the matching link.
func (d *Draft) UpdateLink(id, field, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := range d.links {
		if d.links[i].ID != id {
			continue
		}
		switch field {
		case "platform":
			d.links[i].Platform = domain.NormalizePlatform(value)
		case "url":
			d.links[i].URL = value
		case "label":
			d.links[i].Label = value
		default:
			return domain.NewValidationError(field, "unknown link field")
		}
		return nil
	}
	return domain.ErrNotFound
}

// Reorder moves the link at fromIndex to toIndex, shifting the others. The
// set of link ids is unchanged; only relative order moves.
func (d *Draft) Reorder(fromIndex, toIndex int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := len(d.links)
	if fromIndex < 0 || fromIndex >= n {
		return domain.NewValidationError("fromIndex", "out of range")
	}
	if toIndex < 0 || toIndex >= n {
		return domain.NewValidationError("toIndex", "out of range")
	}
	if fromIndex == toIndex {
		return nil
	}

	moved := d.links[fromIndex]
	rest := append(d.links[:fromIndex:fromIndex], d.links[fromIndex+1:]...)
	links := make([]domain.SocialLink, 0, n)
	links = append(links, rest[:toIndex]...)
	links = append(links, moved)
	links = append(links, rest[toIndex:]...)
	d.links = links
	d.renumberLocked()
	return nil
}

// SetAvatar validates the upload and stores it on the draft as a data URL.
// The previous avatar is untouched on rejection.
func (d *Draft) SetAvatar(img ImageUpload) error {
	ref, err := encodeImage(img)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.profile.Avatar = ref
	return nil
}

// SetCoverImage validates the upload, stores it as a data URL and switches
// the cover presentation to image.
func (d *Draft) SetCoverImage(img ImageUpload) error {
	ref, err := encodeImage(img)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.profile.CoverImage = ref
	d.profile.CoverType = domain.CoverImage
	return nil
}

func encodeImage(img ImageUpload) (string, error) {
	if !strings.HasPrefix(img.ContentType, "image/") {
		return "", domain.NewValidationError("image", "file must be an image")
	}
	if len(img.Data) > MaxImageBytes {
		return "", domain.NewValidationError("image", "image must be 5 MiB or less")
	}
	return "data:" + img.ContentType + ";base64," + base64.StdEncoding.EncodeToString(img.Data), nil
}

// Patch builds the full profile patch the draft represents, link list
// included.
func (d *Draft) Patch() domain.ProfilePatch {
	d.mu.Lock()
	defer d.mu.Unlock()

	p := d.profile
	links := append([]domain.SocialLink(nil), d.links...)
	return domain.ProfilePatch{
		Name:       &p.Name,
		Title:      &p.Title,
		Company:    &p.Company,
		Bio:        &p.Bio,
		Location:   &p.Location,
		Phone:      &p.Phone,
		Avatar:     &p.Avatar,
		CoverType:  &p.CoverType,
		CoverColor: &p.CoverColor,
		CoverImage: &p.CoverImage,
		CardStyle:  &p.CardStyle,
		Links:      links,
	}
}

// Commit hands the draft to the session's UpdateProfile and re-seeds the
// draft from the refetched authoritative bundle. A commit in flight is
// exclusive: concurrent calls fail with ErrCommitInFlight and the draft is
// left untouched on any gateway failure.
func (d *Draft) Commit(ctx context.Context, state *State) error {
	d.mu.Lock()
	if d.committing {
		d.mu.Unlock()
		return domain.ErrCommitInFlight
	}
	d.committing = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.committing = false
		d.mu.Unlock()
	}()

	bundle, err := state.UpdateProfile(ctx, d.Patch())
	if err != nil {
		return err
	}

	d.Seed(bundle.Profile, bundle.Links)
	return nil
}

func (d *Draft) renumberLocked() {
	for i := range d.links {
		d.links[i].Position = i
	}
}
