// Package sanity talks to the Sanity content lake: image assets, GROQ
// queries and mutations for gallery submissions and design styles.
package sanity

import (
	"context"
	"fmt"
)

const (
	TypeGallerySubmission = "gallerySubmission"
	TypeDesignStyle       = "designStyle"
)

// Submission moderation states. Intake only ever writes StatusPending.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type Reference struct {
	Type string `json:"_type"`
	Ref  string `json:"_ref"`
}

func NewReference(id string) *Reference {
	return &Reference{Type: "reference", Ref: id}
}

type Image struct {
	Type  string     `json:"_type"`
	Asset *Reference `json:"asset"`
	Alt   string     `json:"alt,omitempty"`
}

func NewImage(assetID, alt string) *Image {
	return &Image{Type: "image", Asset: NewReference(assetID), Alt: alt}
}

// GallerySubmission mirrors the gallerySubmission document type.
type GallerySubmission struct {
	ID                      string     `json:"_id,omitempty"`
	Type                    string     `json:"_type"`
	SubmitterName           string     `json:"submitterName"`
	SubmitterEmail          string     `json:"submitterEmail"`
	StyleRef                *Reference `json:"styleRef,omitempty"`
	DemoURL                 string     `json:"demoUrl"`
	Screenshot              *Image     `json:"screenshot,omitempty"`
	AuthenticityExplanation string     `json:"authenticityExplanation"`
	HasPublicDisplayConsent bool       `json:"hasPublicDisplayConsent"`
	HasMarketingConsent     bool       `json:"hasMarketingConsent"`
	Status                  string     `json:"status"`
	SubmittedAt             string     `json:"submittedAt"`
	ReviewedAt              string     `json:"reviewedAt,omitempty"`
	IsFeatured              bool       `json:"isFeatured"`
}

// Style is the projection of a designStyle used for references and labels.
type Style struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
}

const styleBySlugQuery = `*[_type == "designStyle" && slug.current == $slug][0]{_id, title}`

// LookupStyle resolves a style slug. It returns nil without error when no
// style has that slug.
func (c *Client) LookupStyle(ctx context.Context, slug string) (*Style, error) {
	var style Style
	if err := c.Query(ctx, styleBySlugQuery, map[string]any{"slug": slug}, &style); err != nil {
		return nil, fmt.Errorf("failed to look up style %q: %w", slug, err)
	}
	if style.ID == "" {
		return nil, nil
	}
	return &style, nil
}

// ListStyles returns every design style with its id and title.
func (c *Client) ListStyles(ctx context.Context) ([]Style, error) {
	var styles []Style
	if err := c.Query(ctx, `*[_type == "designStyle"]{_id, title}`, nil, &styles); err != nil {
		return nil, fmt.Errorf("failed to list styles: %w", err)
	}
	return styles, nil
}

// DemoURLsBySubmitter returns the demo URLs already submitted under email.
func (c *Client) DemoURLsBySubmitter(ctx context.Context, email string) ([]string, error) {
	var urls []string
	query := `*[_type == "gallerySubmission" && submitterEmail == $email].demoUrl`
	if err := c.Query(ctx, query, map[string]any{"email": email}, &urls); err != nil {
		return nil, fmt.Errorf("failed to list existing submissions: %w", err)
	}
	return urls, nil
}
