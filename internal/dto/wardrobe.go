package dto

import (
	"encoding/json"
	"time"

	"github.com/stylistiq/wardrobe-api/internal/models"
)

// UploadItemRequest carries the multipart form fields accompanying a garment
// image. Tag fields are comma-separated free text, normalized downstream.
type UploadItemRequest struct {
	Category string `form:"category" validate:"required"`
	Colors   string `form:"colors"`
	Styles   string `form:"styles"`
	Seasons  string `form:"seasons"`
	Pattern  string `form:"pattern"`
}

// ItemResponse is the outward shape of a wardrobe item. The image is served
// through a signed URL rather than a raw path.
type ItemResponse struct {
	ID         string     `json:"id"`
	Category   string     `json:"category"`
	ColorTags  []string   `json:"color_tags"`
	StyleTags  []string   `json:"style_tags"`
	SeasonTags []string   `json:"season_tags"`
	Pattern    string     `json:"pattern"`
	ImageURL   string     `json:"image_url"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// MatchResponse reports either a pairing or the reason none was possible.
// "No match" is a normal outcome rendered as a friendly prompt, so it is
// never an HTTP error.
type MatchResponse struct {
	Matched     bool          `json:"matched"`
	Reason      string        `json:"reason,omitempty"`
	Message     string        `json:"message,omitempty"`
	CurrentItem *ItemResponse `json:"current_item,omitempty"`
	MatchedItem *ItemResponse `json:"matched_item,omitempty"`
	Score       int           `json:"score,omitempty"`
	Occasion    string        `json:"occasion,omitempty"`
}

// QuotaResponse renders a quota check. Limit serializes as the numeric cap
// or the string "unlimited" for verified clients.
type QuotaResponse struct {
	Allowed   bool   `json:"allowed"`
	Used      int    `json:"used"`
	Category  string `json:"category"`
	Limit     int    `json:"-"`
	Unlimited bool   `json:"-"`
}

// MarshalJSON renders the limit field per the public contract.
func (q QuotaResponse) MarshalJSON() ([]byte, error) {
	type alias QuotaResponse
	var limit interface{} = q.Limit
	if q.Unlimited {
		limit = "unlimited"
	}
	return json.Marshal(struct {
		alias
		Limit interface{} `json:"limit"`
	}{alias(q), limit})
}

// QuotaResponseFrom converts the domain status into the response shape.
func QuotaResponseFrom(status models.QuotaStatus) QuotaResponse {
	return QuotaResponse{
		Allowed:   status.Allowed,
		Used:      status.Used,
		Category:  string(status.Category),
		Limit:     status.Limit,
		Unlimited: status.Unlimited,
	}
}
