package types

import "github.com/google/uuid"

// CandidatePlace is a place proposed by the AI recommendation step. It is
// untrusted input: names may be approximate and coordinates hallucinated, so
// it is never persisted directly.
type CandidatePlace struct {
	Name      string   `json:"name"`
	City      string   `json:"city"`
	Country   string   `json:"country"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Summary   string   `json:"summary"`
	Tags      []string `json:"tags,omitempty"`
	Category  string   `json:"category"`
}

// Place is a catalog row owned by the place store.
type Place struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	City          string    `json:"city"`
	Country       string    `json:"country"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	Rating        float64   `json:"rating"`
	RatingCount   int       `json:"rating_count"`
	CategoryEn    string    `json:"category_en"`
	CoverImage    string    `json:"cover_image"`
	AiTags        []string  `json:"ai_tags,omitempty"`
	AiDescription string    `json:"ai_description"`
	IsVerified    bool      `json:"is_verified"`
	Address       string    `json:"address,omitempty"`
	PhoneNumber   string    `json:"phone_number,omitempty"`
	Website       string    `json:"website,omitempty"`
	OpeningHours  string    `json:"opening_hours,omitempty"`
}

// Verified reports whether the place should be presented as verified: either
// it was flagged as such or it carries a positive rating.
func (p *Place) Verified() bool {
	return p.IsVerified || p.Rating > 0
}

// PlaceResult is the search pipeline's output unit. Source is "cache" when the
// row came from the catalog and "ai" when it only exists as an AI candidate.
type PlaceResult struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Summary      string   `json:"summary"`
	CoverImage   string   `json:"cover_image,omitempty"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	City         string   `json:"city"`
	Country      string   `json:"country"`
	Rating       float64  `json:"rating"`
	RatingCount  int      `json:"rating_count"`
	Tags         []string `json:"tags,omitempty"`
	IsVerified   bool     `json:"is_verified"`
	Source       string   `json:"source"`
	Address      string   `json:"address,omitempty"`
	PhoneNumber  string   `json:"phone_number,omitempty"`
	Website      string   `json:"website,omitempty"`
	OpeningHours string   `json:"opening_hours,omitempty"`
}

// CategoryGroup is a titled grouping of results. Groups with fewer than two
// places are never emitted.
type CategoryGroup struct {
	Title  string        `json:"title"`
	Places []PlaceResult `json:"places"`
}
