package issue

import (
	"time"

	domainIssue "raisevoice/internal/domain/issue"

	"github.com/google/uuid"
)

// AnonymousReporterName replaces the reporter's real name on every issue that
// leaves the service. Reporter identity is internal-only.
const AnonymousReporterName = "Anonymous User"

type CreateIssueRequest struct {
	Title       string   `json:"title" validate:"required,min=5,max=100"`
	Description string   `json:"description" validate:"required,min=10,max=1000"`
	Category    string   `json:"category" validate:"required,issue_category"`
	Longitude   float64  `json:"longitude" validate:"min=-180,max=180"`
	Latitude    float64  `json:"latitude" validate:"min=-90,max=90"`
	Address     *string  `json:"address" validate:"omitempty,max=255"`
	Images      []string `json:"images" validate:"omitempty,max=5,dive,url"`
	Anonymous   *bool    `json:"anonymous"`
}

type UpdateIssueRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=5,max=100"`
	Description *string `json:"description" validate:"omitempty,min=10,max=1000"`
	Status      *string `json:"status" validate:"omitempty,issue_status"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,issue_status"`
}

type ListIssuesRequest struct {
	Category  string   `form:"category" validate:"omitempty,issue_category"`
	Status    string   `form:"status" validate:"omitempty,issue_status"`
	Latitude  *float64 `form:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `form:"longitude" validate:"omitempty,min=-180,max=180"`
	RadiusKm  *float64 `form:"radius_km" validate:"omitempty,gt=0,max=500"`
	Page      int      `form:"page" validate:"omitempty,min=1"`
	PageSize  int      `form:"page_size" validate:"omitempty,min=1,max=100"`
}

// Location is a GeoJSON-style point, longitude first.
type Location struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Reporter is the outward reporter shape. Name is always the anonymous
// placeholder; only the opaque ID survives serialization.
type Reporter struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// IssueResponse is the single outward issue shape. Every read path serializes
// through it, so reporter identity can never leak from a forgotten endpoint.
type IssueResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	Location    Location  `json:"location"`
	Address     *string   `json:"address,omitempty"`
	Images      []string  `json:"images"`
	Reporter    Reporter  `json:"reporter"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type IssueListResponse struct {
	Issues     []*IssueResponse `json:"issues"`
	Pagination Pagination       `json:"pagination"`
}

type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
	Pages    int64 `json:"pages"`
}

type StatisticsResponse struct {
	TotalIssues int              `json:"total_issues"`
	ByStatus    map[string]int   `json:"by_status"`
	ByCategory  map[string]int   `json:"by_category"`
	Recent      []*IssueResponse `json:"recent"`
}

// toIssueResponse is the only transform from a domain issue to its outward
// shape. Image object keys stay internal; the reporter's name is always the
// anonymous placeholder.
func toIssueResponse(iss *domainIssue.Issue) *IssueResponse {
	if iss == nil {
		return nil
	}

	images := make([]string, len(iss.Images))
	for i, img := range iss.Images {
		images[i] = img.URL
	}

	return &IssueResponse{
		ID:          iss.ID,
		Title:       iss.Title,
		Description: iss.Description,
		Category:    string(iss.Category),
		Status:      string(iss.Status),
		Location: Location{
			Longitude: iss.Longitude,
			Latitude:  iss.Latitude,
		},
		Address: iss.Address,
		Images:  images,
		Reporter: Reporter{
			ID:   iss.ReporterID,
			Name: AnonymousReporterName,
		},
		CreatedAt: iss.CreatedAt,
		UpdatedAt: iss.UpdatedAt,
	}
}
