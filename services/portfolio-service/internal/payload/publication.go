package payload

import "github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/model"

type CreatePublicationRequest struct {
	Title     string   `json:"title"     validate:"required,max=300"`
	Authors   []string `json:"authors"   validate:"required,min=1,max=100,dive,required,max=200"`
	Type      string   `json:"type"      validate:"required,oneof=journal conference book-chapter preprint thesis"`
	Year      int      `json:"year"      validate:"required,gte=1900,lte=2100"`
	Venue     string   `json:"venue"     validate:"max=300"`
	Tags      []string `json:"tags"      validate:"max=30,dive,max=50"`
	Citations int      `json:"citations" validate:"gte=0"`
	DOI       string   `json:"doi"       validate:"max=200"`
	URL       string   `json:"url"       validate:"omitempty,url,max=2048"`
	Abstract  string   `json:"abstract"  validate:"max=10000"`
	Featured  bool     `json:"featured"`
}

type UpdatePublicationRequest struct {
	Title     *string   `json:"title"     validate:"omitnil,min=1,max=300"`
	Authors   *[]string `json:"authors"   validate:"omitnil,min=1,max=100,dive,required,max=200"`
	Type      *string   `json:"type"      validate:"omitnil,oneof=journal conference book-chapter preprint thesis"`
	Year      *int      `json:"year"      validate:"omitnil,gte=1900,lte=2100"`
	Venue     *string   `json:"venue"     validate:"omitnil,max=300"`
	Tags      *[]string `json:"tags"      validate:"omitnil,max=30,dive,max=50"`
	Citations *int      `json:"citations" validate:"omitnil,gte=0"`
	DOI       *string   `json:"doi"       validate:"omitnil,max=200"`
	URL       *string   `json:"url"       validate:"omitnil,omitempty,url,max=2048"`
	Abstract  *string   `json:"abstract"  validate:"omitnil,max=10000"`
	Featured  *bool     `json:"featured"`
}

// ListPublicationsQuery mirrors the list endpoint's query string.
type ListPublicationsQuery struct {
	Type     string `json:"type"     validate:"omitempty,oneof=journal conference book-chapter preprint thesis"`
	Year     int    `json:"year"     validate:"omitempty,gte=1900,lte=2100"`
	Tag      string `json:"tag"      validate:"omitempty,max=50"`
	Featured *bool  `json:"featured"`
	Query    string `json:"q"        validate:"omitempty,max=200"`
	Sort     string `json:"sort"     validate:"omitempty,oneof=year citations title created_at"`
	Order    string `json:"order"    validate:"omitempty,oneof=asc desc"`
	Page     int    `json:"page"     validate:"omitempty,gte=1,lte=100000"`
	Limit    int    `json:"limit"    validate:"omitempty,gte=1"`
}

type PublicationResponse struct {
	Publication *model.Publication `json:"publication"`
}

type PublicationListResponse struct {
	Items []*model.Publication `json:"items"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}
