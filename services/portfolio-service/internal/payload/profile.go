package payload

import "github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/model"

// UpdateProfileRequest is a partial update: absent fields keep their value and
// arrays replace the stored list.
type UpdateProfileRequest struct {
	Email        *string             `json:"email"        validate:"omitnil,email,max=254"`
	Name         *string             `json:"name"         validate:"omitnil,min=1,max=120"`
	Headline     *string             `json:"headline"     validate:"omitnil,max=200"`
	Bio          *string             `json:"bio"          validate:"omitnil,max=5000"`
	Affiliation  *string             `json:"affiliation"  validate:"omitnil,max=200"`
	Location     *string             `json:"location"     validate:"omitnil,max=120"`
	AvatarURL    *string             `json:"avatar_url"   validate:"omitnil,omitempty,url,max=2048"`
	CVURL        *string             `json:"cv_url"       validate:"omitnil,omitempty,url,max=2048"`
	Education    *[]EducationInput   `json:"education"    validate:"omitnil,max=30,dive"`
	Experience   *[]ExperienceInput  `json:"experience"   validate:"omitnil,max=50,dive"`
	Skills       *[]string           `json:"skills"       validate:"omitnil,max=100,dive,max=60"`
	Certificates *[]CertificateInput `json:"certificates" validate:"omitnil,max=50,dive"`
	Links        *SocialLinksInput   `json:"links"`
}

type EducationInput struct {
	Degree      string `json:"degree"      validate:"required,max=200"`
	Field       string `json:"field"       validate:"max=200"`
	Institution string `json:"institution" validate:"required,max=200"`
	StartYear   int    `json:"start_year"  validate:"omitempty,gte=1900,lte=2100"`
	EndYear     int    `json:"end_year"    validate:"omitempty,gte=1900,lte=2100"`
	Description string `json:"description" validate:"max=2000"`
}

type ExperienceInput struct {
	Position     string `json:"position"     validate:"required,max=200"`
	Organization string `json:"organization" validate:"required,max=200"`
	Location     string `json:"location"     validate:"max=120"`
	StartDate    string `json:"start_date"   validate:"max=20"`
	EndDate      string `json:"end_date"     validate:"max=20"`
	Current      bool   `json:"current"`
	Description  string `json:"description"  validate:"max=5000"`
}

type CertificateInput struct {
	Name   string `json:"name"   validate:"required,max=200"`
	Issuer string `json:"issuer" validate:"max=200"`
	Year   int    `json:"year"   validate:"omitempty,gte=1900,lte=2100"`
	URL    string `json:"url"    validate:"omitempty,url,max=2048"`
}

type SocialLinksInput struct {
	Website       string `json:"website"        validate:"omitempty,url,max=2048"`
	GitHub        string `json:"github"         validate:"omitempty,url,max=2048"`
	LinkedIn      string `json:"linkedin"       validate:"omitempty,url,max=2048"`
	GoogleScholar string `json:"google_scholar" validate:"omitempty,url,max=2048"`
	ORCID         string `json:"orcid"          validate:"omitempty,max=64"`
}

func (e EducationInput) ToModel() model.Education {
	return model.Education{
		Degree:      e.Degree,
		Field:       e.Field,
		Institution: e.Institution,
		StartYear:   e.StartYear,
		EndYear:     e.EndYear,
		Description: e.Description,
	}
}

func (e ExperienceInput) ToModel() model.Experience {
	return model.Experience{
		Position:     e.Position,
		Organization: e.Organization,
		Location:     e.Location,
		StartDate:    e.StartDate,
		EndDate:      e.EndDate,
		Current:      e.Current,
		Description:  e.Description,
	}
}

func (c CertificateInput) ToModel() model.Certificate {
	return model.Certificate{Name: c.Name, Issuer: c.Issuer, Year: c.Year, URL: c.URL}
}

func (l SocialLinksInput) ToModel() model.SocialLinks {
	return model.SocialLinks{
		Website:       l.Website,
		GitHub:        l.GitHub,
		LinkedIn:      l.LinkedIn,
		GoogleScholar: l.GoogleScholar,
		ORCID:         l.ORCID,
	}
}
