package usecase

import (
	"fmt"

	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/model"
	"github.com/vasapolrittideah/portfolio-api/services/portfolio-service/internal/repository"
	"github.com/vasapolrittideah/portfolio-api/shared/validator"
)

// fieldErrors collects required fields that were emptied by sanitising, keyed
// the same way as request validation errors.
type fieldErrors map[string]string

func (f fieldErrors) require(field, value string) {
	if value == "" {
		f[field] = field + " is a required field"
	}
}

func (f fieldErrors) requireItems(field string, n int) {
	if n == 0 {
		f[field] = field + " must contain at least 1 item"
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &validator.ValidationError{Fields: f}
}

func validatePublication(p *model.Publication) error {
	errs := fieldErrors{}
	errs.require("title", p.Title)
	errs.requireItems("authors", len(p.Authors))
	return errs.err()
}

func validatePublicationUpdate(p UpdatePublicationParams) error {
	errs := fieldErrors{}
	if p.Title != nil {
		errs.require("title", *p.Title)
	}
	if p.Authors != nil {
		errs.requireItems("authors", len(*p.Authors))
	}
	return errs.err()
}

func validateUserUpdate(p repository.UpdateUserParams) error {
	errs := fieldErrors{}
	if p.Name != nil {
		errs.require("name", *p.Name)
	}
	if p.Education != nil {
		for i, e := range *p.Education {
			errs.require(fmt.Sprintf("education[%d].degree", i), e.Degree)
			errs.require(fmt.Sprintf("education[%d].institution", i), e.Institution)
		}
	}
	if p.Experience != nil {
		for i, e := range *p.Experience {
			errs.require(fmt.Sprintf("experience[%d].position", i), e.Position)
			errs.require(fmt.Sprintf("experience[%d].organization", i), e.Organization)
		}
	}
	if p.Certificates != nil {
		for i, c := range *p.Certificates {
			errs.require(fmt.Sprintf("certificates[%d].name", i), c.Name)
		}
	}
	return errs.err()
}
