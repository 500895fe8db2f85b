package patient

import (
	"context"
	"fmt"

	"github.com/ccdbridge/ccdbridge/internal/domain/vocab"
)

// OptionResolver resolves demographic display texts to vocabulary option ids.
type OptionResolver interface {
	EnsureOption(ctx context.Context, listID, title, codes string) (string, error)
}

type Service struct {
	repo    Repository
	options OptionResolver
}

func NewService(repo Repository, options OptionResolver) *Service {
	return &Service{repo: repo, options: options}
}

// Ensure resolves the document's subject to a chart, creating one when no
// match exists. Matching prefers the external patient id and falls back to
// name plus birth date. The returned bool reports whether a chart was
// created. Non-empty demographic fields overwrite the chart on a match, so
// re-imports refresh demographics without duplicating the patient.
func (s *Service) Ensure(ctx context.Context, d Demographics) (*Patient, bool, error) {
	existing, err := s.match(ctx, d)
	if err != nil {
		return nil, false, err
	}

	religion, race, ethnicity, err := s.resolveCodes(ctx, d)
	if err != nil {
		return nil, false, err
	}

	if existing != nil {
		applyDemographics(existing, d, religion, race, ethnicity)
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, false, fmt.Errorf("update patient %s: %w", existing.ID, err)
		}
		return existing, false, nil
	}

	p := &Patient{
		Pubpid:      d.Pubpid,
		SS:          d.SS,
		FirstName:   d.FirstName,
		LastName:    d.LastName,
		DOB:         d.DOB,
		Sex:         d.Sex,
		Street:      d.Street,
		City:        d.City,
		State:       d.State,
		PostalCode:  d.PostalCode,
		CountryCode: d.CountryCode,
		PhoneHome:   d.PhoneHome,
		Status:      d.Status,
		Religion:    religion,
		Race:        race,
		Ethnicity:   ethnicity,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, false, fmt.Errorf("create patient: %w", err)
	}
	return p, true, nil
}

func (s *Service) match(ctx context.Context, d Demographics) (*Patient, error) {
	if d.Pubpid != "" {
		p, err := s.repo.FindByPubpid(ctx, d.Pubpid)
		if err != nil {
			return nil, fmt.Errorf("lookup patient by pubpid: %w", err)
		}
		if p != nil {
			return p, nil
		}
	}
	if d.FirstName != "" && d.LastName != "" && d.DOB != "" {
		p, err := s.repo.FindByNameDOB(ctx, d.FirstName, d.LastName, d.DOB)
		if err != nil {
			return nil, fmt.Errorf("lookup patient by name: %w", err)
		}
		return p, nil
	}
	return nil, nil
}

func (s *Service) resolveCodes(ctx context.Context, d Demographics) (religion, race, ethnicity string, err error) {
	if religion, err = s.options.EnsureOption(ctx, vocab.ListReligion, d.Religion, ""); err != nil {
		return
	}
	if race, err = s.options.EnsureOption(ctx, vocab.ListRace, d.Race, ""); err != nil {
		return
	}
	ethnicity, err = s.options.EnsureOption(ctx, vocab.ListEthnicity, d.Ethnicity, "")
	return
}

func applyDemographics(p *Patient, d Demographics, religion, race, ethnicity string) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&p.Pubpid, d.Pubpid)
	set(&p.SS, d.SS)
	set(&p.FirstName, d.FirstName)
	set(&p.LastName, d.LastName)
	set(&p.DOB, d.DOB)
	set(&p.Sex, d.Sex)
	set(&p.Street, d.Street)
	set(&p.City, d.City)
	set(&p.State, d.State)
	set(&p.PostalCode, d.PostalCode)
	set(&p.CountryCode, d.CountryCode)
	set(&p.PhoneHome, d.PhoneHome)
	set(&p.Status, d.Status)
	set(&p.Religion, religion)
	set(&p.Race, race)
	set(&p.Ethnicity, ethnicity)
}

func (s *Service) Get(ctx context.Context, id string) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}
