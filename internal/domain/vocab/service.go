package vocab

import (
	"context"
	"fmt"
)

// Service resolves controlled-vocabulary option ids, provisioning missing
// options on demand. Lookups that cannot be provisioned resolve to the empty
// id rather than failing the surrounding import.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// EnsureOption finds an option by display title, then by coded value, and
// provisions a new active option when neither matches. Options are only
// provisioned when a title exists; a bare code with no display text resolves
// empty, mirroring how absent vocabulary stays absent downstream.
func (s *Service) EnsureOption(ctx context.Context, listID, title, codes string) (string, error) {
	if title == "" && codes == "" {
		return "", nil
	}

	if title != "" {
		opt, err := s.repo.FindByTitle(ctx, listID, title)
		if err != nil {
			return "", fmt.Errorf("lookup %s option by title: %w", listID, err)
		}
		if opt != nil {
			if !opt.Activity {
				if err := s.repo.Activate(ctx, listID, opt.OptionID); err != nil {
					return "", fmt.Errorf("activate %s option: %w", listID, err)
				}
			}
			return opt.OptionID, nil
		}
	}
	if codes != "" {
		opt, err := s.repo.FindByCodes(ctx, listID, codes)
		if err != nil {
			return "", fmt.Errorf("lookup %s option by codes: %w", listID, err)
		}
		if opt != nil {
			return opt.OptionID, nil
		}
	}
	if title == "" {
		return "", nil
	}

	opt := &Option{ListID: listID, Title: title, Codes: codes, Activity: true}
	if err := s.repo.Insert(ctx, opt); err != nil {
		return "", fmt.Errorf("provision %s option %q: %w", listID, title, err)
	}
	return opt.OptionID, nil
}

// SnomedCode formats an observation code for option lookup. Severity,
// reaction and outcome observations are SNOMED CT coded, and the codes
// column stores them system-prefixed.
func SnomedCode(code string) string {
	if code == "" {
		return ""
	}
	return "SNOMED-CT:" + code
}

// EnsureRouteOption resolves a drug route, which is keyed by its coded value
// in the notes column rather than the title.
func (s *Service) EnsureRouteOption(ctx context.Context, route, display string) (string, error) {
	if route == "" {
		return "", nil
	}
	opt, err := s.repo.FindByNotes(ctx, ListDrugRoute, route)
	if err != nil {
		return "", fmt.Errorf("lookup drug route: %w", err)
	}
	if opt != nil {
		return opt.OptionID, nil
	}

	opt = &Option{ListID: ListDrugRoute, Title: display, Notes: route, Activity: true}
	if err := s.repo.Insert(ctx, opt); err != nil {
		return "", fmt.Errorf("provision drug route %q: %w", route, err)
	}
	return opt.OptionID, nil
}

// OptionID is a lookup without provisioning; missing options resolve empty.
func (s *Service) OptionID(ctx context.Context, listID, title, codes string) (string, error) {
	if title != "" {
		opt, err := s.repo.FindByTitle(ctx, listID, title)
		if err != nil {
			return "", err
		}
		if opt != nil {
			return opt.OptionID, nil
		}
	}
	if codes != "" {
		opt, err := s.repo.FindByCodes(ctx, listID, codes)
		if err != nil {
			return "", err
		}
		if opt != nil {
			return opt.OptionID, nil
		}
	}
	return "", nil
}

// ListOptions returns every option of a list, for the review surface.
func (s *Service) ListOptions(ctx context.Context, listID string) ([]*Option, error) {
	return s.repo.List(ctx, listID)
}
