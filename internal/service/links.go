package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/noobbricks/noob-bricks/internal/domain"
	domainerrors "github.com/noobbricks/noob-bricks/internal/errors"
	"github.com/noobbricks/noob-bricks/internal/id"
	"github.com/noobbricks/noob-bricks/internal/store"
	"github.com/noobbricks/noob-bricks/internal/validation"
)

// LinkInput is user-entered data for an external link. A nil Enabled keeps
// the current value on update and means enabled on create.
type LinkInput struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// LinkURL is an external link resolved for one brick number.
type LinkURL struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// LinkService manages the external catalog links.
type LinkService struct {
	lock      *DocumentLock
	records   *store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewLinkService creates a new link service.
func NewLinkService(lock *DocumentLock, records *store.Store, validator *validation.Validator, logger *slog.Logger) *LinkService {
	return &LinkService{
		lock:      lock,
		records:   records,
		validator: validator,
		logger:    logger,
	}
}

// List returns every link, including disabled ones.
func (s *LinkService) List(ctx context.Context) []domain.ExternalLink {
	return s.records.ExternalLinks(ctx)
}

// Lookup returns the enabled links expanded for a brick number.
func (s *LinkService) Lookup(ctx context.Context, number string) []LinkURL {
	enabled := domain.EnabledLinks(s.List(ctx))
	out := make([]LinkURL, 0, len(enabled))
	for _, l := range enabled {
		out = append(out, LinkURL{Name: l.Name, URL: l.URLFor(number)})
	}
	return out
}

// Add creates a link.
func (s *LinkService) Add(ctx context.Context, input LinkInput) (domain.ExternalLink, error) {
	linkID, err := id.NewLinkID()
	if err != nil {
		return domain.ExternalLink{}, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate link id")
	}
	link := domain.ExternalLink{
		ID:      linkID,
		Name:    strings.TrimSpace(input.Name),
		URL:     strings.TrimSpace(input.URL),
		Enabled: input.Enabled == nil || *input.Enabled,
	}
	if err := s.validator.Validate(link); err != nil {
		return domain.ExternalLink{}, err
	}

	err = s.mutate(ctx, func(links []domain.ExternalLink) ([]domain.ExternalLink, error) {
		return append(links, link), nil
	})
	if err != nil {
		return domain.ExternalLink{}, err
	}
	s.logger.Info("external link added", "link_id", link.ID, "name", link.Name)
	return link, nil
}

// Update replaces the name and URL of a link.
func (s *LinkService) Update(ctx context.Context, linkID string, input LinkInput) (domain.ExternalLink, error) {
	var updated domain.ExternalLink
	err := s.mutate(ctx, func(links []domain.ExternalLink) ([]domain.ExternalLink, error) {
		i, err := findLink(links, linkID)
		if err != nil {
			return nil, err
		}
		updated = links[i]
		updated.Name = strings.TrimSpace(input.Name)
		updated.URL = strings.TrimSpace(input.URL)
		if input.Enabled != nil {
			updated.Enabled = *input.Enabled
		}
		if err := s.validator.Validate(updated); err != nil {
			return nil, err
		}
		links[i] = updated
		return links, nil
	})
	if err != nil {
		return domain.ExternalLink{}, err
	}
	s.logger.Info("external link updated", "link_id", linkID)
	return updated, nil
}

// Toggle flips the enabled flag of a link.
func (s *LinkService) Toggle(ctx context.Context, linkID string) (domain.ExternalLink, error) {
	var toggled domain.ExternalLink
	err := s.mutate(ctx, func(links []domain.ExternalLink) ([]domain.ExternalLink, error) {
		i, err := findLink(links, linkID)
		if err != nil {
			return nil, err
		}
		links[i].Enabled = !links[i].Enabled
		toggled = links[i]
		return links, nil
	})
	if err != nil {
		return domain.ExternalLink{}, err
	}
	return toggled, nil
}

// Delete removes a link.
func (s *LinkService) Delete(ctx context.Context, linkID string) error {
	err := s.mutate(ctx, func(links []domain.ExternalLink) ([]domain.ExternalLink, error) {
		i, err := findLink(links, linkID)
		if err != nil {
			return nil, err
		}
		return slices.Delete(links, i, i+1), nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("external link deleted", "link_id", linkID)
	return nil
}

// Import replaces every link.
func (s *LinkService) Import(ctx context.Context, links []domain.ExternalLink) error {
	for _, l := range links {
		if err := s.validator.Validate(l); err != nil {
			return err
		}
	}
	return s.mutate(ctx, func([]domain.ExternalLink) ([]domain.ExternalLink, error) {
		return slices.Clone(links), nil
	})
}

// mutate applies fn to a fresh copy of the stored links and saves the result.
func (s *LinkService) mutate(ctx context.Context, fn func([]domain.ExternalLink) ([]domain.ExternalLink, error)) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	links, err := fn(slices.Clone(s.records.ExternalLinks(ctx)))
	if err != nil {
		return err
	}
	return s.records.SaveExternalLinks(ctx, links)
}

func findLink(links []domain.ExternalLink, linkID string) (int, error) {
	i := slices.IndexFunc(links, func(l domain.ExternalLink) bool { return l.ID == linkID })
	if i < 0 {
		return -1, domainerrors.NotFoundf("external link %q not found", linkID)
	}
	return i, nil
}
