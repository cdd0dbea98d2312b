package service

import (
	"context"

	"github.com/sirupsen/logrus"
)

type preferenceRepository interface {
	ShowUTC(ctx context.Context) (value, ok bool, err error)
	SetShowUTC(ctx context.Context, value bool) error
}

// PreferenceService exposes the event table display mode. UTC is the default.
type PreferenceService struct {
	repo preferenceRepository
	log  logrus.FieldLogger
}

func NewPreferenceService(repo preferenceRepository, log logrus.FieldLogger) *PreferenceService {
	return &PreferenceService{repo: repo, log: log}
}

func (s *PreferenceService) ShowUTC(ctx context.Context) bool {
	value, ok, err := s.repo.ShowUTC(ctx)
	if err != nil {
		s.log.WithError(err).Warn("read display preference")
		return true
	}
	if !ok {
		return true
	}
	return value
}

func (s *PreferenceService) SetShowUTC(ctx context.Context, value bool) error {
	return s.repo.SetShowUTC(ctx, value)
}

// ToggleShowUTC flips the stored flag and returns the new value.
func (s *PreferenceService) ToggleShowUTC(ctx context.Context) (bool, error) {
	value := !s.ShowUTC(ctx)
	if err := s.repo.SetShowUTC(ctx, value); err != nil {
		return !value, err
	}
	return value, nil
}
