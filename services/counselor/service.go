package counselor

import (
	"context"
	"errors"
	"fmt"

	counselorRepo "mindwell/database/repository/counselor"
	"mindwell/models"

	"go.uber.org/zap"
)

var ErrNotFound = errors.New("counselor not found")

// CounselorService is the read side of the counselor directory plus administrative
// (de)activation.
type CounselorService interface {
	GetCounselor(ctx context.Context, id string) (*models.CounselorProfile, error)
	ListCounselors(ctx context.Context, filter models.CounselorFilter) ([]models.CounselorProfile, error)
	SetActive(ctx context.Context, id string, active bool) error
}

type DefaultCounselorService struct {
	Repo   counselorRepo.CounselorRepository
	Logger *zap.Logger
}

func NewCounselorService(repo counselorRepo.CounselorRepository, logger *zap.Logger) *DefaultCounselorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultCounselorService{Repo: repo, Logger: logger.With(zap.String("service", "counselor"))}
}

func (s *DefaultCounselorService) GetCounselor(ctx context.Context, id string) (*models.CounselorProfile, error) {
	c, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, counselorRepo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get counselor %s: %w", id, err)
	}
	// Deactivated counselors drop out of the directory.
	if !c.IsActive {
		return nil, ErrNotFound
	}
	p := c.Profile()
	return &p, nil
}

func (s *DefaultCounselorService) ListCounselors(ctx context.Context, filter models.CounselorFilter) ([]models.CounselorProfile, error) {
	list, err := s.Repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list counselors: %w", err)
	}
	out := make([]models.CounselorProfile, 0, len(list))
	for i := range list {
		// Capacity depends on assignedPatients, which the query cannot express.
		if filter.AcceptingOnly && !list[i].CanAcceptNewPatient() {
			continue
		}
		out = append(out, list[i].Profile())
	}
	return out, nil
}

func (s *DefaultCounselorService) SetActive(ctx context.Context, id string, active bool) error {
	if err := s.Repo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, counselorRepo.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update counselor %s: %w", id, err)
	}
	s.Logger.Info("Counselor activation changed", zap.String("counselorId", id), zap.Bool("active", active))
	return nil
}
