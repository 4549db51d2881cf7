package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/cabin-booking/internal/domain"
	"github.com/pkordes/cabin-booking/internal/repo"
)

// CabinService implements business logic for the cabin inventory.
// Cabins are never deleted; retiring one means marking it inactive.
type CabinService struct {
	repo repo.CabinRepo
}

// NewCabinService constructs a CabinService backed by the provided CabinRepo.
func NewCabinService(r repo.CabinRepo) *CabinService {
	return &CabinService{repo: r}
}

// Create validates and persists a new cabin.
func (s *CabinService) Create(ctx context.Context, cabin domain.Cabin) (domain.Cabin, error) {
	cabin.Name = strings.TrimSpace(cabin.Name)
	if cabin.Name == "" {
		return domain.Cabin{}, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if cabin.Capacity < 1 {
		return domain.Cabin{}, fmt.Errorf("%w: capacity must be at least 1", domain.ErrValidation)
	}
	if cabin.NightlyRate.IsNegative() {
		return domain.Cabin{}, fmt.Errorf("%w: nightly rate must not be negative", domain.ErrValidation)
	}
	cabin.NightlyRate = cabin.NightlyRate.Round(domain.CurrencyPlaces)

	created, err := s.repo.Create(ctx, cabin)
	if err != nil {
		return domain.Cabin{}, fmt.Errorf("service.CabinService.Create: %w", err)
	}
	return created, nil
}

// GetByID returns a single cabin by ID.
func (s *CabinService) GetByID(ctx context.Context, id uuid.UUID) (domain.Cabin, error) {
	cabin, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Cabin{}, fmt.Errorf("service.CabinService.GetByID: %w", err)
	}
	return cabin, nil
}

// List returns all cabins.
func (s *CabinService) List(ctx context.Context) ([]domain.Cabin, error) {
	cabins, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.CabinService.List: %w", err)
	}
	return cabins, nil
}
