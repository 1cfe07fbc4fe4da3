package services

import (
	"context"
	"strings"

	"example.com/fieldwork/services/workorders/internal/models"
	"example.com/fieldwork/services/workorders/internal/repositories"

	"github.com/rs/zerolog/log"
)

// TechnicianInput carries the caller-supplied technician fields
type TechnicianInput struct {
	FullName    string
	Trade       *string
	Phone       *string
	City        *string
	State       *string
	PaymentInfo *string
}

// TechnicianService manages the technician directory
type TechnicianService struct {
	repo repositories.Repository
}

// NewTechnicianService creates a new technician service
func NewTechnicianService(repo repositories.Repository) *TechnicianService {
	return &TechnicianService{repo: repo}
}

// List returns all technicians newest-first
func (s *TechnicianService) List(ctx context.Context) ([]models.Technician, error) {
	return s.repo.ListTechnicians(ctx)
}

// Create inserts a new technician
func (s *TechnicianService) Create(ctx context.Context, in TechnicianInput) (*models.Technician, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	if in.FullName == "" {
		return nil, NewValidationError("full_name is required")
	}

	tech := &models.Technician{
		FullName:    in.FullName,
		Trade:       in.Trade,
		Phone:       in.Phone,
		City:        in.City,
		State:       in.State,
		PaymentInfo: in.PaymentInfo,
	}
	if err := s.repo.CreateTechnician(ctx, tech); err != nil {
		return nil, err
	}

	log.Info().Uint("technician_id", tech.ID).Msg("Technician created")
	return tech, nil
}

// Update replaces the technician addressed by id
func (s *TechnicianService) Update(ctx context.Context, id uint, in TechnicianInput) error {
	in.FullName = strings.TrimSpace(in.FullName)
	if in.FullName == "" {
		return NewValidationError("full_name is required")
	}

	tech := &models.Technician{
		ID:          id,
		FullName:    in.FullName,
		Trade:       in.Trade,
		Phone:       in.Phone,
		City:        in.City,
		State:       in.State,
		PaymentInfo: in.PaymentInfo,
	}
	return s.repo.UpdateTechnician(ctx, tech)
}
