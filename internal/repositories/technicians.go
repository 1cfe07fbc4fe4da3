package repositories

import (
	"context"

	"example.com/fieldwork/services/workorders/internal/models"
)

// ListTechnicians returns all technicians newest-first
func (r *repo) ListTechnicians(ctx context.Context) ([]models.Technician, error) {
	var techs []models.Technician
	err := r.db.WithContext(ctx).Order("technician_id DESC").Find(&techs).Error
	if err != nil {
		return nil, translate(err, "failed to list technicians")
	}
	return techs, nil
}

// CreateTechnician inserts a new technician
func (r *repo) CreateTechnician(ctx context.Context, tech *models.Technician) error {
	err := r.db.WithContext(ctx).Create(tech).Error
	return translate(err, "failed to create technician")
}

// UpdateTechnician replaces the technician record addressed by its id
func (r *repo) UpdateTechnician(ctx context.Context, tech *models.Technician) error {
	res := r.db.WithContext(ctx).
		Model(&models.Technician{}).
		Where("technician_id = ?", tech.ID).
		Updates(map[string]interface{}{
			"full_name":    tech.FullName,
			"trade":        tech.Trade,
			"phone":        tech.Phone,
			"city":         tech.City,
			"state":        tech.State,
			"payment_info": tech.PaymentInfo,
		})
	if res.Error != nil {
		return translate(res.Error, "failed to update technician")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
