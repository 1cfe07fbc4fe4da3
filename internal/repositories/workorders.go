package repositories

import (
	"context"

	"example.com/fieldwork/services/workorders/internal/models"

	"gorm.io/gorm"
)

const workOrderColumns = "work_orders.*, s.store_name, c.client_id, c.client_name, u.full_name AS dispatcher_name"

// workOrderQuery builds the joined base query used by all work-order reads
func (r *repo) workOrderQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.WorkOrder{}).
		Select(workOrderColumns).
		Joins("LEFT JOIN stores s ON s.store_id = work_orders.store_id").
		Joins("LEFT JOIN clients c ON c.client_id = s.client_id").
		Joins("LEFT JOIN users u ON u.id = work_orders.assigned_dispatcher")
}

// CreateWorkOrder inserts a new work order
func (r *repo) CreateWorkOrder(ctx context.Context, wo *models.WorkOrder) error {
	err := r.db.WithContext(ctx).Create(wo).Error
	return translate(err, "failed to create work order")
}

// FindWorkOrderByID fetches one work order with its display context
func (r *repo) FindWorkOrderByID(ctx context.Context, id uint) (*models.WorkOrderRow, error) {
	var row models.WorkOrderRow
	err := r.workOrderQuery(ctx).
		Where("work_orders.work_order_id = ?", id).
		Take(&row).Error
	if err != nil {
		return nil, translate(err, "failed to get work order by id")
	}
	return &row, nil
}

// FindWorkOrderByNumber fetches one work order by its business number
func (r *repo) FindWorkOrderByNumber(ctx context.Context, number string) (*models.WorkOrderRow, error) {
	var row models.WorkOrderRow
	err := r.workOrderQuery(ctx).
		Where("work_orders.work_order_number = ?", number).
		Take(&row).Error
	if err != nil {
		return nil, translate(err, "failed to get work order by number")
	}
	return &row, nil
}

// ResolveWorkOrderNumber maps a business number to the surrogate id
func (r *repo) ResolveWorkOrderNumber(ctx context.Context, number string) (uint, error) {
	var wo models.WorkOrder
	err := r.db.WithContext(ctx).
		Select("work_order_id").
		Where("work_order_number = ?", number).
		Take(&wo).Error
	if err != nil {
		return 0, translate(err, "failed to resolve work order number")
	}
	return wo.ID, nil
}

// ListWorkOrders lists work orders newest-first, applying the filter
// conjunctively. Search is a case-insensitive substring match across
// description, address, store name and client name.
func (r *repo) ListWorkOrders(ctx context.Context, filter WorkOrderFilter) ([]models.WorkOrderRow, error) {
	q := r.workOrderQuery(ctx)

	if filter.Status != "" {
		q = q.Where("work_orders.current_status = ?", filter.Status)
	}
	if filter.DispatcherID != 0 {
		q = q.Where("work_orders.assigned_dispatcher = ?", filter.DispatcherID)
	}
	if filter.StoreID != 0 {
		q = q.Where("work_orders.store_id = ?", filter.StoreID)
	}
	if filter.ClientID != 0 {
		q = q.Where("c.client_id = ?", filter.ClientID)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where(
			"work_orders.description ILIKE ? OR work_orders.address_line ILIKE ? OR s.store_name ILIKE ? OR c.client_name ILIKE ?",
			like, like, like, like,
		)
	}

	var rows []models.WorkOrderRow
	err := q.Order("work_orders.work_order_id DESC").Find(&rows).Error
	if err != nil {
		return nil, translate(err, "failed to list work orders")
	}
	return rows, nil
}

// ListWorkOrdersUpdatedSince returns work orders touched at or after the
// given unix timestamp, used by the search-reindex fallback job.
func (r *repo) ListWorkOrdersUpdatedSince(ctx context.Context, since int64) ([]models.WorkOrderRow, error) {
	var rows []models.WorkOrderRow
	err := r.workOrderQuery(ctx).
		Where("work_orders.updated_at >= to_timestamp(?)", since).
		Order("work_orders.work_order_id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "failed to list recently updated work orders")
	}
	return rows, nil
}

// workOrderAssignments is the full-replace column set for updates
func workOrderAssignments(wo *models.WorkOrder) map[string]interface{} {
	return map[string]interface{}{
		"work_order_number":   wo.Number,
		"store_id":            wo.StoreID,
		"address_line":        wo.AddressLine,
		"city":                wo.City,
		"state":               wo.State,
		"zip_code":            wo.ZipCode,
		"description":         wo.Description,
		"assigned_dispatcher": wo.AssignedDispatcher,
		"nte":                 wo.NTE,
		"eta_date":            wo.ETADate,
		"current_status":      wo.CurrentStatus,
	}
}

// UpdateWorkOrderByID replaces the full record addressed by id. The
// identifier is unique, so at most one row can match.
func (r *repo) UpdateWorkOrderByID(ctx context.Context, id uint, wo *models.WorkOrder) error {
	res := r.db.WithContext(ctx).
		Model(&models.WorkOrder{}).
		Where("work_order_id = ?", id).
		Updates(workOrderAssignments(wo))
	if res.Error != nil {
		return translate(res.Error, "failed to update work order")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateWorkOrderByNumber replaces the full record addressed by number
func (r *repo) UpdateWorkOrderByNumber(ctx context.Context, number string, wo *models.WorkOrder) error {
	res := r.db.WithContext(ctx).
		Model(&models.WorkOrder{}).
		Where("work_order_number = ?", number).
		Updates(workOrderAssignments(wo))
	if res.Error != nil {
		return translate(res.Error, "failed to update work order by number")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatusByID assigns the status unconditionally; no transition guard
func (r *repo) UpdateStatusByID(ctx context.Context, id uint, status string) error {
	res := r.db.WithContext(ctx).
		Model(&models.WorkOrder{}).
		Where("work_order_id = ?", id).
		Update("current_status", status)
	if res.Error != nil {
		return translate(res.Error, "failed to update work order status")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatusByNumber assigns the status addressed by business number
func (r *repo) UpdateStatusByNumber(ctx context.Context, number string, status string) error {
	res := r.db.WithContext(ctx).
		Model(&models.WorkOrder{}).
		Where("work_order_number = ?", number).
		Update("current_status", status)
	if res.Error != nil {
		return translate(res.Error, "failed to update work order status by number")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateNote appends a note to a work order
func (r *repo) CreateNote(ctx context.Context, note *models.Note) error {
	err := r.db.WithContext(ctx).Create(note).Error
	return translate(err, "failed to create note")
}

// ListNotes returns a work order's notes newest-first, capped at limit
func (r *repo) ListNotes(ctx context.Context, workOrderID uint, limit int) ([]models.NoteRow, error) {
	var rows []models.NoteRow
	err := r.db.WithContext(ctx).
		Model(&models.Note{}).
		Select("notes.*, u.full_name").
		Joins("LEFT JOIN users u ON u.id = notes.user_id").
		Where("notes.work_order_id = ?", workOrderID).
		Order("notes.note_id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "failed to list notes")
	}
	return rows, nil
}

// CreateAttachment records an uploaded file against a work order
func (r *repo) CreateAttachment(ctx context.Context, att *models.FileAttachment) error {
	err := r.db.WithContext(ctx).Create(att).Error
	return translate(err, "failed to create attachment")
}

// ListAttachments returns a work order's file records newest-first
func (r *repo) ListAttachments(ctx context.Context, workOrderID uint) ([]models.FileAttachment, error) {
	var rows []models.FileAttachment
	err := r.db.WithContext(ctx).
		Where("work_order_id = ?", workOrderID).
		Order("file_id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "failed to list attachments")
	}
	return rows, nil
}
