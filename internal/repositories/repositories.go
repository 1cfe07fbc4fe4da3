package repositories

import (
	"context"

	"example.com/fieldwork/services/workorders/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// WorkOrderFilter narrows a work-order listing. Zero values mean "no
// constraint"; set filters combine conjunctively.
type WorkOrderFilter struct {
	Status       string
	DispatcherID uint
	StoreID      uint
	ClientID     uint
	Search       string
}

// Repository provides data access for the work-order domain
type Repository interface {
	// Work order operations
	CreateWorkOrder(ctx context.Context, wo *models.WorkOrder) error
	FindWorkOrderByID(ctx context.Context, id uint) (*models.WorkOrderRow, error)
	FindWorkOrderByNumber(ctx context.Context, number string) (*models.WorkOrderRow, error)
	ResolveWorkOrderNumber(ctx context.Context, number string) (uint, error)
	ListWorkOrders(ctx context.Context, filter WorkOrderFilter) ([]models.WorkOrderRow, error)
	ListWorkOrdersUpdatedSince(ctx context.Context, since int64) ([]models.WorkOrderRow, error)
	UpdateWorkOrderByID(ctx context.Context, id uint, wo *models.WorkOrder) error
	UpdateWorkOrderByNumber(ctx context.Context, number string, wo *models.WorkOrder) error
	UpdateStatusByID(ctx context.Context, id uint, status string) error
	UpdateStatusByNumber(ctx context.Context, number string, status string) error

	// Note operations
	CreateNote(ctx context.Context, note *models.Note) error
	ListNotes(ctx context.Context, workOrderID uint, limit int) ([]models.NoteRow, error)

	// Attachment operations
	CreateAttachment(ctx context.Context, att *models.FileAttachment) error
	ListAttachments(ctx context.Context, workOrderID uint) ([]models.FileAttachment, error)

	// User operations
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListDispatchers(ctx context.Context) ([]models.User, error)

	// Reference data
	ListClients(ctx context.Context) ([]models.Client, error)
	FindClientByID(ctx context.Context, id uint) (*models.Client, error)
	ListStores(ctx context.Context, clientID uint) ([]models.StoreRow, error)
	FindStoreByID(ctx context.Context, id uint) (*models.StoreRow, error)

	// Technician operations
	ListTechnicians(ctx context.Context) ([]models.Technician, error)
	CreateTechnician(ctx context.Context, tech *models.Technician) error
	UpdateTechnician(ctx context.Context, tech *models.Technician) error
}

// repo is the GORM-backed implementation of Repository
type repo struct {
	db *gorm.DB
}

// NewRepository creates a new repository instance
func NewRepository(db *gorm.DB) Repository {
	return &repo{db: db}
}

// translate maps GORM errors onto the repository sentinels. gorm.Config
// must have TranslateError enabled for constraint errors to surface.
func translate(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrForeignKey
	default:
		return errors.Wrap(err, msg)
	}
}
