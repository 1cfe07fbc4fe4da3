package services

import (
	"context"
	"fmt"
	"math"
	"mime/multipart"
	"regexp"
	"strings"

	"example.com/fieldwork/services/workorders/internal/auth"
	"example.com/fieldwork/services/workorders/internal/messaging"
	"example.com/fieldwork/services/workorders/internal/models"
	"example.com/fieldwork/services/workorders/internal/repositories"
	"example.com/fieldwork/services/workorders/internal/storage"
	"example.com/fieldwork/services/workorders/internal/tracing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// maxNumberLen caps the business work-order number
const maxNumberLen = 50

// notesLimit caps the notes returned with a detail view
const notesLimit = 50

var ymdPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Key addresses a work order by surrogate id or business number.
// Exactly one side is set.
type Key struct {
	ID     uint
	Number string
}

// IDKey wraps a surrogate id
func IDKey(id uint) Key {
	return Key{ID: id}
}

// NumberKey wraps a business number
func NumberKey(number string) Key {
	return Key{Number: strings.TrimSpace(number)}
}

// validate checks the key per the dual-key contract
func (k Key) validate() error {
	if k.ID != 0 {
		return nil
	}
	if k.Number == "" {
		return NewValidationError("work order number is required")
	}
	if len(k.Number) > maxNumberLen {
		return NewValidationError("work order number too long (max 50)")
	}
	return nil
}

// Publisher emits work-order events after mutations
type Publisher interface {
	Publish(ctx context.Context, event messaging.WorkOrderEvent) error
}

// Indexer maintains the work-order search projection
type Indexer interface {
	IndexWorkOrder(ctx context.Context, row *models.WorkOrderRow) error
	SearchWorkOrders(ctx context.Context, query string, size int) ([]map[string]interface{}, error)
}

// WorkOrderInput carries the caller-supplied fields for create and
// full-replace update.
type WorkOrderInput struct {
	Number             string
	StoreID            uint
	AddressLine        string
	City               *string
	State              *string
	ZipCode            *string
	Description        *string
	AssignedDispatcher uint
	NTE                *float64
	ETADate            *string
	Status             string
}

// WorkOrderService implements the work-order lifecycle
type WorkOrderService struct {
	repo    repositories.Repository
	uploads *storage.UploadStore
	elastic Indexer
	bus     Publisher
	tracer  tracing.Tracer
}

// NewWorkOrderService creates the lifecycle service. elastic and bus
// may be nil; both are best-effort collaborators.
func NewWorkOrderService(
	repo repositories.Repository,
	uploads *storage.UploadStore,
	elastic Indexer,
	bus Publisher,
	tracer tracing.Tracer,
) *WorkOrderService {
	return &WorkOrderService{
		repo:    repo,
		uploads: uploads,
		elastic: elastic,
		bus:     bus,
		tracer:  tracer,
	}
}

// validateInput normalizes and validates a full work-order payload.
// When generateNumber is set an absent number is defaulted instead of
// rejected.
func (s *WorkOrderService) validateInput(in *WorkOrderInput, generateNumber bool) error {
	in.Number = strings.TrimSpace(in.Number)
	if in.Number == "" && generateNumber {
		in.Number = "WO-" + strings.ToUpper(uuid.NewString()[:12])
	}
	if in.Number == "" {
		return NewValidationError("work_order_number is required")
	}
	if len(in.Number) > maxNumberLen {
		return NewValidationError("work_order_number is too long (max 50)")
	}

	if in.StoreID == 0 {
		return NewValidationError("store_id is required and must be a number")
	}

	in.AddressLine = strings.TrimSpace(in.AddressLine)
	if in.AddressLine == "" {
		return NewValidationError("address_line is required")
	}

	if in.AssignedDispatcher == 0 {
		return NewValidationError("assigned_dispatcher is required and must be a number")
	}

	in.Status = models.NormalizeStatus(in.Status)
	if !models.IsValidStatus(in.Status) {
		return &ValidationError{Message: "Invalid status value", Allowed: models.AllowedStatuses}
	}

	if in.NTE != nil && (math.IsNaN(*in.NTE) || math.IsInf(*in.NTE, 0)) {
		return NewValidationError("nte must be a finite number or null")
	}

	if in.ETADate != nil {
		eta := strings.TrimSpace(*in.ETADate)
		if eta == "" {
			in.ETADate = nil
		} else if !ymdPattern.MatchString(eta) {
			return NewValidationError("eta_date must be YYYY-MM-DD or null")
		} else {
			in.ETADate = &eta
		}
	}

	return nil
}

// translateWrite maps repository errors from create/update calls onto
// the domain taxonomy.
func translateWrite(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrDuplicateKey):
		return ErrDuplicateNumber
	case errors.Is(err, repositories.ErrForeignKey):
		return ErrInvalidReference
	case errors.Is(err, repositories.ErrNotFound):
		return ErrWorkOrderNotFound
	default:
		return err
	}
}

// Create validates the input and inserts a new work order
func (s *WorkOrderService) Create(ctx context.Context, in WorkOrderInput, generateNumber bool) (*models.WorkOrder, error) {
	txn := s.tracer.StartTransaction("create-work-order")
	defer s.tracer.EndTransaction(txn)

	if err := s.validateInput(&in, generateNumber); err != nil {
		return nil, err
	}

	wo := &models.WorkOrder{
		Number:             in.Number,
		StoreID:            in.StoreID,
		AddressLine:        in.AddressLine,
		City:               in.City,
		State:              in.State,
		ZipCode:            in.ZipCode,
		Description:        in.Description,
		AssignedDispatcher: in.AssignedDispatcher,
		NTE:                in.NTE,
		ETADate:            in.ETADate,
		CurrentStatus:      in.Status,
	}

	span := s.tracer.StartSpan("insert-work-order", txn)
	err := s.repo.CreateWorkOrder(ctx, wo)
	span.End()

	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, translateWrite(err)
	}

	log.Info().
		Uint("work_order_id", wo.ID).
		Str("work_order_number", wo.Number).
		Str("status", wo.CurrentStatus).
		Msg("Work order created")

	s.afterMutation(ctx, messaging.EventCreated, wo.ID, wo.Number)

	return wo, nil
}

// Get fetches one work order by either key
func (s *WorkOrderService) Get(ctx context.Context, key Key) (*models.WorkOrderRow, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}

	var (
		row *models.WorkOrderRow
		err error
	)
	if key.ID != 0 {
		row, err = s.repo.FindWorkOrderByID(ctx, key.ID)
	} else {
		row, err = s.repo.FindWorkOrderByNumber(ctx, key.Number)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrWorkOrderNotFound
		}
		return nil, err
	}
	return row, nil
}

// List returns work orders newest-first with the filter applied
func (s *WorkOrderService) List(ctx context.Context, filter repositories.WorkOrderFilter) ([]models.WorkOrderRow, error) {
	if filter.Status != "" && !models.IsValidStatus(filter.Status) {
		return nil, &ValidationError{Message: "Invalid status value", Allowed: models.AllowedStatuses}
	}
	return s.repo.ListWorkOrders(ctx, filter)
}

// ListForDispatcher returns only the caller's own assignments
func (s *WorkOrderService) ListForDispatcher(ctx context.Context, dispatcherID uint) ([]models.WorkOrderRow, error) {
	if dispatcherID == 0 {
		return nil, ErrMissingIdentity
	}
	return s.repo.ListWorkOrders(ctx, repositories.WorkOrderFilter{DispatcherID: dispatcherID})
}

// Update replaces the full record addressed by either key. Changing the
// number to one held by a different record fails with ErrDuplicateNumber.
func (s *WorkOrderService) Update(ctx context.Context, key Key, in WorkOrderInput) (*models.WorkOrder, error) {
	txn := s.tracer.StartTransaction("update-work-order")
	defer s.tracer.EndTransaction(txn)

	if err := key.validate(); err != nil {
		return nil, err
	}

	// Retargeting by number keeps the number unless the payload renames it
	generateNumber := false
	if key.Number != "" && strings.TrimSpace(in.Number) == "" {
		in.Number = key.Number
	}
	if err := s.validateInput(&in, generateNumber); err != nil {
		return nil, err
	}

	wo := &models.WorkOrder{
		ID:                 key.ID,
		Number:             in.Number,
		StoreID:            in.StoreID,
		AddressLine:        in.AddressLine,
		City:               in.City,
		State:              in.State,
		ZipCode:            in.ZipCode,
		Description:        in.Description,
		AssignedDispatcher: in.AssignedDispatcher,
		NTE:                in.NTE,
		ETADate:            in.ETADate,
		CurrentStatus:      in.Status,
	}

	span := s.tracer.StartSpan("update-work-order", txn)
	var err error
	if key.ID != 0 {
		err = s.repo.UpdateWorkOrderByID(ctx, key.ID, wo)
	} else {
		err = s.repo.UpdateWorkOrderByNumber(ctx, key.Number, wo)
	}
	span.End()

	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, translateWrite(err)
	}

	// The by-number path learns the surrogate id after the write
	if wo.ID == 0 {
		if id, err := s.repo.ResolveWorkOrderNumber(ctx, wo.Number); err == nil {
			wo.ID = id
		}
	}

	log.Info().
		Uint("work_order_id", wo.ID).
		Str("work_order_number", wo.Number).
		Msg("Work order updated")

	s.afterMutation(ctx, messaging.EventUpdated, wo.ID, wo.Number)

	return wo, nil
}

// UpdateStatus validates the new status against the vocabulary and
// assigns it unconditionally; there is no transition graph.
func (s *WorkOrderService) UpdateStatus(ctx context.Context, key Key, status string) (string, error) {
	txn := s.tracer.StartTransaction("update-work-order-status")
	defer s.tracer.EndTransaction(txn)

	if err := key.validate(); err != nil {
		return "", err
	}

	status = strings.TrimSpace(status)
	if status == "" {
		return "", NewValidationError("Status is required")
	}
	if !models.IsValidStatus(status) {
		return "", &ValidationError{Message: "Invalid status value", Allowed: models.AllowedStatuses}
	}

	span := s.tracer.StartSpan("update-status", txn)
	var err error
	if key.ID != 0 {
		err = s.repo.UpdateStatusByID(ctx, key.ID, status)
	} else {
		err = s.repo.UpdateStatusByNumber(ctx, key.Number, status)
	}
	span.End()

	if err != nil {
		s.tracer.RecordError(txn, err)
		return "", translateWrite(err)
	}

	log.Info().
		Uint("work_order_id", key.ID).
		Str("work_order_number", key.Number).
		Str("status", status).
		Msg("Work order status updated")

	s.afterMutation(ctx, messaging.EventStatusChanged, key.ID, key.Number)

	return status, nil
}

// Details returns the work order plus its newest notes in one payload
func (s *WorkOrderService) Details(ctx context.Context, key Key) (*models.WorkOrderRow, []models.NoteRow, error) {
	row, err := s.Get(ctx, key)
	if err != nil {
		return nil, nil, err
	}

	notes, err := s.repo.ListNotes(ctx, row.ID, notesLimit)
	if err != nil {
		return nil, nil, err
	}

	return row, notes, nil
}

// resolveID maps either key to the surrogate id. Resolution by number
// happens before any dependent insert so nothing is written against a
// missing parent.
func (s *WorkOrderService) resolveID(ctx context.Context, key Key) (uint, error) {
	if err := key.validate(); err != nil {
		return 0, err
	}
	if key.ID != 0 {
		return key.ID, nil
	}
	id, err := s.repo.ResolveWorkOrderNumber(ctx, key.Number)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return 0, ErrWorkOrderNotFound
		}
		return 0, err
	}
	return id, nil
}

// AddNote appends a note authored by the acting identity
func (s *WorkOrderService) AddNote(ctx context.Context, key Key, text string, actor *auth.Identity) (*models.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, NewValidationError("Note is required")
	}
	if actor == nil || actor.UserID == 0 {
		return nil, ErrMissingIdentity
	}

	id, err := s.resolveID(ctx, key)
	if err != nil {
		return nil, err
	}

	note := &models.Note{
		WorkOrderID: id,
		UserID:      actor.UserID,
		Text:        text,
	}
	if err := s.repo.CreateNote(ctx, note); err != nil {
		return nil, translateWrite(err)
	}

	log.Info().
		Uint("work_order_id", id).
		Uint("note_id", note.ID).
		Uint("user_id", actor.UserID).
		Msg("Note added")

	s.afterMutation(ctx, messaging.EventNoteAdded, id, key.Number)

	return note, nil
}

// AttachmentView is one grouped-listing entry
type AttachmentView struct {
	FileID   uint   `json:"file_id"`
	Category string `json:"file_type"`
	FileName string `json:"file_name"`
	URL      string `json:"url"`
}

// SaveAttachment stores the uploaded file and records it against the
// resolved work order.
func (s *WorkOrderService) SaveAttachment(ctx context.Context, key Key, category string, file *multipart.FileHeader) (*models.FileAttachment, error) {
	category = strings.TrimSpace(category)
	if !models.IsValidCategory(category) {
		return nil, NewValidationError("Invalid file_type")
	}
	if file == nil {
		return nil, NewValidationError("No file uploaded")
	}

	id, err := s.resolveID(ctx, key)
	if err != nil {
		return nil, err
	}

	relPath, err := s.uploads.Save(id, category, file)
	if err != nil {
		if errors.Is(err, storage.ErrFileTooLarge) {
			return nil, NewValidationError(fmt.Sprintf("File exceeds the %d MiB limit", s.uploads.MaxSizeBytes()>>20))
		}
		return nil, err
	}

	att := &models.FileAttachment{
		WorkOrderID: id,
		Category:    category,
		Path:        relPath,
	}
	if err := s.repo.CreateAttachment(ctx, att); err != nil {
		return nil, translateWrite(err)
	}

	log.Info().
		Uint("work_order_id", id).
		Uint("file_id", att.ID).
		Str("category", category).
		Msg("File uploaded")

	s.afterMutation(ctx, messaging.EventFileAdded, id, key.Number)

	return att, nil
}

// ListAttachmentsGrouped groups a work order's files by the retrievable
// categories. Document-category files are stored but intentionally left
// out of this listing.
func (s *WorkOrderService) ListAttachmentsGrouped(ctx context.Context, key Key, publicPrefix string) (map[string][]AttachmentView, error) {
	id, err := s.resolveID(ctx, key)
	if err != nil {
		return nil, err
	}

	files, err := s.repo.ListAttachments(ctx, id)
	if err != nil {
		return nil, err
	}

	out := map[string][]AttachmentView{
		models.CategoryBefore:  {},
		models.CategoryAfter:   {},
		models.CategorySignoff: {},
	}
	for _, f := range files {
		cat := strings.TrimSpace(f.Category)
		if _, ok := out[cat]; !ok {
			continue
		}
		out[cat] = append(out[cat], AttachmentView{
			FileID:   f.ID,
			Category: cat,
			FileName: f.Path,
			URL:      publicPrefix + "/" + f.Path,
		})
	}

	return out, nil
}

// Search runs the Elasticsearch free-text query over the projection
func (s *WorkOrderService) Search(ctx context.Context, query string, size int) ([]map[string]interface{}, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, NewValidationError("q is required")
	}
	if s.elastic == nil {
		return nil, errors.New("search is not configured")
	}
	if size <= 0 {
		size = 50
	}
	return s.elastic.SearchWorkOrders(ctx, query, size)
}

// afterMutation refreshes the search projection and emits the event.
// Both are best effort; the SQL write has already committed.
func (s *WorkOrderService) afterMutation(ctx context.Context, kind string, id uint, number string) {
	if s.elastic != nil {
		row, err := s.lookupRow(ctx, id, number)
		if err == nil {
			if err := s.elastic.IndexWorkOrder(ctx, row); err != nil {
				log.Warn().Err(err).Uint("work_order_id", row.ID).Msg("Failed to index work order, worker will retry")
			}
			id, number = row.ID, row.Number
		} else {
			log.Warn().Err(err).Uint("work_order_id", id).Msg("Failed to load work order for indexing")
		}
	}

	if s.bus != nil {
		event := messaging.WorkOrderEvent{
			Kind:            kind,
			WorkOrderID:     id,
			WorkOrderNumber: number,
		}
		if err := s.bus.Publish(ctx, event); err != nil {
			log.Warn().Err(err).Str("kind", kind).Msg("Failed to publish work order event")
		}
	}
}

func (s *WorkOrderService) lookupRow(ctx context.Context, id uint, number string) (*models.WorkOrderRow, error) {
	if id != 0 {
		return s.repo.FindWorkOrderByID(ctx, id)
	}
	return s.repo.FindWorkOrderByNumber(ctx, number)
}

// HandleWorkOrderEvent refreshes the search projection for one event;
// this is the worker-side consumer.
func (s *WorkOrderService) HandleWorkOrderEvent(ctx context.Context, event *messaging.WorkOrderEvent) error {
	if s.elastic == nil {
		return nil
	}

	row, err := s.lookupRow(ctx, event.WorkOrderID, event.WorkOrderNumber)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// Deleted or renamed between publish and consume; nothing to index
			log.Warn().
				Uint("work_order_id", event.WorkOrderID).
				Msg("Work order event references missing record, skipping")
			return nil
		}
		return errors.Wrap(err, "failed to load work order for event")
	}

	return s.elastic.IndexWorkOrder(ctx, row)
}

// ReindexUpdatedSince reindexes work orders touched at or after the
// given unix timestamp. Fallback for events the consumer missed.
func (s *WorkOrderService) ReindexUpdatedSince(ctx context.Context, since int64) error {
	if s.elastic == nil {
		return nil
	}

	rows, err := s.repo.ListWorkOrdersUpdatedSince(ctx, since)
	if err != nil {
		return errors.Wrap(err, "failed to list work orders for reindex")
	}

	log.Info().Int("count", len(rows)).Msg("Reindexing recently updated work orders")

	for i := range rows {
		if err := s.elastic.IndexWorkOrder(ctx, &rows[i]); err != nil {
			log.Error().
				Err(err).
				Uint("work_order_id", rows[i].ID).
				Msg("Failed to reindex work order")
		}
	}

	return nil
}
