package repositories

import (
	"context"

	"example.com/fieldwork/services/workorders/internal/models"
)

// FindUserByEmail fetches a user with its role preloaded
func (r *repo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Role").
		Where("email = ?", email).
		Take(&user).Error
	if err != nil {
		return nil, translate(err, "failed to get user by email")
	}
	return &user, nil
}

// ListDispatchers returns all dispatcher-role users ordered by name
func (r *repo) ListDispatchers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("roles.name = ?", models.RoleDispatcher).
		Order("users.full_name").
		Find(&users).Error
	if err != nil {
		return nil, translate(err, "failed to list dispatchers")
	}
	return users, nil
}

// ListClients returns all clients ordered by name
func (r *repo) ListClients(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client
	err := r.db.WithContext(ctx).Order("client_name ASC").Find(&clients).Error
	if err != nil {
		return nil, translate(err, "failed to list clients")
	}
	return clients, nil
}

// FindClientByID fetches one client
func (r *repo) FindClientByID(ctx context.Context, id uint) (*models.Client, error) {
	var client models.Client
	err := r.db.WithContext(ctx).Where("client_id = ?", id).Take(&client).Error
	if err != nil {
		return nil, translate(err, "failed to get client")
	}
	return &client, nil
}

// ListStores returns stores with their client names, optionally limited
// to one client (clientID 0 means all).
func (r *repo) ListStores(ctx context.Context, clientID uint) ([]models.StoreRow, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Store{}).
		Select("stores.*, c.client_name").
		Joins("JOIN clients c ON c.client_id = stores.client_id")

	if clientID != 0 {
		q = q.Where("stores.client_id = ?", clientID)
	}

	var rows []models.StoreRow
	err := q.Order("stores.store_name ASC").Find(&rows).Error
	if err != nil {
		return nil, translate(err, "failed to list stores")
	}
	return rows, nil
}

// FindStoreByID fetches one store with its client name
func (r *repo) FindStoreByID(ctx context.Context, id uint) (*models.StoreRow, error) {
	var row models.StoreRow
	err := r.db.WithContext(ctx).
		Model(&models.Store{}).
		Select("stores.*, c.client_name").
		Joins("JOIN clients c ON c.client_id = stores.client_id").
		Where("stores.store_id = ?", id).
		Take(&row).Error
	if err != nil {
		return nil, translate(err, "failed to get store")
	}
	return &row, nil
}
