package services

import (
	"context"
	"time"

	"example.com/fieldwork/services/workorders/internal/cache"
	"example.com/fieldwork/services/workorders/internal/models"
	"example.com/fieldwork/services/workorders/internal/repositories"

	"github.com/rs/zerolog/log"
)

// referenceTTL bounds staleness of the cached dropdown lists
const referenceTTL = 5 * time.Minute

// ReferenceService serves the client/store/dispatcher lookup data used
// to populate work-order forms. Reads go through the Redis cache when
// available.
type ReferenceService struct {
	repo  repositories.Repository
	cache *cache.RedisCache
}

// NewReferenceService creates a new reference-data service
func NewReferenceService(repo repositories.Repository, redisCache *cache.RedisCache) *ReferenceService {
	return &ReferenceService{
		repo:  repo,
		cache: redisCache,
	}
}

// ListClients returns all clients ordered by name
func (s *ReferenceService) ListClients(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client
	if s.cache.Enabled() {
		if err := s.cache.Get(ctx, cache.ClientsCacheKey(), &clients); err == nil {
			return clients, nil
		}
	}

	clients, err := s.repo.ListClients(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cache.ClientsCacheKey(), clients, referenceTTL); err != nil {
			log.Warn().Err(err).Msg("Failed to cache client list")
		}
	}

	return clients, nil
}

// GetClient fetches one client
func (s *ReferenceService) GetClient(ctx context.Context, id uint) (*models.Client, error) {
	return s.repo.FindClientByID(ctx, id)
}

// ListStores returns stores with client names, optionally scoped to one
// client (clientID 0 means all).
func (s *ReferenceService) ListStores(ctx context.Context, clientID uint) ([]models.StoreRow, error) {
	var stores []models.StoreRow
	if s.cache.Enabled() {
		if err := s.cache.Get(ctx, cache.StoresCacheKey(clientID), &stores); err == nil {
			return stores, nil
		}
	}

	stores, err := s.repo.ListStores(ctx, clientID)
	if err != nil {
		return nil, err
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cache.StoresCacheKey(clientID), stores, referenceTTL); err != nil {
			log.Warn().Err(err).Msg("Failed to cache store list")
		}
	}

	return stores, nil
}

// GetStore fetches one store with its client name
func (s *ReferenceService) GetStore(ctx context.Context, id uint) (*models.StoreRow, error) {
	return s.repo.FindStoreByID(ctx, id)
}

// ListDispatchers returns the dispatcher lookup list
func (s *ReferenceService) ListDispatchers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if s.cache.Enabled() {
		if err := s.cache.Get(ctx, cache.DispatchersCacheKey(), &users); err == nil {
			return users, nil
		}
	}

	users, err := s.repo.ListDispatchers(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cache.DispatchersCacheKey(), users, referenceTTL); err != nil {
			log.Warn().Err(err).Msg("Failed to cache dispatcher list")
		}
	}

	return users, nil
}
