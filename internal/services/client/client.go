// Package services содержит бизнес-логику управления карточками клиентов,
// включая кеширование и загруженные изображения профиля.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/billing-manager/internal/models"
)

// ClientRepository определяет методы для работы с клиентами в хранилище.
type ClientRepository interface {
	// CreateClient добавляет нового клиента и возвращает его ID.
	CreateClient(ctx context.Context, client models.Client) (string, error)
	// ReadClient возвращает клиента по ID.
	ReadClient(ctx context.Context, id string) (*models.Client, error)
	// ListClients возвращает всех клиентов, сначала новые.
	ListClients(ctx context.Context) ([]*models.Client, error)
	// UpdateClient обновляет данные клиента по ID.
	UpdateClient(ctx context.Context, client models.Client, id string) (int, error)
	// RemoveClient удаляет клиента по ID.
	RemoveClient(ctx context.Context, id string) (int, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// ClientService реализует бизнес-логику работы с клиентами.
type ClientService struct {
	repo  ClientRepository
	cache Cache
	log   *slog.Logger
}

// NewClientService создает новый экземпляр ClientService.
func NewClientService(repo ClientRepository, cache Cache, log *slog.Logger) *ClientService {
	return &ClientService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// SplitTags разбирает строку тегов через запятую в список, отбрасывая
// пустые элементы.
func SplitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	var tags []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

// Create создает клиента и возвращает его ID. imagePath — относительный
// путь к загруженному изображению профиля, пустая строка если его нет.
func (s *ClientService) Create(ctx context.Context, req models.DummyClient, imagePath string) (string, error) {
	client := models.Client{
		ID:      uuid.NewString(),
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
		Company: req.Company,
		Notes:   req.Notes,
		Tags:    SplitTags(req.Tags),
		Image:   imagePath,
	}

	id, err := s.repo.CreateClient(ctx, client)
	if err != nil {
		return "", err
	}
	s.log.Info("created new client", slog.String("id", id))

	cacheKey := fmt.Sprintf("client:%s", id)
	client.ID = id
	if err := s.cache.Set(cacheKey, client, time.Hour); err != nil {
		s.log.Warn("failed to cache client", slog.String("key", cacheKey), slog.Any("err", err))
	}

	return id, nil
}

// Read возвращает клиента по ID, используя кеш или репозиторий.
func (s *ClientService) Read(ctx context.Context, id string) (*models.Client, error) {
	var result *models.Client
	cacheKey := fmt.Sprintf("client:%s", id)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		return nil, err
	}
	if found {
		return result, nil
	}
	result, err = s.repo.ReadClient(ctx, id)
	if err != nil {
		return nil, err
	}

	if result != nil {
		if err := s.cache.Set(cacheKey, result, time.Hour); err != nil {
			s.log.Warn("failed to add to cache", slog.String("key", cacheKey),
				slog.Any("err", err))
		}
	}
	return result, nil
}

// List возвращает всех клиентов.
func (s *ClientService) List(ctx context.Context) ([]*models.Client, error) {
	return s.repo.ListClients(ctx)
}

// Update обновляет клиента. Пустой imagePath сохраняет прежнее изображение.
func (s *ClientService) Update(ctx context.Context, req models.DummyClient, id, imagePath string) (int, error) {
	if imagePath == "" {
		existing, err := s.repo.ReadClient(ctx, id)
		if err != nil {
			return 0, err
		}
		imagePath = existing.Image
	}

	client := models.Client{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
		Company: req.Company,
		Notes:   req.Notes,
		Tags:    SplitTags(req.Tags),
		Image:   imagePath,
	}

	cacheKey := fmt.Sprintf("client:%s", id)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", cacheKey), slog.Any("err", err))
	}

	return s.repo.UpdateClient(ctx, client, id)
}

// Remove удаляет клиента по ID и инвалидирует кеш.
func (s *ClientService) Remove(ctx context.Context, id string) (int, error) {
	cacheKey := fmt.Sprintf("client:%s", id)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return s.repo.RemoveClient(ctx, id)
}
