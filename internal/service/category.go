// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cardcycle/cardcycle/internal/metrics"
	"github.com/cardcycle/cardcycle/internal/model"
	"github.com/cardcycle/cardcycle/internal/repository"
)

// CategoryService handles category business logic.
type CategoryService struct {
	store   Store
	metrics metrics.Recorder
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(store Store, recorder metrics.Recorder) *CategoryService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CategoryService{store: store, metrics: recorder}
}

// Create creates a category explicitly. Unlike the implicit resolution done by
// expense writes, a duplicate name is reported as ErrCategoryExists.
func (s *CategoryService) Create(ctx context.Context, ownerID, name string) (*model.Category, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}

	ts := now()
	category := &model.Category{
		ID:        newID(),
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, translate(err)
	}

	s.metrics.IncRecordCreated(metrics.KindCategory)
	return category, nil
}

// GetOrCreate returns the owner's category with the given name, creating it if needed.
func (s *CategoryService) GetOrCreate(ctx context.Context, ownerID, name string) (*model.Category, error) {
	return resolveCategory(ctx, s.store, s.metrics, ownerID, name)
}

// Get retrieves one of the owner's categories.
func (s *CategoryService) Get(ctx context.Context, ownerID, id string) (*model.Category, error) {
	category, err := s.store.GetCategoryByID(ctx, ownerID, id)
	if err != nil {
		return nil, translate(err)
	}
	return category, nil
}

// List returns a page of the owner's categories, newest first.
func (s *CategoryService) List(ctx context.Context, input ListInput) (*ListOutput[*model.Category], error) {
	page := input.page()
	items, next, err := s.store.ListCategories(ctx, page)
	if err != nil {
		return nil, translate(err)
	}
	return newListOutput(items, next), nil
}

// Rename replaces a category's name. Expenses keep referencing the same row.
func (s *CategoryService) Rename(ctx context.Context, ownerID, id, name string) (*model.Category, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}

	category, err := s.store.GetCategoryByID(ctx, ownerID, id)
	if err != nil {
		return nil, translate(err)
	}

	category.Name = name
	category.UpdatedAt = now()
	if err := s.store.UpdateCategory(ctx, category); err != nil {
		return nil, translate(err)
	}

	s.metrics.IncRecordUpdated(metrics.KindCategory)
	return category, nil
}

// Delete removes a category no expense references.
func (s *CategoryService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteCategory(ctx, ownerID, id); err != nil {
		return translate(err)
	}
	s.metrics.IncRecordDeleted(metrics.KindCategory)
	return nil
}

// resolveCategory returns the owner's category named name, creating it when
// absent. Creation relies on the store's (owner, name) uniqueness: when a
// concurrent writer inserts the same name first, the row it stored is used.
func resolveCategory(ctx context.Context, store CategoryStore, recorder metrics.Recorder, ownerID, name string) (*model.Category, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}

	existing, err := store.GetCategoryByName(ctx, ownerID, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrCategoryNotFound) {
		return nil, fmt.Errorf("failed to look up category: %w", err)
	}

	ts := now()
	category := &model.Category{
		ID:        newID(),
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	if err := store.CreateCategory(ctx, category); err != nil {
		if !errors.Is(err, repository.ErrCategoryExists) {
			return nil, fmt.Errorf("failed to create category: %w", err)
		}

		winner, err := store.GetCategoryByName(ctx, ownerID, name)
		if err != nil {
			return nil, fmt.Errorf("failed to re-read category after conflict: %w", err)
		}
		recorder.IncCategoryRaceRecovered()
		return winner, nil
	}

	recorder.IncCategoryAutoCreated()
	return category, nil
}
