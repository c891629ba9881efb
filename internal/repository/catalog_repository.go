package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/mechanic-backend/internal/models"
)

type CatalogRepository struct {
	db *sqlx.DB
}

func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.SelectContext(ctx, &categories, `
		SELECT id, name, slug FROM service_categories ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("catalog repository: list categories %w", err)
	}
	return categories, nil
}
