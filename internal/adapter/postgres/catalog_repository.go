package postgres

import (
	"context"
	"errors"
	"fmt"

	"pizza-backoffice/internal/domain"
	"pizza-backoffice/internal/interfaces"

	"github.com/jackc/pgx/v5"
)

type catalogRepository struct {
	db DB
}

func NewCatalogRepository(db DB) interfaces.CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) ListActive(ctx context.Context) ([]*domain.PizzaItem, error) {
	query := `
		SELECT id, name, description, base_price, image_url, category, is_active
		FROM pizza_items
		WHERE is_active = true
		ORDER BY id ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query pizza items: %w: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	var items []*domain.PizzaItem
	for rows.Next() {
		var item domain.PizzaItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.BasePrice,
			&item.ImageURL, &item.Category, &item.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan pizza item: %w: %w", domain.ErrStorage, err)
		}
		items = append(items, &item)
	}

	return items, rows.Err()
}

func (r *catalogRepository) GetByID(ctx context.Context, id int) (*domain.PizzaItem, error) {
	query := `
		SELECT id, name, description, base_price, image_url, category, is_active
		FROM pizza_items
		WHERE id = $1
	`
	var item domain.PizzaItem
	err := r.db.QueryRow(ctx, query, id).Scan(&item.ID, &item.Name, &item.Description,
		&item.BasePrice, &item.ImageURL, &item.Category, &item.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("pizza item %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load pizza item: %w: %w", domain.ErrStorage, err)
	}
	return &item, nil
}
