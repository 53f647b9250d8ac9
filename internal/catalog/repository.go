package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/joao-fontenele/dashboard-storefront/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Lookup(ctx context.Context, slug string) (domain.Product, bool, error) {
	var p domain.Product

	err := r.db.QueryRowContext(ctx, `
		SELECT id, slug, name, short_description, price, currency, download_url
		FROM products
		WHERE slug = $1 AND active
	`, slug).Scan(&p.ID, &p.Slug, &p.Name, &p.ShortDescription, &p.Price, &p.Currency, &p.DownloadURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, false, nil
		}
		return domain.Product{}, false, err
	}

	return p, true, nil
}

func (r *Repository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, slug, name, short_description, price, currency, download_url
		FROM products
		WHERE active
		ORDER BY position, slug
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Slug, &p.Name, &p.ShortDescription, &p.Price, &p.Currency, &p.DownloadURL); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}
