package catalog

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productColumns = []string{"id", "slug", "name", "short_description", "price", "currency", "download_url"}

func TestRepository_Lookup(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	query := regexp.QuoteMeta("SELECT id, slug, name, short_description, price, currency, download_url FROM products WHERE slug = $1 AND active")

	mock.ExpectQuery(query).
		WithArgs("lookze-pro").
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow("prod_lookze_pro", "lookze-pro", "Lookze Pro", "Analytics dashboard template", 4900, "EUR", "https://downloads.example.com/lookze-pro.zip"))

	p, found, err := repo.Lookup(ctx, "lookze-pro")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "prod_lookze_pro", p.ID)
	assert.Equal(t, int64(4900), p.Price)
	assert.Equal(t, "EUR", p.Currency)

	mock.ExpectQuery(query).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(productColumns))

	_, found, err = repo.Lookup(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, found)

	mock.ExpectQuery(query).
		WithArgs("lookze-pro").
		WillReturnError(errors.New("connection refused"))

	_, _, err = repo.Lookup(ctx, "lookze-pro")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, slug, name, short_description, price, currency, download_url FROM products WHERE active ORDER BY position, slug")).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow("prod_lookze_pro", "lookze-pro", "Lookze Pro", "Analytics", 4900, "EUR", "https://d/lookze.zip").
			AddRow("prod_metrica_lite", "metrica-lite", "Metrica Lite", "Admin", 1999, "EUR", "https://d/metrica.zip"))

	products, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "lookze-pro", products[0].Slug)
	assert.Equal(t, "metrica-lite", products[1].Slug)

	assert.NoError(t, mock.ExpectationsWereMet())
}
