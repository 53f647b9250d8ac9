package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joao-fontenele/dashboard-storefront/internal/domain"
)

// Memory is a read-only catalog held in process, used when no database is configured.
type Memory struct {
	products []domain.Product
	bySlug   map[string]int
}

type catalogFile struct {
	Products []domain.Product `yaml:"products"`
}

func NewMemory(products []domain.Product) (*Memory, error) {
	m := &Memory{
		products: make([]domain.Product, 0, len(products)),
		bySlug:   make(map[string]int, len(products)),
	}
	for _, p := range products {
		if p.Slug == "" {
			return nil, fmt.Errorf("product %q has no slug", p.ID)
		}
		if strings.Contains(p.Slug, domain.SlugSeparator) {
			return nil, fmt.Errorf("slug %q must not contain %q", p.Slug, domain.SlugSeparator)
		}
		if _, dup := m.bySlug[p.Slug]; dup {
			return nil, fmt.Errorf("duplicate slug %q", p.Slug)
		}
		if p.Price < 0 {
			return nil, fmt.Errorf("product %q has a negative price", p.Slug)
		}
		if len(p.Currency) != 3 {
			return nil, fmt.Errorf("product %q has invalid currency %q", p.Slug, p.Currency)
		}
		m.bySlug[p.Slug] = len(m.products)
		m.products = append(m.products, p)
	}
	return m, nil
}

func LoadFile(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}

	return NewMemory(file.Products)
}

func (m *Memory) Lookup(_ context.Context, slug string) (domain.Product, bool, error) {
	i, ok := m.bySlug[slug]
	if !ok {
		return domain.Product{}, false, nil
	}
	return m.products[i], true, nil
}

func (m *Memory) List(_ context.Context) ([]domain.Product, error) {
	products := make([]domain.Product, len(m.products))
	copy(products, m.products)
	return products, nil
}
