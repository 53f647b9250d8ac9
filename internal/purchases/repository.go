package purchases

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/joao-fontenele/dashboard-storefront/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create records a paid checkout once per provider session. created is false when the
// session was already recorded, which is how repeated webhook deliveries are detected.
func (r *Repository) Create(ctx context.Context, checkout domain.CompletedCheckout) (purchase *domain.Purchase, created bool, err error) {
	purchase = &domain.Purchase{
		ID:            uuid.New().String(),
		SessionID:     checkout.SessionID,
		CustomerName:  checkout.CustomerName,
		CustomerEmail: checkout.CustomerEmail,
		Slugs:         checkout.Slugs,
		AmountTotal:   checkout.AmountTotal,
		Currency:      checkout.Currency,
		Status:        domain.PurchaseStatusPaid,
		CreatedAt:     time.Now().UTC(),
	}

	err = r.db.QueryRowContext(ctx, `
		INSERT INTO purchases (id, session_id, customer_name, customer_email, slugs, amount_total, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (session_id) DO NOTHING
		RETURNING id
	`, purchase.ID, purchase.SessionID, purchase.CustomerName, purchase.CustomerEmail, pq.Array(purchase.Slugs),
		purchase.AmountTotal, purchase.Currency, purchase.Status, purchase.CreatedAt).Scan(&purchase.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return purchase, true, nil
}

func (r *Repository) GetBySessionID(ctx context.Context, sessionID string) (*domain.Purchase, error) {
	p := &domain.Purchase{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, session_id, customer_name, customer_email, slugs, amount_total, currency, status, created_at
		FROM purchases
		WHERE session_id = $1
	`, sessionID).Scan(&p.ID, &p.SessionID, &p.CustomerName, &p.CustomerEmail, pq.Array(&p.Slugs),
		&p.AmountTotal, &p.Currency, &p.Status, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return p, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, sessionID string, status domain.PurchaseStatus) (*domain.Purchase, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE purchases SET status = $1, updated_at = NOW()
		WHERE session_id = $2
	`, status, sessionID)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetBySessionID(ctx, sessionID)
}
