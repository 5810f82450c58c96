package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrItemNotFound = errors.New("cart item not found")

type Repository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Item, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	// FindByIdentity looks a line item up by its identity key
	// (user, product, size, color). Returns ErrItemNotFound when absent.
	FindByIdentity(ctx context.Context, userID, productID uuid.UUID, size, color string) (*Item, error)
	Create(ctx context.Context, item *Item) error
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int, price float64) (*Item, error)
	// Delete removes a line item and returns the deleted row, or nil when the
	// id was already absent.
	Delete(ctx context.Context, id uuid.UUID) (*Item, error)
	// DeleteMany removes all listed items in a single statement, so the batch
	// is atomic: either every present id is gone or none are.
	DeleteMany(ctx context.Context, ids []uuid.UUID) ([]Item, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const itemColumns = `id, user_id, product_id, size, color, quantity, price, created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var item Item
	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.ProductID,
		&item.Size,
		&item.Color,
		&item.Quantity,
		&item.Price,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Item, error) {
	query := `SELECT ` + itemColumns + ` FROM cart_items WHERE user_id = $1 ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cart items for user %s: %w", userID, err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan cart item for user %s: %w", userID, err)
		}
		items = append(items, *item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating cart items for user %s: %w", userID, err)
	}

	return items, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM cart_items WHERE id = $1`

	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("repository: failed to select cart item %s: %w", id, err)
	}

	return item, nil
}

func (r *postgresRepository) FindByIdentity(ctx context.Context, userID, productID uuid.UUID, size, color string) (*Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM cart_items
		WHERE user_id = $1 AND product_id = $2 AND size = $3 AND color = $4
	`

	item, err := scanItem(r.db.QueryRow(ctx, query, userID, productID, size, color))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("repository: failed to find cart item by identity: %w", err)
	}

	return item, nil
}

func (r *postgresRepository) Create(ctx context.Context, item *Item) error {
	if item.ID == uuid.Nil {
		genID, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate cart item ID: %w", err)
		}
		item.ID = genID
	}

	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	query := `
		INSERT INTO cart_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		item.ID,
		item.UserID,
		item.ProductID,
		item.Size,
		item.Color,
		item.Quantity,
		item.Price,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert cart item: %w", err)
	}

	return nil
}

func (r *postgresRepository) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int, price float64) (*Item, error) {
	query := `
		UPDATE cart_items
		SET quantity = $1, price = $2, updated_at = $3
		WHERE id = $4
		RETURNING ` + itemColumns

	item, err := scanItem(r.db.QueryRow(ctx, query, quantity, price, time.Now().UTC(), id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("repository: failed to update cart item %s: %w", id, err)
	}

	return item, nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) (*Item, error) {
	query := `DELETE FROM cart_items WHERE id = $1 RETURNING ` + itemColumns

	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: failed to delete cart item %s: %w", id, err)
	}

	return item, nil
}

func (r *postgresRepository) DeleteMany(ctx context.Context, ids []uuid.UUID) ([]Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `DELETE FROM cart_items WHERE id = ANY($1) RETURNING ` + itemColumns

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to delete cart items: %w", err)
	}
	defer rows.Close()

	deleted := make([]Item, 0, len(ids))
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan deleted cart item: %w", err)
		}
		deleted = append(deleted, *item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating deleted cart items: %w", err)
	}

	return deleted, nil
}

func (r *postgresRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to clear cart for user %s: %w", userID, err)
	}

	return cmdTag.RowsAffected(), nil
}
