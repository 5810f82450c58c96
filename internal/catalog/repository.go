package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var ErrProductNotFound = errors.New("product not found")

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	Category     string
	FeaturedOnly bool
	Limit        int
}

type Repository interface {
	Create(ctx context.Context, product *Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	Update(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter) ([]Product, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const productColumns = `id, name, brand, description, category, price, original_price,
		images, sizes, colors, rating, review_count, in_stock, featured, created_at, updated_at`

func (r *postgresRepository) Create(ctx context.Context, product *Product) error {
	if product.ID == uuid.Nil {
		genID, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate product ID: %w", err)
		}
		product.ID = genID
	}

	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := r.db.Exec(ctx, query,
		product.ID,
		product.Name,
		product.Brand,
		product.Description,
		product.Category,
		product.Price,
		product.OriginalPrice,
		product.Images,
		product.Sizes,
		product.Colors,
		product.Rating,
		product.ReviewCount,
		product.InStock,
		product.Featured,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert product: %w", err)
	}

	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var p Product
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Brand,
		&p.Description,
		&p.Category,
		&p.Price,
		&p.OriginalPrice,
		&p.Images,
		&p.Sizes,
		&p.Colors,
		&p.Rating,
		&p.ReviewCount,
		&p.InStock,
		&p.Featured,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product by id %s: %w", id, err)
	}

	return &p, nil
}

func (r *postgresRepository) Update(ctx context.Context, product *Product) error {
	product.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE products
		SET name = $1, brand = $2, description = $3, category = $4, price = $5,
			original_price = $6, images = $7, sizes = $8, colors = $9, rating = $10,
			review_count = $11, in_stock = $12, featured = $13, updated_at = $14
		WHERE id = $15
	`
	cmdTag, err := r.db.Exec(ctx, query,
		product.Name,
		product.Brand,
		product.Description,
		product.Category,
		product.Price,
		product.OriginalPrice,
		product.Images,
		product.Sizes,
		product.Colors,
		product.Rating,
		product.ReviewCount,
		product.InStock,
		product.Featured,
		product.UpdatedAt,
		product.ID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update product %s: %w", product.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete product %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	log.Info().Stringer("product_id", id).Msg("repository: product deleted")
	return nil
}

func (r *postgresRepository) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	args := []any{}
	argPos := 1

	where := ""
	if filter.Category != "" {
		where = fmt.Sprintf(" WHERE category = $%d", argPos)
		args = append(args, filter.Category)
		argPos++
	}
	if filter.FeaturedOnly {
		if where == "" {
			where = " WHERE featured = TRUE"
		} else {
			where += " AND featured = TRUE"
		}
	}
	query += where + " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, filter.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		var p Product
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Brand,
			&p.Description,
			&p.Category,
			&p.Price,
			&p.OriginalPrice,
			&p.Images,
			&p.Sizes,
			&p.Colors,
			&p.Rating,
			&p.ReviewCount,
			&p.InStock,
			&p.Featured,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating products: %w", err)
	}

	return products, nil
}
