package order

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

var ErrOrderNotFound = errors.New("order not found")

type Repository interface {
	// Create persists the order and its lines in one transaction. IDs and
	// timestamps are assigned here.
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, orderInput *Order) (err error) {
	orderID := orderInput.ID
	if orderID == uuid.Nil {
		genID, genErr := uuid.NewV4()
		if genErr != nil {
			return fmt.Errorf("repository: failed to generate order ID: %w", genErr)
		}
		orderID = genID
	}
	orderInput.ID = orderID

	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", orderID).Msg("repository: failed to rollback after panic")
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", orderID).Msg("repository: failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	now := time.Now().UTC()
	orderInput.CreatedAt = now
	orderInput.UpdatedAt = now

	queryOrder := `
		INSERT INTO orders (id, user_id, total, status, street, city, province, zip_code, phone, payment_method, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = tx.Exec(ctx, queryOrder,
		orderID,
		orderInput.UserID,
		orderInput.Total,
		string(orderInput.Status),
		orderInput.ShippingAddress.Street,
		orderInput.ShippingAddress.City,
		orderInput.ShippingAddress.Province,
		orderInput.ShippingAddress.ZipCode,
		orderInput.ShippingAddress.Phone,
		string(orderInput.PaymentMethod),
		orderInput.CreatedAt,
		orderInput.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}

	queryItem := `
		INSERT INTO order_items (id, order_id, product_id, name, unit_price, quantity, size, color)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for i := range orderInput.Items {
		item := &orderInput.Items[i]

		itemID, genErr := uuid.NewV4()
		if genErr != nil {
			err = fmt.Errorf("repository: failed to generate order item ID: %w", genErr)
			return err
		}
		item.ID = itemID
		item.OrderID = orderID

		_, err = tx.Exec(ctx, queryItem,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Name,
			item.UnitPrice,
			item.Quantity,
			item.Size,
			item.Color,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to insert order item for order %s: %w", orderID, err)
		}
	}

	return nil
}

const orderColumns = `id, user_id, total, status, street, city, province, zip_code, phone, payment_method, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.Total,
		&o.Status,
		&o.ShippingAddress.Street,
		&o.ShippingAddress.City,
		&o.ShippingAddress.Province,
		&o.ShippingAddress.ZipCode,
		&o.ShippingAddress.Phone,
		&o.PaymentMethod,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	order, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", orderID, err)
	}

	queryItems := `
		SELECT id, order_id, product_id, name, unit_price, quantity, size, color
		FROM order_items
		WHERE order_id = $1
	`
	rows, err := r.db.Query(ctx, queryItems, orderID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items for order %s: %w", orderID, err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var item Item
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Name,
			&item.UnitPrice,
			&item.Quantity,
			&item.Size,
			&item.Color,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item for order %s: %w", orderID, err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items for order %s: %w", orderID, err)
	}

	order.Items = items
	return order, nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus Status) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	cmdTag, err := r.db.Exec(ctx, query, string(newStatus), time.Now().UTC(), orderID)
	if err != nil {
		return fmt.Errorf("repository: failed to update order status %s: %w", orderID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders for user %s: %w", userID, err)
	}
	return r.collectOrders(ctx, rows)
}

func (r *postgresRepository) ListAll(ctx context.Context) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	return r.collectOrders(ctx, rows)
}

// collectOrders scans the order rows, then attaches every order's lines with
// a single ANY() query.
func (r *postgresRepository) collectOrders(ctx context.Context, orderRows pgx.Rows) ([]Order, error) {
	defer orderRows.Close()

	ordersMap := make(map[uuid.UUID]*Order)
	var orderIDs []uuid.UUID

	for orderRows.Next() {
		order, err := scanOrder(orderRows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		order.Items = make([]Item, 0)
		ordersMap[order.ID] = order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := orderRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}

	if len(orderIDs) == 0 {
		return []Order{}, nil
	}

	queryItems := `
		SELECT id, order_id, product_id, name, unit_price, quantity, size, color
		FROM order_items
		WHERE order_id = ANY($1)
	`
	itemRows, err := r.db.Query(ctx, queryItems, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item Item
		err := itemRows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Name,
			&item.UnitPrice,
			&item.Quantity,
			&item.Size,
			&item.Color,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		if order, ok := ordersMap[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}

	if err = itemRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items: %w", err)
	}

	result := make([]Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		if order, ok := ordersMap[id]; ok {
			result = append(result, *order)
		}
	}

	return result, nil
}
