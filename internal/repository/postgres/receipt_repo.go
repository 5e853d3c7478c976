package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/donalab/dona-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReceiptRepository implements domain.ReceiptArchive using PostgreSQL
type ReceiptRepository struct {
	pool *pgxpool.Pool
}

// NewReceiptRepository creates a new ReceiptRepository
func NewReceiptRepository(pool *pgxpool.Pool) *ReceiptRepository {
	return &ReceiptRepository{pool: pool}
}

// SaveReceipt appends a settled receipt to the archive. Receipts are
// immutable, so conflicts on order_id are ignored rather than updated.
func (r *ReceiptRepository) SaveReceipt(ctx context.Context, receipt *domain.Receipt) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO receipts (order_id, donor, beneficiary, asset, gross_amount, fee, memo, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (order_id) DO NOTHING`,
		receipt.OrderID.String(),
		receipt.Donor.String(),
		receipt.Beneficiary.String(),
		receipt.Asset.String(),
		bigIntToNumeric(receipt.GrossAmount),
		bigIntToNumeric(receipt.Fee),
		receipt.Memo,
		receipt.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("save receipt: %w", err)
	}
	return nil
}

// ReceiptByOrderID retrieves an archived receipt by order id
func (r *ReceiptRepository) ReceiptByOrderID(ctx context.Context, id domain.OrderID) (*domain.Receipt, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT order_id, donor, beneficiary, asset, gross_amount, fee, memo, settled_at
		FROM receipts WHERE order_id = $1`,
		id.String(),
	)
	receipt, err := scanReceipt(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReceiptNotFound
		}
		return nil, err
	}
	return receipt, nil
}

// RecentReceipts lists archived receipts newest-first
func (r *ReceiptRepository) RecentReceipts(ctx context.Context, limit int) ([]*domain.Receipt, error) {
	if limit <= 0 {
		limit = domain.DefaultListLimit
	}
	if limit > domain.MaxListLimit {
		limit = domain.MaxListLimit
	}

	rows, err := r.pool.Query(ctx, `
		SELECT order_id, donor, beneficiary, asset, gross_amount, fee, memo, settled_at
		FROM receipts ORDER BY settled_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receipts []*domain.Receipt
	for rows.Next() {
		receipt, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, receipt)
	}
	return receipts, rows.Err()
}

func scanReceipt(row pgx.Row) (*domain.Receipt, error) {
	var (
		receipt     domain.Receipt
		orderID     string
		donor       string
		beneficiary string
		asset       string
		gross       pgtype.Numeric
		fee         pgtype.Numeric
	)
	if err := row.Scan(&orderID, &donor, &beneficiary, &asset, &gross, &fee, &receipt.Memo, &receipt.Timestamp); err != nil {
		return nil, err
	}

	id, err := domain.ParseOrderID(orderID)
	if err != nil {
		return nil, fmt.Errorf("corrupt order id %q: %w", orderID, err)
	}
	receipt.OrderID = id
	receipt.Donor = domain.Address(donor)
	receipt.Beneficiary = domain.Address(beneficiary)
	receipt.Asset = domain.Address(asset)

	if receipt.GrossAmount, err = numericToBigInt(gross); err != nil {
		return nil, err
	}
	if receipt.Fee, err = numericToBigInt(fee); err != nil {
		return nil, err
	}
	return &receipt, nil
}
