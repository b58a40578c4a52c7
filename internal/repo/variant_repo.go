package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/MorseWayne/print_shop/internal/database"
	"github.com/MorseWayne/print_shop/internal/domain"
)

// ErrInsufficientStock 条件扣减未命中（库存不足、规格已下架或不存在）
var ErrInsufficientStock = errors.New("insufficient stock")

// StockDeduction 一次下单扣减项
type StockDeduction struct {
	VariantID int64
	Quantity  int
}

// VariantRepository 规格行库存数据访问接口
type VariantRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Variant, error)
	ListByProduct(ctx context.Context, productID int64) ([]domain.Variant, error)
	// Restock 增加库存并记录流水
	Restock(ctx context.Context, id int64, quantity int, reason string) (*domain.Variant, error)
	// Commit 在一个事务中按条件扣减多行库存，任何一行失败则整体回滚
	Commit(ctx context.Context, orderRef string, items []StockDeduction) error
}

type variantRepo struct {
	db *sql.DB
}

// NewVariantRepository 创建规格仓储实例
func NewVariantRepository(db *sql.DB) VariantRepository {
	return &variantRepo{db: db}
}

const variantColumns = `id, product_id, sku, attributes, stock_quantity, is_active, version`

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func scanVariant(row rowScanner) (*domain.Variant, error) {
	v := &domain.Variant{}
	var attrs []byte
	if err := row.Scan(&v.ID, &v.ProductID, &v.SKU, &attrs, &v.StockQuantity, &v.IsActive, &v.Version); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(attrs, &v.Attributes); err != nil {
		return nil, fmt.Errorf("decode attributes of variant %d: %w", v.ID, err)
	}
	return v, nil
}

func listVariants(ctx context.Context, q queryer, productID int64) ([]domain.Variant, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+variantColumns+` FROM product_variants WHERE product_id = ? ORDER BY id`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query variants: %w", err)
	}
	defer rows.Close()

	variants := []domain.Variant{}
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		variants = append(variants, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate variants: %w", err)
	}
	return variants, nil
}

func insertVariant(ctx context.Context, tx *sql.Tx, v *domain.Variant) error {
	attrs, err := json.Marshal(v.Attributes.Clone())
	if err != nil {
		return fmt.Errorf("encode variant attributes: %w", err)
	}
	result, err := tx.ExecContext(ctx, `
		INSERT INTO product_variants (product_id, sku, attributes, attribute_key, stock_quantity, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
	`, v.ProductID, v.SKU, attrs, v.Attributes.Key(), v.StockQuantity, v.IsActive)
	if err != nil {
		return fmt.Errorf("failed to create variant %s: %w", v.SKU, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	v.ID = id
	v.Version = 1
	return nil
}

// syncVariants 按规范属性键对齐规格行：已有的更新，新的插入，缺失的软下架
func syncVariants(ctx context.Context, tx *sql.Tx, productID int64, variants []domain.Variant) error {
	rows, err := tx.QueryContext(ctx, `SELECT id, attribute_key FROM product_variants WHERE product_id = ?`, productID)
	if err != nil {
		return fmt.Errorf("failed to query variant keys: %w", err)
	}
	existing := make(map[string]int64)
	for rows.Next() {
		var (
			id  int64
			key string
		)
		if err := rows.Scan(&id, &key); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan variant key: %w", err)
		}
		existing[key] = id
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate variant keys: %w", err)
	}

	kept := make([]interface{}, 0, len(variants))
	for i := range variants {
		v := &variants[i]
		v.ProductID = productID
		if id, ok := existing[v.Attributes.Key()]; ok {
			_, err := tx.ExecContext(ctx, `
				UPDATE product_variants
				SET sku = ?, stock_quantity = ?, is_active = ?, version = version + 1
				WHERE id = ?
			`, v.SKU, v.StockQuantity, v.IsActive, id)
			if err != nil {
				return fmt.Errorf("failed to update variant %s: %w", v.SKU, err)
			}
			v.ID = id
		} else if err := insertVariant(ctx, tx, v); err != nil {
			return err
		}
		kept = append(kept, v.ID)
	}

	query := `UPDATE product_variants SET is_active = 0, version = version + 1 WHERE product_id = ? AND is_active = 1`
	args := []interface{}{productID}
	if len(kept) > 0 {
		query += ` AND id NOT IN (` + strings.Repeat("?,", len(kept)-1) + `?)`
		args = append(args, kept...)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to deactivate variants: %w", err)
	}
	return nil
}

// GetByID 根据ID获取规格
func (r *variantRepo) GetByID(ctx context.Context, id int64) (*domain.Variant, error) {
	v, err := scanVariant(r.db.QueryRowContext(ctx, `SELECT `+variantColumns+` FROM product_variants WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get variant by id: %w", err)
	}
	return v, nil
}

// ListByProduct 获取商品的全部规格行
func (r *variantRepo) ListByProduct(ctx context.Context, productID int64) ([]domain.Variant, error) {
	return listVariants(ctx, r.db, productID)
}

// Restock 增加库存
func (r *variantRepo) Restock(ctx context.Context, id int64, quantity int, reason string) (*domain.Variant, error) {
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE product_variants
			SET stock_quantity = stock_quantity + ?, version = version + 1
			WHERE id = ?
		`, quantity, id)
		if err != nil {
			return fmt.Errorf("failed to restock variant: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return sql.ErrNoRows
		}
		return recordMovement(ctx, tx, id, quantity, reason, "")
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Commit 条件扣减：stock_quantity >= ? 且规格在架，否则返回 ErrInsufficientStock
func (r *variantRepo) Commit(ctx context.Context, orderRef string, items []StockDeduction) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, item := range items {
			result, err := tx.ExecContext(ctx, `
				UPDATE product_variants
				SET stock_quantity = stock_quantity - ?, version = version + 1
				WHERE id = ? AND is_active = 1 AND stock_quantity >= ?
			`, item.Quantity, item.VariantID, item.Quantity)
			if err != nil {
				return fmt.Errorf("failed to consume stock: %w", err)
			}
			n, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			if n == 0 {
				return fmt.Errorf("%w: variant %d", ErrInsufficientStock, item.VariantID)
			}
			if err := recordMovement(ctx, tx, item.VariantID, -item.Quantity, "order", orderRef); err != nil {
				return err
			}
		}
		return nil
	})
}

func recordMovement(ctx context.Context, tx *sql.Tx, variantID int64, quantity int, reason, orderRef string) error {
	var ref sql.NullString
	if orderRef != "" {
		ref = sql.NullString{String: orderRef, Valid: true}
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO stock_movements (variant_id, quantity, reason, order_ref)
		VALUES (?, ?, ?, ?)
	`, variantID, quantity, reason, ref)
	if err != nil {
		return fmt.Errorf("failed to record stock movement: %w", err)
	}
	return nil
}
