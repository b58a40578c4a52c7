// Package repo 实现数据访问层，负责与数据库的交互。
package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MorseWayne/print_shop/internal/database"
	"github.com/MorseWayne/print_shop/internal/domain"
)

// ProductRepository 定义商品聚合（商品 + 规格行）的数据访问接口
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	// Update 更新商品；replaceVariants 为 true 时同步规格行（未出现的旧规格软下架）
	Update(ctx context.Context, product *domain.Product, replaceVariants bool) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, req *domain.ProductListRequest) ([]*domain.Product, int64, error)
}

// productRepo 实现ProductRepository接口
type productRepo struct {
	db *sql.DB
}

// NewProductRepository 创建商品仓储实例
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepo{db: db}
}

const productColumns = `id, name, description, type, price, status, image_url, customization, attributes, created_at, updated_at`

// Create 在同一事务中创建商品及其规格行
func (r *productRepo) Create(ctx context.Context, product *domain.Product) error {
	customization, attributes, err := marshalProductJSON(product)
	if err != nil {
		return err
	}

	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO products (name, description, type, price, status, image_url, customization, attributes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			product.Name,
			product.Description,
			product.Type,
			product.Price,
			product.Status,
			product.ImageURL,
			customization,
			attributes,
		)
		if err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		product.ID = id

		for i := range product.ProductConfig.Variants {
			v := &product.ProductConfig.Variants[i]
			v.ProductID = id
			if err := insertVariant(ctx, tx, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID 根据ID获取商品（含全部规格行，包括已下架的）
func (r *productRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ? AND status != 'deleted'`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product by id: %w", err)
	}

	variants, err := listVariants(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	product.ProductConfig.Variants = variants
	return product, nil
}

// Update 更新商品
func (r *productRepo) Update(ctx context.Context, product *domain.Product, replaceVariants bool) error {
	customization, attributes, err := marshalProductJSON(product)
	if err != nil {
		return err
	}

	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE products
			SET name = ?, description = ?, type = ?, price = ?, status = ?, image_url = ?, customization = ?, attributes = ?
			WHERE id = ?
		`,
			product.Name,
			product.Description,
			product.Type,
			product.Price,
			product.Status,
			product.ImageURL,
			customization,
			attributes,
			product.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		if !replaceVariants {
			return nil
		}
		return syncVariants(ctx, tx, product.ID, product.ProductConfig.Variants)
	})
}

// Delete 软删除商品，规格行一并下架
func (r *productRepo) Delete(ctx context.Context, id int64) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE products SET status = 'deleted' WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE product_variants SET is_active = 0 WHERE product_id = ?`, id); err != nil {
			return fmt.Errorf("failed to deactivate variants: %w", err)
		}
		return nil
	})
}

// List 获取商品列表（不含规格行）
func (r *productRepo) List(ctx context.Context, req *domain.ProductListRequest) ([]*domain.Product, int64, error) {
	where, args := buildProductWhereClause(req)

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := `SELECT ` + productColumns + ` FROM products ` + where + ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, req.PageSize, (req.Page-1)*req.PageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate products: %w", err)
	}

	return products, total, nil
}

func buildProductWhereClause(req *domain.ProductListRequest) (string, []interface{}) {
	conditions := []string{"status != 'deleted'"}
	var args []interface{}

	if req.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *req.Status)
	}
	if req.Type != nil && *req.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, *req.Type)
	}
	if req.Keyword != nil && *req.Keyword != "" {
		conditions = append(conditions, "(name LIKE ? OR description LIKE ?)")
		keyword := "%" + *req.Keyword + "%"
		args = append(args, keyword, keyword)
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	var (
		description   sql.NullString
		customization []byte
		attributes    []byte
	)
	err := row.Scan(
		&product.ID,
		&product.Name,
		&description,
		&product.Type,
		&product.Price,
		&product.Status,
		&product.ImageURL,
		&customization,
		&attributes,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	product.Description = description.String
	if len(customization) > 0 {
		if err := json.Unmarshal(customization, &product.Customization); err != nil {
			return nil, fmt.Errorf("decode customization of product %d: %w", product.ID, err)
		}
	}
	if len(attributes) > 0 {
		if err := json.Unmarshal(attributes, &product.ProductConfig.Attributes); err != nil {
			return nil, fmt.Errorf("decode attributes of product %d: %w", product.ID, err)
		}
	}
	return product, nil
}

func marshalProductJSON(product *domain.Product) ([]byte, []byte, error) {
	customization, err := json.Marshal(product.Customization)
	if err != nil {
		return nil, nil, fmt.Errorf("encode customization: %w", err)
	}
	axes := product.ProductConfig.Attributes
	if axes == nil {
		axes = []domain.AttributeAxis{}
	}
	attributes, err := json.Marshal(axes)
	if err != nil {
		return nil, nil, fmt.Errorf("encode attributes: %w", err)
	}
	return customization, attributes, nil
}
