package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/MorseWayne/print_shop/internal/domain"
)

// PrintSurfaceRepository 印刷面数据访问接口
type PrintSurfaceRepository interface {
	Create(ctx context.Context, surface *domain.PrintSurface) error
	GetBySlug(ctx context.Context, slug string) (*domain.PrintSurface, error)
	// Update 乐观锁更新：version 必须等于当前版本，成功后版本加一
	Update(ctx context.Context, surface *domain.PrintSurface) (bool, error)
	SetActive(ctx context.Context, slug string, active bool) error
	// ListAll 按 id 顺序返回全部印刷面（包括停用的）
	ListAll(ctx context.Context) ([]domain.PrintSurface, error)
}

type printSurfaceRepo struct {
	db *sql.DB
}

// NewPrintSurfaceRepository 创建印刷面仓储实例
func NewPrintSurfaceRepository(db *sql.DB) PrintSurfaceRepository {
	return &printSurfaceRepo{db: db}
}

// surfaceDefinition definition 列的JSON结构，三种形态只有一个非空
type surfaceDefinition struct {
	Area   *domain.Area         `json:"area,omitempty"`
	Views  []domain.NamedView   `json:"views,omitempty"`
	Models []domain.ModelLayout `json:"models,omitempty"`
}

const surfaceColumns = `id, slug, name, kind, definition, product_types, single_occupancy, is_active, version, created_at, updated_at`

func marshalSurface(s *domain.PrintSurface) (definition, productTypes []byte, err error) {
	definition, err = json.Marshal(surfaceDefinition{Area: s.Area, Views: s.Views, Models: s.Models})
	if err != nil {
		return nil, nil, fmt.Errorf("encode surface definition: %w", err)
	}
	types := s.ProductTypes
	if types == nil {
		types = []string{}
	}
	productTypes, err = json.Marshal(types)
	if err != nil {
		return nil, nil, fmt.Errorf("encode product types: %w", err)
	}
	return definition, productTypes, nil
}

func scanSurface(row rowScanner) (*domain.PrintSurface, error) {
	s := &domain.PrintSurface{}
	var definition, productTypes []byte
	err := row.Scan(
		&s.ID,
		&s.Slug,
		&s.Name,
		&s.Kind,
		&definition,
		&productTypes,
		&s.SingleOccupancy,
		&s.IsActive,
		&s.Version,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	var def surfaceDefinition
	if err := json.Unmarshal(definition, &def); err != nil {
		return nil, fmt.Errorf("decode definition of surface %s: %w", s.Slug, err)
	}
	s.Area, s.Views, s.Models = def.Area, def.Views, def.Models
	if err := json.Unmarshal(productTypes, &s.ProductTypes); err != nil {
		return nil, fmt.Errorf("decode product types of surface %s: %w", s.Slug, err)
	}
	return s, nil
}

// Create 创建印刷面
func (r *printSurfaceRepo) Create(ctx context.Context, s *domain.PrintSurface) error {
	definition, productTypes, err := marshalSurface(s)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO print_surfaces (slug, name, kind, definition, product_types, single_occupancy, is_active, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1)
	`, s.Slug, s.Name, s.Kind, definition, productTypes, s.SingleOccupancy, s.IsActive)
	if err != nil {
		return fmt.Errorf("failed to create print surface: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	s.ID = id
	s.Version = 1
	return nil
}

// GetBySlug 根据 slug 获取印刷面
func (r *printSurfaceRepo) GetBySlug(ctx context.Context, slug string) (*domain.PrintSurface, error) {
	s, err := scanSurface(r.db.QueryRowContext(ctx, `SELECT `+surfaceColumns+` FROM print_surfaces WHERE slug = ?`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get print surface by slug: %w", err)
	}
	return s, nil
}

// Update 乐观锁更新印刷面
func (r *printSurfaceRepo) Update(ctx context.Context, s *domain.PrintSurface) (bool, error) {
	definition, productTypes, err := marshalSurface(s)
	if err != nil {
		return false, err
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE print_surfaces
		SET name = ?, kind = ?, definition = ?, product_types = ?, single_occupancy = ?, is_active = ?, version = version + 1
		WHERE slug = ? AND version = ?
	`, s.Name, s.Kind, definition, productTypes, s.SingleOccupancy, s.IsActive, s.Slug, s.Version)
	if err != nil {
		return false, fmt.Errorf("failed to update print surface: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	s.Version++
	return true, nil
}

// SetActive 启用/停用印刷面
func (r *printSurfaceRepo) SetActive(ctx context.Context, slug string, active bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE print_surfaces SET is_active = ?, version = version + 1 WHERE slug = ?`, active, slug)
	if err != nil {
		return fmt.Errorf("failed to set print surface active: %w", err)
	}
	return nil
}

// ListAll 获取全部印刷面
func (r *printSurfaceRepo) ListAll(ctx context.Context) ([]domain.PrintSurface, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+surfaceColumns+` FROM print_surfaces ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query print surfaces: %w", err)
	}
	defer rows.Close()

	surfaces := []domain.PrintSurface{}
	for rows.Next() {
		s, err := scanSurface(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan print surface: %w", err)
		}
		surfaces = append(surfaces, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate print surfaces: %w", err)
	}
	return surfaces, nil
}
