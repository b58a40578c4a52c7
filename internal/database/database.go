// Package database 提供 MySQL 连接、事务与迁移功能。
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/MorseWayne/print_shop/internal/config"
)

// DB 封装数据库连接
type DB struct {
	*sql.DB
	logger *zap.Logger
	dsn    string
}

// DSN 根据配置生成连接串；JSON 列按字节读出，时间解析为 UTC
func DSN(cfg config.DatabaseConfig) string {
	c := mysqldrv.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	c.DBName = cfg.DBName
	c.ParseTime = true
	c.Loc = time.UTC
	c.MultiStatements = true // 迁移文件包含多条语句
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

// New 创建数据库连接
func New(cfg *config.Config, logger *zap.Logger) (*DB, error) {
	dsn := DSN(cfg.Database)

	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.DBName),
	)

	return &DB{DB: sqlDB, logger: logger, dsn: dsn}, nil
}

// WithTx 在事务中执行 fn，fn 返回错误或 panic 时回滚
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = fmt.Errorf("%w (rollback: %v)", err, rbErr)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// withMigrate 使用独立连接创建 migrate 实例，避免迁移出错时影响主连接
func (db *DB) withMigrate(migrationsDir string, fn func(m *migrate.Migrate) error) error {
	migrateSQLDB, err := sql.Open("mysql", db.dsn)
	if err != nil {
		return fmt.Errorf("open database for migration: %w", err)
	}
	defer migrateSQLDB.Close()

	driver, err := migratemysql.WithInstance(migrateSQLDB, &migratemysql.Config{})
	if err != nil {
		return fmt.Errorf("create mysql driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "mysql", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	return fn(m)
}

// currentVersion 返回当前版本，脏状态视为错误
func currentVersion(m *migrate.Migrate) (uint, error) {
	v, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("get current version: %w", err)
	}
	if dirty {
		return v, fmt.Errorf("database is in dirty state at version %d, please check and fix manually", v)
	}
	return v, nil
}

// RunMigrations 执行所有待执行的迁移
func (db *DB) RunMigrations(migrationsDir string) error {
	return db.withMigrate(migrationsDir, func(m *migrate.Migrate) error {
		from, err := currentVersion(m)
		if err != nil {
			return err
		}
		db.logger.Info("current migration version", zap.Uint("version", from))

		if err := m.Up(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				db.logger.Info("no new migrations to apply")
				return nil
			}
			return fmt.Errorf("run migrations: %w", err)
		}

		to, _, err := m.Version()
		if err != nil {
			return fmt.Errorf("get new version: %w", err)
		}
		db.logger.Info("migrations completed successfully",
			zap.Uint("from_version", from),
			zap.Uint("to_version", to),
		)
		return nil
	})
}

// MigrateDown 回滚指定步数，生产环境慎用
func (db *DB) MigrateDown(migrationsDir string, steps int) error {
	return db.withMigrate(migrationsDir, func(m *migrate.Migrate) error {
		from, err := currentVersion(m)
		if err != nil {
			return err
		}
		db.logger.Info("starting migration rollback",
			zap.Uint("current_version", from),
			zap.Int("steps", steps),
		)

		if err := m.Steps(-steps); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}

		to, _, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("get new version: %w", err)
		}
		db.logger.Info("migration rollback completed",
			zap.Uint("from_version", from),
			zap.Uint("to_version", to),
		)
		return nil
	})
}

// MigrateToVersion 迁移到指定版本
func (db *DB) MigrateToVersion(migrationsDir string, version uint) error {
	return db.withMigrate(migrationsDir, func(m *migrate.Migrate) error {
		from, err := currentVersion(m)
		if err != nil {
			return err
		}
		db.logger.Info("migrating to specific version",
			zap.Uint("current_version", from),
			zap.Uint("target_version", version),
		)

		if err := m.Migrate(version); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				db.logger.Info("already at target version", zap.Uint("version", version))
				return nil
			}
			return fmt.Errorf("migrate to version %d: %w", version, err)
		}
		return nil
	})
}

// ForceMigrationVersion 强制设置迁移版本，只用于修复脏状态
func (db *DB) ForceMigrationVersion(migrationsDir string, version uint) error {
	return db.withMigrate(migrationsDir, func(m *migrate.Migrate) error {
		db.logger.Warn("forcing migration version", zap.Uint("version", version))
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("force migration version: %w", err)
		}
		return nil
	})
}

// MigrationStatus 当前迁移版本与脏状态；尚未执行任何迁移时版本为 0
func (db *DB) MigrationStatus(migrationsDir string) (version uint, dirty bool, err error) {
	err = db.withMigrate(migrationsDir, func(m *migrate.Migrate) error {
		v, d, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			return fmt.Errorf("get current version: %w", verr)
		}
		version, dirty = v, d
		return nil
	})
	return version, dirty, err
}
