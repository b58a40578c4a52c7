// Package main 数据库迁移命令行工具，负责商品、规格与印刷面配置表的结构变更
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/MorseWayne/print_shop/internal/config"
	"github.com/MorseWayne/print_shop/internal/database"
	"github.com/MorseWayne/print_shop/internal/logger"
)

// options 命令行参数
type options struct {
	action string
	steps  int
	target uint
	dir    string
}

// migrator 迁移操作，便于在测试中替换
type migrator interface {
	RunMigrations(dir string) error
	MigrateDown(dir string, steps int) error
	MigrateToVersion(dir string, version uint) error
	ForceMigrationVersion(dir string, version uint) error
	MigrationStatus(dir string) (uint, bool, error)
}

func parseOptions(args []string, output io.Writer) (*options, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(output)
	opts := &options{}
	fs.StringVar(&opts.action, "action", "up", "up, down, version, force or status")
	fs.IntVar(&opts.steps, "steps", 1, "number of migrations to roll back with -action=down")
	fs.UintVar(&opts.target, "target", 0, "target version for -action=version or -action=force")
	fs.StringVar(&opts.dir, "dir", "", "migrations directory, defaults to MIGRATIONS_DIR")
	fs.Usage = func() {
		fmt.Fprintf(output, "Usage: migrate -action=[up|down|version|force|status] [options]\n\n")
		fs.PrintDefaults()
		fmt.Fprintf(output, "\nExamples:\n  migrate -action=up\n  migrate -action=down -steps=1\n  migrate -action=version -target=1\n  migrate -action=force -target=0\n")
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch opts.action {
	case "up", "status", "force":
	case "down":
		if opts.steps <= 0 {
			return nil, errors.New("steps must be positive for down migration")
		}
	case "version":
		if opts.target == 0 {
			return nil, errors.New("target version must be specified for version migration")
		}
	default:
		fs.Usage()
		return nil, fmt.Errorf("unknown action %q", opts.action)
	}
	return opts, nil
}

func run(opts *options, m migrator, lg *zap.Logger) error {
	switch opts.action {
	case "up":
		lg.Info("running up migrations...")
		if err := m.RunMigrations(opts.dir); err != nil {
			return fmt.Errorf("run up migrations: %w", err)
		}
	case "down":
		lg.Sugar().Infow("running down migrations", "steps", opts.steps)
		if err := m.MigrateDown(opts.dir, opts.steps); err != nil {
			return fmt.Errorf("run down migrations: %w", err)
		}
	case "version":
		lg.Sugar().Infow("migrating to version", "target", opts.target)
		if err := m.MigrateToVersion(opts.dir, opts.target); err != nil {
			return fmt.Errorf("migrate to version: %w", err)
		}
	case "force":
		// 版本 0 表示回到未迁移状态
		lg.Sugar().Warnw("forcing migration version, dirty state will be cleared", "target", opts.target)
		if err := m.ForceMigrationVersion(opts.dir, opts.target); err != nil {
			return fmt.Errorf("force migration version: %w", err)
		}
	case "status":
		version, dirty, err := m.MigrationStatus(opts.dir)
		if err != nil {
			return fmt.Errorf("read migration status: %w", err)
		}
		lg.Sugar().Infow("migration status", "version", version, "dirty", dirty)
		return nil
	}
	lg.Sugar().Infow("migration finished", "action", opts.action)
	return nil
}

func main() {
	opts, err := parseOptions(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("invalid arguments: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if opts.dir == "" {
		opts.dir = cfg.Migrations.Dir
	}

	lg, err := logger.New(cfg.App.Env, cfg.Log.Level, cfg.Log.Encoding, "migrate", cfg.App.Version)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	db, err := database.New(cfg, lg)
	if err != nil {
		lg.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			lg.Sugar().Errorw("failed to close database", "error", err)
		}
	}()

	if err := run(opts, db, lg); err != nil {
		lg.Sugar().Fatalw("migration failed", "action", opts.action, "error", err)
	}
}
