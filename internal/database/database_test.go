package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/MorseWayne/print_shop/internal/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 3307, User: "shop", Password: "p@ss", DBName: "print_shop"})

	for _, want := range []string{"shop:p@ss@tcp(db:3307)/print_shop", "parseTime=true", "multiStatements=true", "charset=utf8mb4"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("DSN %q should contain %q", dsn, want)
		}
	}
}

func TestWithTx(t *testing.T) {
	t.Run("提交", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE product_variants").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = WithTx(context.Background(), db, func(tx *sql.Tx) error {
			_, err := tx.Exec("UPDATE product_variants SET stock_quantity = stock_quantity - 1")
			return err
		})
		if err != nil {
			t.Fatalf("WithTx() error = %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})

	t.Run("回滚", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()

		boom := errors.New("boom")
		mock.ExpectBegin()
		mock.ExpectRollback()

		err = WithTx(context.Background(), db, func(tx *sql.Tx) error { return boom })
		if !errors.Is(err, boom) {
			t.Fatalf("WithTx() error = %v, want %v", err, boom)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
}
