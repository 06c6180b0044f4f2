package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/nemonet1337/zaiPipeline/pkg/inventory"
)

// PostgreSQLStorage implements the Storage hook using PostgreSQL
// PostgreSQLを使用したStorageフックの実装
type PostgreSQLStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ inventory.Storage = (*PostgreSQLStorage)(nil)

// NewPostgreSQLStorage creates a new PostgreSQL storage instance
// 新しいPostgreSQLストレージインスタンスを作成
func NewPostgreSQLStorage(dsn string, logger *zap.Logger) (*PostgreSQLStorage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗しました: %w", err)
	}

	// 接続テスト
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("データベースpingに失敗しました: %w", err)
	}

	// 接続プール設定
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgreSQLStorage{
		db:     db,
		logger: logger,
	}, nil
}

// Load reads every product and batch
// すべての商品とバッチを読み込み
func (s *PostgreSQLStorage) Load(ctx context.Context) (*inventory.EntitySet, error) {
	products, err := s.loadProducts(ctx)
	if err != nil {
		return nil, err
	}
	batches, err := s.loadBatches(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("エンティティ読み込み完了",
		zap.Int("products", len(products)),
		zap.Int("batches", len(batches)),
	)

	return &inventory.EntitySet{Products: products, Batches: batches}, nil
}

func (s *PostgreSQLStorage) loadProducts(ctx context.Context) ([]inventory.Product, error) {
	query := `
		SELECT sku, name, ean, dimension, finish, supplier, sales_6_months, sales_1_month,
		       days_in_stock, lead_time_days, safety_stock_days, color, note
		FROM products
		ORDER BY sku`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("商品取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var products []inventory.Product
	for rows.Next() {
		var (
			p           inventory.Product
			sales1Month sql.NullFloat64
			daysInStock sql.NullInt64
		)
		if err := rows.Scan(
			&p.SKU,
			&p.Name,
			&p.EAN,
			&p.Dimension,
			&p.Finish,
			&p.Supplier,
			&p.Sales6Months,
			&sales1Month,
			&daysInStock,
			&p.LeadTimeDays,
			&p.SafetyStockDays,
			&p.Color,
			&p.Note,
		); err != nil {
			return nil, fmt.Errorf("商品スキャンに失敗しました: %w", err)
		}
		if sales1Month.Valid {
			v := sales1Month.Float64
			p.Sales1Month = &v
		}
		if daysInStock.Valid {
			v := int(daysInStock.Int64)
			p.DaysInStock = &v
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

func (s *PostgreSQLStorage) loadBatches(ctx context.Context) ([]inventory.Batch, error) {
	query := `
		SELECT id, product_sku, quantity, status, planned_production_date, production_start_date,
		       production_end_date, transit_start_date, eta, order_date, container_no, vessel_name,
		       warehouse, color
		FROM batches
		ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("バッチ取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var batches []inventory.Batch
	for rows.Next() {
		var (
			b                                                  inventory.Batch
			planned, prodStart, prodEnd, transit, eta, ordered sql.NullTime
		)
		if err := rows.Scan(
			&b.ID,
			&b.ProductSKU,
			&b.Quantity,
			&b.Status,
			&planned,
			&prodStart,
			&prodEnd,
			&transit,
			&eta,
			&ordered,
			&b.ContainerNo,
			&b.VesselName,
			&b.Warehouse,
			&b.Color,
		); err != nil {
			return nil, fmt.Errorf("バッチスキャンに失敗しました: %w", err)
		}
		b.PlannedProductionDate = nullTime(planned)
		b.ProductionStartDate = nullTime(prodStart)
		b.ProductionEndDate = nullTime(prodEnd)
		b.TransitStartDate = nullTime(transit)
		b.ETA = nullTime(eta)
		b.OrderDate = nullTime(ordered)
		batches = append(batches, b)
	}

	return batches, rows.Err()
}

// Save replaces the stored entity set inside one transaction using COPY
// 一つのトランザクション内でCOPYを使用してエンティティ全体を置き換え
func (s *PostgreSQLStorage) Save(ctx context.Context, set *inventory.EntitySet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM batches`); err != nil {
		return fmt.Errorf("バッチ削除に失敗しました: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return fmt.Errorf("商品削除に失敗しました: %w", err)
	}

	productRows := make([][]any, 0, len(set.Products))
	for _, p := range set.Products {
		productRows = append(productRows, []any{
			p.SKU, p.Name, p.EAN, p.Dimension, string(p.Finish), p.Supplier, p.Sales6Months,
			p.Sales1Month, p.DaysInStock, p.LeadTimeDays, p.SafetyStockDays, string(p.Color), p.Note,
		})
	}
	if err := copyRows(ctx, tx, "products", []string{
		"sku", "name", "ean", "dimension", "finish", "supplier", "sales_6_months", "sales_1_month",
		"days_in_stock", "lead_time_days", "safety_stock_days", "color", "note",
	}, productRows); err != nil {
		return err
	}

	batchRows := make([][]any, 0, len(set.Batches))
	for _, b := range set.Batches {
		batchRows = append(batchRows, []any{
			b.ID, b.ProductSKU, b.Quantity, string(b.Status), b.PlannedProductionDate, b.ProductionStartDate,
			b.ProductionEndDate, b.TransitStartDate, b.ETA, b.OrderDate, b.ContainerNo, b.VesselName,
			b.Warehouse, string(b.Color),
		})
	}
	if err := copyRows(ctx, tx, "batches", []string{
		"id", "product_sku", "quantity", "status", "planned_production_date", "production_start_date",
		"production_end_date", "transit_start_date", "eta", "order_date", "container_no", "vessel_name",
		"warehouse", "color",
	}, batchRows); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションコミットに失敗しました: %w", err)
	}

	s.logger.Debug("エンティティ保存完了",
		zap.Int("products", len(set.Products)),
		zap.Int("batches", len(set.Batches)),
	)

	return nil
}

// copyRows bulk-loads rows into table with the COPY protocol
// COPYプロトコルで行を一括投入
func copyRows(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]any) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, columns...))
	if err != nil {
		return fmt.Errorf("%sのCOPY準備に失敗しました: %w", table, err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			if pqErr, ok := err.(*pq.Error); ok {
				return fmt.Errorf("%sのCOPYに失敗しました [%s]: %w", table, pqErr.Code, err)
			}
			return fmt.Errorf("%sのCOPYに失敗しました: %w", table, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("%sのCOPY完了に失敗しました: %w", table, err)
	}
	return nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	d := inventory.Day(t.Time)
	return &d
}

// Ping checks database connectivity
func (s *PostgreSQLStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
// データベース接続を閉じる
func (s *PostgreSQLStorage) Close() error {
	return s.db.Close()
}
