package catalog

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"laptoprag/internal/domain"
)

// SQLite reads listings from a "laptops" table:
//
//	name_ar TEXT, name_en TEXT, price REAL, quantity INTEGER,
//	in_stock INTEGER NULL, additional_features TEXT
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping catalog database: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Listings(ctx context.Context) ([]domain.Metadata, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name_ar, name_en, price, quantity, in_stock, additional_features
		FROM laptops ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query laptops: %w", err)
	}
	defer rows.Close()

	var out []domain.Metadata
	for rows.Next() {
		var (
			m        domain.Metadata
			nameAR   sql.NullString
			nameEN   sql.NullString
			features sql.NullString
			price    sql.NullFloat64
			quantity sql.NullInt64
			inStock  sql.NullInt64
		)
		if err := rows.Scan(&nameAR, &nameEN, &price, &quantity, &inStock, &features); err != nil {
			return nil, fmt.Errorf("scan laptop row: %w", err)
		}
		m.NameAR = nameAR.String
		m.NameEN = nameEN.String
		m.Price = price.Float64
		m.Quantity = int(quantity.Int64)
		m.AdditionalFeatures = features.String
		m.InStock = domain.StockUnknown
		if inStock.Valid {
			m.InStock = domain.ParseStockFlag(inStock.Int64)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate laptop rows: %w", err)
	}
	return out, nil
}
