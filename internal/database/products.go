package database

import (
	"database/sql"
	"fmt"
)

// Product is a catalog item offered for sale.
type Product struct {
	ID            int64  `json:"id"`
	Name          string `json:"name,omitempty"`
	Type          string `json:"type,omitempty"`
	Price         int64  `json:"price"`
	DiscountCheck bool   `json:"discount_check"`
	Pic           string `json:"pic,omitempty"`
}

var productColumns = []string{"id", "name", "type", "price", "discount_check", "pic"}

func scanProduct(rows *sql.Rows) (*Product, error) {
	p := &Product{}
	var name, typ, pic sql.NullString
	var price sql.NullInt64
	if err := rows.Scan(&p.ID, &name, &typ, &price, &p.DiscountCheck, &pic); err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	p.Name = nullStringValue(name)
	p.Type = nullStringValue(typ)
	p.Price = price.Int64
	p.Pic = nullStringValue(pic)
	return p, nil
}

// FindProduct returns the first product matching the criteria,
// ErrNotFound when no row matches.
func (db *DB) FindProduct(criteria map[string]any) (*Product, error) {
	products, err := db.FindProducts(criteria)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrNotFound
	}
	return products[0], nil
}

// FindProducts returns all products matching the criteria; nil
// criteria returns the whole catalog. An empty result is not an error.
func (db *DB) FindProducts(criteria map[string]any) ([]*Product, error) {
	rows, err := db.SelectRows("product", productColumns, criteria)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// AddProduct inserts the product and reloads it with the
// store-assigned id.
func (db *DB) AddProduct(p *Product) error {
	id, err := db.Insert("product", map[string]any{
		"name":           p.Name,
		"type":           p.Type,
		"price":          p.Price,
		"discount_check": p.DiscountCheck,
		"pic":            p.Pic,
	})
	if err != nil {
		return err
	}

	saved, err := db.FindProduct(map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("failed to reload product %d: %w", id, err)
	}
	*p = *saved
	return nil
}

// UpdateProduct applies a partial update to the product row and
// returns the fully reloaded record.
func (db *DB) UpdateProduct(id int64, fields map[string]any) (*Product, error) {
	if err := db.UpdateWhere("product", fields, map[string]any{"id": id}); err != nil {
		return nil, err
	}
	return db.FindProduct(map[string]any{"id": id})
}
