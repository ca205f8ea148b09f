package model

import "time"

// Product is a catalog record. The product endpoints are thin CRUD glue;
// the permission gates in front of them are the interesting part.
type Product struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	PriceCents  int64     `json:"price_cents" db:"price_cents"`
	ImagePath   string    `json:"image_path" db:"image_path"`
	Bestseller  bool      `json:"bestseller" db:"bestseller"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
