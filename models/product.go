package models

import "time"

// Product is the inventory ledger row. Stock is only ever mutated through
// the floor-checked reserve/release operations in the inventory package.
type Product struct {
	ProductID   string    `json:"productid" bson:"productid"`
	FarmerID    string    `json:"farmerid" bson:"farmerid"`
	Name        string    `json:"name" bson:"name"`
	Category    string    `json:"category,omitempty" bson:"category,omitempty"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Price       float64   `json:"price" bson:"price"`
	Unit        string    `json:"unit,omitempty" bson:"unit,omitempty"`
	Stock       int       `json:"stock" bson:"stock"`
	InStock     bool      `json:"instock" bson:"instock"`
	ImagePath   string    `json:"imagePath,omitempty" bson:"imagepath,omitempty"`
	ServiceArea string    `json:"serviceArea,omitempty" bson:"servicearea,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"createdat"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updatedat"`
}
