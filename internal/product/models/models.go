package models

import (
	"time"

	id "tradepost/pkg/domain"
)

// Product is a marketplace listing. OwnerID ties it to the account that
// created it; ownership drives the modify permission check in the service.
type Product struct {
	ID          id.ProductID
	Name        string
	Description string
	Price       float64
	OwnerID     id.UserID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductDTO is the wire representation. The owner appears as an email, not
// an internal user ID.
type ProductDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Owner       string  `json:"owner"`
}

// DTO converts the stored record to its wire shape with the given owner
// email.
func (p *Product) DTO(ownerEmail string) ProductDTO {
	return ProductDTO{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Owner:       ownerEmail,
	}
}
