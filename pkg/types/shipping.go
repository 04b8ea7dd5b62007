package types

// Shipping carries the delivery details collected at checkout. The system
// never charges anything; payment_method is a descriptive label only.
type Shipping struct {
	FullName   string  `json:"full_name" validate:"required"`
	Address    string  `json:"address" validate:"required"`
	Phone      string  `json:"phone" validate:"required"`
	City       *string `json:"city,omitempty"`
	PostalCode *string `json:"postal_code,omitempty"`
}
