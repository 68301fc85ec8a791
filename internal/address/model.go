package address

// Address is one saved delivery location. Zone drives the delivery fee; when
// an address arrives without one it is inferred from the area name.
type Address struct {
	ID        string `json:"id"`
	Label     string `json:"label" validate:"required"`
	Street    string `json:"street" validate:"required"`
	Area      string `json:"area" validate:"required"`
	Landmark  string `json:"landmark"`
	Zone      string `json:"zone" validate:"omitempty,oneof=A B C"`
	Phone     string `json:"phone" validate:"required"`
	Whatsapp  string `json:"whatsapp"`
	IsDefault bool   `json:"isDefault"`
}
