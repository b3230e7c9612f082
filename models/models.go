package models

// All lists every table owned by the service, in migration order.
func All() []any {
	return []any{
		&User{},
		&Address{},
		&Category{},
		&Product{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&PointTransaction{},
	}
}
