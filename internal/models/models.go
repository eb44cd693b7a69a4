package models

// All returns every persisted model in dependency order, for migrations.
func All() []any {
	return []any{
		&User{},
		&Profile{},
		&MealEntry{},
		&ChatMessage{},
	}
}
