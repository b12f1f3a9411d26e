package models

// Category represents a storage area in the inventory.
// The name is unique and identifies the category; sublocations counts
// the shelves or drawers it is divided into and color is how it is shown.
type Category struct {
	Name         string `gorm:"primaryKey;type:text;not null" validate:"required"`
	Sublocations int    `gorm:"type:integer;not null;default:0" validate:"gte=0"`
	Color        string `gorm:"type:text"`
}

func (c *Category) TableName() string {
	return "category"
}
