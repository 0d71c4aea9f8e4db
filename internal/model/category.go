package model

type Category struct {
	BaseModel
	Name        string `gorm:"type:varchar(255);uniqueIndex;not null" json:"name" validate:"required"`
	Description string `gorm:"type:text" json:"description"`

	Products []Product `gorm:"foreignKey:CategoryID" json:"products,omitempty"`
}
