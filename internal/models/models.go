package models

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"uniqueIndex;not null"     json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
}

type Store struct {
	ID    uint   `gorm:"primaryKey;autoIncrement"    json:"id"`
	Name  string `gorm:"uniqueIndex;not null"        json:"name"`
	Items []Item `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Tags  []Tag  `gorm:"constraint:OnDelete:CASCADE" json:"tags,omitempty"`
}

type Item struct {
	ID      uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name    string  `gorm:"not null"                 json:"name"`
	Price   float64 `gorm:"not null"                 json:"price"`
	StoreID uint    `gorm:"index;not null"           json:"store_id"`
	Tags    []Tag   `gorm:"many2many:item_tags"      json:"tags,omitempty"`
}

// Tag names are unique within a store, not globally.
type Tag struct {
	ID      uint   `gorm:"primaryKey;autoIncrement"                json:"id"`
	Name    string `gorm:"not null;uniqueIndex:idx_tag_store_name" json:"name"`
	StoreID uint   `gorm:"not null;uniqueIndex:idx_tag_store_name" json:"store_id"`
	Items   []Item `gorm:"many2many:item_tags"                     json:"items,omitempty"`
}
