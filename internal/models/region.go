package models

// Region is the geographic tag of a contribution, typically an Indian state
type Region struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:100;uniqueIndex;not null"`
}
