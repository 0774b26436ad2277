package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Facility 代表一間醫院或血庫，以及各血型的庫存量
// 本應用只讀取庫存快照，不會因捐血而扣減數量
type Facility struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string             `bson:"name" json:"name"`
	Type      string             `bson:"type" json:"type"` // "Hospital" 或 "Blood Bank"
	Location  string             `bson:"location" json:"location"`
	Contact   string             `bson:"contact" json:"contact"`
	Inventory map[string]int     `bson:"inventory" json:"inventory"` // 血型 -> 庫存單位數
}
