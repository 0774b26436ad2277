package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequestStatus 定義血液請求的生命週期狀態
type RequestStatus string

const (
	RequestStatusActive    RequestStatus = "active"    // 尚未被滿足的請求
	RequestStatusFulfilled RequestStatus = "fulfilled" // 已由請求者標記為完成
)

// BloodGroups 列出八種 ABO/Rh 血型，順序與前端下拉選單一致
var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// IsValidBloodGroup 檢查字串是否為合法的血型
func IsValidBloodGroup(group string) bool {
	for _, g := range BloodGroups {
		if g == group {
			return true
		}
	}
	return false
}

// CreateRequestBody 定義發布血液請求的請求體
type CreateRequestBody struct {
	PatientName   string `json:"patientName"`
	BloodGroup    string `json:"bloodGroup"`
	Location      string `json:"location"`
	Contact       string `json:"contact"`
	Urgency       string `json:"urgency"`
	UnitsRequired int    `json:"unitsRequired"`
	RequiredBy    string `json:"requiredBy"`
}

// Request 代表一筆緊急血液請求
type Request struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	PatientName   string             `bson:"patientName" json:"patientName"`
	BloodGroup    string             `bson:"bloodGroup" json:"bloodGroup"` // 需要的血型
	Location      string             `bson:"location" json:"location"`
	Contact       string             `bson:"contact" json:"contact"`
	Urgency       string             `bson:"urgency" json:"urgency"` // high / medium / low
	UnitsRequired int                `bson:"unitsRequired" json:"unitsRequired"`
	RequiredBy    string             `bson:"requiredBy" json:"requiredBy"` // 需要血液的期限（日期字串）
	RequesterID   primitive.ObjectID `bson:"requesterId" json:"requesterId"`
	Status        RequestStatus      `bson:"status" json:"status"` // 狀態只會從 active 單向變成 fulfilled
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}
