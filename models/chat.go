package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequestSummary 冗餘儲存請求的摘要，讓聊天介面不需要再回頭查詢 Requests 集合
type RequestSummary struct {
	PatientName string `bson:"patientName" json:"patientName"`
	BloodGroup  string `bson:"bloodGroup" json:"bloodGroup"`
	Location    string `bson:"location" json:"location"`
}

// Chat 代表捐血者與請求者之間、針對某一筆請求的對話
// 同一個 (請求, 捐血者, 請求者) 組合最多只會有一筆 Chat
type Chat struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	RequestID       primitive.ObjectID   `bson:"requestId" json:"requestId"`
	RequestDetails  RequestSummary       `bson:"requestDetails" json:"requestDetails"`
	DonorID         primitive.ObjectID   `bson:"donorId" json:"donorId"`
	DonorBloodGroup string               `bson:"donorBloodGroup" json:"donorBloodGroup"`
	Participants    []primitive.ObjectID `bson:"participants" json:"participants"` // 兩位參與者的 ID，固定以排序後的順序儲存
	Users           map[string]string    `bson:"users" json:"users"`               // 參與者 ID (Hex) -> 顯示名稱
	LastMessage     string               `bson:"lastMessage" json:"lastMessage"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt" json:"updatedAt"`
}
