package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RegisterRequest 結構體用於處理註冊請求
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// errorResponse 結構體用於返回 JSON 格式的錯誤訊息
type ErrorResponse struct {
	Message string `json:"message"`
}

// UpdateProfileRequest 定義更新捐血者資料的請求體
type UpdateProfileRequest struct {
	Name              string `json:"name"`
	BloodGroup        string `json:"bloodGroup"`
	Location          string `json:"location"`
	Contact           string `json:"contact"`
	MedicalConditions string `json:"medicalConditions"`
	Available         bool   `json:"available"`
}

// User 結構體定義了使用者資料的欄位
type User struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`                // MongoDB 的唯一 ID
	Email             string             `bson:"email" json:"email" unique:"true"`                 // 使用者 Email
	Name              string             `bson:"name" json:"name"`                                 // 顯示名稱
	Password          string             `bson:"password" json:"-"`                                // 儲存哈希後的密碼，JSON 輸出時忽略；Google 登入的帳號此欄位為空
	Role              string             `bson:"role" json:"role"`                                 // "user" 或 "admin"
	BloodGroup        string             `bson:"bloodGroup,omitempty" json:"bloodGroup,omitempty"` // 捐血者登記的血型
	Location          string             `bson:"location,omitempty" json:"location,omitempty"`
	Contact           string             `bson:"contact,omitempty" json:"contact,omitempty"`
	MedicalConditions string             `bson:"medicalConditions,omitempty" json:"medicalConditions,omitempty"`
	Available         bool               `bson:"available" json:"available"`                 // 目前是否可以捐血
	IsRegisteredDonor bool               `bson:"isRegisteredDonor" json:"isRegisteredDonor"` // 是否已完成捐血者登記
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// 註：`Password` 欄位在儲存到資料庫前會被哈希，`json:"-"` 表示在 JSON 序列化時忽略此欄位，避免將密碼暴露出去。
// `unique:"true"` 是一個示意，實際的唯一索引會在 MongoDB 操作時建立。
