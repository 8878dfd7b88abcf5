package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RegisterRequest 結構體用於處理註冊請求
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=2,max=64"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest 結構體用於處理登入請求
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// errorResponse 結構體用於返回 JSON 格式的錯誤訊息
type ErrorResponse struct {
	Message string `json:"message"`
}

// User 結構體定義了使用者資料的欄位
type User struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"` // MongoDB 的唯一 ID
	Email           string             `bson:"email" json:"email" unique:"true"`  // 使用者 Email
	Username        string             `bson:"username" json:"username"`          // 使用者名稱
	Password        string             `bson:"password" json:"-"`                 // 儲存哈希後的密碼，JSON 輸出時忽略
	Bio             string             `bson:"bio,omitempty" json:"bio,omitempty"`
	Team            string             `bson:"team,omitempty" json:"team,omitempty"`                       // 所屬團隊，用於探索頁的顯示
	Interests       []string           `bson:"interests,omitempty" json:"interests,omitempty"`             // 興趣標籤
	ProfileImageURL string             `bson:"profileImageUrl,omitempty" json:"profileImageUrl,omitempty"` // 大頭貼圖片連結
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// 註：`Password` 欄位在儲存到資料庫前會被哈希，`json:"-"` 表示在 JSON 序列化時忽略此欄位，避免將密碼暴露出去。
// `unique:"true"` 是一個示意，實際的唯一索引會在 MongoDB 連線時建立。
