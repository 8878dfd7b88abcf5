package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FrameType 定義 WebSocket 訊框類型
type FrameType string

const (
	FrameTypeChatMessage FrameType = "chat_message" // 聊天訊息（進出皆用）
	FrameTypeError       FrameType = "error"        // 錯誤回報（只回給發送者）
)

// ChatMessage 代表活動聊天室中的一則訊息，建立後不可修改
// 同一活動內的訊息以 (timestamp, _id) 嚴格排序，timestamp 由資料庫層在寫入時指定
type ChatMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	EventID   primitive.ObjectID `bson:"eventId" json:"eventId"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Message   string             `bson:"message" json:"message"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

// ChatMessageWithUser 是訊息加上發送者資料，廣播與歷史查詢都用這個形狀
type ChatMessageWithUser struct {
	ChatMessage `bson:",inline"`
	User        User `bson:"user" json:"user"`
}

// InboundFrame 是客戶端傳入的訊框，目前只認得 chat_message 一種
type InboundFrame struct {
	Type    FrameType `json:"type"`
	EventID string    `json:"eventId"`
	UserID  string    `json:"userId"`
	Message string    `json:"message"`
}

// OutboundFrame 是伺服器廣播給客戶端的訊框
type OutboundFrame struct {
	Type FrameType           `json:"type"`
	Data ChatMessageWithUser `json:"data"`
}

// ErrorFrame 是針對單一連線回報錯誤的訊框，回報後連線保持開啟
type ErrorFrame struct {
	Type    FrameType `json:"type"`
	Message string    `json:"message"`
}
