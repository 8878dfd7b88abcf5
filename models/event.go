package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventStatus 定義活動狀態
type EventStatus string

const (
	EventStatusUpcoming  EventStatus = "upcoming"  // 即將舉行
	EventStatusOngoing   EventStatus = "ongoing"   // 進行中
	EventStatusCompleted EventStatus = "completed" // 已結束
	EventStatusCancelled EventStatus = "cancelled" // 已取消
)

// Event 代表一個可報名的活動
type Event struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title            string             `bson:"title" json:"title"`
	Description      string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatorID        primitive.ObjectID `bson:"creatorId" json:"creatorId"` // 活動建立者，擁有修改/刪除權限
	EventType        string             `bson:"eventType" json:"eventType"` // 活動類型（如 networking、sports）
	StartTime        time.Time          `bson:"startTime" json:"startTime"`
	EndTime          *time.Time         `bson:"endTime,omitempty" json:"endTime,omitempty"`
	Location         string             `bson:"location" json:"location"`
	MeetingSpot      string             `bson:"meetingSpot,omitempty" json:"meetingSpot,omitempty"`
	MaxCapacity      *int               `bson:"maxCapacity,omitempty" json:"maxCapacity,omitempty"` // nil 表示人數不設上限
	ParticipantCount int                `bson:"participantCount" json:"participantCount"`          // 目前報名人數，加入/退出時同步維護
	Tags             []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	ImageURL         string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Status           EventStatus        `bson:"status" json:"status"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsFull 判斷活動是否已額滿（未設上限時永遠回傳 false）
func (e *Event) IsFull() bool {
	return e.MaxCapacity != nil && e.ParticipantCount >= *e.MaxCapacity
}

// Remaining 回傳剩餘名額，未設上限時回傳 -1
func (e *Event) Remaining() int {
	if e.MaxCapacity == nil {
		return -1
	}
	return *e.MaxCapacity - e.ParticipantCount
}

// CreateEventRequest 定義建立活動的請求體
type CreateEventRequest struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description"`
	EventType   string     `json:"eventType" validate:"required"`
	StartTime   time.Time  `json:"startTime" validate:"required"`
	EndTime     *time.Time `json:"endTime"`
	Location    string     `json:"location" validate:"required"`
	MeetingSpot string     `json:"meetingSpot"`
	MaxCapacity *int       `json:"maxCapacity" validate:"omitempty,min=1"`
	Tags        []string   `json:"tags"`
	ImageURL    string     `json:"imageUrl"`
}

// UpdateEventRequest 定義更新活動的請求體，所有欄位皆為選填（部分更新）
type UpdateEventRequest struct {
	Title       *string    `json:"title" validate:"omitempty,max=255"`
	Description *string    `json:"description"`
	EventType   *string    `json:"eventType"`
	StartTime   *time.Time `json:"startTime"`
	EndTime     *time.Time `json:"endTime"`
	Location    *string    `json:"location"`
	MeetingSpot *string    `json:"meetingSpot"`
	MaxCapacity *int       `json:"maxCapacity" validate:"omitempty,min=1"`
	Tags        []string   `json:"tags"`
	ImageURL    *string    `json:"imageUrl"`
	Status      *string    `json:"status" validate:"omitempty,oneof=upcoming ongoing completed cancelled"`
}
