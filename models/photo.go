package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Photo 代表活動相簿中的一張照片（只儲存連結與說明，不處理檔案本身）
type Photo struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	EventID   primitive.ObjectID `bson:"eventId" json:"eventId"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"` // 上傳者
	PhotoURL  string             `bson:"photoUrl" json:"photoUrl"`
	Caption   string             `bson:"caption,omitempty" json:"caption,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// PhotoWithUser 是照片加上上傳者資料，用於活動相簿 API
type PhotoWithUser struct {
	Photo `bson:",inline"`
	User  User `bson:"user" json:"user"`
}

// PhotoWithEvent 是照片加上對應活動，用於「我的回憶」API
type PhotoWithEvent struct {
	Photo `bson:",inline"`
	Event Event `bson:"event" json:"event"`
}

// CreatePhotoRequest 定義上傳照片的請求體
type CreatePhotoRequest struct {
	PhotoURL string `json:"photoUrl" validate:"required,url"`
	Caption  string `json:"caption"`
}
