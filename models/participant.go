package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Participant 代表使用者與活動之間的報名關係
// (eventId, userId) 組合具有唯一索引，同一人對同一活動最多報名一次
type Participant struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	EventID  primitive.ObjectID `bson:"eventId" json:"eventId"`
	UserID   primitive.ObjectID `bson:"userId" json:"userId"`
	JoinedAt time.Time          `bson:"joinedAt" json:"joinedAt"`
}

// ParticipantWithUser 是報名記錄加上報名者的基本資料，用於參加者列表 API
type ParticipantWithUser struct {
	Participant `bson:",inline"`
	User        User `bson:"user" json:"user"`
}

// ParticipantWithEvent 是報名記錄加上對應活動，用於「我參加的活動」API
type ParticipantWithEvent struct {
	Participant `bson:",inline"`
	Event       Event `bson:"event" json:"event"`
}
