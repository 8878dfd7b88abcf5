package database

import (
	"event-link/backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

//go:generate mockgen -source=store.go -destination=mocks/chat_store_mock.go -package=mocks

// ChatStore 是聊天廣播服務需要的持久化介面
// websocket 套件透過它寫入與回放訊息，測試時用 gomock 替身隔離 MongoDB
type ChatStore interface {
	InsertChatMessage(eventID, userID primitive.ObjectID, text string) (*models.ChatMessageWithUser, error)
	GetEventMessages(eventID primitive.ObjectID) ([]models.ChatMessageWithUser, error)
}

// mongoChatStore 把介面委派給本套件的套件層函數
type mongoChatStore struct{}

// NewChatStore 回傳以 MongoDB 為後端的 ChatStore
func NewChatStore() ChatStore {
	return mongoChatStore{}
}

func (mongoChatStore) InsertChatMessage(eventID, userID primitive.ObjectID, text string) (*models.ChatMessageWithUser, error) {
	return InsertChatMessage(eventID, userID, text)
}

func (mongoChatStore) GetEventMessages(eventID primitive.ObjectID) ([]models.ChatMessageWithUser, error) {
	return GetEventMessages(eventID)
}
