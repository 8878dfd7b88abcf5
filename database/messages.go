package database

import (
	"context"
	"time"

	"event-link/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsertChatMessage 寫入一則聊天訊息並回傳含發送者資料的完整訊息
// 時間戳在這裡指定:資料庫層是訊息排序的唯一權威，
// 同一活動的兩則訊息以 (timestamp, _id) 完全排序，_id 反映寫入順序用來打破平手
func InsertChatMessage(eventID, userID primitive.ObjectID, text string) (*models.ChatMessageWithUser, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 活動必須存在才能留言
	if _, err := FindEventByID(eventID); err != nil {
		return nil, err
	}

	sender, err := GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	sender.Password = ""

	message := models.ChatMessage{
		EventID:   eventID,
		UserID:    userID,
		Message:   text,
		Timestamp: time.Now(),
	}

	result, err := GetCollection(messagesCollection).InsertOne(ctx, message)
	if err != nil {
		return nil, err
	}
	message.ID = result.InsertedID.(primitive.ObjectID)

	return &models.ChatMessageWithUser{
		ChatMessage: message,
		User:        *sender,
	}, nil
}

// GetEventMessages 取得活動的聊天記錄，由舊到新排序（符合由上往下的閱讀順序）
// 這也是輪詢備援的讀取路徑:客戶端定期重抓完整列表來補齊推播漏掉的訊息
func GetEventMessages(eventID primitive.ObjectID) ([]models.ChatMessageWithUser, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{
		{Key: "timestamp", Value: 1},
		{Key: "_id", Value: 1},
	})
	cursor, err := GetCollection(messagesCollection).Find(ctx, bson.M{"eventId": eventID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []models.ChatMessage
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}

	userIDs := make([]primitive.ObjectID, 0, len(messages))
	for _, message := range messages {
		userIDs = append(userIDs, message.UserID)
	}
	users, err := GetUsersByIDs(userIDs)
	if err != nil {
		return nil, err
	}
	usersByID := make(map[primitive.ObjectID]models.User, len(users))
	for _, user := range users {
		user.Password = ""
		usersByID[user.ID] = user
	}

	result := make([]models.ChatMessageWithUser, 0, len(messages))
	for _, message := range messages {
		result = append(result, models.ChatMessageWithUser{
			ChatMessage: message,
			User:        usersByID[message.UserID],
		})
	}
	return result, nil
}
