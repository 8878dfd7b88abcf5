package database

import (
	"context"
	"regexp"
	"time"

	"event-link/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsertEvent 建立新活動，狀態預設為 upcoming，報名人數從 0 開始
func InsertEvent(req models.CreateEventRequest, creatorID primitive.ObjectID) (*models.Event, error) {
	collection := GetCollection(eventsCollection)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	now := time.Now()
	event := models.Event{
		Title:            req.Title,
		Description:      req.Description,
		CreatorID:        creatorID,
		EventType:        req.EventType,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		Location:         req.Location,
		MeetingSpot:      req.MeetingSpot,
		MaxCapacity:      req.MaxCapacity,
		ParticipantCount: 0,
		Tags:             req.Tags,
		ImageURL:         req.ImageURL,
		Status:           models.EventStatusUpcoming,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	result, err := collection.InsertOne(ctx, event)
	if err != nil {
		return nil, err
	}
	event.ID = result.InsertedID.(primitive.ObjectID)

	invalidateEventListCache(ctx)
	return &event, nil
}

// GetEvents 取得所有活動，以開始時間由新到舊排序
// query 不為空時依標題/地點/標籤做子字串過濾；只有未過濾的完整列表會走 Redis 快取
func GetEvents(query string) ([]models.Event, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if query == "" {
		if cached := getCachedEventList(ctx); cached != nil {
			return cached, nil
		}
	}

	filter := bson.M{}
	if query != "" {
		// QuoteMeta 避免使用者輸入被當成正規表達式
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
		filter = bson.M{"$or": []bson.M{
			{"title": pattern},
			{"location": pattern},
			{"tags": pattern},
		}}
	}

	collection := GetCollection(eventsCollection)
	findOptions := options.Find().SetSort(bson.D{{Key: "startTime", Value: -1}})

	cursor, err := collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := []models.Event{}
	if err = cursor.All(ctx, &events); err != nil {
		return nil, err
	}

	if query == "" {
		setCachedEventList(ctx, events)
	}
	return events, nil
}

// FindEventByID 取得單一活動，找不到時回傳 ErrNotFound
func FindEventByID(eventID primitive.ObjectID) (*models.Event, error) {
	collection := GetCollection(eventsCollection)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var event models.Event
	err := collection.FindOne(ctx, bson.M{"_id": eventID}).Decode(&event)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

// GetUserEvents 取得某使用者建立的所有活動，以開始時間由新到舊排序
func GetUserEvents(creatorID primitive.ObjectID) ([]models.Event, error) {
	collection := GetCollection(eventsCollection)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "startTime", Value: -1}})
	cursor, err := collection.Find(ctx, bson.M{"creatorId": creatorID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := []models.Event{}
	if err = cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// UpdateEvent 部分更新活動欄位，回傳更新後的活動
// 呼叫端（handler）需先確認呼叫者是活動建立者
func UpdateEvent(eventID primitive.ObjectID, req models.UpdateEventRequest) (*models.Event, error) {
	collection := GetCollection(eventsCollection)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	set := bson.M{"updatedAt": time.Now()}
	if req.Title != nil {
		set["title"] = *req.Title
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.EventType != nil {
		set["eventType"] = *req.EventType
	}
	if req.StartTime != nil {
		set["startTime"] = *req.StartTime
	}
	if req.EndTime != nil {
		set["endTime"] = *req.EndTime
	}
	if req.Location != nil {
		set["location"] = *req.Location
	}
	if req.MeetingSpot != nil {
		set["meetingSpot"] = *req.MeetingSpot
	}
	if req.MaxCapacity != nil {
		set["maxCapacity"] = *req.MaxCapacity
	}
	if req.Tags != nil {
		set["tags"] = req.Tags
	}
	if req.ImageURL != nil {
		set["imageUrl"] = *req.ImageURL
	}
	if req.Status != nil {
		set["status"] = *req.Status
	}

	// 縮小容量時上限不能低於目前報名人數，檢查與更新是同一個條件式操作，
	// 不會跟並發報名的 $inc 形成競態
	filter := bson.M{"_id": eventID}
	if req.MaxCapacity != nil {
		filter["$expr"] = bson.M{"$lte": bson.A{"$participantCount", *req.MaxCapacity}}
	}

	findOptions := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Event
	err := collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, findOptions).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// 沒有符合條件的活動:要嘛活動不存在，要嘛新容量低於報名人數
			if _, findErr := FindEventByID(eventID); findErr != nil {
				return nil, findErr
			}
			return nil, ErrCapacityTooSmall
		}
		return nil, err
	}

	invalidateEventListCache(ctx)
	return &updated, nil
}

// DeleteEvent 刪除活動並連帶清除其報名記錄、照片與聊天訊息
func DeleteEvent(eventID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := GetCollection(eventsCollection).DeleteOne(ctx, bson.M{"_id": eventID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	// 維持參照完整性:活動消失後不留下孤兒記錄
	if _, err := GetCollection(participantsCollection).DeleteMany(ctx, bson.M{"eventId": eventID}); err != nil {
		return err
	}
	if _, err := GetCollection(photosCollection).DeleteMany(ctx, bson.M{"eventId": eventID}); err != nil {
		return err
	}
	if _, err := GetCollection(messagesCollection).DeleteMany(ctx, bson.M{"eventId": eventID}); err != nil {
		return err
	}

	invalidateEventListCache(ctx)
	return nil
}
