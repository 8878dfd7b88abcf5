package database

import (
	"context"
	"log"
	"math"
	"sort"
	"time"

	"event-link/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// JoinEvent 讓使用者報名活動
// 容量檢查與名額保留是同一個條件式 FindOneAndUpdate，不存在「先查再寫」的競態窗口:
// 兩個並發報名最多只有一個能讓 participantCount 越過上限
// 可能回傳 ErrNotFound、ErrCapacityExceeded、ErrAlreadyJoined
func JoinEvent(eventID, userID primitive.ObjectID) (*models.Participant, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	participants := GetCollection(participantsCollection)
	events := GetCollection(eventsCollection)

	// 快速路徑:已報名就直接拒絕，不去動活動的計數器
	// 真正的防線是 (eventId, userId) 唯一索引，見下方的回滾處理
	count, err := participants.CountDocuments(ctx, bson.M{"eventId": eventID, "userId": userID})
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAlreadyJoined
	}

	// 單一原子操作:只有在還有名額時才把 participantCount 加一
	// maxCapacity 未設定時視為不設限（$ifNull 換成一個夠大的數字）
	filter := bson.M{
		"_id": eventID,
		"$expr": bson.M{"$lt": bson.A{
			"$participantCount",
			bson.M{"$ifNull": bson.A{"$maxCapacity", math.MaxInt32}},
		}},
	}
	update := bson.M{"$inc": bson.M{"participantCount": 1}}

	err = events.FindOneAndUpdate(ctx, filter, update).Err()
	if err != nil {
		if err != mongo.ErrNoDocuments {
			return nil, err
		}
		// 沒有符合條件的活動:要嘛活動不存在，要嘛已額滿
		if _, findErr := FindEventByID(eventID); findErr != nil {
			return nil, findErr
		}
		return nil, ErrCapacityExceeded
	}

	participant := models.Participant{
		EventID:  eventID,
		UserID:   userID,
		JoinedAt: time.Now(),
	}
	result, err := participants.InsertOne(ctx, participant)
	if err != nil {
		// 名額已經先保留了，插入失敗必須把計數器還回去
		rollbackParticipantCount(eventID)
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrAlreadyJoined
		}
		return nil, err
	}
	participant.ID = result.InsertedID.(primitive.ObjectID)

	invalidateEventListCache(ctx)
	return &participant, nil
}

// rollbackParticipantCount 在報名寫入失敗時把先前保留的名額釋放回去
func rollbackParticipantCount(eventID primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := GetCollection(eventsCollection).UpdateOne(ctx,
		bson.M{"_id": eventID, "participantCount": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"participantCount": -1}})
	if err != nil {
		log.Printf("Error rolling back participant count for event %s: %v", eventID.Hex(), err)
		if recErr := ReconcileParticipantCount(eventID); recErr != nil {
			log.Printf("Error reconciling participant count for event %s: %v", eventID.Hex(), recErr)
		}
	}
}

// ReconcileParticipantCount 以實際的報名記錄數回寫活動計數器
// 計數器只是報名記錄的快取，記錄本身永遠是真相來源；
// 增減操作失敗造成的漂移都可以用這個函數校正
func ReconcileParticipantCount(eventID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := GetCollection(participantsCollection).CountDocuments(ctx, bson.M{"eventId": eventID})
	if err != nil {
		return err
	}
	_, err = GetCollection(eventsCollection).UpdateOne(ctx,
		bson.M{"_id": eventID},
		bson.M{"$set": bson.M{"participantCount": int(count)}})
	return err
}

// LeaveEvent 讓使用者退出活動
// 沒有報名記錄時是 no-op，不算錯誤；只有真的刪到記錄才把計數器減一
func LeaveEvent(eventID, userID primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := GetCollection(participantsCollection).DeleteOne(ctx,
		bson.M{"eventId": eventID, "userId": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return nil
	}

	_, err = GetCollection(eventsCollection).UpdateOne(ctx,
		bson.M{"_id": eventID, "participantCount": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"participantCount": -1}})
	if err != nil {
		// 記錄已經刪掉了，計數器不能留在偏高的狀態把名額鎖死，
		// 改用實際報名數回寫校正
		log.Printf("Error decrementing participant count for event %s, reconciling: %v", eventID.Hex(), err)
		if recErr := ReconcileParticipantCount(eventID); recErr != nil {
			return recErr
		}
	}

	invalidateEventListCache(ctx)
	return nil
}

// CountParticipants 回傳活動目前的報名記錄數，僅供顯示使用
// 容量判斷一律走 JoinEvent 的原子操作，不依賴這個數字
func CountParticipants(eventID primitive.ObjectID) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return GetCollection(participantsCollection).CountDocuments(ctx, bson.M{"eventId": eventID})
}

// GetEventParticipants 取得活動的報名記錄，並附上各報名者的基本資料
func GetEventParticipants(eventID primitive.ObjectID) ([]models.ParticipantWithUser, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cursor, err := GetCollection(participantsCollection).Find(ctx, bson.M{"eventId": eventID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.Participant
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}

	userIDs := make([]primitive.ObjectID, 0, len(records))
	for _, record := range records {
		userIDs = append(userIDs, record.UserID)
	}
	users, err := GetUsersByIDs(userIDs)
	if err != nil {
		return nil, err
	}
	usersByID := make(map[primitive.ObjectID]models.User, len(users))
	for _, user := range users {
		user.Password = "" // 額外防護，報名者列表絕不帶出密碼哈希
		usersByID[user.ID] = user
	}

	result := make([]models.ParticipantWithUser, 0, len(records))
	for _, record := range records {
		result = append(result, models.ParticipantWithUser{
			Participant: record,
			User:        usersByID[record.UserID],
		})
	}
	return result, nil
}

// GetUserParticipations 取得使用者報名的所有活動，以活動開始時間由新到舊排序
func GetUserParticipations(userID primitive.ObjectID) ([]models.ParticipantWithEvent, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cursor, err := GetCollection(participantsCollection).Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.Participant
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}

	eventIDs := make([]primitive.ObjectID, 0, len(records))
	for _, record := range records {
		eventIDs = append(eventIDs, record.EventID)
	}
	events, err := getEventsByIDs(ctx, eventIDs)
	if err != nil {
		return nil, err
	}
	eventsByID := make(map[primitive.ObjectID]models.Event, len(events))
	for _, event := range events {
		eventsByID[event.ID] = event
	}

	result := make([]models.ParticipantWithEvent, 0, len(records))
	for _, record := range records {
		event, ok := eventsByID[record.EventID]
		if !ok {
			continue // 活動已被刪除的殘留記錄，不回傳
		}
		result = append(result, models.ParticipantWithEvent{
			Participant: record,
			Event:       event,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Event.StartTime.After(result[j].Event.StartTime)
	})
	return result, nil
}

// getEventsByIDs 一次取得多個活動
func getEventsByIDs(ctx context.Context, eventIDs []primitive.ObjectID) ([]models.Event, error) {
	if len(eventIDs) == 0 {
		return []models.Event{}, nil
	}

	cursor, err := GetCollection(eventsCollection).Find(ctx, bson.M{"_id": bson.M{"$in": eventIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []models.Event
	if err = cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
