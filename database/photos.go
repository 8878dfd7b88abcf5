package database

import (
	"context"
	"sort"
	"time"

	"event-link/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsertPhoto 將照片記錄寫入活動相簿（只存連結與說明）
func InsertPhoto(req models.CreatePhotoRequest, eventID, userID primitive.ObjectID) (*models.Photo, error) {
	collection := GetCollection(photosCollection)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	photo := models.Photo{
		EventID:   eventID,
		UserID:    userID,
		PhotoURL:  req.PhotoURL,
		Caption:   req.Caption,
		CreatedAt: time.Now(),
	}

	result, err := collection.InsertOne(ctx, photo)
	if err != nil {
		return nil, err
	}
	photo.ID = result.InsertedID.(primitive.ObjectID)
	return &photo, nil
}

// GetEventPhotos 取得活動相簿，由新到舊排序並附上上傳者資料
func GetEventPhotos(eventID primitive.ObjectID) ([]models.PhotoWithUser, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := GetCollection(photosCollection).Find(ctx, bson.M{"eventId": eventID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var photos []models.Photo
	if err = cursor.All(ctx, &photos); err != nil {
		return nil, err
	}

	userIDs := make([]primitive.ObjectID, 0, len(photos))
	for _, photo := range photos {
		userIDs = append(userIDs, photo.UserID)
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

	result := make([]models.PhotoWithUser, 0, len(photos))
	for _, photo := range photos {
		result = append(result, models.PhotoWithUser{
			Photo: photo,
			User:  usersByID[photo.UserID],
		})
	}
	return result, nil
}

// GetUserPhotos 取得使用者上傳過的所有照片，附上對應活動，由新到舊排序
func GetUserPhotos(userID primitive.ObjectID) ([]models.PhotoWithEvent, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cursor, err := GetCollection(photosCollection).Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var photos []models.Photo
	if err = cursor.All(ctx, &photos); err != nil {
		return nil, err
	}

	eventIDs := make([]primitive.ObjectID, 0, len(photos))
	for _, photo := range photos {
		eventIDs = append(eventIDs, photo.EventID)
	}
	events, err := getEventsByIDs(ctx, eventIDs)
	if err != nil {
		return nil, err
	}
	eventsByID := make(map[primitive.ObjectID]models.Event, len(events))
	for _, event := range events {
		eventsByID[event.ID] = event
	}

	result := make([]models.PhotoWithEvent, 0, len(photos))
	for _, photo := range photos {
		event, ok := eventsByID[photo.EventID]
		if !ok {
			continue // 活動已被刪除的殘留照片，不回傳
		}
		result = append(result, models.PhotoWithEvent{
			Photo: photo,
			Event: event,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}
