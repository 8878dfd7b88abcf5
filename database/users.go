package database

import (
	"context"
	"time"

	"event-link/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// InsertUser 將新使用者寫入資料庫
func InsertUser(user models.User) (*mongo.InsertOneResult, error) {
	collection := GetCollection(usersCollection)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return collection.InsertOne(ctx, user)
}

// FindUserByEmail 透過 Email 尋找使用者，找不到時回傳 ErrNotFound
func FindUserByEmail(email string) (*models.User, error) {
	collection := GetCollection(usersCollection)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var user models.User
	err := collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByID 透過 ID 尋找使用者，找不到時回傳 ErrNotFound
func GetUserByID(userID primitive.ObjectID) (*models.User, error) {
	collection := GetCollection(usersCollection)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var user models.User
	err := collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUsersByIDs 一次取得多位使用者資料
func GetUsersByIDs(userIDs []primitive.ObjectID) ([]models.User, error) {
	if len(userIDs) == 0 {
		return []models.User{}, nil
	}

	collection := GetCollection(usersCollection)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cursor, err := collection.Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
