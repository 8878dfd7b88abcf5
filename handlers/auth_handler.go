package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"event-link/backend/config"
	"event-link/backend/database"
	"event-link/backend/models"
	"event-link/backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt" // 用於密碼哈希
)

// RegisterUser 處理使用者註冊請求
func RegisterUser(w http.ResponseWriter, r *http.Request) {
	var registerReq models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&registerReq); err != nil {
		log.Printf("JSON decode error: %v", err)
		sendJSONError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if !validateStruct(w, registerReq) {
		return
	}

	// 先檢查 Email 是否已被註冊（唯一索引是最後防線）
	_, err := database.FindUserByEmail(registerReq.Email)
	if err == nil {
		sendJSONError(w, "Email already registered", http.StatusConflict)
		return
	}
	if !errors.Is(err, database.ErrNotFound) {
		log.Printf("Error checking existing email: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// 哈希密碼
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registerReq.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// 創建新使用者
	now := time.Now()
	user := models.User{
		Email:     registerReq.Email,
		Username:  registerReq.Username,
		Password:  string(hashedPassword),
		CreatedAt: now,
		UpdatedAt: now,
	}

	result, err := database.InsertUser(user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			sendJSONError(w, "Email already registered", http.StatusConflict)
			return
		}
		log.Printf("Error inserting user: %v", err)
		sendJSONError(w, "Failed to register user", http.StatusInternalServerError)
		return
	}

	log.Printf("User registered successfully: %v", result.InsertedID)
	sendJSON(w, http.StatusCreated, map[string]string{
		"message": "User registered successfully",
		"id":      result.InsertedID.(primitive.ObjectID).Hex(),
	})
}

// LoginUser 處理使用者登入請求，成功時簽發 JWT
func LoginUser(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var credentials models.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
			log.Printf("JSON decode error: %v", err)
			sendJSONError(w, "Invalid request payload", http.StatusBadRequest)
			return
		}

		if !validateStruct(w, credentials) {
			return
		}

		// 透過 Email 尋找使用者
		user, err := database.FindUserByEmail(credentials.Email)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				sendJSONError(w, "Invalid credentials", http.StatusUnauthorized)
			} else {
				log.Printf("Error finding user by email: %v", err)
				sendJSONError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		// 比較哈希後的密碼
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(credentials.Password)); err != nil {
			sendJSONError(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}

		// 簽發 JWT，之後的 API 請求都帶這個 token
		token, err := utils.GenerateJWT(user.ID, user.Username, cfg.JWTSecret)
		if err != nil {
			log.Printf("Error generating JWT: %v", err)
			sendJSONError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		log.Printf("User logged in successfully: %s", user.Email)
		sendJSON(w, http.StatusOK, map[string]string{
			"message":  "Login successful",
			"id":       user.ID.Hex(), // 將 ObjectID 轉換為 Hex 字串
			"username": user.Username,
			"token":    token,
		})
	}
}

// GetCurrentUser 回傳目前登入者的個人資料
func GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	user, err := database.GetUserByID(userID)
	if err != nil {
		sendDatabaseError(w, err, "fetching current user")
		return
	}

	user.Password = "" // 額外防護，模型的 json:"-" 已經會忽略此欄位
	sendJSON(w, http.StatusOK, user)
}
