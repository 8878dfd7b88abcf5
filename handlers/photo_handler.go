package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"event-link/backend/database"
	"event-link/backend/models"
	"event-link/backend/utils"
)

// AddEventPhoto 處理上傳照片到活動相簿的請求（只收連結與說明，不收檔案）
func AddEventPhoto(w http.ResponseWriter, r *http.Request) {
	eventID, ok := parseIDVar(w, r)
	if !ok {
		return
	}

	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	// 活動必須存在才能上傳照片
	if _, err := database.FindEventByID(eventID); err != nil {
		sendDatabaseError(w, err, "fetching event for photo upload")
		return
	}

	var req models.CreatePhotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("JSON decode error: %v", err)
		sendJSONError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if !validateStruct(w, req) {
		return
	}

	photo, err := database.InsertPhoto(req, eventID, userID)
	if err != nil {
		sendDatabaseError(w, err, "adding photo")
		return
	}

	sendJSON(w, http.StatusCreated, photo)
}

// GetEventPhotos 處理活動相簿的查詢請求
func GetEventPhotos(w http.ResponseWriter, r *http.Request) {
	eventID, ok := parseIDVar(w, r)
	if !ok {
		return
	}

	if _, err := database.FindEventByID(eventID); err != nil {
		sendDatabaseError(w, err, "fetching event for photos")
		return
	}

	photos, err := database.GetEventPhotos(eventID)
	if err != nil {
		sendDatabaseError(w, err, "fetching photos")
		return
	}

	sendJSON(w, http.StatusOK, photos)
}

// GetUserPhotos 處理「我的回憶」請求，列出使用者上傳過的所有照片
func GetUserPhotos(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	photos, err := database.GetUserPhotos(userID)
	if err != nil {
		sendDatabaseError(w, err, "fetching user photos")
		return
	}

	sendJSON(w, http.StatusOK, photos)
}
