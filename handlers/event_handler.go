package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"event-link/backend/database"
	"event-link/backend/models"
	"event-link/backend/utils"
)

// GetEvents 處理探索頁的活動列表請求，可用 ?q= 做標題/地點/標籤的子字串過濾
func GetEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	events, err := database.GetEvents(query)
	if err != nil {
		sendDatabaseError(w, err, "fetching events")
		return
	}

	sendJSON(w, http.StatusOK, events)
}

// GetEvent 處理單一活動的查詢請求
func GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := parseIDVar(w, r)
	if !ok {
		return
	}

	event, err := database.FindEventByID(eventID)
	if err != nil {
		sendDatabaseError(w, err, "fetching event")
		return
	}

	sendJSON(w, http.StatusOK, event)
}

// CreateEvent 處理建立活動的請求，呼叫者自動成為活動建立者
func CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	var req models.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("JSON decode error: %v", err)
		sendJSONError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if !validateStruct(w, req) {
		return
	}

	event, err := database.InsertEvent(req, userID)
	if err != nil {
		sendDatabaseError(w, err, "creating event")
		return
	}

	log.Printf("Event created: %s by user %s", event.ID.Hex(), userID.Hex())
	sendJSON(w, http.StatusCreated, event)
}

// UpdateEvent 處理更新活動的請求，只有活動建立者可以更新
func UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := parseIDVar(w, r)
	if !ok {
		return
	}

	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	event, err := database.FindEventByID(eventID)
	if err != nil {
		sendDatabaseError(w, err, "fetching event for update")
		return
	}

	// 擁有權檢查:活動只屬於它的建立者
	if event.CreatorID != userID {
		sendJSONError(w, "Not authorized to update this event", http.StatusForbidden)
		return
	}

	var req models.UpdateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("JSON decode error: %v", err)
		sendJSONError(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if !validateStruct(w, req) {
		return
	}

	updated, err := database.UpdateEvent(eventID, req)
	if err != nil {
		sendDatabaseError(w, err, "updating event")
		return
	}

	sendJSON(w, http.StatusOK, updated)
}

// DeleteEvent 處理刪除活動的請求，只有活動建立者可以刪除
func DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := parseIDVar(w, r)
	if !ok {
		return
	}

	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	event, err := database.FindEventByID(eventID)
	if err != nil {
		sendDatabaseError(w, err, "fetching event for delete")
		return
	}

	if event.CreatorID != userID {
		sendJSONError(w, "Not authorized to delete this event", http.StatusForbidden)
		return
	}

	if err := database.DeleteEvent(eventID); err != nil {
		sendDatabaseError(w, err, "deleting event")
		return
	}

	log.Printf("Event deleted: %s by user %s", eventID.Hex(), userID.Hex())
	sendJSON(w, http.StatusOK, map[string]string{"message": "Event deleted successfully"})
}

// GetUserEvents 處理「我建立的活動」請求
func GetUserEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	events, err := database.GetUserEvents(userID)
	if err != nil {
		sendDatabaseError(w, err, "fetching user events")
		return
	}

	sendJSON(w, http.StatusOK, events)
}
