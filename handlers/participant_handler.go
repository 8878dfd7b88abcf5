package handlers

import (
	"log"
	"net/http"

	"event-link/backend/database"
	"event-link/backend/utils"
)

// JoinEvent 處理報名活動的請求
// 容量不足回 409 Conflict（CapacityExceeded），重複報名也回 409（AlreadyJoined）
func JoinEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := parseIDVar(w, r)
	if !ok {
		return
	}

	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	participant, err := database.JoinEvent(eventID, userID)
	if err != nil {
		sendDatabaseError(w, err, "joining event")
		return
	}

	log.Printf("User %s joined event %s", userID.Hex(), eventID.Hex())
	sendJSON(w, http.StatusCreated, participant)
}

// LeaveEvent 處理退出活動的請求，沒報名過也回成功（no-op）
func LeaveEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := parseIDVar(w, r)
	if !ok {
		return
	}

	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	if err := database.LeaveEvent(eventID, userID); err != nil {
		sendDatabaseError(w, err, "leaving event")
		return
	}

	sendJSON(w, http.StatusOK, map[string]string{"message": "Left event successfully"})
}

// GetEventParticipants 處理活動參加者列表的請求
func GetEventParticipants(w http.ResponseWriter, r *http.Request) {
	eventID, ok := parseIDVar(w, r)
	if !ok {
		return
	}

	// 活動不存在時回 404，而不是空列表
	if _, err := database.FindEventByID(eventID); err != nil {
		sendDatabaseError(w, err, "fetching event for participants")
		return
	}

	participants, err := database.GetEventParticipants(eventID)
	if err != nil {
		sendDatabaseError(w, err, "fetching participants")
		return
	}

	sendJSON(w, http.StatusOK, participants)
}

// GetUserParticipations 處理「我參加的活動」請求
func GetUserParticipations(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		sendJSONError(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
		return
	}

	participations, err := database.GetUserParticipations(userID)
	if err != nil {
		sendDatabaseError(w, err, "fetching user participations")
		return
	}

	sendJSON(w, http.StatusOK, participations)
}
