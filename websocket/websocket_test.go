package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"event-link/backend/database/mocks"
	"event-link/backend/models"
	"event-link/backend/utils"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/mock/gomock"
)

const testSecret = "test-secret"

// newTestServer 啟動一個帶 Hub 的測試伺服器，回傳 WebSocket URL
func newTestServer(t *testing.T, store *mocks.MockChatStore) string {
	t.Helper()

	hub := NewHub(store)
	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(ServeWS(hub, testSecret)))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// dialClient 以指定使用者的 token 連上指定活動的聊天室
func dialClient(t *testing.T, wsURL string, eventID primitive.ObjectID, userID primitive.ObjectID) *websocket.Conn {
	t.Helper()

	token, err := utils.GenerateJWT(userID, "tester", testSecret)
	require.NoError(t, err, "生成測試 token 失敗")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?eventId="+eventID.Hex()+"&token="+token, nil)
	require.NoError(t, err, "WebSocket 連線失敗")
	t.Cleanup(func() { conn.Close() })

	// 等 Hub 完成註冊，避免廣播跑在訂閱之前
	time.Sleep(100 * time.Millisecond)
	return conn
}

// receivedFrame 是測試中收到的訊框，涵蓋 chat_message 與 error 兩種形狀
type receivedFrame struct {
	Type    models.FrameType           `json:"type"`
	Data    models.ChatMessageWithUser `json:"data"`
	Message string                     `json:"message"`
}

// readFrame 在時限內讀取一個訊框
func readFrame(t *testing.T, conn *websocket.Conn) receivedFrame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err, "時限內應該收到訊框")

	var frame receivedFrame
	require.NoError(t, json.Unmarshal(payload, &frame), "訊框應該是合法 JSON")
	return frame
}

// expectNoFrame 斷言在短時間內收不到任何訊框
func expectNoFrame(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "不應該收到訊框")
}

func TestBroadcastReachesAllEventSubscribers(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockChatStore(ctrl)

	eventID := primitive.NewObjectID()
	otherEventID := primitive.NewObjectID()
	userA := primitive.NewObjectID()
	userB := primitive.NewObjectID()

	// 連線時的歷史回放:兩個活動都沒有歷史訊息
	store.EXPECT().GetEventMessages(gomock.Any()).Return([]models.ChatMessageWithUser{}, nil).AnyTimes()

	// 持久化由儲存層指定時間戳
	saved := models.ChatMessageWithUser{
		ChatMessage: models.ChatMessage{
			ID:        primitive.NewObjectID(),
			EventID:   eventID,
			UserID:    userB,
			Message:   "hi",
			Timestamp: time.Now(),
		},
		User: models.User{ID: userB, Username: "userB"},
	}
	store.EXPECT().InsertChatMessage(eventID, userB, "hi").Return(&saved, nil)

	wsURL := newTestServer(t, store)
	connA := dialClient(t, wsURL, eventID, userA)
	connB := dialClient(t, wsURL, eventID, userB)
	connOther := dialClient(t, wsURL, otherEventID, userA)

	// B 發送一則訊息
	frame := models.InboundFrame{
		Type:    models.FrameTypeChatMessage,
		EventID: eventID.Hex(),
		UserID:  userB.Hex(),
		Message: "hi",
	}
	require.NoError(t, connB.WriteJSON(frame))

	// A 與 B 都要收到，而且帶發送者身分（發送者也收到自己的回聲）
	for _, conn := range []*websocket.Conn{connA, connB} {
		received := readFrame(t, conn)
		assert.Equal(t, models.FrameTypeChatMessage, received.Type, "訊框類型應該是 chat_message")
		assert.Equal(t, "hi", received.Data.Message, "訊息內容應該原樣送達")
		assert.Equal(t, userB, received.Data.User.ID, "訊息應該帶著發送者的身分")
	}

	// 訂閱其他活動的連線不應該收到（廣播只在活動範圍內）
	expectNoFrame(t, connOther)
}

func TestMalformedFrameRepliesToSenderOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockChatStore(ctrl)

	eventID := primitive.NewObjectID()
	userA := primitive.NewObjectID()
	userB := primitive.NewObjectID()

	store.EXPECT().GetEventMessages(gomock.Any()).Return([]models.ChatMessageWithUser{}, nil).AnyTimes()

	saved := models.ChatMessageWithUser{
		ChatMessage: models.ChatMessage{
			ID:        primitive.NewObjectID(),
			EventID:   eventID,
			UserID:    userB,
			Message:   "still alive",
			Timestamp: time.Now(),
		},
		User: models.User{ID: userB, Username: "userB"},
	}
	store.EXPECT().InsertChatMessage(eventID, userB, "still alive").Return(&saved, nil)

	wsURL := newTestServer(t, store)
	connA := dialClient(t, wsURL, eventID, userA)
	connB := dialClient(t, wsURL, eventID, userB)

	// 缺少 message 欄位的壞訊框
	require.NoError(t, connB.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"chat_message","eventId":"`+eventID.Hex()+`","userId":"`+userB.Hex()+`"}`)))

	// 只有發送者收到 error 訊框
	received := readFrame(t, connB)
	assert.Equal(t, models.FrameTypeError, received.Type, "發送者應該收到 error 訊框")
	assert.NotEmpty(t, received.Message, "error 訊框應該帶訊息")
	expectNoFrame(t, connA)

	// 完全不是 JSON 的內容也一樣
	require.NoError(t, connB.WriteMessage(websocket.TextMessage, []byte("not json at all")))
	received = readFrame(t, connB)
	assert.Equal(t, models.FrameTypeError, received.Type, "壞 JSON 也應該收到 error 訊框")

	// 連線沒有被關閉，後續合法訊框照常運作
	frame := models.InboundFrame{
		Type:    models.FrameTypeChatMessage,
		EventID: eventID.Hex(),
		UserID:  userB.Hex(),
		Message: "still alive",
	}
	require.NoError(t, connB.WriteJSON(frame))

	received = readFrame(t, connB)
	assert.Equal(t, models.FrameTypeChatMessage, received.Type, "壞訊框之後連線應該仍然可用")
	assert.Equal(t, "still alive", received.Data.Message)
}

func TestStoreFailureRepliesToSenderAndKeepsConnection(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockChatStore(ctrl)

	eventID := primitive.NewObjectID()
	userA := primitive.NewObjectID()

	store.EXPECT().GetEventMessages(gomock.Any()).Return([]models.ChatMessageWithUser{}, nil).AnyTimes()

	// 第一次寫入失敗（模擬暫時性的資料庫故障），第二次成功
	saved := models.ChatMessageWithUser{
		ChatMessage: models.ChatMessage{
			ID:        primitive.NewObjectID(),
			EventID:   eventID,
			UserID:    userA,
			Message:   "retry",
			Timestamp: time.Now(),
		},
		User: models.User{ID: userA, Username: "userA"},
	}
	gomock.InOrder(
		store.EXPECT().InsertChatMessage(eventID, userA, "doomed").Return(nil, assert.AnError),
		store.EXPECT().InsertChatMessage(eventID, userA, "retry").Return(&saved, nil),
	)

	wsURL := newTestServer(t, store)
	conn := dialClient(t, wsURL, eventID, userA)

	require.NoError(t, conn.WriteJSON(models.InboundFrame{
		Type:    models.FrameTypeChatMessage,
		EventID: eventID.Hex(),
		UserID:  userA.Hex(),
		Message: "doomed",
	}))

	received := readFrame(t, conn)
	assert.Equal(t, models.FrameTypeError, received.Type, "儲存失敗應該以 error 訊框回報給發送者")

	// 連線保持開啟，客戶端自行重送
	require.NoError(t, conn.WriteJSON(models.InboundFrame{
		Type:    models.FrameTypeChatMessage,
		EventID: eventID.Hex(),
		UserID:  userA.Hex(),
		Message: "retry",
	}))

	received = readFrame(t, conn)
	assert.Equal(t, models.FrameTypeChatMessage, received.Type, "儲存恢復後廣播應該照常")
	assert.Equal(t, "retry", received.Data.Message)
}

func TestClosedConnectionReceivesNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockChatStore(ctrl)

	eventID := primitive.NewObjectID()
	userA := primitive.NewObjectID()
	userB := primitive.NewObjectID()

	store.EXPECT().GetEventMessages(gomock.Any()).Return([]models.ChatMessageWithUser{}, nil).AnyTimes()

	saved := models.ChatMessageWithUser{
		ChatMessage: models.ChatMessage{
			ID:        primitive.NewObjectID(),
			EventID:   eventID,
			UserID:    userA,
			Message:   "after close",
			Timestamp: time.Now(),
		},
		User: models.User{ID: userA, Username: "userA"},
	}
	store.EXPECT().InsertChatMessage(eventID, userA, "after close").Return(&saved, nil)

	wsURL := newTestServer(t, store)
	connA := dialClient(t, wsURL, eventID, userA)
	connB := dialClient(t, wsURL, eventID, userB)

	// B 在廣播之前正常關閉連線
	require.NoError(t, connB.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	connB.Close()
	time.Sleep(100 * time.Millisecond) // 等 Hub 處理完註銷

	require.NoError(t, connA.WriteJSON(models.InboundFrame{
		Type:    models.FrameTypeChatMessage,
		EventID: eventID.Hex(),
		UserID:  userA.Hex(),
		Message: "after close",
	}))

	// 廣播當下仍開啟的連線（A）收到訊息；關閉的連線自然什麼都收不到，
	// 它之後只能靠輪詢備援補齊
	received := readFrame(t, connA)
	assert.Equal(t, "after close", received.Data.Message)
}

func TestDisconnectDuringHistoryReplaySurvives(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockChatStore(ctrl)

	eventID := primitive.NewObjectID()
	userA := primitive.NewObjectID()
	userB := primitive.NewObjectID()

	history := []models.ChatMessageWithUser{{
		ChatMessage: models.ChatMessage{
			ID:        primitive.NewObjectID(),
			EventID:   eventID,
			UserID:    userA,
			Message:   "old news",
			Timestamp: time.Now().Add(-time.Hour),
		},
		User: models.User{ID: userA, Username: "userA"},
	}}

	// 歷史查詢故意拖慢，讓回放一定跑在連線關閉之後
	store.EXPECT().GetEventMessages(gomock.Any()).DoAndReturn(
		func(primitive.ObjectID) ([]models.ChatMessageWithUser, error) {
			time.Sleep(300 * time.Millisecond)
			return history, nil
		}).AnyTimes()

	saved := models.ChatMessageWithUser{
		ChatMessage: models.ChatMessage{
			ID:        primitive.NewObjectID(),
			EventID:   eventID,
			UserID:    userB,
			Message:   "still serving",
			Timestamp: time.Now(),
		},
		User: models.User{ID: userB, Username: "userB"},
	}
	store.EXPECT().InsertChatMessage(eventID, userB, "still serving").Return(&saved, nil)

	wsURL := newTestServer(t, store)

	// 連上就立刻關閉:回放 goroutine 醒來時連線早已註銷
	token, err := utils.GenerateJWT(userA, "tester", testSecret)
	require.NoError(t, err)
	flaky, _, err := websocket.DefaultDialer.Dial(wsURL+"?eventId="+eventID.Hex()+"&token="+token, nil)
	require.NoError(t, err, "WebSocket 連線失敗")
	flaky.Close()

	// 等回放 goroutine 跑完，伺服器必須還活著
	time.Sleep(500 * time.Millisecond)

	conn := dialClient(t, wsURL, eventID, userB)
	time.Sleep(500 * time.Millisecond) // 等這條連線自己的歷史回放送達

	received := readFrame(t, conn)
	assert.Equal(t, "old news", received.Data.Message, "新連線應該照常收到歷史訊息")

	require.NoError(t, conn.WriteJSON(models.InboundFrame{
		Type:    models.FrameTypeChatMessage,
		EventID: eventID.Hex(),
		UserID:  userB.Hex(),
		Message: "still serving",
	}))
	received = readFrame(t, conn)
	assert.Equal(t, "still serving", received.Data.Message, "提前斷線的連線不應該影響伺服器")
}

func TestFrameFromOtherUserIsRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockChatStore(ctrl)

	eventID := primitive.NewObjectID()
	userA := primitive.NewObjectID()
	userB := primitive.NewObjectID()

	store.EXPECT().GetEventMessages(gomock.Any()).Return([]models.ChatMessageWithUser{}, nil).AnyTimes()

	saved := models.ChatMessageWithUser{
		ChatMessage: models.ChatMessage{
			ID:        primitive.NewObjectID(),
			EventID:   eventID,
			UserID:    userA,
			Message:   "as myself",
			Timestamp: time.Now(),
		},
		User: models.User{ID: userA, Username: "userA"},
	}
	store.EXPECT().InsertChatMessage(eventID, userA, "as myself").Return(&saved, nil)

	wsURL := newTestServer(t, store)
	conn := dialClient(t, wsURL, eventID, userA)

	// 以 A 的連線冒用 B 的身分留言:拒絕且不落地
	require.NoError(t, conn.WriteJSON(models.InboundFrame{
		Type:    models.FrameTypeChatMessage,
		EventID: eventID.Hex(),
		UserID:  userB.Hex(),
		Message: "impostor",
	}))

	received := readFrame(t, conn)
	assert.Equal(t, models.FrameTypeError, received.Type, "冒名的訊框應該收到 error 訊框")

	// 用自己的身分留言照常運作
	require.NoError(t, conn.WriteJSON(models.InboundFrame{
		Type:    models.FrameTypeChatMessage,
		EventID: eventID.Hex(),
		UserID:  userA.Hex(),
		Message: "as myself",
	}))

	received = readFrame(t, conn)
	assert.Equal(t, models.FrameTypeChatMessage, received.Type)
	assert.Equal(t, "as myself", received.Data.Message)
}

func TestServeWSRejectsBadRequests(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockChatStore(ctrl)

	hub := NewHub(store)
	go hub.Run()
	server := httptest.NewServer(http.HandlerFunc(ServeWS(hub, testSecret)))
	defer server.Close()

	eventID := primitive.NewObjectID()
	token, err := utils.GenerateJWT(primitive.NewObjectID(), "tester", testSecret)
	require.NoError(t, err)

	cases := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{"missing token", "?eventId=" + eventID.Hex(), http.StatusBadRequest},
		{"missing eventId", "?token=" + token, http.StatusBadRequest},
		{"bad eventId", "?eventId=abc&token=" + token, http.StatusBadRequest},
		{"bad token", "?eventId=" + eventID.Hex() + "&token=garbage", http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Get(server.URL + tc.query)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tc.wantStatus, resp.StatusCode, "升級前的參數檢查狀態碼錯誤")
		})
	}
}
