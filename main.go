package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"event-link/backend/config"
	"event-link/backend/database"
	"event-link/backend/handlers"
	"event-link/backend/middleware"
	"event-link/backend/websocket"

	"github.com/gorilla/mux"
	"github.com/rs/cors" // 引入 CORS 庫
)

func main() {
	cfg := config.LoadConfig()

	database.ConnectMongoDB(cfg.MongoDBURI, cfg.DBName)
	defer database.DisconnectMongoDB()

	database.ConnectRedis(cfg.RedisAddr)
	defer database.DisconnectRedis()

	// 啟動聊天廣播 Hub，連線集合由這個 goroutine 獨佔管理
	hub := websocket.NewHub(database.NewChatStore())
	go hub.Run()

	router := mux.NewRouter()

	// 健康檢查路由
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "Backend is running!")
	}).Methods("GET")

	// 註冊/登入 API 路由（不需要驗證）
	router.HandleFunc("/api/register", handlers.RegisterUser).Methods("POST")
	router.HandleFunc("/api/login", handlers.LoginUser(cfg)).Methods("POST")

	// WebSocket 升級端點，身分驗證在升級時以 token 查詢參數處理
	router.HandleFunc("/ws", websocket.ServeWS(hub, cfg.JWTSecret))

	// 其餘 API 都掛在 JWT 中介軟體之後
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.JWTMiddleware(cfg.JWTSecret))

	api.HandleFunc("/auth/user", handlers.GetCurrentUser).Methods("GET")

	// 活動 CRUD
	api.HandleFunc("/events", handlers.GetEvents).Methods("GET")
	api.HandleFunc("/events", handlers.CreateEvent).Methods("POST")
	api.HandleFunc("/events/{id}", handlers.GetEvent).Methods("GET")
	api.HandleFunc("/events/{id}", handlers.UpdateEvent).Methods("PUT")
	api.HandleFunc("/events/{id}", handlers.DeleteEvent).Methods("DELETE")

	// 報名/退出/參加者
	api.HandleFunc("/events/{id}/join", handlers.JoinEvent).Methods("POST")
	api.HandleFunc("/events/{id}/leave", handlers.LeaveEvent).Methods("POST")
	api.HandleFunc("/events/{id}/participants", handlers.GetEventParticipants).Methods("GET")

	// 活動相簿與聊天記錄（聊天記錄同時是輪詢備援的讀取路徑）
	api.HandleFunc("/events/{id}/photos", handlers.AddEventPhoto).Methods("POST")
	api.HandleFunc("/events/{id}/photos", handlers.GetEventPhotos).Methods("GET")
	api.HandleFunc("/events/{id}/messages", handlers.GetEventMessages).Methods("GET")

	// 「我的」頁面相關路由
	api.HandleFunc("/users/me/events", handlers.GetUserEvents).Methods("GET")
	api.HandleFunc("/users/me/participations", handlers.GetUserParticipations).Methods("GET")
	api.HandleFunc("/users/me/photos", handlers.GetUserPhotos).Methods("GET")

	// 設置 CORS 中介軟體
	// 實際生產環境中，你應該將 AllowedOrigins 限制為你的前端網域
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// 將 CORS 中介軟體應用到你的路由上
	handler := c.Handler(router)

	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      handler, // 將處理器替換為帶有 CORS 的 handler
		IdleTimeout:  120 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// 如果錯誤不是因為主動關閉伺服器，就記錄錯誤並結束程式
			log.Fatalf("Could not listen on %s: %v", serverAddr, err)
		}
	}()

	//當按下 Ctrl+C，程式會收到 SIGINT
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("Received signal %s, shutting down server...", sig)

	//最多等30秒關閉，避免資料損壞，請求中斷
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited gracefully.")
}
