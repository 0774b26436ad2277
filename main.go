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

	"github.com/varunnandan321-gif/blood-connect/chat"
	"github.com/varunnandan321-gif/blood-connect/config"
	"github.com/varunnandan321-gif/blood-connect/database"
	"github.com/varunnandan321-gif/blood-connect/handlers"
	"github.com/varunnandan321-gif/blood-connect/middleware"
	"github.com/varunnandan321-gif/blood-connect/mirror"
	"github.com/varunnandan321-gif/blood-connect/websocket"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors" // 引入 CORS 庫
)

func main() {
	cfg := config.LoadConfig()

	database.ConnectMongoDB(cfg.MongoDBURI, cfg.DBName)
	defer database.DisconnectMongoDB()

	// 首次啟動時植入血庫與醫院的種子資料（集合非空時不動作）
	if err := database.SeedFacilities(); err != nil {
		log.Fatalf("Could not seed facilities: %v", err)
	}

	// Redis 用於註冊/登入端點的限流
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	limiter := middleware.NewRateLimiter(redisClient, "ratelimit:auth", 10, time.Minute)

	// 背景服務共用的 context，收到關閉信號時一併取消
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 請求鏡像：整批重讀資料庫並將快照推送給訂閱者
	requestMirror := mirror.New(database.GetAllRequests)
	go requestMirror.Run(ctx)
	// 有 change stream 時由資料庫端觸發更新，沒有時退回由 handler 觸發
	go mirror.WatchRequests(ctx, database.GetCollection("requests"), requestMirror)

	// WebSocket hub：轉發快照、配對通知與聊天訊息
	websocket.JWTSecret = cfg.JWTSecret
	go websocket.GlobalHub.Run()
	go websocket.GlobalHub.ConsumeMirror(ctx, requestMirror)

	handlers.Configure(cfg, requestMirror, chat.NewManager(database.ChatStore{}))

	router := mux.NewRouter()

	// 健康檢查路由
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "Backend is running!")
	}).Methods("GET")

	// 公開路由：註冊與登入套用限流
	router.Handle("/register", limiter.Middleware(http.HandlerFunc(handlers.RegisterUser))).Methods("POST")
	router.Handle("/login", limiter.Middleware(http.HandlerFunc(handlers.LoginUser))).Methods("POST")
	router.HandleFunc("/auth/google/login", handlers.GoogleLogin).Methods("GET")
	router.HandleFunc("/auth/google/callback", handlers.GoogleCallback).Methods("GET")

	// WebSocket 連線自帶 token 驗證
	router.HandleFunc("/ws", websocket.HandleConnections)

	// 需要 JWT 的路由
	api := router.NewRoute().Subrouter()
	api.Use(middleware.JWTMiddleware(cfg.JWTSecret))

	api.HandleFunc("/users", handlers.GetAllUsers).Methods("GET")
	api.HandleFunc("/users/{id}", handlers.DeleteUser).Methods("DELETE")
	api.HandleFunc("/profile", handlers.GetProfile).Methods("GET")
	api.HandleFunc("/profile", handlers.UpdateProfile).Methods("PUT")

	api.HandleFunc("/requests", handlers.CreateRequest).Methods("POST")
	api.HandleFunc("/requests", handlers.GetRequests).Methods("GET")
	api.HandleFunc("/requests/{id}/fulfill", handlers.FulfillRequest).Methods("PUT")
	api.HandleFunc("/requests/{id}", handlers.DeleteRequest).Methods("DELETE")

	api.HandleFunc("/facilities", handlers.GetFacilities).Methods("GET")

	api.HandleFunc("/chats", handlers.StartChat).Methods("POST")
	api.HandleFunc("/chats", handlers.GetUserChats).Methods("GET")
	api.HandleFunc("/chats/{id}/messages", handlers.GetChatMessages).Methods("GET")
	api.HandleFunc("/chats/{id}/messages", handlers.SendMessage).Methods("POST")

	// 設置 CORS 中介軟體
	// 實際生產環境中，AllowedOrigins 應限制為前端網域
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// 將 CORS 中介軟體應用到路由上
	handler := c.Handler(router)

	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
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

	// 先停掉背景服務
	cancel()

	//最多等30秒關閉，避免資料損壞，請求中斷
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited gracefully.")
}
