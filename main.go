package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bloodlink/auth"
	"bloodlink/chat"
	"bloodlink/config"
	"bloodlink/database"
	"bloodlink/handlers"
	"bloodlink/routes"
	"bloodlink/store/mongostore"
	"bloodlink/ws"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	log.Println("🚀 Starting BloodLink messaging gateway...")

	_ = godotenv.Load()
	cfg := config.Load()

	// ===== CONNECT TO MONGODB WITH RETRY =====
	log.Println("🔌 Connecting to MongoDB...")

	var client *mongo.Client
	var dbErr error
	for i := 1; i <= 3; i++ {
		client, dbErr = database.Connect(cfg.MongoURI)
		if dbErr != nil {
			log.Printf("❌ MongoDB connection attempt %d failed: %v", i, dbErr)
			time.Sleep(2 * time.Second)
			continue
		}
		break
	}
	if dbErr != nil {
		log.Fatal("❌ Failed to connect to MongoDB:", dbErr)
	}
	defer database.Disconnect(client)

	db := client.Database(cfg.MongoDatabase)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		cancel()
		log.Fatal("❌ Failed to create indexes:", err)
	}
	cancel()
	log.Println("✅ MongoDB ready, indexes ensured")

	// ===== GIN MODE =====
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// ===== WIRING =====
	st := mongostore.New(db)
	verifier := auth.NewJWTVerifier(cfg.JWTSecret)

	gateway := ws.NewGateway(st)
	pipeline := chat.NewPipeline(st, gateway, cfg.MaxMessageLength)
	receipts := chat.NewReceipts(st, gateway)
	typing := chat.NewTyping(gateway)
	notifier := chat.NewNotifier(st, gateway)

	socketHandler := ws.NewHandler(gateway, verifier, pipeline, receipts, typing)

	router := routes.SetupRouter(routes.Dependencies{
		Config:        cfg,
		Verifier:      verifier,
		Chat:          handlers.NewChatHandler(st, pipeline, receipts),
		Notifications: handlers.NewNotificationHandler(st, notifier),
		Health:        handlers.NewHealthHandler(gateway),
		Socket:        socketHandler,
	})

	log.Println("✅ WebSocket endpoint: /ws")

	// ===== SERVER =====
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🌐 Gateway running on port %s (%s)", cfg.Port, cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("❌ Server error:", err)
		}
	}()

	// ===== GRACEFUL SHUTDOWN =====
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("❌ Forced shutdown:", err)
	}

	log.Println("👋 Gateway stopped gracefully")
}
