package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"relaychat/backend/internal/api/handler"
	"relaychat/backend/internal/auth"
	"relaychat/backend/internal/chathub"
	"relaychat/backend/internal/config"
	"relaychat/backend/internal/models"
	"relaychat/backend/internal/storage"
)

func setupDatabase(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	if err := db.AutoMigrate(&models.Message{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database connection established, migrations complete.")
	return db
}

func main() {
	log.Println("Starting RelayChat Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		// Not fatal: the verifier reports the missing secret per call.
		log.Println("Warning: JWT_SECRET is not set, all auth checks will fail")
	}

	db := setupDatabase(cfg.DBDSN)
	s := storage.NewStorageService(db)
	verifier := auth.NewVerifier(cfg.JWTSecret)

	hub := chathub.NewGatewayService(s, verifier)
	go hub.Run()

	r := gin.Default()
	h := handler.NewHandler(hub, s, verifier)

	r.GET("/ws", h.ServeWebSocket)
	r.GET("/messages", h.ListMessages)
	r.DELETE("/messages/flush", h.FlushChannel)
	r.DELETE("/messages/:id", h.DeleteMessage)

	server := &http.Server{
		Addr:           cfg.Addr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
