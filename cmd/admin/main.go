package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"relaychat/backend/internal/models"
	"relaychat/backend/internal/storage"
)

func openStorage() *storage.Service {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	return storage.NewStorageService(db)
}

// mintToken signs a bearer token for local testing. Token issuance is not
// part of the server; this CLI stands in for the external issuer.
func mintToken(subject, role string, ttlHours int) (string, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", fmt.Errorf("JWT_SECRET is not set")
	}

	claims := jwt.MapClaims{
		"sub":  subject,
		"role": string(models.ParseRole(role)),
		"exp":  time.Now().Add(time.Duration(ttlHours) * time.Hour).Unix(),
		"iss":  "relaychat-admin",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		fmt.Println("Commands:")
		fmt.Println("  flush <channel>                    delete every message of a channel")
		fmt.Println("  delete <message-id>                delete a single message")
		fmt.Println("  token <subject> [role] [ttl-hours] mint a bearer token for testing")
		os.Exit(1)
	}

	command := os.Args[1]
	ctx := context.Background()

	switch command {
	case "flush":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin flush <channel>")
			os.Exit(1)
		}
		channel, ok := models.ParseChannelKey(os.Args[2])
		if !ok {
			fmt.Printf("Unknown channel %q. Valid channels: %s, %s\n",
				os.Args[2], models.ChannelGeneral, models.ChannelSupport)
			os.Exit(1)
		}
		deleted, err := openStorage().FlushChannel(ctx, channel)
		if err != nil {
			log.Fatalf("Error flushing channel: %v", err)
		}
		fmt.Printf("Deleted %d messages from %s.\n", deleted, channel)

	case "delete":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin delete <message-id>")
			os.Exit(1)
		}
		msg, err := openStorage().DeleteMessage(ctx, os.Args[2])
		if err != nil {
			log.Fatalf("Error deleting message: %v", err)
		}
		fmt.Printf("Deleted message %s from %s.\n", msg.ID, msg.ChannelKey)

	case "token":
		if len(os.Args) < 3 {
			fmt.Println("Usage: admin token <subject> [role] [ttl-hours]")
			os.Exit(1)
		}
		role := "user"
		if len(os.Args) > 3 {
			role = os.Args[3]
		}
		ttl := 72
		if len(os.Args) > 4 {
			var err error
			ttl, err = strconv.Atoi(os.Args[4])
			if err != nil {
				fmt.Println("Invalid ttl. Please provide an integer number of hours.")
				os.Exit(1)
			}
		}
		token, err := mintToken(os.Args[2], role, ttl)
		if err != nil {
			log.Fatalf("Error minting token: %v", err)
		}
		fmt.Println(token)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}
