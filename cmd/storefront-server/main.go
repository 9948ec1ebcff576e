package main

import (
	"log"

	"lumenhaus-backend/internal/api"
	"lumenhaus-backend/internal/api/router"
	"lumenhaus-backend/internal/database"
	"lumenhaus-backend/internal/env"
	"lumenhaus-backend/internal/queue"
	"lumenhaus-backend/internal/service/inquiry"
	"lumenhaus-backend/internal/service/messenger"
	"lumenhaus-backend/internal/websocket"
)

func main() {
	env.ValidateRequired()

	queueManager := queue.NewRequestQueueManager(10, 10)
	db, err := database.NewDatabase()
	if err != nil {
		log.Fatalf("db init failed: %v", err)
	}

	store := messenger.NewDynamoStore(db, websocket.RedisClient())
	messengerService := messenger.New(store, nil)
	inquiryService := inquiry.New(db.Client)

	server := api.NewAPIServer(
		":81",
		queueManager,
		db,
		nil,
		messengerService,
		inquiryService,
		router.UtilsRoutes("/api/public/v1"),
		router.StorefrontChatRoutes("/api/public/v1"),
		router.InquiryPublicRoutes("/api/public/v1"),
	)

	server.Run()
}
