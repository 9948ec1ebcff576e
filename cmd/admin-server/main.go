package main

import (
	"log"

	"lumenhaus-backend/internal/api"
	"lumenhaus-backend/internal/api/router"
	"lumenhaus-backend/internal/database"
	"lumenhaus-backend/internal/env"
	"lumenhaus-backend/internal/media"
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
	uploader := media.NewHTTPUploader()
	messengerService := messenger.New(store, uploader)
	inquiryService := inquiry.New(db.Client)

	server := api.NewAPIServer(
		":82",
		queueManager,
		db,
		nil,
		messengerService,
		inquiryService,
		router.UtilsRoutes("/api/admin/v1"),
		router.InboxRoutes("/api/admin/v1"),
		router.InquiryAdminRoutes("/api/admin/v1"),
	)

	server.Run()
}
