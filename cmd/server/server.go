package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"eduline/internal/broadcast"
	"eduline/internal/chat"
	"eduline/internal/database"
	"eduline/internal/handlers"
	"eduline/internal/notify"
	"eduline/internal/profile"
	"eduline/internal/session"
	"eduline/internal/sse"
	ws "eduline/internal/websocket"
	"eduline/pkg/auth"
)

type Server struct {
	Router    *gin.Engine
	DB        *database.Database
	Redis     *redis.Client
	Hub       *ws.Hub
	Broadcast *broadcast.Router
	Sink      *notify.AsynqSink
}

func NewServer() *Server {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println(".env not found, using environment variables")
		}
	}

	dbConn := &database.Database{}
	if err := dbConn.Connect(); err != nil {
		log.Fatalf("Postgres connect failed: %v", err)
	}

	redisURL := os.Getenv("REDIS_URL")
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Redis connect failed: %v", err)
	}

	jwtMgr := auth.NewJWTManager(
		os.Getenv("JWT_SECRET"),
		24*time.Hour,
	)

	sessions := session.NewRegistry(rdb, session.DefaultTTL)
	profiles := profile.NewHTTPLookup(os.Getenv("PROFILE_SERVICE_URL"))

	sink, err := notify.NewAsynqSink(redisURL)
	if err != nil {
		log.Fatalf("notification sink init failed: %v", err)
	}

	hub := ws.NewHub()
	go hub.Run()

	fallback := sse.NewRegistry()

	router := broadcast.NewRouter(hub, fallback, sink)
	go router.Run()

	directory := chat.NewDirectory(dbConn, profiles)
	messages := chat.NewMessages(dbConn, profiles, router)

	gateway := handlers.NewGateway(hub, sessions, dbConn, messages)

	conversationH := handlers.NewConversationHandler(directory, sessions)
	messageH := handlers.NewHTTPMessageHandler(messages)
	wsH := handlers.NewWebSocketHandler(hub, gateway)
	sseH := handlers.NewSSEHandler(fallback)

	engine := gin.Default()
	APIEndpoints(engine, jwtMgr, conversationH, messageH, wsH, sseH)

	return &Server{
		Router:    engine,
		DB:        dbConn,
		Redis:     rdb,
		Hub:       hub,
		Broadcast: router,
		Sink:      sink,
	}
}

func (s *Server) Run() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on port %s", port)
	if err := s.Router.Run(":" + port); err != nil {
		log.Fatalf("Server run error: %v", err)
	}
}
