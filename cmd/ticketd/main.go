package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gm-ticket-service/internal/config"
	"gm-ticket-service/internal/handler"
	"gm-ticket-service/internal/middleware"
	"gm-ticket-service/internal/notify"
	"gm-ticket-service/internal/registry"
	"gm-ticket-service/internal/repository"
	"gm-ticket-service/internal/router"
	"gm-ticket-service/internal/service"
	"gm-ticket-service/internal/session"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting GM ticket service...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize ticket repository based on config
	var ticketRepo repository.TicketRepository
	switch cfg.TicketDB.Type {
	case "mysql":
		db, err := sql.Open("mysql", cfg.Database.DSN())
		if err != nil {
			log.Fatalf("Failed to open MySQL: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.Ping(); err != nil {
			log.Fatalf("Failed to ping MySQL: %v", err)
		}
		ticketRepo = repository.NewMySQLTicketRepository(db)
		log.Println("MySQL ticket repository initialized")
	default: // sqlite
		sqliteRepo, err := repository.NewSQLiteTicketRepository(cfg.TicketDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		ticketRepo = sqliteRepo
		log.Println("SQLite ticket repository initialized")
	}
	defer ticketRepo.Close()

	// Initialize redis announcer (optional)
	var announcer *notify.RedisAnnouncer
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddress(),
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})

	a, err := notify.NewRedisAnnouncer(redisClient, cfg.Tickets.AnnounceChannel)
	if err != nil {
		log.Printf("Warning: Redis connection failed, GM event announcements disabled: %v", err)
		redisClient.Close()
	} else {
		announcer = a
		defer announcer.Close()
		log.Println("Redis announcer initialized")
	}

	// Session manager: the world server attaches player sessions here
	sessions := session.NewManager()

	// Initialize the ticket registry and load open tickets from the store
	reg := registry.New(registry.Config{
		Repository:    ticketRepo,
		Notifier:      sessions,
		Announcer:     announcer,
		AcceptTickets: cfg.Tickets.AcceptDefault,
	})

	loadCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := reg.Load(loadCtx); err != nil {
		log.Fatalf("Failed to load tickets: %v", err)
	}
	cancel()

	// Initialize services and handlers
	ticketService := service.NewTicketService(reg)

	healthHandler := handler.New(cfg.App.Version)
	ticketHandler := handler.NewTicketHandler(ticketService)
	gmHandler := handler.NewGMHandler(ticketService)

	gmAuth := middleware.NewGMAuthMiddleware(middleware.AuthConfig{})

	// Create router
	r := router.New(router.Config{
		Handler:       healthHandler,
		TicketHandler: ticketHandler,
		GMHandler:     gmHandler,
		GMMiddleware:  gmAuth,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
