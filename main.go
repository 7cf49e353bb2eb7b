package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	"github.com/sacredlabs/sacred-api/config"
	"github.com/sacredlabs/sacred-api/handlers"
	"github.com/sacredlabs/sacred-api/middleware"
	"github.com/sacredlabs/sacred-api/routes"
	"github.com/sacredlabs/sacred-api/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	db, err := config.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	log.Println("✅ Database connected successfully")

	if err := config.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	go scheduleSweeps(db)

	wsHandler := handlers.NewWSHandler()

	router := gin.Default()

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}

	allowedOrigins := []string{
		frontendURL,
		"https://sacredcouples.app",
		"https://www.sacredcouples.app",
	}

	log.Printf("🌍 CORS: Allowing origins:")
	for _, origin := range allowedOrigins {
		log.Printf("   - %s", origin)
	}

	corsConfig := cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           86400,
	}
	router.Use(cors.New(corsConfig))

	router.Use(func(c *gin.Context) {
		start := time.Now()
		log.Printf("📨 %s %s from %s", c.Request.Method, c.Request.URL.Path, c.ClientIP())
		c.Next()
		duration := time.Since(start)
		log.Printf("✅ %s %s - %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), duration)
	})

	router.Use(middleware.RateLimiter())

	v1 := router.Group("/api/v1")
	{
		routes.SetupAuthRoutes(v1, db)
		routes.SetupInviteRedeemRoute(v1, db)
		v1.GET("/ws/assessments/:id", wsHandler.HandleWS)

		protected := v1.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			routes.SetupAssessmentRoutes(protected, db, wsHandler)
			routes.SetupInviteRoutes(protected, db)
			routes.SetupUserRoutes(protected, db)
			routes.SetupProgressRoutes(protected, db)
			routes.SetupCheckoutRoutes(protected, db)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 Server starting on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// scheduleSweeps runs the daily housekeeping: stale progress snapshots
// are dropped and long-expired pending invites get their stored status
// materialized. Redemption never relies on the sweep; expiry is
// checked at redeem time.
func scheduleSweeps(db *sql.DB) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	runSweeps(db)
	for range ticker.C {
		runSweeps(db)
	}
}

func runSweeps(db *sql.DB) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	progress := services.NewProgressService(db)
	if removed, err := progress.DeleteStale(ctx, 90*24*time.Hour); err != nil {
		log.Printf("❌ Progress sweep failed: %v", err)
	} else if removed > 0 {
		log.Printf("🧹 Removed %d stale progress snapshots", removed)
	}

	invites := services.NewInviteService(db)
	if marked, err := invites.SweepExpired(ctx); err != nil {
		log.Printf("❌ Invite sweep failed: %v", err)
	} else if marked > 0 {
		log.Printf("🧹 Marked %d invites expired", marked)
	}
}
