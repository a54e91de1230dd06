package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"github.com/tradeskills/tradeskills-backend/internal/config"
	"github.com/tradeskills/tradeskills-backend/internal/db"
	"github.com/tradeskills/tradeskills-backend/internal/handlers"
	"github.com/tradeskills/tradeskills-backend/internal/middleware"
	"github.com/tradeskills/tradeskills-backend/internal/models"
	"github.com/tradeskills/tradeskills-backend/internal/realtime"
	adminsvc "github.com/tradeskills/tradeskills-backend/internal/services/admin"
	notificationsvc "github.com/tradeskills/tradeskills-backend/internal/services/notification"
	paymentsvc "github.com/tradeskills/tradeskills-backend/internal/services/payment"
	reviewsvc "github.com/tradeskills/tradeskills-backend/internal/services/review"
	sessionsvc "github.com/tradeskills/tradeskills-backend/internal/services/session"
	walletsvc "github.com/tradeskills/tradeskills-backend/internal/services/wallet"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Wallet{},
		&models.CreditLock{},
		&models.Transaction{},
		&models.Skill{},
		&models.UserSkill{},
		&models.Session{},
		&models.SessionParticipant{},
		&models.CreditPackage{},
		&models.Payment{},
		&models.AdminAction{},
		&models.Review{},
		&models.Notification{},
	); err != nil {
		log.Fatal(err)
	}

	rdb := realtime.NewRedis()
	hub := realtime.NewHub()
	go hub.Run()

	var publisher *realtime.Publisher
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Println("Redis unreachable, realtime events stay in-process:", err)
	} else {
		publisher = realtime.NewPublisher(rdb)
		go realtime.Subscribe(context.Background(), rdb, hub)
	}

	walletS := walletsvc.NewService(gdb)
	sessionS := sessionsvc.NewService(gdb, walletS)
	adminS := adminsvc.NewService(gdb, walletS, sessionS)
	paymentS := paymentsvc.NewService(gdb, walletS)
	reviewS := reviewsvc.NewService(gdb)
	notificationS := notificationsvc.NewService(gdb, hub, publisher)

	authH := &handlers.AuthHandler{
		DB:              gdb,
		Wallet:          walletS,
		JWTSecret:       cfg.JWTSecret,
		Expires:         cfg.JWTExpiresMin,
		StartingCredits: cfg.StartingCredits,
	}
	googleH := &handlers.GoogleOAuthHandler{
		DB:              gdb,
		Wallet:          walletS,
		JWTSecret:       cfg.JWTSecret,
		Expires:         cfg.JWTExpiresMin,
		StartingCredits: cfg.StartingCredits,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
	}
	walletH := &handlers.WalletHandler{DB: gdb, Wallet: walletS, StartingCredits: cfg.StartingCredits}
	sessionH := &handlers.SessionHandler{DB: gdb, Sessions: sessionS, Notifications: notificationS}
	skillH := &handlers.SkillHandler{DB: gdb}
	paymentH := &handlers.PaymentHandler{DB: gdb, Payments: paymentS}
	adminH := &handlers.AdminHandler{DB: gdb, Admin: adminS, Wallet: walletS}
	reviewH := &handlers.ReviewHandler{Reviews: reviewS}
	notifH := &handlers.NotificationHandler{Hub: hub, Notifications: notificationS}

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendBaseURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	api := app.Group("/api")

	// public
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/logout", authH.Logout)
	api.Get("/auth/google/start", googleH.GoogleStart)
	api.Get("/auth/google/callback", googleH.GoogleCallback)
	api.Get("/skills", skillH.ListSkills)
	api.Get("/sessions", sessionH.ListPublic)
	api.Get("/sessions/:id", sessionH.GetByID)
	api.Get("/packages", paymentH.ListPackages)
	api.Get("/users/:userId/reviews", reviewH.ListForUser)
	api.Post("/payments/webhook", paymentH.Webhook)

	// protected (JWT cookie)
	protected := api.Group("/",
		middleware.JWTFromCookie(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
	)

	protected.Get("/me", authH.Me)

	protected.Get("/wallet", walletH.GetWallet)
	protected.Get("/wallet/transactions", walletH.GetTransactions)
	protected.Get("/wallet/locks", walletH.GetLockedCredits)

	protected.Post("/sessions", sessionH.Create)
	protected.Get("/my/sessions", sessionH.ListMine)
	protected.Post("/sessions/:id/join", sessionH.Join)
	protected.Post("/sessions/:id/leave", sessionH.Leave)
	protected.Post("/sessions/:id/confirm", sessionH.Confirm)
	protected.Post("/sessions/:id/start", sessionH.Start)
	protected.Post("/sessions/:id/end", sessionH.End)
	protected.Post("/sessions/:id/complete", sessionH.Complete)
	protected.Post("/sessions/:id/cancel", sessionH.Cancel)

	protected.Post("/skills", skillH.CreateSkill)
	protected.Get("/my/skills", skillH.ListUserSkills)
	protected.Post("/my/skills", skillH.AddUserSkill)
	protected.Delete("/my/skills/:id", skillH.RemoveUserSkill)

	protected.Post("/reviews", reviewH.Create)

	protected.Get("/notifications", notifH.List)
	protected.Patch("/notifications/read-all", notifH.MarkAllRead)
	protected.Patch("/notifications/:id/read", notifH.MarkRead)

	protected.Post("/payments/order", paymentH.CreateOrder)
	protected.Post("/payments/verify", paymentH.VerifyPayment)
	protected.Get("/payments", paymentH.ListPayments)

	// admin only
	adm := protected.Group("/admin", middleware.RequireRoles("admin"))
	adm.Post("/credits/adjust", adminH.AdjustCredits)
	adm.Post("/sessions/:id/cancel", adminH.CancelSession)
	adm.Post("/users/:id/suspend", adminH.SuspendUser)
	adm.Post("/users/:id/restore", adminH.RestoreUser)
	adm.Get("/users", adminH.ListUsers)
	adm.Get("/users/:id/transactions", adminH.GetUserTransactions)
	adm.Get("/sessions", adminH.ListSessions)
	adm.Get("/actions", adminH.ListActions)

	// WebSocket notification stream, authenticated by the same JWT cookie
	app.Use("/ws", middleware.JWTFromCookie(cfg.JWTSecret), middleware.AttachJWTLocals())
	app.Get("/ws/notifications", websocket.New(notifH.WebSocketHandler))

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
