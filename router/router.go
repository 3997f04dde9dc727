package router

import (
	"net/http"

	"github.com/brewcraft/restaurant-backend/cache"
	"github.com/brewcraft/restaurant-backend/chat"
	"github.com/brewcraft/restaurant-backend/config"
	"github.com/brewcraft/restaurant-backend/controllers"
	"github.com/brewcraft/restaurant-backend/database"
	"github.com/brewcraft/restaurant-backend/hub"
	"github.com/brewcraft/restaurant-backend/middlewares"
	"github.com/brewcraft/restaurant-backend/reservation"
	"github.com/brewcraft/restaurant-backend/storage"
	"github.com/brewcraft/restaurant-backend/workflow"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Dependencies are the long lived clients built in main.
type Dependencies struct {
	DB              *gorm.DB
	Reservations    *reservation.Service
	Chat            *chat.Service
	Hub             *hub.Hub
	Cache           *cache.Cache
	Store           storage.ObjectStore
	Contact         workflow.Starter
	Notifier        reservation.Notifier
	NotificationLog *database.NotificationLog
	Reconciler      controllers.Reconciler
	Server          config.ServerConfig
	RateLimit       config.RateLimitConfig
	Auth            config.AuthConfig
}

func SetupRouter(d Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(d.Server.AllowedOrigins))
	if d.RateLimit.Requests > 0 {
		r.Use(middlewares.NewRateLimiter(d.RateLimit.Requests, d.RateLimit.Window).RateLimit())
	}

	// Inisialisasi controller
	userCtrl := controllers.NewUserController(d.DB, d.Notifier, d.Auth)
	tableCtrl := controllers.NewTableController(d.Reservations, d.Cache, d.Hub)
	bookingCtrl := controllers.NewBookingController(d.Reservations, d.Cache, d.Hub)
	categoryCtrl := controllers.NewMenuCategoryController(d.DB, d.Cache)
	menuCtrl := controllers.NewMenuController(d.DB, d.Cache)
	uploadCtrl := controllers.NewUploadController(d.Store)
	contactCtrl := controllers.NewContactController(d.Contact)
	notificationCtrl := controllers.NewNotificationController(d.NotificationLog, d.Notifier)
	adminCtrl := controllers.NewAdminController(d.DB, d.Reconciler)
	chatCtrl := controllers.NewChatController(d.Chat)
	wsCtrl := controllers.NewWebSocketController(d.Hub, d.Chat)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	strict := middlewares.NewStrictRateLimiter()
	public := r.Group("/")
	public.Use(strict.RateLimit())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	verify := r.Group("/")
	verify.Use(middlewares.NewStrictRateLimiter().RateLimit())
	{
		verify.POST("/confirm", userCtrl.ConfirmEmail)
		verify.POST("/verify-email", userCtrl.ResendCode)
	}

	r.GET("/menu", categoryCtrl.GetMenu)
	r.GET("/tables", tableCtrl.GetAllTables)
	r.POST("/bookings", middlewares.OptionalAuth(), bookingCtrl.CreateBooking)
	r.POST("/contact", contactCtrl.SubmitContact)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware(), middlewares.NoStore())
	{
		auth.POST("/logout", userCtrl.Logout)
		auth.GET("/me", userCtrl.GetProfile)

		auth.GET("/bookings", bookingCtrl.GetBookings)
		auth.GET("/bookings/:booking_id", bookingCtrl.GetBooking)
		auth.PUT("/bookings/:booking_id", bookingCtrl.CancelBooking)

		auth.GET("/chat/ws", wsCtrl.ChatHandler)
		auth.GET("/chat/messages", chatCtrl.GetMessages)
		auth.POST("/chat/messages", chatCtrl.SendMessage)
	}

	// ----------------------------------------------------------------
	//                      ADMIN ROUTES
	// ----------------------------------------------------------------
	admin := r.Group("/admin")
	admin.Use(middlewares.AuthMiddleware(), middlewares.AdminOnly(), middlewares.NoStore())
	{
		admin.GET("/ws", wsCtrl.DashboardHandler)
		admin.GET("/dashboard", adminCtrl.GetDashboardStats)
		admin.POST("/reconcile", adminCtrl.Reconcile)
		admin.GET("/users", userCtrl.GetAllUsers)

		// TABLE
		admin.GET("/tables", tableCtrl.GetAllTables)
		admin.GET("/tables/:table_id", tableCtrl.GetTable)
		admin.POST("/tables", tableCtrl.CreateTable)
		admin.PUT("/tables/:table_id", tableCtrl.UpdateTable)
		admin.DELETE("/tables/:table_id", tableCtrl.DeleteTable)

		// BOOKING
		admin.GET("/bookings", bookingCtrl.GetBookings)
		admin.GET("/bookings/:booking_id", bookingCtrl.GetBooking)
		admin.PUT("/bookings/:booking_id", bookingCtrl.UpdateBooking)
		admin.DELETE("/bookings/:booking_id", bookingCtrl.DeleteBooking)

		// MENU
		admin.POST("/categories", categoryCtrl.CreateCategory)
		admin.PUT("/categories/:cat_id", categoryCtrl.UpdateCategory)
		admin.DELETE("/categories/:cat_id", categoryCtrl.DeleteCategory)
		admin.POST("/menus", menuCtrl.CreateMenu)
		admin.PUT("/menus/:menu_id", menuCtrl.UpdateMenu)
		admin.DELETE("/menus/:menu_id", menuCtrl.DeleteMenu)
		admin.POST("/upload", uploadCtrl.UploadImage)

		// NOTIFICATION
		admin.GET("/notifications", notificationCtrl.GetAllNotifications)
		admin.POST("/notifications", notificationCtrl.CreateNotification)

		// CHAT
		admin.GET("/chat/conversations", chatCtrl.GetConversations)
		admin.GET("/chat/online", chatCtrl.GetOnlineUsers)
	}

	return r
}
