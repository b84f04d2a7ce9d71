package router

import (
	"log"
	"time"

	"github.com/englishmaster/api/config"
	"github.com/englishmaster/api/database"
	"github.com/englishmaster/api/handlers"
	admin_handlers "github.com/englishmaster/api/handlers/admin"
	auth_handlers "github.com/englishmaster/api/handlers/auth"
	course_handlers "github.com/englishmaster/api/handlers/course"
	enrollment_handlers "github.com/englishmaster/api/handlers/enrollment"
	"github.com/englishmaster/api/services"
	"github.com/englishmaster/api/services/payment"
	"github.com/englishmaster/api/services/storage"
	"github.com/englishmaster/api/utils/auth"
	"github.com/englishmaster/api/utils/cache"
	"github.com/englishmaster/api/utils/middleware"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupRoutes wires services, middleware and handlers onto the Fiber app
func SetupRoutes(app *fiber.App, store database.Storage, env *config.EnviornmentVariable) {
	if env.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := env.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "englishmaster-api"
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        env.JWT_SECRET,
		Expiry:        24 * time.Hour,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        jwtIssuer,
	})

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Redis is optional; without it the login lockout degrades to nothing
	redisURL := env.REDIS_URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}
	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache, err := cache.NewRedisCache(redisURL); err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
	} else {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	emailService := services.NewEmailService(services.EmailConfig{
		Host:     env.SMTP_HOST,
		Port:     env.SMTP_PORT,
		Username: env.SMTP_USERNAME,
		Password: env.SMTP_PASSWORD,
		From:     env.SMTP_FROM,
	})
	whatsappService := services.NewWhatsAppService(env.WHATSAPP_API_URL, env.WHATSAPP_API_TOKEN)

	// Invoice PDFs land in Spaces; without credentials invoices are skipped
	// and completion still succeeds.
	var invoiceService services.InvoiceGenerator
	spacesClient, err := storage.NewSpacesClient(storage.SpacesConfig{
		AccessKey: env.DO_SPACES_KEY,
		SecretKey: env.DO_SPACES_SECRET,
		Bucket:    env.DO_SPACES_BUCKET,
		Region:    env.DO_SPACES_REGION,
		Endpoint:  env.DO_SPACES_ENDPOINT,
		CDNURL:    env.DO_SPACES_CDN_URL,
	})
	if err != nil {
		log.Printf("Warning: Failed to initialize Spaces client: %v. Invoice uploads will fail.", err)
		invoiceService = services.NewInvoiceService(nil)
	} else {
		invoiceService = services.NewInvoiceService(spacesClient)
	}

	notificationService := services.NewNotificationService(db, emailService, whatsappService, env.ADMIN_EMAIL, env.ADMIN_PHONE)
	paymentGateway := payment.NewGateway(env.RAZORPAY_KEY_ID, env.RAZORPAY_KEY_SECRET)
	catalogService := services.NewCatalogService(db)
	enrollmentService := services.NewEnrollmentService(
		services.NewGormEnrollmentStore(db),
		paymentGateway,
		invoiceService,
		notificationService,
	)

	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection, emailService, env.APP_URL)
	courseHandler := course_handlers.NewCourseHandler(catalogService)
	enrollmentHandler := enrollment_handlers.NewEnrollmentHandler(enrollmentService)
	adminHandler := admin_handlers.NewAdminHandler(db, notificationService)

	allowedOrigins := env.ALLOWED_ORIGINS
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:5173"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,
		RateLimitWindow:   1 * time.Minute,
	})

	// Health check endpoint (public)
	app.Get("/ping", func(c *fiber.Ctx) error {
		return handlers.HandleCheckHealth(c, store)
	})

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)

	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/forgot-password", authHandler.ForgotPassword)
	authGroup.Post("/reset-password", authHandler.ResetPassword)
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)

	// Profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", authHandler.GetProfile)
	profileGroup.Put("/", authHandler.UpdateProfile)

	// Course catalog (public)
	courses := api.Group("/courses")
	courses.Get("/", courseHandler.List)
	courses.Get("/popular", courseHandler.Popular)
	courses.Get("/:id", courseHandler.Get)

	// Enrollment workflow (protected)
	enrollments := api.Group("/enrollments", authMiddleware.Required())
	enrollments.Post("/", enrollmentHandler.Begin)
	enrollments.Get("/me", enrollmentHandler.ListMine)
	enrollments.Post("/:id/verify", enrollmentHandler.Verify)
	enrollments.Post("/:id/fail", enrollmentHandler.Fail)

	// Admin console (protected, admin only)
	admin := api.Group("/admin", authMiddleware.Required(), middleware.RequireAdmin())
	admin.Get("/enrollments", adminHandler.ListEnrollments)
	admin.Get("/enrollments/:id", adminHandler.GetEnrollment)
	admin.Post("/enrollments/:id/resend", adminHandler.ResendNotifications)
	admin.Get("/stats", adminHandler.GetStats)
}
