package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-pos-kasir/internal/handler"
	"go-pos-kasir/internal/middleware"
	"go-pos-kasir/internal/model"
	"go-pos-kasir/internal/repository"
	"go-pos-kasir/internal/service"
	"go-pos-kasir/internal/ws"
	"go-pos-kasir/pkg/database"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Setup Database
	db := database.ConnectDB()
	// Auto migrate on boot. For production a dedicated migration tool is safer.
	db.AutoMigrate(
		&model.Category{},
		&model.Product{},
		&model.Discount{},
		&model.Transaction{},
		&model.TransactionItem{},
		&model.User{},
		&model.Privilege{},
		&model.Role{},
	)

	// 3. Seed default privileges, roles, and admin user
	seedPrivilegesRolesAndAdmin(db)

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	discountRepo := repository.NewDiscountRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	productService := service.NewProductService(productRepo, categoryRepo, db, wsHub)
	discountService := service.NewDiscountService(discountRepo, productRepo, db)
	txService := service.NewTransactionService(productRepo, txRepo, discountService, db, wsHub)
	reportService := service.NewReportService(txRepo, productRepo)
	authService := service.NewAuthService(userRepo, wsHub)
	userService := service.NewUserService(userRepo, roleRepo)

	productHandler := handler.NewProductHandler(productService)
	discountHandler := handler.NewDiscountHandler(discountService)
	txHandler := handler.NewTransactionHandler(txService)
	reportHandler := handler.NewReportHandler(reportService)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleRepo)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "POS Kasir v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	// Auth Routes (No authentication required)
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/validate-token", authHandler.ValidateToken)
	auth.Post("/heartbeat", middleware.RequireAuth(userRepo), authHandler.Heartbeat)

	// ============ PROTECTED ROUTES ============
	// All routes below require authentication
	protected := api.Group("", middleware.RequireAuth(userRepo))

	// Product Routes
	protected.Get("/products", middleware.RequirePrivilege("product:view"), productHandler.GetProducts)
	protected.Get("/products/barcode/:barcode", middleware.RequirePrivilege("product:view"), productHandler.GetProductByBarcode)
	protected.Get("/products/:id", middleware.RequirePrivilege("product:view"), productHandler.GetProduct)
	protected.Post("/products", middleware.RequirePrivilege("product:create"), productHandler.CreateProduct)
	protected.Put("/products/:id", middleware.RequirePrivilege("product:update"), productHandler.UpdateProduct)
	protected.Delete("/products/:id", middleware.RequirePrivilege("product:delete"), productHandler.DeleteProduct)
	protected.Patch("/products/:id/stock", middleware.RequirePrivilege("product:update"), productHandler.AdjustStock)

	// Category Routes
	protected.Get("/categories", middleware.RequirePrivilege("product:view"), productHandler.GetCategories)
	protected.Get("/categories/:id", middleware.RequirePrivilege("product:view"), productHandler.GetCategory)
	protected.Post("/categories", middleware.RequirePrivilege("category:manage"), productHandler.CreateCategory)
	protected.Put("/categories/:id", middleware.RequirePrivilege("category:manage"), productHandler.UpdateCategory)
	protected.Delete("/categories/:id", middleware.RequirePrivilege("category:manage"), productHandler.DeleteCategory)

	// Discount Routes
	protected.Get("/discounts", middleware.RequirePrivilege("discount:view"), discountHandler.GetDiscounts)
	protected.Get("/discounts/:id", middleware.RequirePrivilege("discount:view"), discountHandler.GetDiscount)
	protected.Post("/discounts", middleware.RequirePrivilege("discount:manage"), discountHandler.CreateDiscount)
	protected.Put("/discounts/:id", middleware.RequirePrivilege("discount:manage"), discountHandler.UpdateDiscount)
	protected.Delete("/discounts/:id", middleware.RequirePrivilege("discount:manage"), discountHandler.DeleteDiscount)

	// Transaction Routes (point of sale)
	protected.Get("/transactions", middleware.RequirePrivilege("transaction:view"), txHandler.GetTransactions)
	protected.Get("/transactions/:id", middleware.RequirePrivilege("transaction:view"), txHandler.GetTransaction)
	protected.Post("/transactions", middleware.RequirePrivilege("transaction:create"), txHandler.CreateTransaction)
	protected.Patch("/transactions/:id/pay", middleware.RequirePrivilege("transaction:complete"), txHandler.CompletePayment)

	// Report Routes
	protected.Get("/reports/products-sold", middleware.RequirePrivilege("report:view"), reportHandler.GetProductsSoldReport)
	protected.Get("/reports/stock-modal", middleware.RequirePrivilege("report:view"), reportHandler.GetCurrentStockModalReport)

	// User Management Routes
	protected.Get("/users", middleware.RequirePrivilege("user:view"), userHandler.GetUsers)
	protected.Get("/users/:id", middleware.RequirePrivilege("user:view"), userHandler.GetUser)
	protected.Post("/users", middleware.RequirePrivilege("user:create"), userHandler.CreateUser)
	protected.Put("/users/:id", middleware.RequirePrivilege("user:update"), userHandler.UpdateUser)
	protected.Delete("/users/:id", middleware.RequirePrivilege("user:delete"), userHandler.DeleteUser)

	// Role Routes
	protected.Get("/roles", roleHandler.GetRoles)

	// Privileges Route (list all available privileges)
	protected.Get("/privileges", func(c *fiber.Ctx) error {
		privileges, err := privilegeRepo.FindAll()
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch privileges"})
		}
		return c.JSON(privileges)
	})

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// seedPrivilegesRolesAndAdmin creates default privileges, roles, and admin user if they don't exist
func seedPrivilegesRolesAndAdmin(db *gorm.DB) {
	privilegeRepo := repository.NewPrivilegeRepo(db)
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	// 1. Seed privileges first
	if err := privilegeRepo.SeedDefaults(); err != nil {
		log.Printf("Warning: Failed to seed privileges: %v", err)
	}

	// 2. Seed roles
	if err := roleRepo.SeedDefaults(); err != nil {
		log.Printf("Warning: Failed to seed roles: %v", err)
	}

	// 3. Assign privileges to roles
	allPrivileges, _ := privilegeRepo.FindAll()

	// ADMIN gets ALL privileges
	adminRole, err := roleRepo.FindByCode(model.RoleAdmin)
	if err == nil && len(adminRole.Privileges) == 0 {
		db.Model(&adminRole).Association("Privileges").Replace(allPrivileges)
		log.Println("✅ ADMIN role assigned all privileges")
	}

	// CASHIER gets the point-of-sale subset
	cashierRole, err := roleRepo.FindByCode(model.RoleCashier)
	if err == nil && len(cashierRole.Privileges) == 0 {
		cashierPrivileges, err := privilegeRepo.FindByCodes(model.CashierPrivilegeCodes)
		if err != nil {
			log.Printf("Warning: Failed to load cashier privileges: %v", err)
		} else {
			db.Model(&cashierRole).Association("Privileges").Replace(cashierPrivileges)
			log.Println("✅ CASHIER role assigned point-of-sale privileges")
		}
	}

	// 4. Create default admin user with ADMIN role
	_, err = userRepo.FindByUsername("admin")
	if err != nil {
		adminRole, _ := roleRepo.FindByCode(model.RoleAdmin)

		admin := &model.User{
			Username:   "admin",
			Email:      "admin@example.com",
			FullName:   "Administrator",
			RoleID:     &adminRole.ID,
			IsActive:   true,
			Privileges: adminRole.Privileges,
		}
		admin.CreatedBy = "system"
		admin.UpdatedBy = "system"

		if err := admin.SetPassword("admin123"); err != nil {
			log.Printf("Warning: Failed to hash admin password: %v", err)
			return
		}

		if err := userRepo.Create(admin); err != nil {
			log.Printf("Warning: Failed to create admin user: %v", err)
		} else {
			log.Println("✅ Admin user created: admin / admin123 (ADMIN)")
		}
	}
}
