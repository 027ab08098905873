package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/bimuz/bimuz-backend/internal/config"
	"github.com/bimuz/bimuz-backend/internal/handler"
	"github.com/bimuz/bimuz-backend/internal/middleware"
	"github.com/bimuz/bimuz-backend/internal/model"
	"github.com/bimuz/bimuz-backend/internal/response"
	"github.com/bimuz/bimuz-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	Employee      *handler.EmployeeHandler
	Student       *handler.StudentHandler
	StudentPortal *handler.StudentPortalHandler
	Group         *handler.GroupHandler
	Booking       *handler.BookingHandler
	Attendance    *handler.AttendanceHandler
	Invoice       *handler.InvoiceHandler
	Report        *handler.ReportHandler
	Dashboard     *handler.DashboardHandler
	WS            *handler.WSHandler
	System        *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	rdb *redis.Client,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Serve uploaded avatars statically with aggressive caching (1 year).
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(365 * 24 * time.Hour))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	router.GET("/health", handlers.System.Health)

	loginLimiter := middleware.NewRateLimiter(rdb, "login", cfg.LoginRateLimit, time.Minute, log)
	gatewayLimiter := middleware.NewRateLimiter(rdb, "gateway", cfg.GatewayRateLimit, time.Minute, log)
	rejectRevoked := middleware.RejectRevokedTokens(authService, log)
	perm := middleware.RequirePermission

	api := router.Group("/api/v1")
	api.Use(middleware.NoStore())

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := api.Group("/auth")
	{
		auth.POST("/employee/login", loginLimiter.Middleware(), handlers.Auth.EmployeeLogin)
		auth.POST("/student/login", loginLimiter.Middleware(), handlers.Auth.StudentLogin)
		auth.POST("/student/register", loginLimiter.Middleware(), handlers.Auth.StudentRegister)
		auth.POST("/refresh", handlers.Auth.Refresh)
		auth.POST("/logout", handlers.Auth.Logout)
	}

	// ─── 2. Payment Gateway (Public, Signed) ───────────────────────────
	payments := api.Group("/payments/multicard")
	payments.Use(gatewayLimiter.Middleware())
	{
		payments.GET("/callback", handlers.Invoice.MulticardCallback)
		payments.POST("/callback", handlers.Invoice.MulticardCallback)
		payments.POST("/webhook", handlers.Invoice.MulticardWebhook)
	}

	// ─── 3. Student Portal (Student JWT) ───────────────────────────────
	studentAPI := api.Group("/student")
	studentAPI.Use(middleware.RequireStudentJWT(authService), rejectRevoked)
	{
		studentAPI.GET("/me", handlers.StudentPortal.GetProfile)
		studentAPI.PATCH("/me", handlers.StudentPortal.UpdateProfile)
		studentAPI.GET("/groups", handlers.StudentPortal.ListGroups)
		studentAPI.POST("/bookings", handlers.StudentPortal.BookGroup)
		studentAPI.POST("/bookings/cancel", handlers.StudentPortal.CancelBooking)
		studentAPI.GET("/invoices", handlers.StudentPortal.ListInvoices)
		studentAPI.GET("/invoices/:id", handlers.StudentPortal.GetInvoice)
		studentAPI.POST("/invoices/:id/payment", handlers.StudentPortal.CreatePayment)
		studentAPI.POST("/invoices/:id/check-status", handlers.StudentPortal.CheckInvoiceStatus)
	}

	// ─── 4. WebSocket (Employee WS Auth) ───────────────────────────────
	api.GET("/employee/ws/invoices",
		middleware.RequireEmployeeWSAuth(authService),
		rejectRevoked,
		perm(model.PermissionInvoicesRead),
		handlers.WS.InvoiceEventsStream,
	)

	// ─── 5. Staff Group (Employee JWT + RBAC) ──────────────────────────
	staff := api.Group("")
	staff.Use(middleware.RequireEmployeeJWT(authService), rejectRevoked)

	me := staff.Group("/employee")
	{
		me.GET("/me", handlers.Employee.GetProfile)
		me.PATCH("/me", handlers.Employee.UpdateProfile)
		me.POST("/me/avatar", perm(model.PermissionMediaUpload), handlers.Employee.UploadAvatar)
		me.GET("/roles", handlers.Employee.ListRoles)
		me.GET("/dashboard", handlers.Dashboard.GetDashboardData)
	}

	employees := staff.Group("/employees")
	{
		employees.GET("", perm(model.PermissionEmployeesRead), handlers.Employee.ListEmployees)
		employees.POST("", perm(model.PermissionEmployeesWrite), handlers.Employee.CreateEmployee)
		employees.GET("/:id", perm(model.PermissionEmployeesRead), handlers.Employee.GetEmployee)
		employees.PATCH("/:id", perm(model.PermissionEmployeesWrite), handlers.Employee.UpdateEmployee)
		employees.DELETE("/:id", perm(model.PermissionEmployeesWrite), handlers.Employee.DeleteEmployee)
	}

	students := staff.Group("/students")
	{
		students.GET("", perm(model.PermissionStudentsRead), handlers.Student.ListStudents)
		students.POST("", perm(model.PermissionStudentsWrite), handlers.Student.CreateStudent)
		students.GET("/:id", perm(model.PermissionStudentsRead), handlers.Student.GetStudent)
		students.PATCH("/:id", perm(model.PermissionStudentsWrite), handlers.Student.UpdateStudent)
		students.DELETE("/:id", perm(model.PermissionStudentsWrite), handlers.Student.DeleteStudent)
	}

	groups := staff.Group("/groups")
	{
		groups.GET("", perm(model.PermissionGroupsRead), handlers.Group.ListGroups)
		groups.POST("", perm(model.PermissionGroupsWrite), handlers.Group.CreateGroup)
		groups.GET("/:id", perm(model.PermissionGroupsRead), handlers.Group.GetGroup)
		groups.GET("/:id/students", perm(model.PermissionGroupsRead), handlers.Group.ListGroupStudents)
		groups.PATCH("/:id", perm(model.PermissionGroupsWrite), handlers.Group.UpdateGroup)
		groups.DELETE("/:id", perm(model.PermissionGroupsWrite), handlers.Group.DeleteGroup)
	}

	bookings := staff.Group("/bookings")
	bookings.Use(perm(model.PermissionBookingsManage))
	{
		bookings.POST("", handlers.Booking.BookGroup)
		bookings.POST("/cancel", handlers.Booking.CancelBooking)
		bookings.POST("/change-group", handlers.Booking.ChangeGroup)
	}

	attendances := staff.Group("/attendances")
	{
		attendances.GET("", perm(model.PermissionAttendanceRead), handlers.Attendance.ListAttendances)
		attendances.POST("", perm(model.PermissionAttendanceWrite), handlers.Attendance.CreateAttendance)
		attendances.GET("/:id", perm(model.PermissionAttendanceRead), handlers.Attendance.GetAttendance)
		attendances.PATCH("/:id", perm(model.PermissionAttendanceWrite), handlers.Attendance.UpdateAttendance)
		attendances.DELETE("/:id", perm(model.PermissionAttendanceWrite), handlers.Attendance.DeleteAttendance)
	}

	invoices := staff.Group("/invoices")
	{
		invoices.GET("", perm(model.PermissionInvoicesRead), handlers.Invoice.ListInvoices)
		invoices.POST("/mark-paid", perm(model.PermissionInvoicesMarkPaid), handlers.Invoice.MarkPaid)
		invoices.GET("/:id", perm(model.PermissionInvoicesRead), handlers.Invoice.GetInvoice)
		invoices.POST("/:id/payment", perm(model.PermissionInvoicesPay), handlers.Invoice.CreatePayment)
		invoices.POST("/:id/check-status", perm(model.PermissionInvoicesRead), handlers.Invoice.CheckInvoiceStatus)
		invoices.POST("/:id/cancel", perm(model.PermissionInvoicesCancel), handlers.Invoice.CancelInvoice)
	}

	reports := staff.Group("/reports")
	reports.Use(perm(model.PermissionReportsRead))
	{
		reports.GET("/monthly", handlers.Report.GetMonthlyReport)
		reports.GET("/monthly/export", handlers.Report.ExportMonthlyReport)
	}

	payroll := staff.Group("/payroll")
	{
		payroll.GET("/salaries", perm(model.PermissionReportsRead), handlers.Report.ListSalaries)
		payroll.PUT("/salaries", perm(model.PermissionPayrollWrite), handlers.Report.UpsertSalary)
		payroll.PATCH("/salaries/:id/paid", perm(model.PermissionPayrollWrite), handlers.Report.SetSalaryPaid)
		payroll.GET("/mentor-payments", perm(model.PermissionReportsRead), handlers.Report.ListMentorPayments)
		payroll.PUT("/mentor-payments", perm(model.PermissionPayrollWrite), handlers.Report.UpsertMentorPayment)
	}

	staff.GET("/system/metrics", perm(model.PermissionSystemRead), handlers.System.SystemMetricsSSE)

	return router
}
