package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/drishiq/drishiq/app/controllers"
	"github.com/drishiq/drishiq/internal/pkg/constants"
	"github.com/drishiq/drishiq/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	v1 := app.Group(constants.APIBase, limiter.New(limiter.Config{
		Max: 120,
	}))

	h.registerPublicRoutes(v1)
	h.registerUserRoutes(v1)
	h.registerAdminRoutes(app)
}

func (h ApiRouter) registerPublicRoutes(v1 fiber.Router) {
	v1.Post("/auth/register", controllers.HandleAuthRegister)
	v1.Get("/auth/activate", controllers.HandleAuthActivate)
	v1.Post("/auth/login", controllers.HandleAuthLogin)

	v1.Post("/invitations", controllers.HandleInvitationRequest)
	v1.Get("/invitations/:code", controllers.HandleInvitationStatus)

	v1.Post("/otp/send", controllers.HandleOTPSend)
	v1.Post("/otp/verify", controllers.HandleOTPVerify)

	v1.Get("/blog", controllers.HandleBlogList)
	v1.Get("/blog/:slug", controllers.HandleBlogDetail)

	v1.Get("/payments/packages", controllers.HandlePaymentPackages)
	v1.Post("/payments/webhook", controllers.HandlePaymentWebhook)
}

func (h ApiRouter) registerUserRoutes(v1 fiber.Router) {
	user := v1.Group("", middleware.RequireAuth)

	user.Post("/auth/logout", controllers.HandleAuthLogout)
	user.Get("/auth/me", controllers.HandleAuthMe)

	user.Post("/invitations/redeem", controllers.HandleInvitationRedeem)

	user.Get("/credits/balance", controllers.HandleCreditBalance)
	user.Get("/credits/transactions", controllers.HandleCreditTransactions)

	user.Post("/payments/charge", controllers.HandlePaymentCharge)

	user.Post("/sessions", controllers.HandleSessionSchedule)
	user.Get("/sessions", controllers.HandleSessionList)
	user.Post("/sessions/:uuid/complete", controllers.HandleSessionComplete)
	user.Post("/sessions/:uuid/cancel", controllers.HandleSessionCancel)

	user.Post("/organizations", controllers.HandleOrganizationCreate)
	user.Get("/organizations", controllers.HandleOrganizationList)
	user.Get("/organizations/:uuid/members", controllers.HandleOrganizationMembers)
	user.Post("/organizations/:uuid/members", controllers.HandleOrganizationMemberAdd)
	user.Patch("/organizations/:uuid/members/:userID", controllers.HandleOrganizationMemberUpdate)
	user.Delete("/organizations/:uuid/members/:userID", controllers.HandleOrganizationMemberRemove)
}

func (h ApiRouter) registerAdminRoutes(app *fiber.App) {
	admin := app.Group(constants.AdminBase, middleware.RequireAuth, middleware.RequireAdmin)

	admin.Get("/dashboard", controllers.HandleAdminDashboard)

	admin.Get("/invitations", controllers.HandleAdminInvitationList)
	admin.Get("/invitations/:id", controllers.HandleAdminInvitationDetail)
	admin.Post("/invitations/:id/action", controllers.HandleAdminInvitationAction)
	admin.Post("/invitations/bulk-approve", controllers.HandleAdminInvitationBulkApprove)

	admin.Post("/invitations/:id/credits", controllers.HandleAdminCreditAllocate)
	admin.Post("/invitations/:id/credits/revoke", controllers.HandleAdminCreditRevoke)
	admin.Post("/credits/bulk-allocate", controllers.HandleAdminCreditBulkAllocate)
	admin.Post("/credits/adjust", controllers.HandleAdminCreditAdjustment)

	admin.Post("/bulk-uploads", controllers.HandleAdminBulkUpload)
	admin.Get("/bulk-uploads", controllers.HandleAdminBulkUploadList)
	admin.Get("/bulk-uploads/:uuid", controllers.HandleAdminBulkUploadDetail)

	admin.Get("/blog", controllers.HandleAdminBlogList)
	admin.Post("/blog", controllers.HandleAdminBlogCreate)
	admin.Put("/blog/:id", controllers.HandleAdminBlogUpdate)
	admin.Delete("/blog/:id", controllers.HandleAdminBlogDelete)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
