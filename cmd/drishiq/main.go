package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/drishiq/drishiq/app/repository"
	"github.com/drishiq/drishiq/internal/pkg/cache"
	"github.com/drishiq/drishiq/internal/pkg/credits"
	"github.com/drishiq/drishiq/internal/pkg/database"
	"github.com/drishiq/drishiq/internal/pkg/env"
	"github.com/drishiq/drishiq/internal/pkg/jobs"
	"github.com/drishiq/drishiq/internal/pkg/otp"
	"github.com/drishiq/drishiq/internal/pkg/router"
)

func main() {
	app := NewApplication()

	// Background maintenance: hold expiry, invitation aging, counter flush.
	db := database.GetDB()
	repos := repository.GetGlobalFactory()
	scheduler := jobs.StartScheduler(
		credits.NewConsumptionServiceFromDB(db),
		otp.NewServiceFromDB(db),
		repos.GetInvitationRepository(),
		repos.GetBulkUploadRepository(),
		repos.GetUserRepository(),
	)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logrus.Info("shutting down")
		scheduler.Stop()
		if err := app.Shutdown(); err != nil {
			logrus.WithError(err).Error("server shutdown failed")
		}
	}()

	addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000"))
	if err := app.Listen(addr); err != nil {
		logrus.Fatal(err)
	}
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	app := fiber.New(fiber.Config{
		AppName:   "DrishiQ",
		BodyLimit: 10 * 1024 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "admin"),
		},
	}), monitor.New())

	// SWAGGER / OPENAPI
	if _, err := os.Stat("docs/openapi.yml"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/docs/",
			FilePath: "docs/openapi.yml",
			Path:     "v1",
		}))
	}

	// ROUTER
	router.InstallRouter(app)

	return app
}
