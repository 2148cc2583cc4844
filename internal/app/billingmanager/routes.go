// Package billingmanager предоставляет маршруты основного приложения.
package billingmanager

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/billing-manager/internal/config"
	"github.com/magabrotheeeer/billing-manager/internal/http/handlers/auth/forgotpassword"
	"github.com/magabrotheeeer/billing-manager/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/billing-manager/internal/http/handlers/auth/resetpassword"
	"github.com/magabrotheeeer/billing-manager/internal/http/handlers/auth/verify"
	clientcreate "github.com/magabrotheeeer/billing-manager/internal/http/handlers/client/create"
	clientlist "github.com/magabrotheeeer/billing-manager/internal/http/handlers/client/list"
	clientread "github.com/magabrotheeeer/billing-manager/internal/http/handlers/client/read"
	clientremove "github.com/magabrotheeeer/billing-manager/internal/http/handlers/client/remove"
	clientupdate "github.com/magabrotheeeer/billing-manager/internal/http/handlers/client/update"
	dashboarddata "github.com/magabrotheeeer/billing-manager/internal/http/handlers/dashboard/data"
	"github.com/magabrotheeeer/billing-manager/internal/http/handlers/dashboard/removeinvoice"
	"github.com/magabrotheeeer/billing-manager/internal/http/handlers/email/logs"
	"github.com/magabrotheeeer/billing-manager/internal/http/handlers/email/remindertest"
	"github.com/magabrotheeeer/billing-manager/internal/http/handlers/email/templatesget"
	"github.com/magabrotheeeer/billing-manager/internal/http/handlers/email/templatesupdate"
	"github.com/magabrotheeeer/billing-manager/internal/http/handlers/email/weeklyemail"
	"github.com/magabrotheeeer/billing-manager/internal/http/handlers/health"
	invoicecreate "github.com/magabrotheeeer/billing-manager/internal/http/handlers/invoice/create"
	invoicelist "github.com/magabrotheeeer/billing-manager/internal/http/handlers/invoice/list"
	invoiceread "github.com/magabrotheeeer/billing-manager/internal/http/handlers/invoice/read"
	invoiceremove "github.com/magabrotheeeer/billing-manager/internal/http/handlers/invoice/remove"
	invoiceupdate "github.com/magabrotheeeer/billing-manager/internal/http/handlers/invoice/update"
	subcreate "github.com/magabrotheeeer/billing-manager/internal/http/handlers/subscription/create"
	sublist "github.com/magabrotheeeer/billing-manager/internal/http/handlers/subscription/list"
	subread "github.com/magabrotheeeer/billing-manager/internal/http/handlers/subscription/read"
	subremove "github.com/magabrotheeeer/billing-manager/internal/http/handlers/subscription/remove"
	subupdate "github.com/magabrotheeeer/billing-manager/internal/http/handlers/subscription/update"
	"github.com/magabrotheeeer/billing-manager/internal/http/middlewarectx"
	authservice "github.com/magabrotheeeer/billing-manager/internal/services/auth"
	clientservice "github.com/magabrotheeeer/billing-manager/internal/services/client"
	dashboardservice "github.com/magabrotheeeer/billing-manager/internal/services/dashboard"
	emailservice "github.com/magabrotheeeer/billing-manager/internal/services/email"
	invoiceservice "github.com/magabrotheeeer/billing-manager/internal/services/invoice"
	schedulerservice "github.com/magabrotheeeer/billing-manager/internal/services/scheduler"
	subscriptionservice "github.com/magabrotheeeer/billing-manager/internal/services/subscription"
	"github.com/magabrotheeeer/billing-manager/internal/storage/repository"
)

// Services группирует бизнес-сервисы, используемые маршрутами.
type Services struct {
	Auth         *authservice.AuthService
	Client       *clientservice.ClientService
	Invoice      *invoiceservice.InvoiceService
	Subscription *subscriptionservice.SubscriptionService
	Email        *emailservice.EmailService
	Scheduler    *schedulerservice.SchedulerService
	Dashboard    *dashboardservice.DashboardService
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, db *repository.Storage, svc *Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/login", login.New(logger, svc.Auth).ServeHTTP)
		r.Post("/auth/forgot-password", forgotpassword.New(logger, svc.Auth).ServeHTTP)
		r.Post("/auth/reset-password", resetpassword.New(logger, svc.Auth).ServeHTTP)
		r.Get("/auth/verify", verify.New(logger, svc.Auth).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(svc.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Post("/clients", clientcreate.New(logger, svc.Client, cfg.UploadsDir).ServeHTTP)
			r.Get("/clients", clientlist.New(logger, svc.Client).ServeHTTP)
			r.Get("/clients/{id}", clientread.New(logger, svc.Client).ServeHTTP)
			r.Put("/clients/{id}", clientupdate.New(logger, svc.Client, cfg.UploadsDir).ServeHTTP)
			r.Delete("/clients/{id}", clientremove.New(logger, svc.Client).ServeHTTP)

			r.Post("/subscriptions", subcreate.New(logger, svc.Subscription).ServeHTTP)
			r.Get("/subscriptions", sublist.New(logger, svc.Subscription).ServeHTTP)
			r.Get("/subscriptions/{id}", subread.New(logger, svc.Subscription).ServeHTTP)
			r.Put("/subscriptions/{id}", subupdate.New(logger, svc.Subscription).ServeHTTP)
			r.Delete("/subscriptions/{id}", subremove.New(logger, svc.Subscription).ServeHTTP)

			r.Post("/invoices", invoicecreate.New(logger, svc.Invoice).ServeHTTP)
			r.Get("/invoices", invoicelist.New(logger, svc.Invoice).ServeHTTP)
			r.Get("/invoices/{id}", invoiceread.New(logger, svc.Invoice).ServeHTTP)
			r.Put("/invoices/{id}", invoiceupdate.New(logger, svc.Invoice).ServeHTTP)
			r.Delete("/invoices/{id}", invoiceremove.New(logger, svc.Invoice).ServeHTTP)

			r.Get("/dashboard/data", dashboarddata.New(logger, svc.Dashboard).ServeHTTP)
			r.Put("/dashboard/invoices/{invoiceId}/remove", removeinvoice.New(logger, svc.Invoice).ServeHTTP)

			r.Get("/email/reminder-templates", templatesget.New(logger, svc.Email).ServeHTTP)
			r.Put("/email/reminder-templates", templatesupdate.New(logger, svc.Email).ServeHTTP)
			r.Post("/email/weekly-email", weeklyemail.New(logger, svc.Email).ServeHTTP)
			r.Get("/email/email-logs", logs.New(logger, svc.Email).ServeHTTP)
			r.Post("/email/test-reminder-emails", remindertest.New(logger, svc.Scheduler).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, db.DB).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)

	// Загруженные изображения клиентов
	uploads := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir)))
	r.Get("/uploads/*", uploads.ServeHTTP)
}
