package rest

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pulsefit-app/billing-service/config"
	"github.com/pulsefit-app/billing-service/internal/api/rest/handler"
	"github.com/pulsefit-app/billing-service/internal/api/rest/middleware"
	"github.com/pulsefit-app/billing-service/internal/domain"
	"github.com/pulsefit-app/billing-service/internal/service"
	"github.com/pulsefit-app/billing-service/pkg/logger"
)

// RouterDeps bundles everything the router needs
type RouterDeps struct {
	Config        *config.Config
	Registry      *prometheus.Registry
	Pool          *pgxpool.Pool
	Purchases     service.PurchaseService
	Activations   service.ActivationService
	Subscriptions service.SubscriptionService
	Users         service.UserService
	Log           *logger.Logger
}

// SetupRouter builds the gin engine with all routes and middleware
func SetupRouter(deps RouterDeps) *gin.Engine {
	registerValidators()

	router := gin.New()
	router.Use(middleware.LoggerMiddleware(deps.Log))
	router.Use(gin.Recovery())

	healthHandler := handler.NewHealthHandler(deps.Pool)
	paymentHandler := handler.NewPaymentHandler(deps.Purchases, deps.Activations, deps.Log)
	subscriptionHandler := handler.NewSubscriptionHandler(deps.Subscriptions, deps.Log)
	userHandler := handler.NewUserHandler(deps.Users, deps.Log)
	webhookHandler := handler.NewWebhookHandler(deps.Subscriptions, deps.Config.Gateway.WebhookSecret, deps.Log)

	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	router.POST("/webhooks/payment", webhookHandler.HandlePaymentWebhook)

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(deps.Config.Auth.JWTSecret, deps.Log))
	{
		api.POST("/payments", paymentHandler.CreatePurchase)
		api.POST("/payments/activate", paymentHandler.Activate)
		api.GET("/subscriptions/status", subscriptionHandler.GetStatus)

		me := api.Group("/users/me")
		{
			me.GET("", userHandler.GetProfile)
			me.PUT("", userHandler.UpdateProfile)
			me.GET("/favorites", userHandler.ListFavorites)
			me.POST("/favorites/:exerciseID", userHandler.AddFavorite)
			me.DELETE("/favorites/:exerciseID", userHandler.RemoveFavorite)
			me.POST("/workouts", userHandler.RecordWorkout)
			me.GET("/workouts", userHandler.ListWorkouts)
		}
	}

	return router
}

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("plantype", func(fl validator.FieldLevel) bool {
			_, err := domain.ParsePlanType(fl.Field().String())
			return err == nil
		})
	}
}
