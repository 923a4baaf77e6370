package api

import (
	stdhttp "net/http"

	intconfig "dotrip/internal/config"
	h "dotrip/internal/http/handlers"
	"dotrip/internal/http/middleware"
	"dotrip/internal/metrics"
	"dotrip/internal/utils"
	"dotrip/web"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps are the wired pieces the router mounts.
type Deps struct {
	Handlers *h.Handlers
	Sessions *middleware.Sessions
	Metrics  *metrics.Metrics
	Limiter  *middleware.RateLimiter
}

func NewRouter(env intconfig.Env, deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.Metrics(deps.Metrics))

	if err := r.SetTrustedProxies(nil); err != nil {
		utils.GetLogger().Warn("failed to set trusted proxies", zap.Error(err))
	}

	r.SetHTMLTemplate(web.MustTemplates())
	r.StaticFS("/static", web.Static())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	r.GET("/health", h.Health)
	r.GET("/metrics", h.Metrics())

	limiter := deps.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(env.RateLimitPerMin)
	}
	hs := deps.Handlers

	pages := r.Group("/", deps.Sessions.Middleware())
	{
		pages.GET("/", hs.Home)
		pages.POST("/search", hs.Search)
		pages.GET("/select_cars", hs.SelectCars)

		pages.GET("/booking", hs.BookingPage)
		pages.POST("/booking", hs.SubmitBooking)

		otp := pages.Group("/booking/otp", limiter.Middleware())
		otp.POST("/verify", hs.VerifyOtp)
		otp.POST("/resend", hs.ResendOtp)
		otp.POST("/cancel", hs.CancelOtp)
		otp.POST("/dismiss", hs.DismissOtp)

		pages.GET("/booking-confirmation", hs.Confirmation)
		pages.GET("/booking-confirmation/receipt", hs.GetBookingReceiptPDF)
		pages.GET("/booking-confirmation/:id", hs.Confirmation)
	}

	api := r.Group("/api", middleware.CORS(env.AllowedOrigins()))
	{
		api.OPTIONS("/*path", func(c *gin.Context) { c.AbortWithStatus(stdhttp.StatusNoContent) })
		api.GET("/health", h.Health)
		api.GET("/routes", h.Routes)

		sess := api.Group("", limiter.Middleware(), deps.Sessions.Middleware())
		sess.GET("/places/autocomplete", hs.PlacesAutocomplete)
		sess.POST("/places/select", hs.PlacesSelect)
		sess.GET("/otp/status", hs.OtpStatus)
	}

	h.SetRouter(r)
	return r
}
