package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FiveCrux/FiveCrux-sub000/config"
	"github.com/FiveCrux/FiveCrux-sub000/internal/api/handler"
	"github.com/FiveCrux/FiveCrux-sub000/internal/api/middleware"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/authz"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/jwt"
)

const jsonBodyLimit = 1 << 20

// Redis the optional redis features used by the HTTP layer; *redis.Client implements it.
type Redis interface {
	middleware.TokenChecker
	middleware.RateLimiter
	Ping(ctx context.Context) error
}

// Pinger database health check
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps everything the routes need. Redis may be nil.
type Deps struct {
	Config  *config.Config
	Handler *handler.Handler
	JWT     *jwt.Manager
	Authz   *authz.Authorizer
	Redis   Redis
	DB      Pinger
	Logger  *zap.Logger
}

// Setup builds the gin engine.
func Setup(d Deps) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	h := d.Handler
	az := d.Authz

	// nil interface values keep the middleware fallbacks working
	var blacklist middleware.TokenChecker
	var limiter middleware.RateLimiter
	if d.Redis != nil {
		blacklist = d.Redis
		limiter = d.Redis
	}
	auth := middleware.JWTAuth(d.JWT, blacklist, az)
	optional := middleware.OptionalAuth(d.JWT, blacklist, az)
	can := func(obj, act string) gin.HandlerFunc { return middleware.RequirePermission(az, obj, act) }
	authLimit := middleware.RateLimit(limiter, 20, time.Minute)
	submitLimit := middleware.RateLimit(limiter, 10, time.Minute)

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(d.Config.Server.CORS.AllowOrigins))

	// ── health ──
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "ok", "database": "ok", "redis": "disabled"}
		code := http.StatusOK
		if d.DB != nil {
			if err := d.DB.PingContext(ctx); err != nil {
				status["status"], status["database"] = "degraded", "down"
				code = http.StatusServiceUnavailable
			}
		}
		if d.Redis != nil {
			status["redis"] = "ok"
			if err := d.Redis.Ping(ctx); err != nil {
				status["redis"] = "down"
			}
		}
		c.JSON(code, status)
	})

	v1 := r.Group("/api/v1")

	// uploads carry their own, larger limit
	v1.POST("/uploads", auth, can(authz.ResourceUpload, authz.ActionWrite), submitLimit, h.Upload.UploadImage)

	api := v1.Group("", middleware.BodyLimit(jsonBodyLimit))

	// ── auth ──
	authGroup := api.Group("/auth")
	{
		authGroup.GET("/discord", authLimit, h.Auth.DiscordLogin)
		authGroup.GET("/discord/callback", authLimit, h.Auth.DiscordCallback)
		authGroup.POST("/refresh", authLimit, h.Auth.RefreshToken)
		authGroup.POST("/logout", auth, h.Auth.Logout)
		authGroup.GET("/me", auth, h.User.GetMe)
	}

	// ── users ──
	api.PUT("/users/me", auth, h.User.UpdateProfile)
	api.GET("/users/:id/profile", h.User.PublicProfile)

	// ── own submissions ──
	me := api.Group("/me", auth)
	{
		me.GET("/scripts", h.Script.ListMine)
		me.GET("/giveaways", h.Giveaway.ListMine)
		me.GET("/ads", h.Ad.ListMine)
		me.GET("/slots", can(authz.ResourceSlots, authz.ActionRead), h.Slot.ListMine)
	}

	// ── scripts ──
	scripts := api.Group("/scripts")
	{
		scripts.GET("", h.Script.List)
		scripts.GET("/featured", h.Script.Featured)
		scripts.GET("/:id", optional, h.Script.Get)
		scripts.POST("", auth, can(authz.ResourceContent, authz.ActionWrite), submitLimit, h.Script.Submit)
		scripts.PUT("/:id", auth, can(authz.ResourceContent, authz.ActionWrite), h.Script.Update)
		scripts.DELETE("/:id", auth, h.Script.Delete)
	}

	// ── giveaways ──
	giveaways := api.Group("/giveaways")
	{
		giveaways.GET("", h.Giveaway.List)
		giveaways.GET("/:id", optional, h.Giveaway.Get)
		giveaways.POST("", auth, can(authz.ResourceContent, authz.ActionWrite), submitLimit, h.Giveaway.Submit)
		giveaways.PUT("/:id", auth, can(authz.ResourceContent, authz.ActionWrite), h.Giveaway.Update)
		giveaways.DELETE("/:id", auth, h.Giveaway.Delete)
		giveaways.POST("/:id/entries", auth, can(authz.ResourceGiveaway, authz.ActionEnter), submitLimit, h.Giveaway.Enter)
		giveaways.GET("/:id/entries", auth, h.Giveaway.ListEntries)
		giveaways.POST("/:id/draw", auth, h.Giveaway.DrawWinners)
	}

	// ── ads ──
	ads := api.Group("/ads")
	{
		ads.GET("", h.Ad.List)
		ads.GET("/displayed", h.Ad.Displayed)
		ads.GET("/invites/:code", authLimit, h.Ad.CheckInvite)
		ads.GET("/:id", optional, h.Ad.Get)
		ads.POST("", auth, can(authz.ResourceContent, authz.ActionWrite), submitLimit, h.Ad.Submit)
		ads.PUT("/:id", auth, can(authz.ResourceContent, authz.ActionWrite), h.Ad.Update)
		ads.DELETE("/:id", auth, h.Ad.Delete)
	}

	// ── slots (public) ──
	api.GET("/slots/availability", h.Slot.Availability)

	// ── moderation ──
	moderation := api.Group("/moderation", auth)
	{
		moderation.GET("/queue/:entity", can(authz.ResourceModeration, authz.ActionRead), h.Moderation.Queue)
		moderation.GET("/logs", can(authz.ResourceModeration, authz.ActionRead), h.Moderation.Logs)
		moderation.POST("/:entity/:id/approve", can(authz.ResourceModeration, authz.ActionReview), h.Moderation.Approve)
		moderation.POST("/:entity/:id/reject", can(authz.ResourceModeration, authz.ActionReview), h.Moderation.Reject)
	}

	// ── admin ──
	admin := api.Group("/admin", auth)
	{
		admin.GET("/dashboard", can(authz.ResourceDashboard, authz.ActionRead), h.Dashboard.Stats)

		admin.GET("/users", can(authz.ResourceUsers, authz.ActionManage), h.User.ListUsers)
		admin.PUT("/users/:id/role", can(authz.ResourceUsers, authz.ActionManage), h.User.SetRole)
		admin.PUT("/users/:id/ban", can(authz.ResourceUsers, authz.ActionManage), h.User.SetBanned)

		admin.GET("/slots", can(authz.ResourceSlots, authz.ActionManage), h.Slot.List)
		admin.POST("/slots", can(authz.ResourceSlots, authz.ActionManage), h.Slot.Create)
		admin.GET("/slots/:id", can(authz.ResourceSlots, authz.ActionManage), h.Slot.Get)
		admin.POST("/slots/:id/cancel", can(authz.ResourceSlots, authz.ActionManage), h.Slot.Cancel)

		admin.GET("/exports/slots", can(authz.ResourceSlots, authz.ActionManage), h.Export.ExportSlots)
		admin.GET("/calendar/slots.ics", can(authz.ResourceSlots, authz.ActionManage), h.Export.SlotCalendar)
	}

	return r, nil
}
