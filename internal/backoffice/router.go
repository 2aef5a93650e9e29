// Package backoffice serves the admin API on its own port, guarded by an
// IP allowlist and an admin-only JWT check.
package backoffice

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/oyku/yesno/internal/backoffice/handler"
	"github.com/oyku/yesno/internal/config"
	"github.com/oyku/yesno/internal/domain"
	"github.com/oyku/yesno/internal/ledger"
	"github.com/oyku/yesno/internal/repository"
	"github.com/oyku/yesno/internal/service"
	"github.com/oyku/yesno/internal/ws"
)

// BackofficeDeps bundles every dependency needed for the admin router.
type BackofficeDeps struct {
	DB           *sqlx.DB
	AuthSvc      *service.AuthService
	ProtocolSvc  *service.ProtocolService
	MarketSvc    *service.MarketService
	UserRepo     *repository.UserRepository
	MarketRepo   *repository.MarketRepository
	PositionRepo *repository.PositionRepository
	Book         *ledger.Ledger
	Hub          *ws.Hub
	Cfg          *config.Config
}

// SetupBackofficeRouter creates the admin Gin engine.
func SetupBackofficeRouter(deps BackofficeDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(ipWhitelistMiddleware(deps.Cfg.Server.BackofficeAllowedIPs))

	dashH := handler.NewDashboardHandler(deps.ProtocolSvc, deps.MarketRepo, deps.Book, deps.Hub)
	protocolH := handler.NewProtocolAdminHandler(deps.ProtocolSvc)
	marketH := handler.NewMarketAdminHandler(deps.MarketSvc, deps.PositionRepo, deps.Book)
	userH := handler.NewUserAdminHandler(deps.DB, deps.UserRepo, deps.Book)

	jwtMW := adminJWTMiddleware(deps.AuthSvc)

	admin := r.Group("/admin")
	admin.Use(jwtMW)
	{
		admin.GET("/dashboard", dashH.Dashboard)

		// Protocol
		p := admin.Group("/protocol")
		{
			p.POST("/init", protocolH.Initialize)
			p.GET("/state", protocolH.State)
			p.GET("/treasury", protocolH.Treasury)
		}

		// Markets
		m := admin.Group("/markets")
		{
			m.GET("", marketH.List)
			m.GET("/:id", marketH.Detail)
			m.GET("/:id/escrow", marketH.Escrow)
		}

		// Users
		u := admin.Group("/users")
		{
			u.GET("", userH.List)
			u.POST("/:id/deposit", userH.Deposit)
		}
	}

	return r
}

// ── IP whitelist middleware ───────────────────────────────────────────────────

// ipWhitelistMiddleware blocks requests from IPs not in the allowlist.
// allowedIPs is a comma-separated string; empty means allow all.
func ipWhitelistMiddleware(allowedIPs string) gin.HandlerFunc {
	if allowedIPs == "" {
		return func(c *gin.Context) { c.Next() } // dev mode: no restriction
	}

	allowed := make(map[string]bool)
	for _, ip := range strings.Split(allowedIPs, ",") {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			allowed[ip] = true
		}
	}

	return func(c *gin.Context) {
		if !allowed[c.ClientIP()] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "access denied: your IP is not whitelisted",
			})
			return
		}
		c.Next()
	}
}

// ── Admin JWT middleware ──────────────────────────────────────────────────────

// adminJWTMiddleware validates a JWT and requires the admin role.
func adminJWTMiddleware(authSvc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, err := authSvc.ParseAccessToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil || claims.TokenType != "access" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		if claims.Role != string(domain.RoleAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}

		c.Set("userID", claims.Subject)
		c.Set("role", claims.Role)
		c.Next()
	}
}
