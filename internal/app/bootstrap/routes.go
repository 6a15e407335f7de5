// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	aboutfeature "github.com/ufarent/ufarent/internal/app/features/about"
	adminfeature "github.com/ufarent/ufarent/internal/app/features/admin"
	authgooglefeature "github.com/ufarent/ufarent/internal/app/features/authgoogle"
	catalogfeature "github.com/ufarent/ufarent/internal/app/features/catalog"
	dashboardfeature "github.com/ufarent/ufarent/internal/app/features/dashboard"
	errorsfeature "github.com/ufarent/ufarent/internal/app/features/errors"
	healthfeature "github.com/ufarent/ufarent/internal/app/features/health"
	homefeature "github.com/ufarent/ufarent/internal/app/features/home"
	listingsfeature "github.com/ufarent/ufarent/internal/app/features/listings"
	loginfeature "github.com/ufarent/ufarent/internal/app/features/login"
	logoutfeature "github.com/ufarent/ufarent/internal/app/features/logout"
	usersfeature "github.com/ufarent/ufarent/internal/app/features/users"
	"github.com/ufarent/ufarent/internal/app/lifecycle"
	"github.com/ufarent/ufarent/internal/app/resources"
	adminstore "github.com/ufarent/ufarent/internal/app/store/admins"
	auditstore "github.com/ufarent/ufarent/internal/app/store/audit"
	listingstore "github.com/ufarent/ufarent/internal/app/store/listings"
	oauthstatestore "github.com/ufarent/ufarent/internal/app/store/oauthstate"
	profilestore "github.com/ufarent/ufarent/internal/app/store/profiles"
	"github.com/ufarent/ufarent/internal/app/system/auditlog"
	"github.com/ufarent/ufarent/internal/app/system/auth"
	"github.com/ufarent/ufarent/internal/app/system/authz"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. It wires the stores, the authorization
// guard, the listing lifecycle service, and all feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"

	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	// Stores and domain services.
	profiles := profilestore.New(deps.MongoDatabase)
	admins := adminstore.New(deps.MongoDatabase)
	listings := listingstore.New(deps.MongoDatabase)
	oauthStates := oauthstatestore.New(deps.MongoDatabase)

	guard := authz.NewGuard(profiles)
	lifecycleSvc := lifecycle.NewService(listings)

	auditLogger := auditlog.New(auditstore.New(deps.MongoDatabase), logger, auditlog.Config{
		Auth:    appCfg.AuditLogAuth,
		Admin:   appCfg.AuditLogAdmin,
		Listing: appCfg.AuditLogListing,
	})

	errLog := errorsfeature.NewErrorLogger(logger)
	googleEnabled := appCfg.GoogleClientID != "" && appCfg.GoogleClientSecret != ""

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators.
	// Mounted before CSRF so probes need no token.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets embedded in the binary.
	r.Handle("/static/*", resources.StaticHandler())

	// Uploaded media, when stored locally, is served straight off disk.
	if appCfg.StorageType == "local" {
		r.Handle(appCfg.StorageLocalURL+"/*",
			http.StripPrefix(appCfg.StorageLocalURL+"/",
				http.FileServer(http.Dir(appCfg.StorageLocalPath))))
	}

	// Everything below carries CSRF protection for form posts.
	r.Group(func(pr chi.Router) {
		pr.Use(csrf.Protect([]byte(appCfg.SessionKey),
			csrf.Secure(secure),
			csrf.Path("/")))

		// Public catalog
		homeHandler := homefeature.NewHandler(listings, errLog, logger)
		pr.Mount("/", homefeature.Routes(homeHandler))

		catalogHandler := catalogfeature.NewHandler(listings, guard, errLog, logger)
		pr.Mount("/catalog", catalogfeature.Routes(catalogHandler))

		aboutHandler := aboutfeature.NewHandler(logger)
		pr.Mount("/about", aboutfeature.Routes(aboutHandler))

		// Authentication
		loginHandler := loginfeature.NewHandler(profiles, sessionMgr, errLog, auditLogger, googleEnabled, logger)
		pr.Mount("/login", loginfeature.Routes(loginHandler, sessionMgr))
		pr.Mount("/register", loginfeature.RegisterRoutes(loginHandler))

		logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLogger, logger)
		pr.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

		if googleEnabled {
			googleHandler := authgooglefeature.NewHandler(profiles, sessionMgr, auditLogger, oauthStates, appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
			pr.Mount("/auth/google", authgooglefeature.Routes(googleHandler))
		}

		// Error pages
		errorsHandler := errorsfeature.NewHandler()
		pr.Get("/forbidden", errorsHandler.Forbidden)
		pr.Get("/unauthorized", errorsHandler.Unauthorized)

		// Per-user dashboard
		dashboardHandler := dashboardfeature.NewHandler(listings, errLog, logger)
		pr.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

		// Listing forms, media upload, and JSON mutations
		listingsHandler := listingsfeature.NewHandler(lifecycleSvc, listings, guard, deps.MediaStorage, errLog, auditLogger, logger)
		pr.Mount("/listings", listingsfeature.Routes(listingsHandler, sessionMgr))
		pr.Mount("/api/listings", listingsfeature.APIRoutes(listingsHandler))

		// Admin console and archive
		adminHandler := adminfeature.NewHandler(listings, guard, errLog, logger)
		pr.Mount("/admin", adminfeature.Routes(adminHandler))

		// Superadmin user management
		usersHandler := usersfeature.NewHandler(profiles, admins, listings, guard, errLog, auditLogger, logger)
		pr.Mount("/users", usersfeature.Routes(usersHandler))
	})

	return r, nil
}
