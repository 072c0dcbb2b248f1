package di

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"

	"pmts-access/app/config"
	"pmts-access/app/driver/kratos"
	"pmts-access/app/driver/postgres"
	"pmts-access/app/gateway"
	"pmts-access/app/guard"
	"pmts-access/app/port"
	"pmts-access/app/rest"
	"pmts-access/app/usecase"
	"pmts-access/app/view"
)

// Container holds all dependencies for the application
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Drivers
	DB           *postgres.DB
	KratosClient *kratos.Client

	// Gateways
	Provider port.IdentityProvider

	// Usecases
	Sessions *usecase.SessionStore
	Roles    *usecase.RoleResolver

	// Access layer
	Guard    *guard.Guard
	Composer *view.Composer
	Policy   view.Policy

	projects port.ProjectStore
}

// NewContainer creates and initializes a new dependency injection container
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	container := &Container{
		Config: cfg,
		Logger: logger,
	}

	var err error

	container.DB, err = postgres.NewConnection(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	container.KratosClient, err = kratos.NewClient(cfg, logger)
	if err != nil {
		container.DB.Close()
		return nil, fmt.Errorf("failed to initialize Kratos client: %w", err)
	}

	// Repositories
	roleRepository := postgres.NewRoleRepository(container.DB.Pool(), logger)
	profileRepository := postgres.NewProfileRepository(container.DB.Pool(), logger)
	projectRepository := postgres.NewProjectRepository(container.DB.Pool(), logger)

	// Gateway over the identity provider driver
	container.Provider = gateway.NewProviderGateway(container.KratosClient, logger)

	// Role resolver before the session store: the store invalidates the
	// resolver's cache on every identity transition.
	container.Roles = usecase.NewRoleResolver(roleRepository, cfg.RoleCacheTTL, logger)
	container.Roles.SetFetchTimeout(cfg.RoleFetchTimeout)

	container.Sessions = usecase.NewSessionStore(container.Provider, profileRepository, container.Roles, logger)

	container.Guard = guard.New(container.Sessions, container.Roles, cfg.SignInPath, cfg.LandingPath)

	container.Policy = view.DefaultPolicy()
	if cfg.PolicyFile != "" {
		container.Policy, err = view.LoadPolicy(cfg.PolicyFile)
		if err != nil {
			container.DB.Close()
			return nil, fmt.Errorf("failed to load view policy: %w", err)
		}
		logger.Info("view policy loaded from file", "path", cfg.PolicyFile)
	}
	container.Composer = view.NewComposer(container.Policy)

	container.projects = projectRepository

	logger.Info("container initialized")
	return container, nil
}

// Start begins the session store's provider subscription and persisted
// session restore
func (c *Container) Start(ctx context.Context) {
	c.Sessions.Start(ctx)
}

// CreateRouter creates and returns a fully configured Echo router
func (c *Container) CreateRouter() *echo.Echo {
	return rest.NewRouter(rest.RouterConfig{
		Logger:   c.Logger,
		Config:   c.Config,
		Sessions: c.Sessions,
		Provider: c.Provider,
		Roles:    c.Roles,
		Guard:    c.Guard,
		Composer: c.Composer,
		Policy:   c.Policy,
		Projects: c.projects,
		Database: c.DB,
		Identity: c.KratosClient,
	})
}

// Close releases held resources
func (c *Container) Close() {
	c.Sessions.Close()
	c.DB.Close()
}
