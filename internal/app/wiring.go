package app

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-iam/internal/audit"
	audithttp "github.com/odyssey-erp/odyssey-iam/internal/audit/http"
	"github.com/odyssey-erp/odyssey-iam/internal/permissions"
	"github.com/odyssey-erp/odyssey-iam/internal/platform/memstore"
	"github.com/odyssey-erp/odyssey-iam/internal/roles"
	"github.com/odyssey-erp/odyssey-iam/internal/shared"
	"github.com/odyssey-erp/odyssey-iam/internal/users"
)

// Repositories bundles the entity stores selected by STORE_DRIVER.
type Repositories struct {
	Roles       roles.Repository
	Permissions permissions.Repository
	Users       users.Repository
	// AuditTrail is nil when the store keeps no audit log.
	AuditTrail audit.Repository
}

// PostgresRepositories builds pgx backed repositories on pool.
func PostgresRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Roles:       roles.NewRepository(pool),
		Permissions: permissions.NewRepository(pool),
		Users:       users.NewRepository(pool),
		AuditTrail:  audit.NewRepository(pool),
	}
}

// MemoryRepositories exposes the views of an in-memory store.
func MemoryRepositories(store *memstore.Store) Repositories {
	return Repositories{
		Roles:       store.Roles(),
		Permissions: store.Permissions(),
		Users:       store.Users(),
	}
}

// Handlers groups the entity HTTP handlers.
type Handlers struct {
	Roles       *roles.Handler
	Permissions *permissions.Handler
	Users       *users.Handler
	Audit       *audithttp.Handler
}

// NewHandlers wires services and handlers for every entity. publisher may be nil.
func NewHandlers(logger *slog.Logger, repos Repositories, publisher shared.AuditPublisher, pagination shared.PaginationConfig) Handlers {
	roleService := roles.NewService(repos.Roles, publisher)
	permissionService := permissions.NewService(repos.Permissions, publisher)
	userService := users.NewService(repos.Users, roleService, permissionService, publisher)
	handlers := Handlers{
		Roles:       roles.NewHandler(logger, roleService, pagination),
		Permissions: permissions.NewHandler(logger, permissionService, pagination),
		Users:       users.NewHandler(logger, userService, pagination),
	}
	if repos.AuditTrail != nil {
		handlers.Audit = audithttp.NewHandler(logger, audit.NewService(repos.AuditTrail), pagination)
	}
	return handlers
}
