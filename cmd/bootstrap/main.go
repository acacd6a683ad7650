// Bootstrap seeds a development database with an administrator role and
// user so a host framework wired against this binding has something to
// sign in with.
package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	kayanmongo "github.com/getkayan/kayan-mongo"
	"github.com/getkayan/kayan-mongo/config"
	"github.com/getkayan/kayan-mongo/internal/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger.InitLogger(cfg.LogLevel)
	defer logger.Log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbCtx, err := kayanmongo.Open(ctx, cfg.ConnectionString)
	if err != nil {
		logger.Log.Fatal("failed to open database", zap.Error(err))
	}
	defer dbCtx.Close(ctx)

	users := kayanmongo.NewUserStoreIn(dbCtx.Database(), cfg.UsersCollection)
	roles := kayanmongo.NewRoleStoreIn(dbCtx.Database(), cfg.RolesCollection)

	const adminRole = "Administrator"
	if existing, err := roles.FindByName(ctx, strings.ToUpper(adminRole)); err != nil {
		logger.Log.Fatal("failed to look up role", zap.Error(err))
	} else if existing == nil {
		role := kayanmongo.NewRole(adminRole)
		role.NormalizedName = strings.ToUpper(adminRole)
		if err := roles.Create(ctx, role); err != nil {
			logger.Log.Fatal("failed to create role", zap.Error(err))
		}
		logger.Log.Info("created role", zap.String("name", role.Name), zap.String("id", role.ID))
	}

	const adminName = "admin"
	if existing, err := users.FindByName(ctx, strings.ToUpper(adminName)); err != nil {
		logger.Log.Fatal("failed to look up user", zap.Error(err))
	} else if existing != nil {
		logger.Log.Info("admin user already present", zap.String("id", existing.ID))
		return
	}

	user := kayanmongo.NewUser(adminName)
	user.NormalizedUserName = strings.ToUpper(adminName)
	user.Email = "admin@localhost"
	user.SecurityStamp = uuid.NewString()
	if err := users.AddToRole(user, adminRole); err != nil {
		logger.Log.Fatal("failed to assign role", zap.Error(err))
	}
	if err := users.Create(ctx, user); err != nil {
		logger.Log.Fatal("failed to create user", zap.Error(err))
	}
	logger.Log.Info("created admin user", zap.String("id", user.ID))
}
