package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	contentTypes "github.com/newsreel/cms-backend/pkg/content/types"
	"github.com/newsreel/cms-backend/pkg/db"
	"github.com/newsreel/cms-backend/pkg/user-management/pwhash"
	userTypes "github.com/newsreel/cms-backend/pkg/user-management/types"
	umUtils "github.com/newsreel/cms-backend/pkg/user-management/utils"
)

func main() {
	dropIndexes()

	createIndexes()

	getIndexes()

	bootstrapSuperAdmin()
}

func dropIndexes() {
	switch conf.TaskConfigs.DropIndexes.AccountDB {
	case DropIndexesModeAll:
		accountDBService.DropIndexes(true)
	case DropIndexesModeDefaults:
		accountDBService.DropIndexes(false)
	}

	switch conf.TaskConfigs.DropIndexes.ContentDB {
	case DropIndexesModeAll:
		contentDBService.DropIndexes(true)
	case DropIndexesModeDefaults:
		contentDBService.DropIndexes(false)
	}
}

func createIndexes() {
	if conf.TaskConfigs.CreateIndexes.AccountDB {
		accountDBService.CreateDefaultIndexes()
	}

	if conf.TaskConfigs.CreateIndexes.ContentDB {
		contentDBService.CreateDefaultIndexes()
	}
}

func getIndexes() {
	if conf.TaskConfigs.GetIndexes.AccountDB {
		indexes, err := accountDBService.ListIndexes()
		if err != nil {
			slog.Error("Error listing indexes for accounts", slog.String("error", err.Error()))
		} else {
			logIndexes("accounts", indexes)
		}
	}

	if conf.TaskConfigs.GetIndexes.ContentDB {
		for _, kind := range contentTypes.Kinds {
			indexes, err := contentDBService.ListIndexes(kind)
			if err != nil {
				slog.Error("Error listing indexes for content", slog.String("kind", kind), slog.String("error", err.Error()))
				continue
			}
			logIndexes(contentTypes.Collection(kind), indexes)
		}
	}
}

func logIndexes(collection string, indexes any) {
	raw, err := json.Marshal(indexes)
	if err != nil {
		slog.Error("Error encoding indexes", slog.String("collection", collection), slog.String("error", err.Error()))
		return
	}
	slog.Info("Indexes", slog.String("collection", collection), slog.String("indexes", string(raw)))
}

func bootstrapSuperAdmin() {
	bootstrap := conf.TaskConfigs.BootstrapSuperAdmin
	if !bootstrap.Enabled {
		return
	}

	email := umUtils.SanitizeEmail(bootstrap.Email)
	existing, err := accountDBService.GetAccountByEmail(email)
	if err == nil {
		slog.Info("Super admin account already exists", slog.String("accountID", existing.ID.Hex()), slog.String("role", existing.Role))
		return
	}
	if !db.IsNotFound(err) {
		slog.Error("Error looking up super admin account", slog.String("error", err.Error()))
		return
	}

	if !umUtils.CheckPasswordFormat(bootstrap.Password) {
		slog.Error("Super admin password does not meet the password rules")
		return
	}
	hash, err := pwhash.HashPassword(bootstrap.Password)
	if err != nil {
		slog.Error("Error hashing super admin password", slog.String("error", err.Error()))
		return
	}

	name := bootstrap.Name
	if name == "" {
		name = "Super Admin"
	}
	account := umUtils.InitNewEmailAccount(name, email, hash, "", userTypes.ROLE_SUPER_ADMIN, time.Now())
	created, err := accountDBService.CreateAccount(&account)
	if errors.Is(err, db.ErrDuplicateKey) {
		slog.Warn("Super admin account was created concurrently", slog.String("email", email))
		return
	}
	if err != nil {
		slog.Error("Error creating super admin account", slog.String("error", err.Error()))
		return
	}
	slog.Info("Super admin account created", slog.String("accountID", created.ID.Hex()))
}
