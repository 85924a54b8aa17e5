package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/newsreel/cms-backend/pkg/db"
	"github.com/newsreel/cms-backend/pkg/user-management/pwhash"
	"github.com/newsreel/cms-backend/pkg/utils"
	"gopkg.in/yaml.v2"

	accountDB "github.com/newsreel/cms-backend/pkg/db/account"
	contentDB "github.com/newsreel/cms-backend/pkg/db/content"
)

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"

	// Variables to override "secrets" in the config file
	ENV_ACCOUNT_DB_USERNAME = "ACCOUNT_DB_USERNAME"
	ENV_ACCOUNT_DB_PASSWORD = "ACCOUNT_DB_PASSWORD"
	ENV_CONTENT_DB_USERNAME = "CONTENT_DB_USERNAME"
	ENV_CONTENT_DB_PASSWORD = "CONTENT_DB_PASSWORD"

	ENV_SUPER_ADMIN_PASSWORD = "SUPER_ADMIN_PASSWORD"
)

type config struct {
	// Logging configs
	Logging utils.LoggerConfig `json:"logging" yaml:"logging"`

	// DB configs
	DBConfigs struct {
		AccountDB db.DBConfigYaml `json:"account_db" yaml:"account_db"`
		ContentDB db.DBConfigYaml `json:"content_db" yaml:"content_db"`
	} `json:"db_configs" yaml:"db_configs"`

	PWHashing struct {
		Argon2Memory      uint32 `json:"argon2_memory" yaml:"argon2_memory"`
		Argon2Iterations  uint32 `json:"argon2_iterations" yaml:"argon2_iterations"`
		Argon2Parallelism uint8  `json:"argon2_parallelism" yaml:"argon2_parallelism"`
	} `json:"pw_hashing" yaml:"pw_hashing"`

	// Task configurations
	TaskConfigs TaskConfigs `json:"task_configs" yaml:"task_configs"`
}

// Explicit task configuration structs
type TaskConfigs struct {
	DropIndexes         DropIndexesConfig         `json:"drop_indexes" yaml:"drop_indexes"`
	CreateIndexes       CreateIndexesConfig       `json:"create_indexes" yaml:"create_indexes"`
	GetIndexes          GetIndexesConfig          `json:"get_indexes" yaml:"get_indexes"`
	BootstrapSuperAdmin BootstrapSuperAdminConfig `json:"bootstrap_super_admin" yaml:"bootstrap_super_admin"`
}

type DropIndexesConfig struct {
	AccountDB DropIndexesMode `json:"account_db" yaml:"account_db"`
	ContentDB DropIndexesMode `json:"content_db" yaml:"content_db"`
}

type CreateIndexesConfig struct {
	AccountDB bool `json:"account_db" yaml:"account_db"`
	ContentDB bool `json:"content_db" yaml:"content_db"`
}

type GetIndexesConfig struct {
	AccountDB bool `json:"account_db" yaml:"account_db"`
	ContentDB bool `json:"content_db" yaml:"content_db"`
}

// BootstrapSuperAdminConfig creates the first super admin so that further admins can be
// registered through the API.
type BootstrapSuperAdminConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Name     string `json:"name" yaml:"name"`
	Email    string `json:"email" yaml:"email"`
	Password string `json:"password" yaml:"password"`
}

type DropIndexesMode string

const (
	DropIndexesModeAll      DropIndexesMode = "all"
	DropIndexesModeDefaults DropIndexesMode = "defaults"
	DropIndexesModeNone     DropIndexesMode = "none"
)

func (mode DropIndexesMode) IsValid() bool {
	switch mode {
	case DropIndexesModeAll, DropIndexesModeDefaults, DropIndexesModeNone:
		return true
	default:
		return false
	}
}

// normalizeDropIndexesModes treats an omitted mode as "none".
func normalizeDropIndexesModes() {
	if conf.TaskConfigs.DropIndexes.AccountDB == "" {
		conf.TaskConfigs.DropIndexes.AccountDB = DropIndexesModeNone
	}
	if conf.TaskConfigs.DropIndexes.ContentDB == "" {
		conf.TaskConfigs.DropIndexes.ContentDB = DropIndexesModeNone
	}
}

func validateConfig() {
	validateDropIndexesMode("task_configs.drop_indexes.account_db", conf.TaskConfigs.DropIndexes.AccountDB)
	validateDropIndexesMode("task_configs.drop_indexes.content_db", conf.TaskConfigs.DropIndexes.ContentDB)

	bootstrap := conf.TaskConfigs.BootstrapSuperAdmin
	if bootstrap.Enabled && (bootstrap.Email == "" || bootstrap.Password == "") {
		panic("bootstrap_super_admin needs an email and a password (or SUPER_ADMIN_PASSWORD)")
	}
}

func validateDropIndexesMode(field string, mode DropIndexesMode) {
	if !mode.IsValid() {
		panic(fmt.Sprintf("invalid drop indexes mode for %s: %q. Use one of: %v", field, mode, []DropIndexesMode{DropIndexesModeAll, DropIndexesModeDefaults, DropIndexesModeNone}))
	}
}

type RequiredDBs struct {
	AccountDB bool
	ContentDB bool
}

var conf config

// Database service variables - initialized only for required databases based on task config
var (
	accountDBService *accountDB.AccountDBService
	contentDBService *contentDB.ContentDBService
)

func init() {
	// .env is optional, real environment variables win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not read .env file", slog.String("error", err.Error()))
	}

	// Read config from file
	yamlFile, err := os.ReadFile(os.Getenv(ENV_CONFIG_FILE_PATH))
	if err != nil {
		panic(err)
	}

	err = yaml.UnmarshalStrict(yamlFile, &conf)
	if err != nil {
		panic(err)
	}

	// Init logger:
	utils.InitLoggerFromConfig(conf.Logging)

	// Override secrets from environment variables
	secretsOverride()

	normalizeDropIndexesModes()
	validateConfig()

	pwhash.InitArgonParams(
		conf.PWHashing.Argon2Memory,
		conf.PWHashing.Argon2Iterations,
		conf.PWHashing.Argon2Parallelism,
	)

	// init db
	initDBs()
}

func secretsOverride() {
	if dbUsername := os.Getenv(ENV_ACCOUNT_DB_USERNAME); dbUsername != "" {
		conf.DBConfigs.AccountDB.Username = dbUsername
	}

	if dbPassword := os.Getenv(ENV_ACCOUNT_DB_PASSWORD); dbPassword != "" {
		conf.DBConfigs.AccountDB.Password = dbPassword
	}

	if dbUsername := os.Getenv(ENV_CONTENT_DB_USERNAME); dbUsername != "" {
		conf.DBConfigs.ContentDB.Username = dbUsername
	}

	if dbPassword := os.Getenv(ENV_CONTENT_DB_PASSWORD); dbPassword != "" {
		conf.DBConfigs.ContentDB.Password = dbPassword
	}

	if password := os.Getenv(ENV_SUPER_ADMIN_PASSWORD); password != "" {
		conf.TaskConfigs.BootstrapSuperAdmin.Password = password
	}
}

// getRequiredDBs determines which databases need to be connected based on task configurations
func getRequiredDBs() RequiredDBs {
	tasks := conf.TaskConfigs
	return RequiredDBs{
		AccountDB: tasks.DropIndexes.AccountDB != DropIndexesModeNone ||
			tasks.CreateIndexes.AccountDB ||
			tasks.GetIndexes.AccountDB ||
			tasks.BootstrapSuperAdmin.Enabled,
		ContentDB: tasks.DropIndexes.ContentDB != DropIndexesModeNone ||
			tasks.CreateIndexes.ContentDB ||
			tasks.GetIndexes.ContentDB,
	}
}

func initDBs() {
	requiredDBs := getRequiredDBs()

	var err error
	if requiredDBs.AccountDB {
		accountDBService, err = accountDB.NewAccountDBService(db.DBConfigFromYamlObj(conf.DBConfigs.AccountDB))
		if err != nil {
			slog.Error("Error connecting to Account DB", slog.String("error", err.Error()))
			panic(err)
		}
	}

	if requiredDBs.ContentDB {
		contentDBService, err = contentDB.NewContentDBService(db.DBConfigFromYamlObj(conf.DBConfigs.ContentDB))
		if err != nil {
			slog.Error("Error connecting to Content DB", slog.String("error", err.Error()))
			panic(err)
		}
	}

	slog.Info("Database connections established",
		slog.Bool("account_db", requiredDBs.AccountDB),
		slog.Bool("content_db", requiredDBs.ContentDB))
}
