package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/newsreel/cms-backend/pkg/apihelpers"
	mw "github.com/newsreel/cms-backend/pkg/apihelpers/middlewares"
	authguard "github.com/newsreel/cms-backend/pkg/auth-guard"
	"github.com/newsreel/cms-backend/pkg/content"
	"github.com/newsreel/cms-backend/pkg/db"
	"github.com/newsreel/cms-backend/pkg/db/memory"
	"github.com/newsreel/cms-backend/pkg/events"
	"github.com/newsreel/cms-backend/pkg/media"
	"github.com/newsreel/cms-backend/pkg/messaging/sms"
	"github.com/newsreel/cms-backend/pkg/otp"
	usermanagement "github.com/newsreel/cms-backend/pkg/user-management"
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

	ENV_JWT_SIGN_KEY  = "JWT_SIGN_KEY"
	ENV_JWT_TOKEN_TTL = "JWT_TOKEN_TTL"

	ENV_REDIS_PASSWORD      = "REDIS_PASSWORD"
	ENV_SMS_GATEWAY_API_KEY = "SMS_GATEWAY_API_KEY"
	ENV_S3_ACCESS_KEY       = "S3_ACCESS_KEY"
	ENV_S3_SECRET_KEY       = "S3_SECRET_KEY"
)

const (
	STORE_MONGO  = "mongo"
	STORE_MEMORY = "memory"
)

const RATE_LIMIT_PRUNE_INTERVAL = time.Minute

type CMSApiConfig struct {
	// Logging configs
	Logging utils.LoggerConfig `json:"logging" yaml:"logging"`

	// Gin configs
	GinConfig struct {
		DebugMode    bool     `json:"debug_mode" yaml:"debug_mode"`
		AllowOrigins []string `json:"allow_origins" yaml:"allow_origins"`
		Port         string   `json:"port" yaml:"port"`

		// Mutual TLS configs
		MTLS struct {
			Use              bool                        `json:"use" yaml:"use"`
			CertificatePaths apihelpers.CertificatePaths `json:"certificate_paths" yaml:"certificate_paths"`
		} `json:"mtls" yaml:"mtls"`
	} `json:"gin_config" yaml:"gin_config"`

	AuthConfig struct {
		PWHashing struct {
			Argon2Memory      uint32 `json:"argon2_memory" yaml:"argon2_memory"`
			Argon2Iterations  uint32 `json:"argon2_iterations" yaml:"argon2_iterations"`
			Argon2Parallelism uint8  `json:"argon2_parallelism" yaml:"argon2_parallelism"`
		} `json:"pw_hashing" yaml:"pw_hashing"`
		JWTConfig struct {
			SignKey        string        `json:"sign_key" yaml:"sign_key"`
			ExpiresIn      time.Duration `json:"expires_in" yaml:"expires_in"`
			GuestExpiresIn time.Duration `json:"guest_expires_in" yaml:"guest_expires_in"`
		} `json:"jwt_config" yaml:"jwt_config"`
		RateLimit mw.RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`
	} `json:"auth_config" yaml:"auth_config"`

	// "mongo" (default) or "memory"
	Store string `json:"store" yaml:"store"`

	// DB configs
	DBConfigs struct {
		AccountDB db.DBConfigYaml `json:"account_db" yaml:"account_db"`
		ContentDB db.DBConfigYaml `json:"content_db" yaml:"content_db"`
	} `json:"db_configs" yaml:"db_configs"`

	// Phone login
	Redis      otp.RedisConfig   `json:"redis" yaml:"redis"`
	OTP        otp.Config        `json:"otp" yaml:"otp"`
	SMSGateway sms.GatewayConfig `json:"sms_gateway" yaml:"sms_gateway"`

	Events events.Config `json:"events" yaml:"events"`
	Media  media.Config  `json:"media" yaml:"media"`

	Metrics struct {
		APIKeys []string `json:"api_keys" yaml:"api_keys"`
	} `json:"metrics" yaml:"metrics"`
}

// accountStore is what both the guard and the account service need from account storage.
type accountStore interface {
	authguard.CredentialStore
	usermanagement.AccountStore
}

var (
	accountStorage accountStore
	contentStorage content.Store
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

	if conf.AuthConfig.JWTConfig.SignKey == "" {
		slog.Error("JWT sign key is not set - configure JWT_SIGN_KEY env variable.")
		panic("JWT sign key not set")
	}

	if !conf.GinConfig.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// init argon2
	pwhash.InitArgonParams(
		conf.AuthConfig.PWHashing.Argon2Memory,
		conf.AuthConfig.PWHashing.Argon2Iterations,
		conf.AuthConfig.PWHashing.Argon2Parallelism,
	)

	// Init DBs
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

	if signKey := os.Getenv(ENV_JWT_SIGN_KEY); signKey != "" {
		conf.AuthConfig.JWTConfig.SignKey = signKey
	}

	if ttl := os.Getenv(ENV_JWT_TOKEN_TTL); ttl != "" {
		parsed, err := utils.ParseDurationString(ttl)
		if err != nil {
			slog.Error("invalid JWT_TOKEN_TTL, keeping configured value", slog.String("value", ttl), slog.String("error", err.Error()))
		} else {
			conf.AuthConfig.JWTConfig.ExpiresIn = parsed
		}
	}

	if redisPassword := os.Getenv(ENV_REDIS_PASSWORD); redisPassword != "" {
		conf.Redis.Password = redisPassword
	}

	if smsGatewayAPIKey := os.Getenv(ENV_SMS_GATEWAY_API_KEY); smsGatewayAPIKey != "" {
		conf.SMSGateway.APIKey = smsGatewayAPIKey
	}

	if accessKey := os.Getenv(ENV_S3_ACCESS_KEY); accessKey != "" {
		conf.Media.AccessKey = accessKey
	}

	if secretKey := os.Getenv(ENV_S3_SECRET_KEY); secretKey != "" {
		conf.Media.SecretKey = secretKey
	}
}

func initDBs() {
	if conf.Store == STORE_MEMORY {
		slog.Warn("using in-memory stores, data is lost on restart")
		accountStorage = memory.NewAccountStore()
		contentStorage = memory.NewContentStore()
		return
	}

	accountDBService, err := accountDB.NewAccountDBService(db.DBConfigFromYamlObj(conf.DBConfigs.AccountDB))
	if err != nil {
		slog.Error("Error connecting to Account DB", slog.String("error", err.Error()))
		panic(err)
	}
	accountStorage = accountDBService

	contentDBService, err := contentDB.NewContentDBService(db.DBConfigFromYamlObj(conf.DBConfigs.ContentDB))
	if err != nil {
		slog.Error("Error connecting to Content DB", slog.String("error", err.Error()))
		panic(err)
	}
	contentStorage = contentDBService
}

// initPhoneLogin returns nil values when Redis is not configured, which disables phone login.
func initPhoneLogin() (*otp.Store, *sms.Sender) {
	if conf.Redis.Addr == "" {
		slog.Info("no redis address configured, phone login is disabled")
		return nil, nil
	}

	client, err := otp.NewRedisClient(conf.Redis)
	if err != nil {
		slog.Error("Error connecting to Redis", slog.String("error", err.Error()))
		panic(err)
	}

	sender, err := sms.NewSender(conf.SMSGateway)
	if err != nil {
		slog.Error("Error parsing SMS template", slog.String("error", err.Error()))
		panic(err)
	}
	if sender.IsDevelopmentMode() {
		slog.Warn("no SMS gateway url configured, codes are only logged")
	}
	return otp.NewStore(client, conf.OTP), sender
}

func initMedia(ctx context.Context) *media.Service {
	if !conf.Media.IsConfigured() {
		slog.Info("object storage not configured, upload urls are disabled")
		return media.NewService(nil, conf.Media)
	}

	client, err := media.NewS3Client(ctx, conf.Media)
	if err != nil {
		slog.Error("Error creating S3 client", slog.String("error", err.Error()))
		panic(err)
	}
	return media.NewService(client, conf.Media)
}
