package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppName                   string
	Env                       string // DEV (local; default), TEST, QA, PROD
	Build                     string
	Debug                     bool
	TestMode                  bool
	SecretKey                 string
	FrontendBaseURL           string
	MeetingBaseURL            string
	RollbarToken              string
	SendgridApiKey            string
	PasswordResetTimeoutDelta time.Duration

	defaultFromEmail string
	defaultFromName  string

	Server struct {
		Host                      string
		Address                   string
		DebugHost                 string
		ReadTimeout               time.Duration
		WriteTimeout              time.Duration
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		DisableReqLogs            bool
	}

	Database struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		MaxOpenConns  int
		MaxIdleConns  int
	}

	Storage struct {
		Backend       string // s3 | memory
		S3Bucket      string
		S3Region      string
		S3Endpoint    string
		S3AccessKey   string
		S3SecretKey   string
		PublicBaseURL string
		MaxAvatarSize int64
	}
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.defaultFromName, Address: c.defaultFromEmail}
}

// DatabaseAddress returns the database host:port.
func (c *Config) DatabaseAddress() string {
	return net.JoinHostPort(c.Database.Host, strconv.Itoa(c.Database.Port))
}

// NewConfig reads the configuration from the environment, optionally loading `config/.env.<env>` first.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Jifunze")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "3v^k9@x!jifunze-insecure-dev-key)q0w#m2z=h7b$")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("meetingBaseURL", "https://meet.jit.si")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("defaultFromName", "Jifunze")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 5*time.Second)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 15*time.Minute)
	v.SetDefault("server.jwtRefreshExpirationDelta", 24*time.Hour)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "jifunze")
	v.SetDefault("database.user", "jifunze")
	v.SetDefault("database.password", "jifunze")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 25)

	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.s3Bucket", "")
	v.SetDefault("storage.s3Region", "us-east-1")
	v.SetDefault("storage.s3Endpoint", "")
	v.SetDefault("storage.s3AccessKey", "")
	v.SetDefault("storage.s3SecretKey", "")
	v.SetDefault("storage.publicBaseURL", "http://localhost:8000/media")
	v.SetDefault("storage.maxAvatarSize", 2<<20)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	if root, ok := ProjectRoot(); ok {
		dotEnvPath := filepath.Join(root, "config", ".env."+strings.ToLower(env))
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
		}
	}
	v.AutomaticEnv()

	conf := &Config{
		AppName:                   v.GetString("appName"),
		Env:                       env,
		Build:                     v.GetString("build"),
		Debug:                     v.GetBool("debug"),
		TestMode:                  v.GetBool("testMode"),
		SecretKey:                 v.GetString("secretKey"),
		FrontendBaseURL:           strings.TrimRight(v.GetString("frontendBaseURL"), "/"),
		MeetingBaseURL:            strings.TrimRight(v.GetString("meetingBaseURL"), "/"),
		RollbarToken:              v.GetString("rollbarToken"),
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		defaultFromEmail:          v.GetString("defaultFromEmail"),
		defaultFromName:           v.GetString("defaultFromName"),
	}

	conf.Server.Host = v.GetString("server.host")
	conf.Server.Address = v.GetString("server.address")
	conf.Server.DebugHost = v.GetString("server.debugHost")
	conf.Server.ReadTimeout = v.GetDuration("server.readTimeout")
	conf.Server.WriteTimeout = v.GetDuration("server.writeTimeout")
	conf.Server.ShutdownTimeout = v.GetDuration("server.shutdownTimeout")
	conf.Server.JWTExpirationDelta = v.GetDuration("server.jwtExpirationDelta")
	conf.Server.JWTRefreshExpirationDelta = v.GetDuration("server.jwtRefreshExpirationDelta")
	conf.Server.DisableReqLogs = v.GetBool("server.disableReqLogs")

	conf.Database.Engine = v.GetString("database.engine")
	conf.Database.Host = v.GetString("database.host")
	conf.Database.Port = v.GetInt("database.port")
	conf.Database.Name = v.GetString("database.name")
	conf.Database.User = v.GetString("database.user")
	conf.Database.Password = v.GetString("database.password")
	conf.Database.AdminUser = v.GetString("database.adminUser")
	conf.Database.AdminPassword = v.GetString("database.adminPassword")
	conf.Database.DisableTLS = v.GetBool("database.disableTLS")
	conf.Database.MaxOpenConns = v.GetInt("database.maxOpenConns")
	conf.Database.MaxIdleConns = v.GetInt("database.maxIdleConns")

	conf.Storage.Backend = v.GetString("storage.backend")
	conf.Storage.S3Bucket = v.GetString("storage.s3Bucket")
	conf.Storage.S3Region = v.GetString("storage.s3Region")
	conf.Storage.S3Endpoint = v.GetString("storage.s3Endpoint")
	conf.Storage.S3AccessKey = v.GetString("storage.s3AccessKey")
	conf.Storage.S3SecretKey = v.GetString("storage.s3SecretKey")
	conf.Storage.PublicBaseURL = strings.TrimRight(v.GetString("storage.publicBaseURL"), "/")
	conf.Storage.MaxAvatarSize = v.GetInt64("storage.maxAvatarSize")

	return conf
}
