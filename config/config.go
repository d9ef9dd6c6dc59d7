// server/config/config.go
package config

import (
	"time"

	"github.com/spf13/viper"
)

// --- Sub-structs, mirroring the YAML layout ---

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// SharePointConfig describes the hosted list store and the two lists the workflow lives in.
type SharePointConfig struct {
	SiteURL             string        `mapstructure:"siteURL"`
	AccessToken         string        `mapstructure:"accessToken"`
	RequestsList        string        `mapstructure:"requestsList"`
	ItemsList           string        `mapstructure:"itemsList"`
	AdminGroup          string        `mapstructure:"adminGroup"`
	AuthorField         string        `mapstructure:"authorField"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxConcurrentWrites int           `mapstructure:"maxConcurrentWrites"`
}

type MongoConfig struct {
	URI    string `mapstructure:"uri"`
	DBName string `mapstructure:"dbName"`
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret"`
	Expiration string `mapstructure:"expiration"`
}

type S3Config struct {
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	AccessKeyID      string `mapstructure:"accessKeyID"`
	SecretAccessKey  string `mapstructure:"secretAccessKey"`
	CloudFrontDomain string `mapstructure:"cloudFrontDomain"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// BootstrapConfig seeds the first local account when the users collection is empty.
type BootstrapConfig struct {
	Email            string `mapstructure:"email"`
	Password         string `mapstructure:"password"`
	Name             string `mapstructure:"name"`
	SharePointUserID int    `mapstructure:"sharePointUserID"`
}

// --- Root config ---

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	SharePoint SharePointConfig `mapstructure:"sharepoint"`
	Mongo      MongoConfig      `mapstructure:"mongo"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	S3         S3Config         `mapstructure:"s3"`
	Log        LogConfig        `mapstructure:"log"`
	Bootstrap  BootstrapConfig  `mapstructure:"bootstrap"`
}

// LoadConfig reads config.yaml from path and overrides it with environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	setDefaults(v)

	v.AutomaticEnv()

	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.allowedOrigins", "SERVER_ALLOWED_ORIGINS")
	v.BindEnv("sharepoint.siteURL", "SHAREPOINT_SITE_URL")
	v.BindEnv("sharepoint.accessToken", "SHAREPOINT_ACCESS_TOKEN")
	v.BindEnv("sharepoint.requestsList", "SHAREPOINT_REQUESTS_LIST")
	v.BindEnv("sharepoint.itemsList", "SHAREPOINT_ITEMS_LIST")
	v.BindEnv("sharepoint.adminGroup", "SHAREPOINT_ADMIN_GROUP")
	v.BindEnv("sharepoint.authorField", "SHAREPOINT_AUTHOR_FIELD")
	v.BindEnv("sharepoint.timeout", "SHAREPOINT_TIMEOUT")
	v.BindEnv("sharepoint.maxConcurrentWrites", "SHAREPOINT_MAX_CONCURRENT_WRITES")
	v.BindEnv("mongo.uri", "MONGO_URI")
	v.BindEnv("mongo.dbName", "MONGO_DBNAME")
	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	v.BindEnv("s3.bucket", "S3_BUCKET")
	v.BindEnv("s3.region", "S3_REGION")
	v.BindEnv("s3.accessKeyID", "S3_ACCESS_KEY_ID")
	v.BindEnv("s3.secretAccessKey", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("s3.cloudFrontDomain", "S3_CLOUDFRONT_DOMAIN")
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.format", "LOG_FORMAT")
	v.BindEnv("bootstrap.email", "BOOTSTRAP_EMAIL")
	v.BindEnv("bootstrap.password", "BOOTSTRAP_PASSWORD")
	v.BindEnv("bootstrap.name", "BOOTSTRAP_NAME")
	v.BindEnv("bootstrap.sharePointUserID", "BOOTSTRAP_SHAREPOINT_USER_ID")

	// A missing config.yaml is fine, env vars and defaults still apply.
	err = v.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowedOrigins", []string{"*"})
	v.SetDefault("sharepoint.requestsList", "EquipmentRequests")
	v.SetDefault("sharepoint.itemsList", "RequestItems")
	v.SetDefault("sharepoint.adminGroup", "Equipment Admins")
	v.SetDefault("sharepoint.authorField", "Author")
	v.SetDefault("sharepoint.timeout", 30*time.Second)
	v.SetDefault("sharepoint.maxConcurrentWrites", 8)
	v.SetDefault("mongo.dbName", "equipment_requests")
	v.SetDefault("jwt.expiration", "24h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// TokenTTL parses jwt.expiration, falling back to 24h.
func (c JWTConfig) TokenTTL() time.Duration {
	d, err := time.ParseDuration(c.Expiration)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}
