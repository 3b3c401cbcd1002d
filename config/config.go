package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/namsral/flag"
)

type Config struct {
	Port           string
	MongoURI       string
	Database       string
	Memory         bool
	JWTSecret      string
	TokenTTL       time.Duration
	GinMode        string
	AllowedOrigins []string
	UploadDir      string
	MaxUploadSize  int64
	CloudinaryURL  string
	RateLimit      int
	PageLimit      int
	MaxPageLimit   int
	RequestTimeout time.Duration
	Debug          bool
}

// Load reads an optional .env file into the environment, then parses args.
// Every flag falls back to the upper-case environment variable of the same
// name, with dashes as underscores (-mongodb-uri -> MONGODB_URI).
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	var cfg Config
	var origins string

	fs := flag.NewFlagSet("quill", flag.ContinueOnError)
	fs.StringVar(&cfg.Port, "port", "8080", "HTTP server port (PORT)")
	fs.StringVar(&cfg.MongoURI, "mongodb-uri", "", "MongoDB connection URI (MONGODB_URI)")
	fs.StringVar(&cfg.Database, "mongodb-database", "blog", "MongoDB database name (MONGODB_DATABASE)")
	fs.BoolVar(&cfg.Memory, "memory", false, "use an in-memory store instead of MongoDB (MEMORY)")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", "", "secret used to sign bearer tokens (JWT_SECRET)")
	fs.DurationVar(&cfg.TokenTTL, "token-ttl", 24*time.Hour, "lifetime of issued tokens (TOKEN_TTL)")
	fs.StringVar(&cfg.GinMode, "gin-mode", "debug", "gin mode: debug, release or test (GIN_MODE)")
	fs.StringVar(&origins, "cors-origins", "http://localhost:3000,http://localhost:5173", "comma separated CORS origins (CORS_ORIGINS)")
	fs.StringVar(&cfg.UploadDir, "upload-dir", "uploads", "directory for uploaded images (UPLOAD_DIR)")
	fs.Int64Var(&cfg.MaxUploadSize, "max-upload-size", 10<<20, "maximum multipart body size in bytes (MAX_UPLOAD_SIZE)")
	fs.StringVar(&cfg.CloudinaryURL, "cloudinary-url", "", "store uploads on Cloudinary instead of disk (CLOUDINARY_URL)")
	fs.IntVar(&cfg.RateLimit, "rate-limit", 60, "write requests per minute and client IP, 0 disables (RATE_LIMIT)")
	fs.IntVar(&cfg.PageLimit, "page-limit", 10, "default page size of post listings (PAGE_LIMIT)")
	fs.IntVar(&cfg.MaxPageLimit, "max-page-limit", 100, "largest page size a listing may request (MAX_PAGE_LIMIT)")
	fs.DurationVar(&cfg.RequestTimeout, "request-timeout", 10*time.Second, "timeout of store operations per request (REQUEST_TIMEOUT)")
	fs.BoolVar(&cfg.Debug, "debug", false, "enable debug logging (DEBUG)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	for _, origin := range strings.Split(origins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must be set"))
	}
	if c.MongoURI == "" && !c.Memory {
		errs = append(errs, errors.New("MONGODB_URI must be set"))
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		errs = append(errs, errors.New("GIN_MODE must be debug, release or test"))
	}
	if c.PageLimit < 1 {
		errs = append(errs, errors.New("PAGE_LIMIT must be at least 1"))
	}
	if c.MaxPageLimit < c.PageLimit {
		errs = append(errs, errors.New("MAX_PAGE_LIMIT must not be below PAGE_LIMIT"))
	}
	return errors.Join(errs...)
}
