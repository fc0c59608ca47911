package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cleanmatch/mono-repo/backend/shared/go-utils"
	"github.com/joho/godotenv"
	ld "github.com/launchdarkly/go-server-sdk/v7"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
)

// BlacklistBackend selects the store behind the token blacklist.
type BlacklistBackend string

const (
	BlacklistBackendPostgres BlacklistBackend = "postgres"
	BlacklistBackendRedis    BlacklistBackend = "redis"
)

// Config holds all application configuration, including secrets, flags, etc.
type Config struct {
	OrganizationName string
	AppName          string
	Env              string
	AppPort          string
	AppUrl           string
	DBUrl            string
	RedisUrl         string

	JWTSecret          []byte
	JWTRefreshSecret   []byte
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	BcryptRounds       int

	BlacklistBackend    BlacklistBackend
	BlacklistFailClosed bool
	SweepSchedule       string

	SendGridAPIKey           string
	SendGridFromEmail        string
	PasswordResetCodeLength  int
	PasswordResetCodeExpiry  time.Duration
	PasswordResetMaxAttempts int

	EmailLimitPerIPPerHour    int
	EmailLimitPerEmailPerHour int
	GlobalEmailLimitPerHour   int
	LoginLimitPerIPPerHour    int
	LoginLimitPerEmailPerHour int
	RegisterLimitPerIPPerHour int
	RateLimitWindow           time.Duration

	// Bootstrap admin, seeded on start when both are set.
	SeedAdminEmail    string
	SeedAdminPassword string

	// Static flags fetched once from LaunchDarkly (env fallbacks when no SDK key)
	LDFlag_ShortTokenTTL       bool
	LDFlag_SendgridSandboxMode bool
	LDFlag_CORSHighSecurity    bool
}

// Constants for time-based configuration defaults.
const (
	OrganizationName                 = utils.OrganizationName
	DefaultAppPort                   = "5000"
	DefaultAccessTokenExpiry         = 7 * 24 * time.Hour
	DefaultRefreshTokenExpiry        = 30 * 24 * time.Hour
	TestShortTokenExpiry             = 2 * time.Second
	TestShortRefreshTokenExpiry      = 8 * time.Second
	DefaultSweepSchedule             = "@hourly"
	PasswordResetCodeLength          = 6
	DefaultPasswordResetCodeExpiry   = 15 * time.Minute
	PasswordResetMaxAttempts         = 5
	DefaultEmailLimitPerIPPerHour    = 50
	DefaultEmailLimitPerEmailPerHour = 5
	DefaultGlobalEmailLimitPerHour   = 2000
	DefaultLoginLimitPerIPPerHour    = 100
	DefaultLoginLimitPerEmailPerHour = 20
	DefaultRegisterLimitPerIPPerHour = 20
	DefaultRateLimitWindow           = 1 * time.Hour
	LDConnectionTimeout              = 5 * time.Second
	minSecretLength                  = 32
)

// Global compile-time overrides, defaults for demonstration.
var (
	AppName             = "auth-service"
	LDServerContextKey  = "cleanmatch-auth-service"
	LDServerContextKind = "service"
)

// LoadConfig reads the environment (and .env when present), resolves the
// static LaunchDarkly flags and returns a *Config. Missing required
// values are fatal.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		utils.Logger.WithError(err).Warn("Failed to load .env file")
	}

	utils.Logger.Info("Loading config for app: ", AppName)

	//----------------------------------------------------------------------
	// Required values.
	//----------------------------------------------------------------------
	env := getEnv("ENV", "dev")
	dbUrl := mustGetEnv("DB_URL")

	jwtSecret := mustGetEnv("JWT_SECRET")
	jwtRefreshSecret := mustGetEnv("JWT_REFRESH_SECRET")
	if jwtSecret == jwtRefreshSecret {
		utils.Logger.Fatal("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if len(jwtSecret) < minSecretLength || len(jwtRefreshSecret) < minSecretLength {
		utils.Logger.Warnf("JWT secrets shorter than %d bytes are weak", minSecretLength)
	}

	//----------------------------------------------------------------------
	// Token lifetimes and hashing cost.
	//----------------------------------------------------------------------
	accessTokenExpiry, err := ParseDuration(getEnv("JWT_EXPIRE", "7d"))
	if err != nil {
		utils.Logger.WithError(err).Fatal("Invalid JWT_EXPIRE")
	}
	refreshTokenExpiry, err := ParseDuration(getEnv("JWT_REFRESH_EXPIRE", "30d"))
	if err != nil {
		utils.Logger.WithError(err).Fatal("Invalid JWT_REFRESH_EXPIRE")
	}
	bcryptRounds := utils.NormalizeBcryptCost(getEnvInt("BCRYPT_ROUNDS", utils.DefaultBcryptCost))

	//----------------------------------------------------------------------
	// Blacklist store.
	//----------------------------------------------------------------------
	backend := BlacklistBackend(strings.ToLower(getEnv("BLACKLIST_BACKEND", string(BlacklistBackendPostgres))))
	redisUrl := os.Getenv("REDIS_URL")
	switch backend {
	case BlacklistBackendPostgres:
	case BlacklistBackendRedis:
		if redisUrl == "" {
			utils.Logger.Fatal("REDIS_URL env var is required when BLACKLIST_BACKEND=redis")
		}
	default:
		utils.Logger.Fatalf("Unknown BLACKLIST_BACKEND %q", backend)
	}

	cfg := &Config{
		OrganizationName:          OrganizationName,
		AppName:                   AppName,
		Env:                       env,
		AppPort:                   getEnv("APP_PORT", DefaultAppPort),
		AppUrl:                    getEnv("APP_URL", "http://localhost:3000"),
		DBUrl:                     dbUrl,
		RedisUrl:                  redisUrl,
		JWTSecret:                 []byte(jwtSecret),
		JWTRefreshSecret:          []byte(jwtRefreshSecret),
		AccessTokenExpiry:         accessTokenExpiry,
		RefreshTokenExpiry:        refreshTokenExpiry,
		BcryptRounds:              bcryptRounds,
		BlacklistBackend:          backend,
		BlacklistFailClosed:       getEnvBool("BLACKLIST_FAIL_CLOSED", false),
		SweepSchedule:             getEnv("SWEEP_SCHEDULE", DefaultSweepSchedule),
		SendGridAPIKey:            os.Getenv("SENDGRID_API_KEY"),
		SendGridFromEmail:         getEnv("SENDGRID_FROM_EMAIL", "no-reply@cleanmatch.app"),
		PasswordResetCodeLength:   PasswordResetCodeLength,
		PasswordResetCodeExpiry:   DefaultPasswordResetCodeExpiry,
		PasswordResetMaxAttempts:  PasswordResetMaxAttempts,
		EmailLimitPerIPPerHour:    getEnvInt("EMAIL_LIMIT_PER_IP_PER_HOUR", DefaultEmailLimitPerIPPerHour),
		EmailLimitPerEmailPerHour: getEnvInt("EMAIL_LIMIT_PER_EMAIL_PER_HOUR", DefaultEmailLimitPerEmailPerHour),
		GlobalEmailLimitPerHour:   getEnvInt("GLOBAL_EMAIL_LIMIT_PER_HOUR", DefaultGlobalEmailLimitPerHour),
		LoginLimitPerIPPerHour:    getEnvInt("LOGIN_LIMIT_PER_IP_PER_HOUR", DefaultLoginLimitPerIPPerHour),
		LoginLimitPerEmailPerHour: getEnvInt("LOGIN_LIMIT_PER_EMAIL_PER_HOUR", DefaultLoginLimitPerEmailPerHour),
		RegisterLimitPerIPPerHour: getEnvInt("REGISTER_LIMIT_PER_IP_PER_HOUR", DefaultRegisterLimitPerIPPerHour),
		RateLimitWindow:           DefaultRateLimitWindow,
		SeedAdminEmail:            os.Getenv("SEED_ADMIN_EMAIL"),
		SeedAdminPassword:         os.Getenv("SEED_ADMIN_PASSWORD"),

		LDFlag_ShortTokenTTL:       getEnvBool("SHORT_TOKEN_TTL", false),
		LDFlag_SendgridSandboxMode: getEnvBool("SENDGRID_SANDBOX_MODE", env != "prod"),
		LDFlag_CORSHighSecurity:    getEnvBool("CORS_HIGH_SECURITY", env == "prod"),
	}

	if sdkKey := os.Getenv("LD_SDK_KEY"); sdkKey != "" {
		loadLaunchDarklyFlags(sdkKey, cfg)
	} else {
		utils.Logger.Info("LD_SDK_KEY not set; static flags come from the environment")
	}

	//----------------------------------------------------------------------
	// If shortTokenTTL is on, override expiries (integration test runs).
	//----------------------------------------------------------------------
	if cfg.LDFlag_ShortTokenTTL {
		cfg.AccessTokenExpiry = TestShortTokenExpiry
		cfg.RefreshTokenExpiry = TestShortRefreshTokenExpiry
	}

	if cfg.SendGridAPIKey == "" && !cfg.LDFlag_SendgridSandboxMode {
		utils.Logger.Fatal("SENDGRID_API_KEY env var is missing and sandbox mode is off")
	}

	utils.Logger.Debugf("Access TTL %v, refresh TTL %v, bcrypt cost %d, blacklist backend %s (fail closed: %t)",
		cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry, cfg.BcryptRounds, cfg.BlacklistBackend, cfg.BlacklistFailClosed)

	return cfg
}

// loadLaunchDarklyFlags overrides the env-derived static flags with the
// values served by LaunchDarkly. Flags are read once at start-up.
func loadLaunchDarklyFlags(sdkKey string, cfg *Config) {
	ldClient, err := ld.MakeClient(sdkKey, LDConnectionTimeout)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to create LaunchDarkly client")
	}
	defer ldClient.Close()

	if !ldClient.Initialized() {
		utils.Logger.Fatal("LaunchDarkly client failed to initialize")
	}

	context := ldcontext.NewWithKind(ldcontext.Kind(LDServerContextKind), LDServerContextKey)

	boolFlag := func(key string, fallback bool) bool {
		v, err := ldClient.BoolVariation(key, context, fallback)
		if err != nil {
			utils.Logger.WithError(err).Fatalf("Error retrieving %s flag", key)
		}
		utils.Logger.Debugf("%s flag: %t", key, v)
		return v
	}

	cfg.LDFlag_ShortTokenTTL = boolFlag("short_token_ttl", cfg.LDFlag_ShortTokenTTL)
	cfg.LDFlag_SendgridSandboxMode = boolFlag("sendgrid_sandbox_mode", cfg.LDFlag_SendgridSandboxMode)
	cfg.LDFlag_CORSHighSecurity = boolFlag("cors_high_security", cfg.LDFlag_CORSHighSecurity)
	cfg.BlacklistFailClosed = boolFlag("blacklist_fail_closed", cfg.BlacklistFailClosed)

	fromEmail, err := ldClient.StringVariation("sendgrid_from_email", context, cfg.SendGridFromEmail)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving sendgrid_from_email flag")
	}
	if fromEmail != "" {
		cfg.SendGridFromEmail = fromEmail
	}
}

// ParseDuration accepts Go durations ("15m", "168h") and the day/week
// shorthand common in JWT_EXPIRE settings ("7d", "2w", "30d").
func ParseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("empty duration")
	}

	if d, err := time.ParseDuration(raw); err == nil {
		if d <= 0 {
			return 0, fmt.Errorf("duration %q must be positive", raw)
		}
		return d, nil
	}

	unit := raw[len(raw)-1]
	var mult time.Duration
	switch unit {
	case 'd':
		mult = 24 * time.Hour
	case 'w':
		mult = 7 * 24 * time.Hour
	default:
		// A bare number is seconds, as in the jsonwebtoken expiresIn option.
		return scaleDuration(raw, raw, time.Second)
	}
	return scaleDuration(raw, raw[:len(raw)-1], mult)
}

func scaleDuration(raw, digits string, mult time.Duration) (time.Duration, error) {
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	if n > math.MaxInt64/int64(mult) {
		return 0, fmt.Errorf("duration %q is too large", raw)
	}
	return time.Duration(n) * mult, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func mustGetEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		utils.Logger.Fatalf("%s env var is missing", key)
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		utils.Logger.Warnf("Invalid %s %q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		utils.Logger.Warnf("Invalid %s %q, using %t", key, v, fallback)
		return fallback
	}
	return b
}

// Close cleans up any resources used by Config.
func (c *Config) Close() {
}
