package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string
	MySQLDSN string

	JWTSecret string
	JWTIssuer string

	RedisAddr       string
	RateLimit       int
	RateLimitWindow time.Duration

	RabbitMQURL         string
	RabbitExchange      string
	RabbitQueue         string
	RabbitRoutingKey    string
	RabbitConsumerTag   string
	RabbitPublishPrefix string

	SendgridAPIKey string
	EmailFromName  string
	EmailFromAddr  string

	ActivityFeedSize  int
	SnapshotLimit     int
	ReminderLookahead time.Duration
	ReminderInterval  time.Duration
	ExpireInterval    time.Duration

	WSPingInterval time.Duration
	WSWriteTimeout time.Duration
	WSSendBuffer   int

	OTELServiceName string
	OTLPEndpoint    string
	OTLPInsecure    bool
}

func New() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr: ":8080",

		JWTIssuer: "classpulse",

		RateLimit:       20,
		RateLimitWindow: time.Minute,

		RabbitExchange:      "school.events",
		RabbitQueue:         "school.events.realtime",
		RabbitRoutingKey:    "school.#",
		RabbitConsumerTag:   "realtime-consumer",
		RabbitPublishPrefix: "school",

		EmailFromName: "ClassPulse",
		EmailFromAddr: "no-reply@classpulse.local",

		ActivityFeedSize:  20,
		SnapshotLimit:     50,
		ReminderLookahead: 24 * time.Hour,
		ReminderInterval:  15 * time.Minute,
		ExpireInterval:    time.Hour,

		WSPingInterval: 30 * time.Second,
		WSWriteTimeout: 10 * time.Second,
		WSSendBuffer:   16,

		OTELServiceName: "classpulse",
		OTLPInsecure:    true,
	}

	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		cfg.HTTPAddr = addr
	} else if port := os.Getenv("PORT"); port != "" {
		cfg.HTTPAddr = ":" + port
	}

	cfg.MySQLDSN = os.Getenv("MYSQL_DSN")
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RabbitMQURL = os.Getenv("RABBITMQ_URL")
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.SendgridAPIKey = os.Getenv("SENDGRID_API_KEY")

	if v := os.Getenv("JWT_ISSUER"); v != "" {
		cfg.JWTIssuer = v
	}
	if v := os.Getenv("RABBITMQ_EXCHANGE"); v != "" {
		cfg.RabbitExchange = v
	}
	if v := os.Getenv("RABBITMQ_QUEUE"); v != "" {
		cfg.RabbitQueue = v
	}
	if v := os.Getenv("RABBITMQ_ROUTING_KEY"); v != "" {
		cfg.RabbitRoutingKey = v
	}
	if v := os.Getenv("RABBITMQ_CONSUMER_TAG"); v != "" {
		cfg.RabbitConsumerTag = v
	}
	if v := os.Getenv("RABBITMQ_PUBLISH_PREFIX"); v != "" {
		cfg.RabbitPublishPrefix = v
	}
	if v := os.Getenv("EMAIL_FROM_NAME"); v != "" {
		cfg.EmailFromName = v
	}
	if v := os.Getenv("EMAIL_FROM_ADDR"); v != "" {
		cfg.EmailFromAddr = v
	}

	if v := os.Getenv("OTEL_SERVICE_NAME"); v != "" {
		cfg.OTELServiceName = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTLPEndpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_INSECURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.OTLPInsecure = b
		}
	}

	if n := envInt("RATE_LIMIT"); n > 0 {
		cfg.RateLimit = n
	}
	if n := envInt("RATE_LIMIT_WINDOW_SECONDS"); n > 0 {
		cfg.RateLimitWindow = time.Duration(n) * time.Second
	}
	if n := envInt("ACTIVITY_FEED_SIZE"); n > 0 {
		cfg.ActivityFeedSize = n
	}
	if n := envInt("SNAPSHOT_LIMIT"); n > 0 {
		cfg.SnapshotLimit = n
	}
	if n := envInt("REMINDER_LOOKAHEAD_HOURS"); n > 0 {
		cfg.ReminderLookahead = time.Duration(n) * time.Hour
	}
	if n := envInt("REMINDER_INTERVAL_MINUTES"); n > 0 {
		cfg.ReminderInterval = time.Duration(n) * time.Minute
	}
	if n := envInt("EXPIRE_INTERVAL_MINUTES"); n > 0 {
		cfg.ExpireInterval = time.Duration(n) * time.Minute
	}
	if n := envInt("WS_PING_INTERVAL_SECONDS"); n > 0 {
		cfg.WSPingInterval = time.Duration(n) * time.Second
	}

	return cfg
}

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
