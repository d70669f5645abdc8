package utils

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// GatherConfig controls the scraping pipeline: pacing against the source
// sites and the headless-browser behaviour.
type GatherConfig struct {
	// RequestDelay is the politeness delay between per-mall requests.
	RequestDelay time.Duration
	// SettleWait is how long the browser adapter waits after initial
	// content load before reading intercepted responses. Chosen to
	// outlast third-party beacon scripts that keep the network busy.
	SettleWait time.Duration
	// ChromeBin overrides the browser binary path ("" = autodetect).
	ChromeBin  string
	MaxRetries int
	UserAgent  string
}

type ServerConfig struct {
	HTTPAddr string
	// MatchServiceURL points at an optional external fuzzy-matching
	// service. Empty disables it; matching falls back to exact
	// normalized-name lookup.
	MatchServiceURL string
}

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// LoadGatherConfig reads .env (if present) and the environment.
func LoadGatherConfig() GatherConfig {
	loadDotenv()

	return GatherConfig{
		RequestDelay: time.Duration(getEnvInt("MALLFINDER_REQUEST_DELAY_MS", 1000)) * time.Millisecond,
		SettleWait:   time.Duration(getEnvInt("MALLFINDER_SETTLE_WAIT_MS", 8000)) * time.Millisecond,
		ChromeBin:    getEnv("MALLFINDER_CHROME_BIN", ""),
		MaxRetries:   getEnvInt("MALLFINDER_MAX_RETRIES", 3),
		UserAgent:    getEnv("MALLFINDER_USER_AGENT", defaultUserAgent),
	}
}

func LoadServerConfig() ServerConfig {
	loadDotenv()

	return ServerConfig{
		HTTPAddr:        getEnv("MALLFINDER_HTTP_ADDR", ":8080"),
		MatchServiceURL: getEnv("MALLFINDER_MATCH_SERVICE_URL", ""),
	}
}

var dotenvLoaded bool

func loadDotenv() {
	if dotenvLoaded {
		return
	}
	dotenvLoaded = true
	if err := godotenv.Load(); err != nil {
		log.Println("[config] no .env file found, using system env vars")
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
