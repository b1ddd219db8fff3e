package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr             string
	RequestTimeout       time.Duration
	LogLevel             string
	LogFormat            string
	UserAgent            string
	GoogleBooksEndpoint  string
	GoogleBooksAPIKey    string
	ITunesEndpoint       string
	RAWGEndpoint         string
	RAWGAPIKey           string
	OMDBEndpoint         string
	OMDBAPIKey           string
	TMDBEndpoint         string
	TMDBAPIKey           string
	SteamSearchEndpoint  string
	SteamDetailsEndpoint string
	SteamCountryCode     string
	CheapSharkEndpoint   string
	RedisURL             string
	CacheTTL             time.Duration
	CacheDisabled        bool
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:             getEnv("HTTP_ADDR", ":8090"),
		RequestTimeout:       time.Duration(getEnvInt("SEARCH_TIMEOUT_SECONDS", 15)) * time.Second,
		LogLevel:             strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:            strings.ToLower(getEnv("LOG_FORMAT", "text")),
		UserAgent:            getEnv("SEARCH_USER_AGENT", "mediatrack-search/1.0"),
		GoogleBooksEndpoint:  getEnv("SEARCH_SOURCE_GOOGLEBOOKS_ENDPOINT", "https://www.googleapis.com/books/v1/volumes"),
		GoogleBooksAPIKey:    strings.TrimSpace(os.Getenv("GOOGLE_BOOKS_API_KEY")),
		ITunesEndpoint:       getEnv("SEARCH_SOURCE_ITUNES_ENDPOINT", "https://itunes.apple.com/search"),
		RAWGEndpoint:         getEnv("SEARCH_SOURCE_RAWG_ENDPOINT", "https://api.rawg.io/api/games"),
		RAWGAPIKey:           strings.TrimSpace(os.Getenv("RAWG_API_KEY")),
		OMDBEndpoint:         getEnv("SEARCH_SOURCE_OMDB_ENDPOINT", "https://www.omdbapi.com/"),
		OMDBAPIKey:           strings.TrimSpace(os.Getenv("OMDB_API_KEY")),
		TMDBEndpoint:         getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		TMDBAPIKey:           strings.TrimSpace(os.Getenv("TMDB_API_KEY")),
		SteamSearchEndpoint:  getEnv("SEARCH_SOURCE_STEAM_ENDPOINT", "https://store.steampowered.com/api/storesearch/"),
		SteamDetailsEndpoint: getEnv("SEARCH_SOURCE_STEAM_DETAILS_ENDPOINT", "https://store.steampowered.com/api/appdetails"),
		SteamCountryCode:     getEnv("SEARCH_SOURCE_STEAM_CC", "us"),
		CheapSharkEndpoint:   getEnv("SEARCH_SOURCE_CHEAPSHARK_ENDPOINT", "https://www.cheapshark.com/api/1.0/deals"),
		RedisURL:             getEnv("REDIS_URL", ""),
		CacheTTL:             time.Duration(getEnvInt("SEARCH_CACHE_TTL_MINUTES", 45)) * time.Minute,
		CacheDisabled:        getEnvBool("SEARCH_CACHE_DISABLED", false),
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
