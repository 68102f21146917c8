package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	Env             string
	UploadDir       string
	HistoryLimit    int
	DisconnectGrace time.Duration
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func Load() Config {
	port := getenv("APP_PORT", "3000")
	env := getenv("APP_ENV", "dev")
	uploadDir := getenv("UPLOAD_DIR", "public/uploads")
	historyStr := getenv("HISTORY_LIMIT", "100")
	graceStr := getenv("DISCONNECT_GRACE_SECONDS", "60")
	history, _ := strconv.Atoi(historyStr)
	grace, _ := strconv.Atoi(graceStr)
	return Config{
		Port:            port,
		Env:             env,
		UploadDir:       uploadDir,
		HistoryLimit:    history,
		DisconnectGrace: time.Duration(grace) * time.Second,
	}
}
