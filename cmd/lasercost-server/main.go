package main

import (
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/arturave/lasercost/internal/httpapi"
	"github.com/arturave/lasercost/internal/models"
	"github.com/arturave/lasercost/internal/statscache"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cache, closeCache, err := openStatsCache(logger)
	if err != nil {
		log.Fatalf("failed to open stats cache: %v", err)
	}
	if closeCache != nil {
		defer closeCache()
	}

	profiles, err := loadMachineProfiles(getEnv("MACHINE_PROFILES_PATH", "./config/machine-profiles.json"))
	if err != nil {
		log.Fatalf("failed to load machine profiles: %v", err)
	}

	f := newFacade(cache, logger)
	handler := httpapi.NewCostHandler(f, httpapi.NewMemoryProfileStore(profiles), logger)

	jwtSecret := getEnv("JWT_SECRET", "lasercost-dev-secret-change-in-production")
	verifier := httpapi.NewTokenVerifier(jwtSecret, logger)

	var keys *httpapi.APIKeyVerifier
	if hash := getEnv("SERVICE_API_KEY_HASH", ""); hash != "" {
		keys = httpapi.NewAPIKeyVerifier(hash, logger)
	}

	router := httpapi.NewRouter(handler, verifier, keys)

	port := getEnv("PORT", "8090")
	logger.Info("starting lasercost server", "port", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func loadMachineProfiles(path string) ([]models.MachineProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var profiles []models.MachineProfile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
