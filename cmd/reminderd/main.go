package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	listmodels "github.com/azro1/flare-care-sub001/internal/models/list_medications"
	medmodels "github.com/azro1/flare-care-sub001/internal/models/medication"
	"github.com/azro1/flare-care-sub001/internal/notify"
	"github.com/azro1/flare-care-sub001/internal/reminders"
)

// reminderd is the headless client-side reminder loop: it polls the API for
// the user's medication schedule and runs the foreground reminder service
// against the log-backed notification adapter.

const scheduleRefreshInterval = 5 * time.Minute

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	logger := zapLogger.Sugar()

	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:9091"
	}
	sessionToken := os.Getenv("SESSION_TOKEN")
	if sessionToken == "" {
		logger.Fatal("SESSION_TOKEN must be set")
	}

	client := &apiClient{
		baseURL: baseURL,
		token:   sessionToken,
		http:    &http.Client{Timeout: 10 * time.Second},
	}

	meds, err := client.listMedications(context.Background())
	if err != nil {
		logger.Fatalf("Failed to load medication schedule: %v", err)
	}
	logger.Infow("loaded medication schedule", "medications", len(meds))

	notifier := notify.NewLogNotifier(logger, os.Getenv("NOTIFICATIONS_DENIED") != "true")
	bus := reminders.NewBannerBus()
	service := reminders.NewService(notifier, bus, logger)

	// Mirror the in-app banner: log each broadcast independently of the
	// native notification path
	events, cancel := bus.Subscribe()
	defer cancel()
	go func() {
		for ev := range events {
			logger.Infow("reminder banner", "medications", ev.MedicationNames)
		}
	}()

	service.Start(meds)
	defer service.Stop()

	// Refresh the schedule without resetting the cadence or the fired-today
	// suppression
	refresh := time.NewTicker(scheduleRefreshInterval)
	defer refresh.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-refresh.C:
			updated, err := client.listMedications(context.Background())
			if err != nil {
				logger.Warnw("failed to refresh medication schedule", "error", err)
				continue
			}
			service.UpdateMedications(updated)
		case <-quit:
			logger.Info("Shutting down reminder loop...")
			return
		}
	}
}

type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func (c *apiClient) listMedications(ctx context.Context) ([]medmodels.Medication, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/medications/list", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("medication list request failed with status %d: %s", resp.StatusCode, body)
	}

	var parsed listmodels.ListMedicationsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode medication list: %w", err)
	}
	return parsed.Medications, nil
}
