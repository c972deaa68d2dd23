package firebase

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// InitFirebase initializes and returns a Firebase app instance. Firebase Auth
// is the identity provider; session bearer tokens that miss the local caches
// are verified against it as ID tokens.
func InitFirebase() (*firebase.App, error) {
	ctx := context.Background()

	serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
	projectID := os.Getenv("FIREBASE_PROJECT_ID")

	config := &firebase.Config{ProjectID: projectID}

	var app *firebase.App
	var err error

	if serviceAccountPath != "" {
		app, err = firebase.NewApp(ctx, config, option.WithCredentialsFile(serviceAccountPath))
	} else {
		// Default credentials, for Google Cloud deployments
		app, err = firebase.NewApp(ctx, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	if _, err := app.Auth(ctx); err != nil {
		return nil, fmt.Errorf("failed to get Firebase Auth client: %w", err)
	}

	return app, nil
}

// GetAuthClient returns a Firebase Auth client from the app
func GetAuthClient(app *firebase.App) (*auth.Client, error) {
	return app.Auth(context.Background())
}
