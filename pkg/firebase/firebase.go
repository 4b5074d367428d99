package firebase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

var (
	// ErrDisabled is returned by a nil *Verifier, i.e. when no credentials are configured
	ErrDisabled = errors.New("firebase sign-in is not configured")
	// ErrEmptyToken is returned before calling Firebase with a blank ID token
	ErrEmptyToken = errors.New("firebase id token is empty")
)

type tokenClient interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Verifier checks Firebase ID tokens for the sign-in endpoint.
// A nil *Verifier is valid and reports Firebase sign-in as disabled.
type Verifier struct {
	client tokenClient
}

// NewVerifier loads the service account at credentialsPath. An empty path
// returns a nil Verifier and no error; a path that does not exist is an error.
func NewVerifier(ctx context.Context, credentialsPath string) (*Verifier, error) {
	if credentialsPath == "" {
		return nil, nil
	}
	if _, err := os.Stat(credentialsPath); err != nil {
		return nil, fmt.Errorf("firebase credentials file %s: %w", credentialsPath, err)
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}
	return &Verifier{client: client}, nil
}

// Enabled reports whether tokens can be verified
func (v *Verifier) Enabled() bool {
	return v != nil && v.client != nil
}

// VerifyIDToken checks signature, expiry and audience of idToken
func (v *Verifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if !v.Enabled() {
		return nil, ErrDisabled
	}
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, ErrEmptyToken
	}
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("verify firebase id token: %w", err)
	}
	return token, nil
}
