package auth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// TokenVerifier is the part of the Firebase auth client used here.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// IdentityVerifier accepts identity tokens issued by Firebase Auth.
type IdentityVerifier struct {
	tokens TokenVerifier
}

func NewIdentityVerifier(tokens TokenVerifier) *IdentityVerifier {
	return &IdentityVerifier{tokens: tokens}
}

// NewFirebaseVerifier builds the Firebase auth client. Without a credentials
// file the application default credentials are used.
func NewFirebaseVerifier(ctx context.Context, projectID, credentialsFile string) (*IdentityVerifier, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return NewIdentityVerifier(client), nil
}

func (v *IdentityVerifier) Verify(ctx context.Context, cred Credential) (string, error) {
	if cred.IDToken == "" {
		return "", ErrMissingCredential
	}
	token, err := v.tokens.VerifyIDToken(ctx, cred.IDToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	email, _ := token.Claims["email"].(string)
	if email == "" {
		return "", ErrInvalidCredentials
	}
	return email, nil
}
