package auth

import (
	"context"
	"crypto/subtle"
	"strings"

	"taskvault/pkg/util"
)

// Credential is either an email/password pair or an identity-provider token.
type Credential struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	IDToken  string `json:"idToken"`
}

// CredentialVerifier checks a credential and returns the email it proves.
type CredentialVerifier interface {
	Verify(ctx context.Context, cred Credential) (string, error)
}

// StaticVerifier compares against a plaintext password from config.
type StaticVerifier struct {
	email    string
	password string
}

func NewStaticVerifier(email, password string) *StaticVerifier {
	return &StaticVerifier{email: email, password: password}
}

func (v *StaticVerifier) Verify(_ context.Context, cred Credential) (string, error) {
	if cred.Email == "" || cred.Password == "" {
		return "", ErrMissingCredential
	}
	emailOK := strings.EqualFold(strings.TrimSpace(cred.Email), v.email)
	passOK := subtle.ConstantTimeCompare([]byte(cred.Password), []byte(v.password)) == 1
	if !emailOK || !passOK {
		return "", ErrInvalidCredentials
	}
	return v.email, nil
}

// BcryptVerifier compares against a bcrypt hash from config.
type BcryptVerifier struct {
	email string
	hash  string
}

func NewBcryptVerifier(email, hash string) *BcryptVerifier {
	return &BcryptVerifier{email: email, hash: hash}
}

func (v *BcryptVerifier) Verify(_ context.Context, cred Credential) (string, error) {
	if cred.Email == "" || cred.Password == "" {
		return "", ErrMissingCredential
	}
	// 先比对哈希，避免通过耗时区分邮箱是否正确
	passOK := util.CheckPassword(cred.Password, v.hash)
	if !passOK || !strings.EqualFold(strings.TrimSpace(cred.Email), v.email) {
		return "", ErrInvalidCredentials
	}
	return v.email, nil
}
