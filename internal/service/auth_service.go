package service

import (
	"errors"
	"time"

	"github.com/Mur0dDev/Classification-Bot/internal/auth"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const roleAdmin = "admin"

// AuthService checks the single configured admin account.
type AuthService struct {
	adminUser string
	adminHash string
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(adminUser, adminHash, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{adminUser: adminUser, adminHash: adminHash, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

type AuthResult struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	ExpiresAt string `json:"expiresAt"`
}

// Login fails for every attempt while no admin password hash is configured.
func (s *AuthService) Login(username, password string) (*AuthResult, error) {
	if s.adminHash == "" || username != s.adminUser {
		return nil, ErrInvalidCredentials
	}
	if !auth.CheckPassword(password, s.adminHash) {
		return nil, ErrInvalidCredentials
	}
	token, err := auth.GenerateToken(s.jwtSecret, username, roleAdmin, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		Token:     token,
		Username:  username,
		ExpiresAt: time.Now().Add(s.tokenTTL).UTC().Format(time.RFC3339),
	}, nil
}
