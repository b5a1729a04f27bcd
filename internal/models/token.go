package models

import "time"

// Access Token Response
type TokenResponse struct {
	AccessToken        string    `json:"accessToken"`
	TokenType          string    `json:"tokenType"`
	ExpiresIn          int       `json:"expiresIn"`
	RefreshToken       string    `json:"refreshToken"`
	UserID             string    `json:"userId"`
	Role               Role      `json:"role"`
	TokenID            string    `json:"tokenId"`
	IssuedAt           time.Time `json:"issuedAt"`
	MustChangePassword bool      `json:"mustChangePassword"`
}

// Token Refresh Request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}
