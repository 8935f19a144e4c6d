package auth

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
// Username is the student id.
type LoginDTO struct {
	Username string `json:"username" validate:"required,max=32"`
	Password string `json:"password" validate:"required,max=72"`
}

// RefreshTokenDTO for refresh token requests
type RefreshTokenDTO struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}
