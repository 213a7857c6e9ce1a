package auth

import "errors"

// Token validation failures. The middleware maps each to a 401 message.
var (
	ErrInvalidToken     = errors.New("invalid access token")
	ErrExpiredToken     = errors.New("access token expired")
	ErrTokenNotYetValid = errors.New("access token not valid yet")
	ErrMissingToken     = errors.New("access token missing")

	// ErrWrongTokenType is returned for a validly signed token that is not
	// an access token, such as a refresh token.
	ErrWrongTokenType = errors.New("wrong token type")
)
