package domain

import "errors"

// Domain errors
var (
	ErrPolicyNotFound  = errors.New("policy not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrNotAPatient     = errors.New("user is not a patient")
	ErrNoCurrentPolicy = errors.New("cannot determine current policy")
	ErrFileNotFound    = errors.New("policy file not found in bucket")
	ErrInvalidToken    = errors.New("invalid token")
)
