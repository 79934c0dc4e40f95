package domain

import "errors"

// Доменные ошибки - используются во всех слоях приложения

// Vehicle errors
var (
	ErrVehicleNotFound     = errors.New("vehicle not found")
	ErrInvalidLicensePlate = errors.New("invalid license plate")
	ErrInvalidVehicleData  = errors.New("invalid vehicle data")
)

// Mileage token errors
var (
	ErrTokenNotFound    = errors.New("mileage token not found")
	ErrTokenConsumed    = errors.New("mileage token already consumed")
	ErrInvalidTokenData = errors.New("invalid mileage token data")
)

// Mileage entry errors
var (
	ErrEntryNotFound    = errors.New("mileage entry not found")
	ErrInvalidEntryData = errors.New("invalid mileage entry data")
	ErrMileageTooLow    = errors.New("odometer value below current mileage")
)

// Authorization errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid session token")
	ErrSessionExpired     = errors.New("session expired")
)
