package repository

import "errors"

// Errores de dominio que cada driver traduce desde su motor.
var (
	ErrNotFound  = errors.New("account not found")
	ErrDuplicate = errors.New("account already exists")
)
