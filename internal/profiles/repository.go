package profiles

import (
	"context"
	"errors"
)

var ErrProfileNotFound = errors.New("user profile not found")

// Profile holds a shopper's reusable default delivery details, keyed by
// email.
type Profile struct {
	ID       int64
	Email    string
	Defaults DefaultShipping
}

type DefaultShipping struct {
	Phone          string
	Country        string
	Postcode       string
	City           string
	StreetAddress1 string
	StreetAddress2 string
	County         string
}

// Address is one saved address-book entry.
type Address struct {
	ID             int64
	FullName       string
	Phone          string
	Country        string
	Postcode       string
	City           string
	StreetAddress1 string
	StreetAddress2 string
	County         string
}

type Repository interface {
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	UpdateDefaults(ctx context.Context, profileID int64, defaults DefaultShipping) error
	GetOrCreateAddress(ctx context.Context, profileID int64, addr Address) error
}
