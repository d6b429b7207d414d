package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	query := `SELECT id, email, default_phone_number, default_country, default_postcode,
	          default_town_or_city, default_street_address1, default_street_address2, default_county
	          FROM user_profiles WHERE lower(email) = lower($1)`

	var p Profile
	d := &p.Defaults
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&p.ID,
		&p.Email,
		&d.Phone,
		&d.Country,
		&d.Postcode,
		&d.City,
		&d.StreetAddress1,
		&d.StreetAddress2,
		&d.County,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query profile by email: %w", err)
	}
	return &p, nil
}

func (r *PostgresRepository) UpdateDefaults(ctx context.Context, profileID int64, defaults DefaultShipping) error {
	query := `UPDATE user_profiles SET
	          default_phone_number = $1, default_country = $2, default_postcode = $3,
	          default_town_or_city = $4, default_street_address1 = $5,
	          default_street_address2 = $6, default_county = $7
	          WHERE id = $8`

	_, err := r.db.ExecContext(ctx, query,
		defaults.Phone,
		defaults.Country,
		defaults.Postcode,
		defaults.City,
		defaults.StreetAddress1,
		defaults.StreetAddress2,
		defaults.County,
		profileID,
	)
	if err != nil {
		return fmt.Errorf("update profile defaults: %w", err)
	}
	return nil
}

// GetOrCreateAddress inserts the address only if an identical one is not
// already saved for the profile.
func (r *PostgresRepository) GetOrCreateAddress(ctx context.Context, profileID int64, addr Address) error {
	existsQuery := `SELECT id FROM user_addresses
	          WHERE profile_id = $1 AND full_name = $2 AND phone_number = $3 AND country = $4
	            AND postcode = $5 AND town_or_city = $6 AND street_address1 = $7
	            AND street_address2 = $8 AND county = $9`

	var id int64
	err := r.db.QueryRowContext(ctx, existsQuery,
		profileID, addr.FullName, addr.Phone, addr.Country, addr.Postcode,
		addr.City, addr.StreetAddress1, addr.StreetAddress2, addr.County,
	).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check existing address: %w", err)
	}

	insertQuery := `INSERT INTO user_addresses
	          (profile_id, full_name, phone_number, country, postcode, town_or_city,
	           street_address1, street_address2, county)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	if _, err := r.db.ExecContext(ctx, insertQuery,
		profileID, addr.FullName, addr.Phone, addr.Country, addr.Postcode,
		addr.City, addr.StreetAddress1, addr.StreetAddress2, addr.County,
	); err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}
