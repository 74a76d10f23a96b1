// Package transit declares the transit documents stored by the platform:
// their shapes, the collections they live in, the indexes those
// collections need and the schemas inserts and updates are checked
// against.
//
// Each document type has a package-level collection.Definition. Obtain an
// accessor with collection.Get:
//
//	stops, err := collection.Get(ctx, reg, transit.Stops)
//	stop, err := stops.FindByID(ctx, "stop_...")
package transit

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/depot/collection"
)

// Connection string names, one per data domain.
const (
	EnvAgencies     = "TML_INTERFACE_AGENCIES"
	EnvAlerts       = "TML_INTERFACE_ALERTS"
	EnvAuth         = "TML_INTERFACE_AUTH"
	EnvFiles        = "TML_INTERFACE_FILES"
	EnvHashedShapes = "TML_INTERFACE_HASHED_SHAPES"
	EnvHashedTrips  = "TML_INTERFACE_HASHED_TRIPS"
	EnvLocations    = "TML_INTERFACE_LOCATIONS"
	EnvPlans        = "TML_INTERFACE_PLANS"
	EnvRides        = "TML_INTERFACE_RIDES"
	EnvStops        = "TML_INTERFACE_STOPS"
	EnvZones        = "TML_INTERFACE_ZONES"
)

// Document holds the fields every stored document carries.
type Document struct {
	ID        string    `bson:"_id" json:"_id" validate:"required"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Stamp fills missing timestamps with now.
func (d *Document) Stamp(now time.Time) {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = now
	}
}

// EnvNames returns every connection string name used by the transit
// collections and the auth collections.
func EnvNames() []string {
	return []string{
		EnvAgencies, EnvAlerts, EnvAuth, EnvFiles, EnvHashedShapes,
		EnvHashedTrips, EnvLocations, EnvPlans, EnvRides, EnvStops, EnvZones,
	}
}

// Migrate opens every transit collection, which declares its indexes and
// registers its schemas. Failures are collected so one unreachable
// database does not hide the others.
func Migrate(ctx context.Context, reg *collection.Registry) error {
	steps := []func(context.Context, *collection.Registry) error{
		open(Agencies), open(Alerts), open(Files), open(HashedShapes),
		open(HashedTrips), open(Municipalities), open(Organizations),
		open(Plans), open(Rides), open(Stops), open(Zones),
		open(VerificationTokens),
	}
	var errs []error
	for _, step := range steps {
		if err := step(ctx, reg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func open[T any](def collection.Definition[T]) func(context.Context, *collection.Registry) error {
	return func(ctx context.Context, reg *collection.Registry) error {
		_, err := collection.Get(ctx, reg, def)
		return err
	}
}

func index(keys ...string) mongo.IndexModel {
	d := make(bson.D, 0, len(keys))
	for _, k := range keys {
		d = append(d, bson.E{Key: k, Value: 1})
	}
	return mongo.IndexModel{Keys: d}
}

func uniqueIndex(keys ...string) mongo.IndexModel {
	m := index(keys...)
	m.Options = options.Index().SetUnique(true)
	return m
}
