package transit

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/depot"
	"github.com/xraph/depot/schema"
)

type definition struct {
	name, env string
	schemas   schema.Pair
	indexes   int
}

func definitions() []definition {
	return []definition{
		{Agencies.Name, Agencies.EnvName, Agencies.Schemas, len(Agencies.Indexes)},
		{Alerts.Name, Alerts.EnvName, Alerts.Schemas, len(Alerts.Indexes)},
		{Files.Name, Files.EnvName, Files.Schemas, len(Files.Indexes)},
		{HashedShapes.Name, HashedShapes.EnvName, HashedShapes.Schemas, len(HashedShapes.Indexes)},
		{HashedTrips.Name, HashedTrips.EnvName, HashedTrips.Schemas, len(HashedTrips.Indexes)},
		{Municipalities.Name, Municipalities.EnvName, Municipalities.Schemas, len(Municipalities.Indexes)},
		{Organizations.Name, Organizations.EnvName, Organizations.Schemas, len(Organizations.Indexes)},
		{Plans.Name, Plans.EnvName, Plans.Schemas, len(Plans.Indexes)},
		{Rides.Name, Rides.EnvName, Rides.Schemas, len(Rides.Indexes)},
		{Stops.Name, Stops.EnvName, Stops.Schemas, len(Stops.Indexes)},
		{Zones.Name, Zones.EnvName, Zones.Schemas, len(Zones.Indexes)},
		{VerificationTokens.Name, VerificationTokens.EnvName, VerificationTokens.Schemas, len(VerificationTokens.Indexes)},
	}
}

func TestDefinitionsComplete(t *testing.T) {
	envs := make(map[string]bool)
	for _, e := range EnvNames() {
		envs[e] = true
	}
	seen := make(map[string]bool)
	for _, d := range definitions() {
		if d.name == "" || seen[d.name] {
			t.Fatalf("missing or duplicate collection name %q", d.name)
		}
		seen[d.name] = true
		if !envs[d.env] {
			t.Errorf("%s: unknown env name %q", d.name, d.env)
		}
		if d.schemas.Create == nil || d.schemas.Update == nil {
			t.Errorf("%s: incomplete schema pair", d.name)
		}
		if d.indexes == 0 {
			t.Errorf("%s: no indexes declared", d.name)
		}
	}
}

func validZone() *Zone {
	z := &Zone{
		Document:      Document{ID: "zone_1"},
		Code:          "Z1",
		Name:          "Lisboa Centro",
		BorderColor:   "#ff0000",
		BorderOpacity: 0.8,
		BorderWidth:   2,
		FillColor:     "#00ff00",
		FillOpacity:   0.3,
		GeoJSON:       map[string]any{"type": "Polygon"},
	}
	z.Stamp(time.Now())
	return z
}

func TestZoneCreateSchema(t *testing.T) {
	if err := Zones.Schemas.Create.Validate(validZone()); err != nil {
		t.Fatalf("expected valid zone, got %v", err)
	}

	bad := validZone()
	bad.FillOpacity = 1.5
	bad.BorderColor = "red"
	if err := Zones.Schemas.Create.Validate(bad); !errors.Is(err, depot.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestZoneUpdateSchemaIsStrict(t *testing.T) {
	if err := Zones.Schemas.Update.Validate(bson.M{"fill_opacity": 0.5}); err != nil {
		t.Fatalf("expected valid patch, got %v", err)
	}
	if err := Zones.Schemas.Update.Validate(bson.M{"_id": "zone_2"}); !errors.Is(err, depot.ErrValidation) {
		t.Fatalf("expected _id patch to be rejected, got %v", err)
	}
}

func TestPlanDates(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &Plan{Document: Document{ID: "plan_1"}, AgencyID: "41", StartDate: start, EndDate: start.AddDate(0, -1, 0)}
	if err := Plans.Schemas.Create.Validate(p); !errors.Is(err, depot.ErrValidation) {
		t.Fatalf("expected end before start to fail, got %v", err)
	}
	p.EndDate = start.AddDate(0, 6, 0)
	if err := Plans.Schemas.Create.Validate(p); err != nil {
		t.Fatalf("expected valid plan, got %v", err)
	}
}

func TestStampKeepsExisting(t *testing.T) {
	created := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	d := Document{CreatedAt: created}
	now := time.Now()
	d.Stamp(now)
	if !d.CreatedAt.Equal(created) || !d.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected stamp: %+v", d)
	}
}
