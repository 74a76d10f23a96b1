package transit

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/depot/collection"
	"github.com/xraph/depot/schema"
)

// Agency is a transit operator.
type Agency struct {
	Document `bson:",inline"`
	Code     string `bson:"code" json:"code" validate:"required"`
	Name     string `bson:"name" json:"name" validate:"required"`
	Email    string `bson:"email,omitempty" json:"email,omitempty" validate:"omitempty,email"`
	Phone    string `bson:"phone,omitempty" json:"phone,omitempty"`
	Website  string `bson:"website,omitempty" json:"website,omitempty" validate:"omitempty,url"`
	Timezone string `bson:"timezone" json:"timezone" validate:"required,timezone"`
	Language string `bson:"language,omitempty" json:"language,omitempty" validate:"omitempty,bcp47_language_tag"`
	FareURL  string `bson:"fare_url,omitempty" json:"fare_url,omitempty" validate:"omitempty,url"`
	IsLocked bool   `bson:"is_locked" json:"is_locked"`
}

// Agencies is the agencies collection.
var Agencies = collection.Definition[Agency]{
	Name:    "agencies",
	EnvName: EnvAgencies,
	Indexes: []mongo.IndexModel{uniqueIndex("code")},
	Schemas: schema.Pair{
		Create: schema.Struct(),
		Update: schema.Fields(map[string]string{
			"code": "min=1", "name": "min=1", "email": "email", "phone": "",
			"website": "url", "timezone": "timezone", "language": "bcp47_language_tag",
			"fare_url": "url", "is_locked": "",
		}),
	},
}

// AlertReference points an alert at an affected entity.
type AlertReference struct {
	Type string `bson:"type" json:"type" validate:"required,oneof=agency line route stop trip"`
	ID   string `bson:"id" json:"id" validate:"required"`
}

// Alert is a service alert published to riders.
type Alert struct {
	Document          `bson:",inline"`
	AgencyID          string           `bson:"agency_id" json:"agency_id" validate:"required"`
	Title             string           `bson:"title" json:"title" validate:"required"`
	Description       string           `bson:"description" json:"description"`
	Cause             string           `bson:"cause" json:"cause"`
	Effect            string           `bson:"effect" json:"effect"`
	ActivePeriodStart time.Time        `bson:"active_period_start" json:"active_period_start"`
	ActivePeriodEnd   *time.Time       `bson:"active_period_end,omitempty" json:"active_period_end,omitempty"`
	References        []AlertReference `bson:"references" json:"references" validate:"dive"`
}

// Alerts is the alerts collection.
var Alerts = collection.Definition[Alert]{
	Name:    "alerts",
	EnvName: EnvAlerts,
	Indexes: []mongo.IndexModel{index("agency_id"), index("active_period_start")},
	Schemas: schema.Pair{
		Create: schema.Struct(),
		Update: schema.Fields(map[string]string{
			"agency_id": "min=1", "title": "min=1", "description": "", "cause": "",
			"effect": "", "active_period_start": "", "active_period_end": "", "references": "",
		}),
	},
}

// File is metadata for a stored upload.
type File struct {
	Document     `bson:",inline"`
	Name         string `bson:"name" json:"name" validate:"required"`
	Type         string `bson:"type" json:"type" validate:"required"`
	Size         int64  `bson:"size" json:"size" validate:"gte=0"`
	URL          string `bson:"url" json:"url" validate:"required,url"`
	ResourceType string `bson:"resource_type,omitempty" json:"resource_type,omitempty"`
	ResourceID   string `bson:"resource_id,omitempty" json:"resource_id,omitempty"`
	CreatedBy    string `bson:"created_by,omitempty" json:"created_by,omitempty"`
}

// Files is the files collection.
var Files = collection.Definition[File]{
	Name:    "files",
	EnvName: EnvFiles,
	Indexes: []mongo.IndexModel{index("resource_type", "resource_id")},
	Schemas: schema.Pair{
		Create: schema.Struct(),
		Update: schema.Fields(map[string]string{
			"name": "min=1", "type": "min=1", "size": "gte=0", "url": "url",
			"resource_type": "", "resource_id": "",
		}),
	},
}

// ShapePoint is one vertex of a shape.
type ShapePoint struct {
	Lat      float64 `bson:"shape_pt_lat" json:"shape_pt_lat" validate:"gte=-90,lte=90"`
	Lon      float64 `bson:"shape_pt_lon" json:"shape_pt_lon" validate:"gte=-180,lte=180"`
	Sequence int     `bson:"shape_pt_sequence" json:"shape_pt_sequence" validate:"gte=0"`
	Distance float64 `bson:"shape_dist_traveled" json:"shape_dist_traveled" validate:"gte=0"`
}

// HashedShape is a content-addressed shape; its ID is the hash of its
// points.
type HashedShape struct {
	Document `bson:",inline"`
	AgencyID string       `bson:"agency_id" json:"agency_id" validate:"required"`
	Points   []ShapePoint `bson:"points" json:"points" validate:"required,min=2,dive"`
}

// HashedShapes is the hashed_shapes collection.
var HashedShapes = collection.Definition[HashedShape]{
	Name:    "hashed_shapes",
	EnvName: EnvHashedShapes,
	Indexes: []mongo.IndexModel{index("agency_id")},
	Schemas: schema.Pair{
		Create: schema.Struct(),
		Update: schema.Fields(map[string]string{"agency_id": "min=1", "points": "min=2"}),
	},
}

// TripStop is one stop time within a hashed trip.
type TripStop struct {
	StopID        string `bson:"stop_id" json:"stop_id" validate:"required"`
	Sequence      int    `bson:"stop_sequence" json:"stop_sequence" validate:"gte=0"`
	ArrivalTime   string `bson:"arrival_time" json:"arrival_time"`
	DepartureTime string `bson:"departure_time" json:"departure_time"`
}

// HashedTrip is a content-addressed trip pattern.
type HashedTrip struct {
	Document  `bson:",inline"`
	AgencyID  string     `bson:"agency_id" json:"agency_id" validate:"required"`
	LineID    string     `bson:"line_id" json:"line_id"`
	RouteID   string     `bson:"route_id" json:"route_id"`
	PatternID string     `bson:"pattern_id" json:"pattern_id"`
	Headsign  string     `bson:"trip_headsign" json:"trip_headsign"`
	Stops     []TripStop `bson:"path" json:"path" validate:"dive"`
}

// HashedTrips is the hashed_trips collection.
var HashedTrips = collection.Definition[HashedTrip]{
	Name:    "hashed_trips",
	EnvName: EnvHashedTrips,
	Indexes: []mongo.IndexModel{index("agency_id"), index("pattern_id")},
	Schemas: schema.Pair{
		Create: schema.Struct(),
		Update: schema.Fields(map[string]string{
			"agency_id": "min=1", "line_id": "", "route_id": "", "pattern_id": "",
			"trip_headsign": "", "path": "",
		}),
	},
}

// Municipality is an administrative area stops belong to.
type Municipality struct {
	Document `bson:",inline"`
	Code     string `bson:"code" json:"code" validate:"required"`
	Name     string `bson:"name" json:"name" validate:"required"`
	District string `bson:"district" json:"district"`
	Region   string `bson:"region" json:"region"`
	Prefix   string `bson:"prefix" json:"prefix"`
}

// Municipalities is the municipalities collection.
var Municipalities = collection.Definition[Municipality]{
	Name:    "municipalities",
	EnvName: EnvLocations,
	Indexes: []mongo.IndexModel{uniqueIndex("code")},
	Schemas: schema.Pair{
		Create: schema.Struct(),
		Update: schema.Fields(map[string]string{
			"code": "min=1", "name": "min=1", "district": "", "region": "", "prefix": "",
		}),
	},
}

// Organization groups users; users reference organizations by ID.
type Organization struct {
	Document    `bson:",inline"`
	Code        string `bson:"code" json:"code" validate:"required"`
	Name        string `bson:"name" json:"name" validate:"required"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Logo        string `bson:"logo,omitempty" json:"logo,omitempty" validate:"omitempty,url"`
}

// Organizations is the organizations collection.
var Organizations = collection.Definition[Organization]{
	Name:    "organizations",
	EnvName: EnvAuth,
	Indexes: []mongo.IndexModel{uniqueIndex("code")},
	Schemas: schema.Pair{
		Create: schema.Struct(),
		Update: schema.Fields(map[string]string{
			"code": "min=1", "name": "min=1", "description": "", "logo": "url",
		}),
	},
}

// Plan is an operating plan: a GTFS feed valid for a date range.
type Plan struct {
	Document   `bson:",inline"`
	AgencyID   string    `bson:"agency_id" json:"agency_id" validate:"required"`
	StartDate  time.Time `bson:"start_date" json:"start_date" validate:"required"`
	EndDate    time.Time `bson:"end_date" json:"end_date" validate:"required,gtefield=StartDate"`
	FeedFileID string    `bson:"feed_file_id,omitempty" json:"feed_file_id,omitempty"`
	IsLocked   bool      `bson:"is_locked" json:"is_locked"`
}

// Plans is the plans collection.
var Plans = collection.Definition[Plan]{
	Name:    "plans",
	EnvName: EnvPlans,
	Indexes: []mongo.IndexModel{index("agency_id"), index("start_date", "end_date")},
	Schemas: schema.Pair{
		Create: schema.Struct(),
		Update: schema.Fields(map[string]string{
			"agency_id": "min=1", "start_date": "", "end_date": "", "feed_file_id": "", "is_locked": "",
		}),
	},
}

// Ride is one operated (or scheduled) trip on a given day.
type Ride struct {
	Document           `bson:",inline"`
	AgencyID           string     `bson:"agency_id" json:"agency_id" validate:"required"`
	LineID             string     `bson:"line_id" json:"line_id"`
	PatternID          string     `bson:"pattern_id" json:"pattern_id"`
	TripID             string     `bson:"trip_id" json:"trip_id" validate:"required"`
	HashedTripID       string     `bson:"hashed_trip_id,omitempty" json:"hashed_trip_id,omitempty"`
	HashedShapeID      string     `bson:"hashed_shape_id,omitempty" json:"hashed_shape_id,omitempty"`
	OperationalDate    string     `bson:"operational_date" json:"operational_date" validate:"required,len=8,numeric"`
	StartTimeScheduled time.Time  `bson:"start_time_scheduled" json:"start_time_scheduled"`
	StartTimeObserved  *time.Time `bson:"start_time_observed,omitempty" json:"start_time_observed,omitempty"`
	VehicleIDs         []string   `bson:"vehicle_ids" json:"vehicle_ids"`
	DriverIDs          []string   `bson:"driver_ids" json:"driver_ids"`
	Status             string     `bson:"system_status" json:"system_status" validate:"omitempty,oneof=waiting processing complete error"`
}

// Rides is the rides collection.
var Rides = collection.Definition[Ride]{
	Name:    "rides",
	EnvName: EnvRides,
	Indexes: []mongo.IndexModel{
		index("agency_id"),
		index("operational_date"),
		index("trip_id"),
		index("start_time_scheduled"),
	},
	Schemas: schema.Pair{
		Create: schema.Struct(),
		Update: schema.Fields(map[string]string{
			"line_id": "", "pattern_id": "", "hashed_trip_id": "", "hashed_shape_id": "",
			"start_time_observed": "", "vehicle_ids": "", "driver_ids": "",
			"system_status": "oneof=waiting processing complete error",
		}),
	},
}

// Stop is a physical stop.
type Stop struct {
	Document       `bson:",inline"`
	Code           string   `bson:"code" json:"code" validate:"required"`
	Name           string   `bson:"name" json:"name" validate:"required"`
	ShortName      string   `bson:"short_name,omitempty" json:"short_name,omitempty"`
	Lat            float64  `bson:"latitude" json:"latitude" validate:"gte=-90,lte=90"`
	Lon            float64  `bson:"longitude" json:"longitude" validate:"gte=-180,lte=180"`
	MunicipalityID string   `bson:"municipality_id" json:"municipality_id"`
	ZoneIDs        []string `bson:"zone_ids" json:"zone_ids"`
	IsLocked       bool     `bson:"is_locked" json:"is_locked"`
}

// Stops is the stops collection.
var Stops = collection.Definition[Stop]{
	Name:    "stops",
	EnvName: EnvStops,
	Indexes: []mongo.IndexModel{uniqueIndex("code"), index("municipality_id"), index("zone_ids")},
	Schemas: schema.Pair{
		Create: schema.Struct(),
		Update: schema.Fields(map[string]string{
			"code": "min=1", "name": "min=1", "short_name": "",
			"latitude": "gte=-90,lte=90", "longitude": "gte=-180,lte=180",
			"municipality_id": "", "zone_ids": "", "is_locked": "",
		}),
	},
}

// Zone is a fare or operational zone drawn on the map.
type Zone struct {
	Document      `bson:",inline"`
	Code          string         `bson:"code" json:"code" validate:"required"`
	Name          string         `bson:"name" json:"name" validate:"required"`
	BorderColor   string         `bson:"border_color" json:"border_color" validate:"required,hexcolor"`
	BorderOpacity float64        `bson:"border_opacity" json:"border_opacity" validate:"gte=0,lte=1"`
	BorderWidth   float64        `bson:"border_width" json:"border_width" validate:"gte=0"`
	FillColor     string         `bson:"fill_color" json:"fill_color" validate:"required,hexcolor"`
	FillOpacity   float64        `bson:"fill_opacity" json:"fill_opacity" validate:"gte=0,lte=1"`
	GeoJSON       map[string]any `bson:"geojson" json:"geojson" validate:"required"`
	IsLocked      bool           `bson:"is_locked" json:"is_locked"`
}

// Zones is the zones collection.
var Zones = collection.Definition[Zone]{
	Name:    "zones",
	EnvName: EnvZones,
	Indexes: []mongo.IndexModel{uniqueIndex("code")},
	Schemas: schema.Pair{
		Create: schema.Struct(),
		Update: schema.Fields(map[string]string{
			"code": "min=1", "name": "min=1",
			"border_color": "hexcolor", "border_opacity": "gte=0,lte=1", "border_width": "gte=0",
			"fill_color": "hexcolor", "fill_opacity": "gte=0,lte=1",
			"geojson": "", "is_locked": "",
		}),
	},
}

// VerificationToken is a one-time token sent by email. Expired tokens are
// removed by the server.
type VerificationToken struct {
	Document  `bson:",inline"`
	Token     string    `bson:"token" json:"token" validate:"required"`
	UserID    string    `bson:"user_id" json:"user_id" validate:"required"`
	Kind      string    `bson:"kind" json:"kind" validate:"required,oneof=email_verification password_reset"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at" validate:"required"`
}

// VerificationTokens is the verification_tokens collection. Only the
// expiry of an issued token may change.
var VerificationTokens = collection.Definition[VerificationToken]{
	Name:    "verification_tokens",
	EnvName: EnvAuth,
	Indexes: []mongo.IndexModel{
		uniqueIndex("token"),
		index("user_id"),
		{Keys: index("expires_at").Keys, Options: options.Index().SetExpireAfterSeconds(0)},
	},
	Schemas: schema.Pair{
		Create: schema.Struct(),
		Update: schema.Fields(map[string]string{"expires_at": ""}),
	},
}
