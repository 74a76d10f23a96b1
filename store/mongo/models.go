package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/depot/collection"
	"github.com/xraph/depot/id"
	"github.com/xraph/depot/permission"
	"github.com/xraph/depot/role"
	"github.com/xraph/depot/schema"
	"github.com/xraph/depot/session"
	"github.com/xraph/depot/transit"
	"github.com/xraph/depot/user"
)

// ──────────────────────────────────────────────────
// User model
// ──────────────────────────────────────────────────

type profileModel struct {
	FirstName string `bson:"first_name"`
	LastName  string `bson:"last_name"`
	Phone     string `bson:"phone,omitempty"`
	Avatar    string `bson:"avatar,omitempty" validate:"omitempty,url"`
}

type userModel struct {
	ID              string             `bson:"_id"                     validate:"required"`
	Email           string             `bson:"email"                   validate:"required,email"`
	PasswordHash    string             `bson:"password_hash,omitempty"`
	Profile         profileModel       `bson:"profile"`
	RoleIDs         []string           `bson:"role_ids"`
	OrganizationIDs []string           `bson:"organization_ids"`
	Permissions     []permission.Grant `bson:"permissions"`
	CreatedAt       time.Time          `bson:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at"`
}

var users = collection.Definition[userModel]{
	Name:    "users",
	EnvName: transit.EnvAuth,
	Indexes: []mongod.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "profile.first_name", Value: 1}, {Key: "profile.last_name", Value: 1}}},
		{Keys: bson.D{{Key: "role_ids", Value: 1}}},
		{Keys: bson.D{{Key: "organization_ids", Value: 1}}},
	},
	Schemas: schema.Pair{
		Create: schema.Struct(),
		Update: schema.Fields(map[string]string{
			"email":            "email",
			"password_hash":    "min=1",
			"profile":          "",
			"role_ids":         "",
			"organization_ids": "",
			"permissions":      "",
		}),
	},
}

// withoutHash projects the password hash out at query time.
var withoutHash = bson.M{"password_hash": 0}

func userToModel(u *user.User) *userModel {
	return &userModel{
		ID:              u.ID.String(),
		Email:           u.Email,
		PasswordHash:    u.PasswordHash,
		Profile:         profileModel(u.Profile),
		RoleIDs:         nonNil(id.Strings(u.RoleIDs)),
		OrganizationIDs: nonNil(id.Strings(u.OrganizationIDs)),
		Permissions:     grantsOrEmpty(u.Permissions),
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func userFromModel(m *userModel) *user.User {
	uid, _ := id.ParseUserID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &user.User{
		ID:              uid,
		Email:           m.Email,
		PasswordHash:    m.PasswordHash,
		Profile:         user.Profile(m.Profile),
		RoleIDs:         parseIDs(m.RoleIDs, id.ParseRoleID),
		OrganizationIDs: parseIDs(m.OrganizationIDs, id.ParseOrganizationID),
		Permissions:     grantsOrEmpty(m.Permissions),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func userPatch(u *user.Update) bson.M {
	p := bson.M{}
	if u.Email != nil {
		p["email"] = *u.Email
	}
	if u.PasswordHash != nil {
		p["password_hash"] = *u.PasswordHash
	}
	if u.Profile != nil {
		p["profile"] = profileModel(*u.Profile)
	}
	if u.RoleIDs != nil {
		p["role_ids"] = nonNil(id.Strings(*u.RoleIDs))
	}
	if u.OrganizationIDs != nil {
		p["organization_ids"] = nonNil(id.Strings(*u.OrganizationIDs))
	}
	if u.Permissions != nil {
		p["permissions"] = grantsOrEmpty(*u.Permissions)
	}
	return p
}

// ──────────────────────────────────────────────────
// Role model
// ──────────────────────────────────────────────────

type roleModel struct {
	ID          string             `bson:"_id"         validate:"required"`
	Name        string             `bson:"name"        validate:"required"`
	Description string             `bson:"description"`
	Permissions []permission.Grant `bson:"permissions"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

var roles = collection.Definition[roleModel]{
	Name:    "roles",
	EnvName: transit.EnvAuth,
	Indexes: []mongod.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	Schemas: schema.Pair{
		Create: schema.Struct(),
		Update: schema.Fields(map[string]string{
			"name":        "min=1",
			"description": "",
			"permissions": "",
		}),
	},
}

func roleToModel(r *role.Role) *roleModel {
	return &roleModel{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		Permissions: grantsOrEmpty(r.Permissions),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func roleFromModel(m *roleModel) *role.Role {
	rid, _ := id.ParseRoleID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &role.Role{
		ID:          rid,
		Name:        m.Name,
		Description: m.Description,
		Permissions: grantsOrEmpty(m.Permissions),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func rolePatch(u *role.Update) bson.M {
	p := bson.M{}
	if u.Name != nil {
		p["name"] = *u.Name
	}
	if u.Description != nil {
		p["description"] = *u.Description
	}
	if u.Permissions != nil {
		p["permissions"] = grantsOrEmpty(*u.Permissions)
	}
	return p
}

// ──────────────────────────────────────────────────
// Session model
// ──────────────────────────────────────────────────

type sessionModel struct {
	ID        string    `bson:"_id"        validate:"required"`
	Token     string    `bson:"token"      validate:"required"`
	UserID    string    `bson:"user_id"    validate:"required"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Sessions are never patched, only created and deleted.
var sessions = collection.Definition[sessionModel]{
	Name:    "sessions",
	EnvName: transit.EnvAuth,
	Indexes: []mongod.IndexModel{
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	},
	Schemas: schema.Pair{Create: schema.Struct()},
}

func sessionToModel(s *session.Session) *sessionModel {
	return &sessionModel{
		ID:        s.ID.String(),
		Token:     s.Token,
		UserID:    s.UserID.String(),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func sessionFromModel(m *sessionModel) *session.Session {
	sid, _ := id.ParseSessionID(m.ID) //nolint:errcheck // stored IDs are always valid
	uid, _ := id.ParseUserID(m.UserID) //nolint:errcheck // stored IDs are always valid
	return &session.Session{
		ID:        sid,
		Token:     m.Token,
		UserID:    uid,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func parseIDs(ss []string, parse func(string) (id.ID, error)) []id.ID {
	out := make([]id.ID, 0, len(ss))
	for _, s := range ss {
		if v, err := parse(s); err == nil {
			out = append(out, v)
		}
	}
	return out
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

func grantsOrEmpty(g []permission.Grant) []permission.Grant {
	if g == nil {
		return []permission.Grant{}
	}
	return g
}
