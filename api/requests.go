package api

// LoginRequest is the body of a login call.
type LoginRequest struct {
	Email    string `json:"email" description:"Account email"`
	Password string `json:"password" description:"Account password"`
}

// PermissionsRequest holds the query parameters of a permission lookup.
type PermissionsRequest struct {
	Scope  string `query:"scope" description:"Permission scope, e.g. fleet"`
	Action string `query:"action" description:"Permission action, e.g. read"`
}
