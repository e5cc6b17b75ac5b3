// Package auth issues and verifies the HS256 bearer tokens that guard the
// HTTP API.
//
// Tokens carry a subject (the operator or integration calling the API) and
// a role. Roles map to permissions:
//
//	viewer    locations:read
//	operator  locations:read, locations:write
//	admin     everything, including audit:read
//
// Access tokens are validated by signature and expiry only; there is no
// session store.
package auth
