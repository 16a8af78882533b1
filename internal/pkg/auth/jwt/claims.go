package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the structure of the JSON Web Token (JWT) claims issued on
// signup and login. It combines the standard claims with the custom claims the
// server needs to identify a user without a database round trip.
type Payload struct {
	// StandardClaims embeds the JWT standard fields such as Exp (Expiration),
	// Iat (Issued At), and Iss (Issuer) used for token validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// ID is the unique account identifier (users.id) the token was issued to.
	// Every live connection and routed message is keyed by this identity.
	ID string `json:"id"`

	// Email is the account email address, echoed back in auth-check responses.
	Email string `json:"email"`

	// FullName is the account display name.
	FullName string `json:"full_name"`
}
