/*
Package user contains core data structures related to user identity.

It defines the basic representation of an account within the messaging system
(the Profile struct), used for passing user information both internally and to clients.
*/
package user

import "time"

// Profile represents the public identity information of an account.
// Fields use JSON tags for serialization in REST responses and WebSocket events.
type Profile struct {
	// ID is the unique identifier for the user (users.id).
	ID string `json:"id"`

	// Email is the account email address used to sign in.
	Email string `json:"email"`

	// FullName is the display name shown in the contact list.
	FullName string `json:"fullName"`

	// Avatar is the URL of the user's profile picture, empty when unset.
	Avatar string `json:"avatar,omitempty"`

	// CreatedAt records when the account was created.
	CreatedAt time.Time `json:"createdAt"`
}
