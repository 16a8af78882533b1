/*
Package handler provides HTTP handler functions for account management and the
credential flow that gates the realtime layer: a verified identity issued here
is what a live connection later binds to.
*/
package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"net/mail"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"dmchat/internal/app/chat"
	"dmchat/internal/app/db"
	dbc "dmchat/internal/app/db/sqlc"
	"dmchat/internal/pkg/auth/jwt"
	"dmchat/internal/pkg/errs"
	"dmchat/internal/pkg/logx"
	"dmchat/internal/pkg/req"
	"dmchat/internal/pkg/resp"
)

const (
	minPasswordLen = 6
	maxPasswordLen = 50
	maxFullNameLen = 60
)

type SignupInput struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

// HandleSignup creates a new account and signs the caller in by issuing the
// session cookie, mirroring the login flow so the client can connect its
// live session immediately.
func HandleSignup(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if payload := jwt.GetPayloadFromContext(r); payload != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrAlreadyLoggedIn))
			return
		}

		var input SignupInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if _, err := mail.ParseAddress(input.Email); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidEmail))
			return
		}

		nameLen := utf8.RuneCountInString(input.FullName)
		if nameLen == 0 || nameLen > maxFullNameLen {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidFullName))
			return
		}

		passwordLen := utf8.RuneCountInString(input.Password)
		if passwordLen < minPasswordLen || passwordLen > maxPasswordLen {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidPassword))
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		newUser, err := deps.DB.CreateUser(r.Context(), dbc.CreateUserParams{
			Email:        input.Email,
			FullName:     input.FullName,
			PasswordHash: string(hashedPassword),
		})

		if err != nil {
			if db.IsUniqueViolation(err) {
				logx.Warn("signup conflict: email already registered", "email", input.Email)
				resp.RespondError(w, r, errs.NewError(errs.ErrUserAlreadyExists))
				return
			}

			logx.Error(err, "failed to create user in database")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if err := deps.DB.UpdateLastLogin(r.Context(), newUser.ID); err != nil {
			logx.Error(err, "signup: failed to update last_login_at", "user_id", newUser.ID.String())
		}

		issueSession(w, r, deps, newUser)
	}
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin verifies user credentials, sets the session cookie, and returns
// the profile the client needs to establish its live connection.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input LoginInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		account, err := deps.DB.GetUserByEmail(r.Context(), input.Email)
		if err != nil {
			if db.IsNotFound(err) {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
				return
			}

			logx.Error(err, "login: failed to load user", "email", input.Email)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(input.Password)); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		if err := deps.DB.UpdateLastLogin(r.Context(), account.ID); err != nil {
			logx.Error(err, "login: failed to update last_login_at", "user_id", account.ID.String())
		}

		issueSession(w, r, deps, account)
	}
}

// HandleLogout clears the session cookie. The client is expected to close its
// live connection alongside; the server side unregisters on socket close.
func HandleLogout(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jwt.ClearSessionCookie(w, deps.Config.Environment == "development")
		resp.RespondSuccess(w, r, nil)
	}
}

// HandleCheckAuth implements session restore: it returns the authenticated
// profile when the session cookie is valid, 401 otherwise. A successful check
// is the client's trigger to (re)connect its live session.
func HandleCheckAuth(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		userUUID, ok := uuidParam(identity.ID)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		account, err := deps.DB.GetUserByID(r.Context(), userUUID)
		if err != nil {
			if db.IsNotFound(err) {
				resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
				return
			}

			logx.Error(err, "auth check: failed to load user", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"user":        profileFromUser(account),
			"lastLoginAt": formatTime(account.LastLoginAt),
		})
	}
}

type UpdateProfileInput struct {
	// ProfilePic is a base64 image data URL; the server decodes and stores it.
	ProfilePic string `json:"profilePic"`
}

// HandleUpdateProfile replaces the caller's avatar. The image arrives as a
// base64 data URL, is validated, uploaded to object storage, and the stored
// key is saved on the account. The previous avatar object is deleted
// best-effort afterwards.
func HandleUpdateProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		userUUID, ok := uuidParam(identity.ID)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input UpdateProfileInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		mimeType, imageBytes, customErr := chat.ParseImageDataURL(input.ProfilePic)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		oldAccount, err := deps.DB.GetUserByID(r.Context(), userUUID)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
			return
		}

		avatarKey := fmt.Sprintf("avatars/%s/%s%s", identity.ID, uuid.New().String(), chat.ExtForMIME(mimeType))

		storedKey, err := deps.Storage.Upload(r.Context(), avatarKey, mimeType, bytes.NewReader(imageBytes))
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		updated, err := deps.DB.UpdateUserAvatar(r.Context(), dbc.UpdateUserAvatarParams{
			ID:        userUUID,
			AvatarUrl: pgText(storedKey),
		})
		if err != nil {
			logx.Error(err, "update profile: failed to store avatar key", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if oldKey := oldAccount.AvatarUrl.String; oldKey != "" && oldKey != storedKey {
			go func(key string) {
				ctx, cancel := storageCleanupContext()
				defer cancel()
				_ = deps.Storage.Delete(ctx, key)
			}(oldKey)
		}

		resp.RespondSuccess(w, r, map[string]any{
			"user": profileFromUser(updated),
		})
	}
}

// issueSession generates the identity token, sets the cookie, and responds
// with the profile payload shared by signup and login.
func issueSession(w http.ResponseWriter, r *http.Request, deps *AppDeps, account dbc.User) {
	payload := &jwt.Payload{
		ID:       account.ID.String(),
		Email:    account.Email,
		FullName: account.FullName,
	}

	tokenString, err := jwt.GenerateToken(payload, deps.Config.JWTSecret, jwt.SessionExpiration)
	if err != nil {
		logx.Error(err, "failed to generate session token", "user_id", account.ID.String())
		resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
		return
	}

	jwt.SetSessionCookie(w, tokenString, deps.Config.Environment == "development")

	resp.RespondSuccess(w, r, map[string]any{
		"token": tokenString,
		"user":  profileFromUser(account),
	})
}
