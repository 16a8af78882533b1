/*
Package handler provides HTTP handler functions for the message REST surface:
the contact sidebar, conversation history reads, and message sends.

A send persists the message first and only then hands the stored record to the
message router, so a routing failure never loses data.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"dmchat/internal/app/chat"
	"dmchat/internal/app/db"
	dbc "dmchat/internal/app/db/sqlc"
	"dmchat/internal/pkg/auth/jwt"
	"dmchat/internal/pkg/errs"
	"dmchat/internal/pkg/logx"
	"dmchat/internal/pkg/req"
	"dmchat/internal/pkg/resp"
)

// HandleListContacts returns every account except the caller, for the
// conversation sidebar. Online status comes from presence-update events on
// the live connection, not from this endpoint.
func HandleListContacts(deps *AppDeps) http.HandlerFunc {
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

		rows, err := deps.DB.ListContacts(r.Context(), userUUID)
		if err != nil {
			logx.Error(err, "failed to list contacts", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		contacts := make([]map[string]any, 0, len(rows))
		for _, row := range rows {
			contacts = append(contacts, map[string]any{
				"id":       row.ID.String(),
				"email":    row.Email,
				"fullName": row.FullName,
				"avatar":   row.AvatarUrl.String,
			})
		}

		resp.RespondSuccess(w, r, contacts)
	}
}

// HandleGetConversation returns the full two-way transcript between the caller
// and the peer in the URL, oldest first. Newly subscribed clients use this to
// backfill the gap the live layer does not buffer.
func HandleGetConversation(deps *AppDeps) http.HandlerFunc {
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

		peerUUID, ok := uuidParam(chi.URLParam(r, "id"))
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		rows, err := deps.DB.ListConversation(r.Context(), dbc.ListConversationParams{
			SenderID:   userUUID,
			ReceiverID: peerUUID,
		})
		if err != nil {
			logx.Error(err, "failed to load conversation", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		messages := make([]chat.Message, 0, len(rows))
		for _, row := range rows {
			messages = append(messages, messageFromRow(row))
		}

		resp.RespondSuccess(w, r, messages)
	}
}

type SendMessageInput struct {
	Text string `json:"text"`

	// Image is an optional base64 image data URL attached to the message.
	Image string `json:"image"`
}

// HandleSendMessage validates and persists a new message, then hands the
// stored record to the router for live delivery to the recipient's
// connections. The response reflects persistence only: live delivery is
// best-effort and an offline recipient reads the message from history later.
func HandleSendMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		senderUUID, ok := uuidParam(identity.ID)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		receiverUUID, ok := uuidParam(chi.URLParam(r, "id"))
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		var input SendMessageInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.Text == "" && input.Image == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrMessageEmpty))
			return
		}

		if len(input.Text) > chat.MaxTextBytes {
			resp.RespondError(w, r, errs.NewError(errs.ErrMessageContentTooLong))
			return
		}

		if _, err := deps.DB.GetUserByID(r.Context(), receiverUUID); err != nil {
			if db.IsNotFound(err) {
				resp.RespondError(w, r, errs.NewError(errs.ErrRecipientNotFound))
				return
			}

			logx.Error(err, "send: failed to load recipient")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		imageURL, customErr := storeMessageImage(r, deps, identity.ID, input.Image)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		stored, err := deps.DB.CreateMessage(r.Context(), dbc.CreateMessageParams{
			SenderID:   senderUUID,
			ReceiverID: receiverUUID,
			Text:       pgText(input.Text),
			ImageUrl:   pgText(imageURL),
		})
		if err != nil {
			logx.Error(err, "failed to persist message", "sender_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		message := messageFromRow(stored)

		// Persisted first, routed second: live delivery is a bonus, never the
		// source of truth.
		deps.Hub.Route(message)

		resp.RespondSuccess(w, r, message)
	}
}

// storeMessageImage decodes and uploads an attached image data URL, returning
// the stored object key. Empty input means no attachment.
func storeMessageImage(r *http.Request, deps *AppDeps, senderID, dataURL string) (string, *errs.CustomError) {
	if dataURL == "" {
		return "", nil
	}

	mimeType, imageBytes, customErr := chat.ParseImageDataURL(dataURL)
	if customErr != nil {
		return "", customErr
	}

	imageKey := messageImageKey(senderID, mimeType)

	storedKey, err := deps.Storage.Upload(r.Context(), imageKey, mimeType, bytesReader(imageBytes))
	if err != nil {
		return "", errs.NewError(errs.ErrFileStorageFailed)
	}

	return storedKey, nil
}
