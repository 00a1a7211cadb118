package models

// Response message constants shared by middleware and handlers.
const (
	MsgEmailRequired    = "Email is required"
	MsgPasswordRequired = "Password is required"
	MsgMissingFields    = "Missing fields"
	MsgUnauthorized     = "Unauthorized"
	MsgTokenIssue       = "Something wrong with ID Token"
	MsgRoleIssue        = "Current user don't have role"
	MsgPermissionIssue  = "Current user don't have permissions"
	MsgUserRemoved      = "user was removed"
	MsgMissingFile      = "File must be uploaded!"
	MsgMemeCreated      = "Meme was created successfully!"
	MsgMemeRated        = "Meme was rated!"
	MsgMemeUnrated      = "Your rate was removed!"
	MsgMemeUpdated      = "Meme was updated successfully!"
	MsgMemeDeleted      = "Meme was deleted successfully!"
	MsgMemesUnpublished = "There are no published memes yet"
	MsgWordsRequired    = "Words list must not be empty"
	MsgProfaneUpdated   = "Profane word list was updated!"
)

// MessageResponse is the plain {"message": ...} body used for statuses and
// middleware denials.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse carries a provider failure back to the caller.
type ErrorResponse struct {
	Error string `json:"error"`
}
