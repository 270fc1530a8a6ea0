package service

import "errors"

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrPlayerNotFound  = errors.New("player not found")
	ErrCreatorNotFound = errors.New("creator player not found for session")
	ErrRoomLocked      = errors.New("room is locked")
	ErrForbidden       = errors.New("not allowed in this room")
	ErrRoomIDConflict  = errors.New("could not allocate a unique room id")
	ErrInvalidRoomName = errors.New("invalid room name")
	ErrInvalidName     = errors.New("invalid player name")
	ErrInvalidVote     = errors.New("invalid vote")
	ErrInvalidStoryURL = errors.New("story url too long")
	ErrNotMember       = errors.New("player is not in this room")
	ErrVoteNotAllowed  = errors.New("participant may not vote")
	ErrVoteLocked      = errors.New("votes are locked while revealed")
	ErrInvalidToken    = errors.New("invalid or expired token")
)
