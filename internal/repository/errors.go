package repository

import "errors"

var (
	// ErrNotFound means no document matched the filter
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateRoomID means the roomId unique index rejected an insert
	ErrDuplicateRoomID = errors.New("repository: duplicate room id")
	// ErrDuplicatePlayer means a playerId or sessionId is already taken
	ErrDuplicatePlayer = errors.New("repository: duplicate player")
	// ErrAlreadyMember means the player is already seated in the room
	ErrAlreadyMember = errors.New("repository: player already in room")
	// ErrRoomLocked means the room rejects new participants
	ErrRoomLocked = errors.New("repository: room is locked")
	// ErrNotMember means the player has no seat in the room
	ErrNotMember = errors.New("repository: player not in room")
	// ErrVoteNotAllowed means the participant is an observer
	ErrVoteNotAllowed = errors.New("repository: participant may not vote")
	// ErrVoteLocked means votes are frozen while the room is revealed
	ErrVoteLocked = errors.New("repository: votes are locked while revealed")
)
