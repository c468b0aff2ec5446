package redis

import (
	"fmt"

	"github.com/mcoot/snookercounter/internal/model"
)

// Key prefix for all scorekeeping data
const keyPrefix = "snooker"

// userKey returns the Redis key for a User
func userKey(id model.UserID) string {
	return fmt.Sprintf("%s:user:%s", keyPrefix, id)
}

// registeredUserKey returns the Redis key for a RegisteredUser
func registeredUserKey(userID model.UserID) string {
	return fmt.Sprintf("%s:registered_user:%s", keyPrefix, userID)
}

// usernameIndexKey returns the Redis key for the username -> user_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// matchKey returns the Redis key for a Match snapshot
func matchKey(id model.MatchID) string {
	return fmt.Sprintf("%s:match:%s", keyPrefix, id)
}

// matchNumberIndexKey returns the Redis key for the match number -> match_id index
func matchNumberIndexKey(number int) string {
	return fmt.Sprintf("%s:idx:match_number:%d", keyPrefix, number)
}

// ownerMatchesIndexKey returns the Redis key for the SET of match ids owned by a user
func ownerMatchesIndexKey(ownerID model.UserID) string {
	return fmt.Sprintf("%s:idx:matches_for_owner:%s", keyPrefix, ownerID)
}

// historyKey returns the Redis key for the LIST of frame summaries of a match
func historyKey(matchID model.MatchID) string {
	return fmt.Sprintf("%s:history:%s", keyPrefix, matchID)
}
