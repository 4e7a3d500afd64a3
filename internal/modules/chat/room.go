package chat

import "sort"

const roomSeparator = "|"

// RoomKey returns the room shared by two users. Both participants compute
// the same key whichever order they pass.
func RoomKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return pair[0] + roomSeparator + pair[1]
}
