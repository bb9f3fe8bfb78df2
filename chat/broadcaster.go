package chat

// Broadcaster is the fan-out capability the services need from the gateway.
type Broadcaster interface {
	Broadcast(roomID, event string, payload any)
	BroadcastExcept(roomID, event string, payload any, excludeSessionID string)
	UserInRoom(roomID, userID string) bool
	SessionInRoom(roomID, sessionID string) bool
}
