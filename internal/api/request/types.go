package request

// CreateRoomRequest is the request body for creating a room
type CreateRoomRequest struct {
	HostName string `json:"host_name"`
}

// JoinRoomRequest is the request body for reserving a name in a room
type JoinRoomRequest struct {
	PlayerName string `json:"player_name"`
}
