package enums

type RoomEventType string

const (
	RoomEventParticipantJoined  RoomEventType = "participant_joined"
	RoomEventParticipantWaiting RoomEventType = "participant_waiting"
	RoomEventRoomFinished       RoomEventType = "room_finished"
	RoomEventRoomAbandoned      RoomEventType = "room_abandoned"
)
