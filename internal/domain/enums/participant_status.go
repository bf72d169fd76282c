package enums

type ParticipantStatus string

const (
	ParticipantStatusSwiping ParticipantStatus = "swiping"
	ParticipantStatusWaiting ParticipantStatus = "waiting"
)
