package models

type EEventLogType string

const (
	NewDestination EEventLogType = "New destination"
	Visit          EEventLogType = "Visit"
	ReturnedHome   EEventLogType = "Returned home"
)
