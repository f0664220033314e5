package domain

// Settings holds the runtime channel configuration changed by admin commands.
type Settings struct {
	StatChannel     int64 // source of result messages
	DisplayChannel  int64 // destination of prediction status messages
	TransferEnabled bool  // relay source messages to the admin chat
}
