package model

import "time"

// Delivery is an asynchronous request to send a finished result table to a
// recipient as an attachment.
type Delivery struct {
	JobID      string    // unique id returned to the caller
	Recipient  string    // e-mail address
	Filename   string    // attachment file name
	Attachment []byte    // serialized result table
	CreatedAt  time.Time // submission time
}
