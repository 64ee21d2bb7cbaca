package meta

// Well known message headers.
const (
	HeaderEnclosedMessageTypes = "Roost.EnclosedMessageTypes"
	HeaderCorrelationID        = "Roost.CorrelationId"
	HeaderReplyTo              = "Roost.ReplyToAddress"
	HeaderContentType          = "Roost.ContentType"
)
