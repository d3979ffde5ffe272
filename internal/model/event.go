package model

// EventNotification is the payload Tableau POSTs to the /webhook endpoint.
// Fields beyond these three are ignored.
type EventNotification struct {
	EventType    string `json:"event_type"`
	ResourceName string `json:"resource_name"`
	Text         string `json:"text"`
}

// WithDefaults fills missing fields with the placeholders used when Tableau
// sends a sparse payload.
func (n EventNotification) WithDefaults() EventNotification {
	if n.EventType == "" {
		n.EventType = "Unknown Event"
	}
	if n.ResourceName == "" {
		n.ResourceName = "Unknown Resource"
	}
	if n.Text == "" {
		n.Text = "No additional information provided."
	}
	return n
}
