package conferences

// CreateConferenceRequest is the POST /conference wire body; timestamps use
// the "YYYY-MM-DD HH:MM:SS" wire layout.
type CreateConferenceRequest struct {
	Name     string   `json:"name" binding:"required,max=100"`
	Location string   `json:"location" binding:"required,max=200"`
	Start    string   `json:"start" binding:"required"`
	End      string   `json:"end" binding:"required"`
	Slots    int      `json:"slots" binding:"required,gt=0"`
	Topics   []string `json:"topics" binding:"required"`
}

// TimeLayout is the wire timestamp format.
const TimeLayout = "2006-01-02 15:04:05"
