package users

// RegisterRequest is the POST /user body.
type RegisterRequest struct {
	UserID string   `json:"user_id" binding:"required,alphanum,max=100"`
	Topics []string `json:"topics" binding:"required"`
}
