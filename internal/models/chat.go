package models

// ChatRequest carries a free text question for the assistant.
type ChatRequest struct {
	Message   string `json:"message" validate:"required,max=2000"`
	StudentID string `json:"student_id" validate:"omitempty,uuid"`
}

// ChatResponse is the assistant's reply. Fallback marks the generic apology.
type ChatResponse struct {
	Reply    string `json:"reply"`
	Fallback bool   `json:"fallback"`
}
