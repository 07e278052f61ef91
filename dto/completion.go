package dto

type CompletionRequest struct {
	Prompt            string
	SystemInstruction string
	WantJSON          bool
}

// ContactGuess is the fixed key contract returned by image analysis. Missing keys stay blank.
type ContactGuess struct {
	Name       string `json:"name"`
	Company    string `json:"company"`
	Department string `json:"department"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

type GeneratedMessage struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
