package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either Template (+Data) or a literal Subject/Text/HTML must be set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // "welcome", "password_changed"
	Data     map[string]any `json:"data,omitempty"`
}
