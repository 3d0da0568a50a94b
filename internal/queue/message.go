package queue

import (
	"fmt"
	"strings"
)

// MailMessage is the broker payload for one mail job. Subject, body, sender,
// and recipient ride along as a fast path; the consumer re-derives
// credentials and attachments from JobID, which is the source of truth.
type MailMessage struct {
	JobID   string `json:"jobId"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Sender  string `json:"sender"`
	To      string `json:"to"`
}

func (m MailMessage) Validate() error {
	if strings.TrimSpace(m.JobID) == "" {
		return fmt.Errorf("jobId is required")
	}
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("to is required")
	}
	return nil
}
