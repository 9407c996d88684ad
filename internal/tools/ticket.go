package tools

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/levelup-project/levelup/internal/ticket"
)

// SubmitSupportTicketName is the tool name advertised to models.
const SubmitSupportTicketName = "submit_support_ticket"

const submitSupportTicketSchema = `{
  "type": "object",
  "properties": {
    "email_address": {
      "type": "string",
      "minLength": 3,
      "description": "Email address of the person reporting the problem"
    },
    "description": {
      "type": "string",
      "description": "Free-text description of the technical problem"
    }
  },
  "required": ["email_address", "description"],
  "additionalProperties": false
}`

type submitSupportTicketArgs struct {
	EmailAddress string `mapstructure:"email_address"`
	Description  string `mapstructure:"description"`
}

// SubmitSupportTicket returns the tool that writes a ticket file through w
// and answers with the JSON confirmation message.
func SubmitSupportTicket(w *ticket.Writer) Tool {
	return Tool{
		Name:        SubmitSupportTicketName,
		Description: "Generate a support ticket file and return a confirmation message in JSON.",
		Parameters:  submitSupportTicketSchema,
		Func: func(args map[string]any) (string, error) {
			var v submitSupportTicketArgs
			if err := mapstructure.Decode(args, &v); err != nil {
				return "", fmt.Errorf("decoding arguments: %w", err)
			}
			_, msg, err := w.Submit(v.EmailAddress, v.Description)
			if err != nil {
				return "", err
			}
			return msg, nil
		},
	}
}

// UserFunctions returns a registry holding every user-callable function.
func UserFunctions(w *ticket.Writer) (*Registry, error) {
	r := NewRegistry()
	if err := r.Register(SubmitSupportTicket(w)); err != nil {
		return nil, err
	}
	return r, nil
}
