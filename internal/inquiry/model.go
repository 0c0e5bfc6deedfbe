// Package inquiry stores buyer messages to sellers and property managers and
// notifies the recipient.
package inquiry

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalid is returned for inquiries missing required fields.
var ErrInvalid = errors.New("invalid inquiry")

// Kind is what an inquiry is about.
type Kind string

const (
	KindListing Kind = "listing"
	KindManager Kind = "manager"
)

// Inquiry is a message from a prospective buyer or owner.
type Inquiry struct {
	ID          int64     `json:"id"`
	TargetKind  Kind      `json:"target_kind"`
	TargetID    int64     `json:"target_id"`
	SenderName  string    `json:"sender_name"`
	SenderEmail string    `json:"sender_email"`
	Phone       string    `json:"phone,omitempty"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks required fields and trims text.
func (in *Inquiry) Validate() error {
	in.SenderName = strings.TrimSpace(in.SenderName)
	in.SenderEmail = strings.TrimSpace(in.SenderEmail)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Message = strings.TrimSpace(in.Message)

	switch {
	case in.TargetKind != KindListing && in.TargetKind != KindManager:
		return fmt.Errorf("%w: unknown target %q", ErrInvalid, in.TargetKind)
	case in.SenderName == "":
		return fmt.Errorf("%w: name is required", ErrInvalid)
	case !strings.Contains(in.SenderEmail, "@"):
		return fmt.Errorf("%w: a valid email is required", ErrInvalid)
	case in.Message == "":
		return fmt.Errorf("%w: message is required", ErrInvalid)
	}
	return nil
}
