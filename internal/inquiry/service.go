package inquiry

import "log/slog"

// Service stores inquiries and notifies their recipients.
type Service struct {
	repo     *Repository
	notifier *Notifier
}

// NewService creates an inquiry service.
func NewService(repo *Repository, notifier *Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// Submit stores in and notifies rcpt. A failed notification is logged; the
// inquiry stays stored.
func (s *Service) Submit(in *Inquiry, rcpt Recipient) (*Inquiry, error) {
	saved, err := s.repo.Add(in)
	if err != nil {
		return nil, err
	}

	slog.Info("inquiry received", "inquiry_id", saved.ID, "target", saved.TargetKind, "target_id", saved.TargetID)
	if err := s.notifier.Notify(rcpt, saved); err != nil {
		slog.Error("inquiry notification failed", "inquiry_id", saved.ID, "error", err)
	}
	return saved, nil
}

// List returns the inquiries about one listing or manager.
func (s *Service) List(kind Kind, targetID int64) ([]*Inquiry, error) {
	return s.repo.ListByTarget(kind, targetID)
}
