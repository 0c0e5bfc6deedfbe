package inquiry

import (
	"database/sql"
	"fmt"
)

// Repository stores inquiries.
type Repository struct {
	db *sql.DB
}

// NewRepository creates an inquiry repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, target_kind, target_id, sender_name, sender_email, phone, message, created_at`

// Add validates and stores an inquiry, returning it with its ID.
func (r *Repository) Add(in *Inquiry) (*Inquiry, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	result, err := r.db.Exec(
		`INSERT INTO inquiries (target_kind, target_id, sender_name, sender_email, phone, message)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(in.TargetKind), in.TargetID, in.SenderName, in.SenderEmail, in.Phone, in.Message,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting inquiry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	saved, err := scanInquiry(r.db.QueryRow(
		fmt.Sprintf("SELECT %s FROM inquiries WHERE id = ?", selectColumns), id,
	))
	if err != nil {
		return nil, fmt.Errorf("reading back inquiry: %w", err)
	}
	return saved, nil
}

// ListByTarget returns the inquiries about one listing or manager, newest first.
func (r *Repository) ListByTarget(kind Kind, targetID int64) ([]*Inquiry, error) {
	rows, err := r.db.Query(
		fmt.Sprintf("SELECT %s FROM inquiries WHERE target_kind = ? AND target_id = ? ORDER BY id DESC", selectColumns),
		string(kind), targetID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing inquiries: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	inquiries := []*Inquiry{}
	for rows.Next() {
		in, err := scanInquiry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning inquiry: %w", err)
		}
		inquiries = append(inquiries, in)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating inquiries: %w", err)
	}

	return inquiries, nil
}

func scanInquiry(row interface{ Scan(...interface{}) error }) (*Inquiry, error) {
	var in Inquiry
	var kind string
	if err := row.Scan(
		&in.ID, &kind, &in.TargetID, &in.SenderName, &in.SenderEmail,
		&in.Phone, &in.Message, &in.CreatedAt,
	); err != nil {
		return nil, err
	}
	in.TargetKind = Kind(kind)
	return &in, nil
}
