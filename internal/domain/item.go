package domain

import "time"

// Item is the single entity exposed by the API.
//
// The persistence layer owns the canonical record; everything above it only
// handles request-scoped copies.
type Item struct {
	// ─────────────────────────────
	// Identity (assigned by the store, immutable)
	// ─────────────────────────────

	ID int64 `json:"id"`

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	Name        string  `json:"name"`
	Description *string `json:"description"`
	IsActive    bool    `json:"is_active"`

	// ─────────────────────────────
	// Timestamps
	// ─────────────────────────────

	// CreatedAt is set once, in UTC, when the row is inserted.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt stays nil: no operation modifies an item after creation.
	UpdatedAt *time.Time `json:"updated_at"`
}

// NewItem is the creation payload.
//
// Fields are pointers so that "absent" and "zero" can be told apart.
type NewItem struct {
	Name        *string `json:"name" yaml:"name" validate:"required,min=1,max=255"`
	Description *string `json:"description,omitempty" yaml:"description" validate:"omitempty,max=2000"`
	IsActive    *bool   `json:"is_active,omitempty" yaml:"is_active"`
}

// Normalize applies defaults. It must run after validation.
func (n *NewItem) Normalize() {
	if n.IsActive == nil {
		active := true
		n.IsActive = &active
	}
}

// Active reports the effective is_active value.
func (n NewItem) Active() bool {
	return n.IsActive == nil || *n.IsActive
}

// ListParams paginates ListItems.
type ListParams struct {
	Offset int
	Limit  int
}

const (
	DefaultListOffset = 0
	DefaultListLimit  = 100
)

// DefaultListParams returns the pagination used when the caller omits both values.
func DefaultListParams() ListParams {
	return ListParams{Offset: DefaultListOffset, Limit: DefaultListLimit}
}

// Validate rejects negative pagination values.
func (p ListParams) Validate() error {
	var fields []FieldError
	if p.Offset < 0 {
		fields = append(fields, FieldError{
			Loc:  []string{"query", "skip"},
			Msg:  "Input should be greater than or equal to 0",
			Type: "greater_than_equal",
		})
	}
	if p.Limit < 0 {
		fields = append(fields, FieldError{
			Loc:  []string{"query", "limit"},
			Msg:  "Input should be greater than or equal to 0",
			Type: "greater_than_equal",
		})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// StringPtr and BoolPtr are small helpers for building NewItem literals.
func StringPtr(s string) *string { return &s }

func BoolPtr(b bool) *bool { return &b }
