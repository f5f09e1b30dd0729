package accounts

import "github.com/google/uuid"

// CreateAccountRequest carries fields for chart of accounts setup.
type CreateAccountRequest struct {
	Code     string      `json:"code" validate:"required,max=32"`
	Name     string      `json:"name" validate:"required,max=255"`
	Type     AccountType `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	ParentID *uuid.UUID  `json:"parent_id,omitempty"`
	IsActive *bool       `json:"is_active,omitempty"`
}

// UpdateAccountRequest carries partial updates. DetachParent moves the
// account to the root of the hierarchy; it wins over ParentID when both are
// set.
type UpdateAccountRequest struct {
	Code         *string      `json:"code,omitempty" validate:"omitempty,max=32"`
	Name         *string      `json:"name,omitempty" validate:"omitempty,max=255"`
	Type         *AccountType `json:"type,omitempty" validate:"omitempty,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	ParentID     *uuid.UUID   `json:"parent_id,omitempty"`
	DetachParent bool         `json:"detach_parent,omitempty"`
	IsActive     *bool        `json:"is_active,omitempty"`
}
