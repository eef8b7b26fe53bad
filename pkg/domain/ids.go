package domain

import (
	"github.com/google/uuid"

	dErrors "tradepost/pkg/domain-errors"
)

// Typed UUID identifiers. Distinct types keep a user ID from ever being passed
// where a product ID is expected; the compiler enforces the distinction.
type (
	UserID    uuid.UUID
	ProductID uuid.UUID
)

// NewUserID generates a fresh user identifier.
func NewUserID() UserID {
	return UserID(uuid.New())
}

// NewProductID generates a fresh product identifier.
func NewProductID() ProductID {
	return ProductID(uuid.New())
}

// ParseUserID constructs a UserID from external input.
// Invariant: IDs must be valid, non-nil UUIDs.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(u), nil
}

// ParseProductID constructs a ProductID from external input.
func ParseProductID(s string) (ProductID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return ProductID{}, err
	}
	return ProductID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}

func (id UserID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id ProductID) String() string { return uuid.UUID(id).String() }

func (id ProductID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
