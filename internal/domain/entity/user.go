package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrInvalidProfile = errors.New("invalid user profile")
)

type UserProfile struct {
	ID                string    `json:"id"`
	FullName          string    `json:"full_name"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone,omitempty"`
	CurrentAddress    string    `json:"current_address"`
	PreviousAddresses []string  `json:"previous_addresses"`
	DateOfBirth       string    `json:"date_of_birth,omitempty"`
	FamilyMembers     []string  `json:"family_members"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Validate checks the fields every removal flow relies on and fills
// FullName from the name parts when it is empty.
func (u *UserProfile) Validate() error {
	u.FirstName = strings.TrimSpace(u.FirstName)
	u.LastName = strings.TrimSpace(u.LastName)
	u.Email = strings.TrimSpace(u.Email)
	switch {
	case u.FirstName == "":
		return fmt.Errorf("%w: first_name is required", ErrInvalidProfile)
	case u.LastName == "":
		return fmt.Errorf("%w: last_name is required", ErrInvalidProfile)
	case !strings.Contains(u.Email, "@"):
		return fmt.Errorf("%w: email %q is not valid", ErrInvalidProfile, u.Email)
	case strings.TrimSpace(u.CurrentAddress) == "":
		return fmt.Errorf("%w: current_address is required", ErrInvalidProfile)
	}
	if strings.TrimSpace(u.FullName) == "" {
		u.FullName = u.FirstName + " " + u.LastName
	}
	return nil
}

// ProfileField names a logical profile value an adapter can type into a form.
type ProfileField string

const (
	FieldFirstName ProfileField = "first_name"
	FieldLastName  ProfileField = "last_name"
	FieldFullName  ProfileField = "full_name"
	FieldEmail     ProfileField = "email"
	FieldPhone     ProfileField = "phone"
	FieldAddress   ProfileField = "address"
	FieldState     ProfileField = "state"
)

// Value resolves a logical field against the profile. State is derived from
// the current address.
func (u *UserProfile) Value(field ProfileField) string {
	switch field {
	case FieldFirstName:
		return u.FirstName
	case FieldLastName:
		return u.LastName
	case FieldFullName:
		if u.FullName != "" {
			return u.FullName
		}
		return strings.TrimSpace(u.FirstName + " " + u.LastName)
	case FieldEmail:
		return u.Email
	case FieldPhone:
		return u.Phone
	case FieldAddress:
		return u.CurrentAddress
	case FieldState:
		return StateFromAddress(u.CurrentAddress)
	default:
		return ""
	}
}

// Missing returns the fields from the list that resolve to an empty value.
func (u *UserProfile) Missing(fields []ProfileField) []ProfileField {
	var missing []ProfileField
	for _, f := range fields {
		if strings.TrimSpace(u.Value(f)) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

const defaultState = "CA"

// StateFromAddress picks the last standalone two-letter token of the
// upper-cased address, so "1 Main St, Springfield, IL 62701" gives IL
// rather than ST. It falls back to CA.
func StateFromAddress(address string) string {
	fields := strings.FieldsFunc(strings.ToUpper(address), func(r rune) bool {
		return !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') && r != '_'
	})
	for i := len(fields) - 1; i >= 0; i-- {
		f := fields[i]
		if len(f) == 2 && f[0] >= 'A' && f[0] <= 'Z' && f[1] >= 'A' && f[1] <= 'Z' {
			return f
		}
	}
	return defaultState
}
