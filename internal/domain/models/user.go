package models

import (
	"sort"
	"strings"
	"time"
)

type UserRecord struct {
	ID    Number `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role"`
}

// AddressBookEntry is a saved address on the user profile.
type AddressBookEntry struct {
	ID        Number `json:"id"`
	Type      string `json:"type"`
	Address   string `json:"address"`
	City      string `json:"city,omitempty"`
	PinCode   string `json:"pinCode,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// Profile is GET /users/me: the user plus saved addresses.
type Profile struct {
	UserRecord
	AddressBooks []AddressBookEntry `json:"addressBooks"`
}

// LatestPickupAddress returns the newest non-empty PICKUP address.
func (p Profile) LatestPickupAddress() string {
	var pickups []AddressBookEntry
	for _, a := range p.AddressBooks {
		if strings.EqualFold(a.Type, "PICKUP") && strings.TrimSpace(a.Address) != "" {
			pickups = append(pickups, a)
		}
	}
	if len(pickups) == 0 {
		return ""
	}
	sort.SliceStable(pickups, func(i, j int) bool {
		return createdAt(pickups[i]).After(createdAt(pickups[j]))
	})
	return strings.TrimSpace(pickups[0].Address)
}

func createdAt(a AddressBookEntry) time.Time {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(a.CreatedAt))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Prefill copies profile data onto a contact draft. Name and email come from
// the profile when present; phone and pickup address only fill empty fields.
func (p Profile) Prefill(c ContactDetails) ContactDetails {
	if s := strings.TrimSpace(p.Name); s != "" {
		c.Name = s
	}
	if s := strings.TrimSpace(p.Email); s != "" {
		c.Email = s
	}
	if strings.TrimSpace(c.Phone) == "" {
		c.Phone = strings.TrimSpace(p.Phone)
	}
	if strings.TrimSpace(c.PickupAddress) == "" {
		c.PickupAddress = p.LatestPickupAddress()
	}
	return c
}
