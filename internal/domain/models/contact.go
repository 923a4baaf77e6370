package models

// ContactDetails is the contact and pickup form on the booking page.
type ContactDetails struct {
	Name          string `json:"name" form:"name" validate:"required"`
	Email         string `json:"email" form:"email" validate:"required,email"`
	Phone         string `json:"phone" form:"phone" validate:"required"`
	PickupAddress string `json:"pickupAddress" form:"pickup_address" validate:"required"`
}
