package models

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Zephony/zephony-go/util"
)

// City is a lookup table filled on demand by contact imports
type City struct {
	BaseModel
	OriginalName string `gorm:"size:200;not null;index" json:"original_name"`
}

func NewCity(originalName string) *City {
	return &City{OriginalName: originalName}
}

func (c *City) Info() map[string]any {
	d := c.BaseDetails()
	d["name"] = c.OriginalName
	return d
}

type Address struct {
	Street string `gorm:"size:200" json:"street"`
	Zip    string `gorm:"size:20" json:"zip"`
}

// Contact kinds
const (
	ContactLead     = "lead"
	ContactCustomer = "customer"
)

type Contact struct {
	BaseModel
	Name        string     `gorm:"size:100;not null" json:"name"`
	Email       string     `gorm:"size:200;index" json:"email"`
	Phone       string     `gorm:"size:20" json:"phone"`
	Age         int        `json:"age"`
	Subscribed  bool       `json:"subscribed"`
	Kind        string     `gorm:"size:20" json:"kind"`
	BirthDate   *time.Time `json:"birth_date"`
	Level       string     `gorm:"size:20" json:"level"`
	Permissions string     `gorm:"size:40" json:"permissions"`
	CityID      *uint      `json:"city_id"`
	City        *City      `gorm:"constraint:OnDelete:SET NULL;" json:"-"`
	Address     Address    `gorm:"embedded;embeddedPrefix:address_" json:"address"`
}

// BeforeSeed rejects imported rows whose email already belongs to an active
// contact, reporting the existing contact as the duplicate
func (c *Contact) BeforeSeed(tx *gorm.DB) error {
	if c.Email == "" {
		return nil
	}

	var existing Contact
	err := tx.Where("email = ? AND status = ?", c.Email, util.StatusActive).Take(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	dup := NewInvalidRequestData("email", "Email already in use")
	dup.Duplicate = existing.Info()
	return dup
}

func (c *Contact) Info() map[string]any {
	d := c.BaseDetails()
	d["name"] = c.Name
	d["email"] = c.Email
	return d
}

func (c *Contact) BasicDetails() map[string]any {
	d := c.Info()
	d["phone"] = c.Phone
	d["kind"] = c.Kind
	d["subscribed"] = c.Subscribed
	d["city_id"] = c.CityID
	return d
}

func (c *Contact) FullDetails() map[string]any {
	d := c.BasicDetails()
	d["age"] = c.Age
	d["level"] = c.Level
	d["permissions"] = c.Permissions
	d["address"] = c.Address
	var birthDate any
	if c.BirthDate != nil {
		birthDate = util.FormatDate(*c.BirthDate)
	}
	d["birth_date"] = birthDate
	if c.City != nil {
		d["city"] = c.City.Info()
	}
	return d
}
