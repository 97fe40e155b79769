package entity

import (
	"database/sql"
	"time"
)

type SocialLinkType string

const (
	SocialLinkVK       SocialLinkType = "VK"
	SocialLinkTelegram SocialLinkType = "TELEGRAM"
	SocialLinkWhatsApp SocialLinkType = "WHATS_APP"
)

type PaymentMethod string

const (
	PaymentMoney PaymentMethod = "MONEY"
	PaymentCard  PaymentMethod = "CARD"
	PaymentSBP   PaymentMethod = "SBP"
)

type Facility string

const (
	FacilityParking           Facility = "PARKING"
	FacilityShower            Facility = "SHOWER"
	FacilityLockerRoom        Facility = "LOCKER_ROOM"
	FacilityWiFi              Facility = "WIFI"
	FacilityLighting          Facility = "LIGHTING"
	FacilityAirConditioning   Facility = "AIR_CONDITIONING"
	FacilityCafe              Facility = "CAFE"
	FacilityRental            Facility = "RENTAL"
	FacilityVideoSurveillance Facility = "VIDEO_SURVEILLANCE"
)

type Sport string

const (
	SportFootball   Sport = "FOOTBALL"
	SportBasketball Sport = "BASKETBALL"
	SportTennis     Sport = "TENNIS"
	SportVolleyball Sport = "VOLLEYBALL"
)

type Location struct {
	City        string `json:"city" validate:"max=255"`
	Street      string `json:"street" validate:"max=255"`
	House       string `json:"house" validate:"max=64"`
	Coordinates string `json:"coordinates" validate:"max=64"`
}

type Contacts struct {
	Phone string `json:"phone" validate:"max=32"`
	Email string `json:"email" validate:"omitempty,email"`
	Site  string `json:"site" validate:"max=2048"`
}

// TimeSlot hours are HH:MM. Days off may leave them empty.
type TimeSlot struct {
	From      string `json:"from" validate:"omitempty,datetime=15:04"`
	To        string `json:"to" validate:"omitempty,datetime=15:04"`
	IsWeekend bool   `json:"isWeekend"`
}

type WorkingTimetable struct {
	Monday    TimeSlot `json:"monday"`
	Tuesday   TimeSlot `json:"tuesday"`
	Wednesday TimeSlot `json:"wednesday"`
	Thursday  TimeSlot `json:"thursday"`
	Friday    TimeSlot `json:"friday"`
	Saturday  TimeSlot `json:"saturday"`
	Sunday    TimeSlot `json:"sunday"`
}

type SocialLink struct {
	LinkType SocialLinkType `json:"link_type" validate:"required,oneof=VK TELEGRAM WHATS_APP"`
	Link     string         `json:"link" validate:"required,max=2048"`
}

type ExtraMedia struct {
	Src         string `json:"src" validate:"required,max=2048"`
	Description string `json:"description" validate:"max=1024"`
}

type Media struct {
	MainSrc     string       `json:"main_src" validate:"max=2048"`
	Description string       `json:"description" validate:"max=1024"`
	ExtraMedia  []ExtraMedia `json:"extra_media" validate:"omitempty,dive"`
}

type Campaign struct {
	ID               string
	UserID           string
	Name             string
	Description      sql.NullString
	ShortDescription sql.NullString
	Location         *Location
	Contacts         *Contacts
	WorkingTimetable *WorkingTimetable
	SocialsLinks     []SocialLink
	PaymentMethods   []PaymentMethod
	Facilities       []Facility
	Sports           []Sport
	Media            *Media
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
