package domain

import (
	"encoding/json"
	"io"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	Client   Role = "client"
	Provider Role = "provider"
)

type LocationType string

const (
	Studio      LocationType = "studio"
	House       LocationType = "house"
	Apartment   LocationType = "apartment"
	RentedSpace LocationType = "rented_space"
	Mobile      LocationType = "mobile"
)

type Profile struct {
	ID                primitive.ObjectID `bson:"_id" json:"id"`
	ExternalID        string             `bson:"externalId" json:"-"`
	Username          string             `bson:"username" json:"username" validate:"required,min=4,max=30,usernameformat"`
	Role              Role               `bson:"role" json:"role" validate:"required,oneof=client provider"`
	Email             string             `bson:"email,omitempty" json:"email,omitempty" validate:"omitempty,email"`
	Bio               string             `bson:"bio,omitempty" json:"bio,omitempty" validate:"max=500"`
	Location          string             `bson:"location,omitempty" json:"location,omitempty" validate:"max=120"`
	LocationType      LocationType       `bson:"locationType,omitempty" json:"locationType,omitempty" validate:"omitempty,oneof=studio house apartment rented_space mobile"`
	Latitude          *float64           `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude         *float64           `bson:"longitude,omitempty" json:"longitude,omitempty"`
	AvatarURL         string             `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	Rating            *float64           `bson:"rating,omitempty" json:"rating,omitempty"`
	ReviewCount       int                `bson:"reviewCount" json:"reviewCount"`
	UsernameChangedAt *time.Time         `bson:"usernameChangedAt,omitempty" json:"usernameChangedAt,omitempty"`
	IsAdmin           bool               `bson:"isAdmin" json:"isAdmin"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
}

type Service struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	ProviderID primitive.ObjectID `bson:"providerId" json:"providerId"`
	Name       string             `bson:"name" json:"name" validate:"required,min=2,max=60"`
	Price      *float64           `bson:"price,omitempty" json:"price,omitempty"`
}

type Review struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	ClientID   primitive.ObjectID `bson:"clientId" json:"clientId"`
	ProviderID primitive.ObjectID `bson:"providerId" json:"providerId"`
	Rating     int                `bson:"rating" json:"rating" validate:"required,min=1,max=5"`
	Text       string             `bson:"text,omitempty" json:"text,omitempty" validate:"max=1000"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

type Message struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	SenderID   primitive.ObjectID `bson:"senderId" json:"senderId"`
	ReceiverID primitive.ObjectID `bson:"receiverId" json:"receiverId"`
	Content    string             `bson:"content" json:"content" validate:"required,max=2000"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

type NotificationType string

const (
	MessageNotification NotificationType = "message"
	SystemNotification  NotificationType = "system"
)

type Notification struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	ProfileID primitive.ObjectID `bson:"profileId" json:"profileId"`
	Type      NotificationType   `bson:"type" json:"type"`
	Title     string             `bson:"title" json:"title"`
	Content   string             `bson:"content" json:"content"`
	Link      string             `bson:"link,omitempty" json:"link,omitempty"`
	Read      bool               `bson:"read" json:"read"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// ProfileWithServices is the directory listing shape.
type ProfileWithServices struct {
	Profile  *Profile   `json:"profile"`
	Services []*Service `json:"services"`
}

// ProfileDetails is the public profile page shape.
type ProfileDetails struct {
	Profile  *Profile   `json:"profile"`
	Services []*Service `json:"services"`
	Reviews  []*Review  `json:"reviews"`
}

// Conversation is derived by grouping messages on the unordered participant
// pair; it is never stored.
type Conversation struct {
	Counterpart *Profile `json:"counterpart"`
	LastMessage *Message `json:"lastMessage"`
}

type SortOrder string

const (
	SortDefault     SortOrder = "default"
	SortRatingHigh  SortOrder = "rating_high"
	SortRatingLow   SortOrder = "rating_low"
	SortReviewsHigh SortOrder = "reviews_high"
	SortReviewsLow  SortOrder = "reviews_low"
)

// SearchFilter combines with AND semantics across fields and OR semantics
// within a multi-valued field. The radius filter only applies when Lat, Lng
// and Radius are all present.
type SearchFilter struct {
	Services      []string
	LocationTypes []string
	Search        string
	Lat           *float64
	Lng           *float64
	Radius        *float64
	Sort          SortOrder
}

func (f *SearchFilter) IsEmpty() bool {
	return len(f.Services) == 0 && len(f.LocationTypes) == 0 && f.Search == "" &&
		(f.Lat == nil || f.Lng == nil || f.Radius == nil) &&
		(f.Sort == "" || f.Sort == SortDefault)
}

func (f *SearchFilter) HasRadius() bool {
	return f.Lat != nil && f.Lng != nil && f.Radius != nil
}

type Stats struct {
	TotalProfiles           int64            `json:"totalProfiles"`
	Providers               int64            `json:"providers"`
	Clients                 int64            `json:"clients"`
	TotalMessages           int64            `json:"totalMessages"`
	ProvidersByLocationType map[string]int64 `json:"providersByLocationType"`
}

// UploadTicket is issued by the external object storage service.
type UploadTicket struct {
	UploadURL string `json:"uploadUrl"`
	FileURL   string `json:"fileUrl"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	usernameRegex := regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	_ = v.RegisterValidation("usernameformat", func(fl validator.FieldLevel) bool {
		return usernameRegex.MatchString(fl.Field().String())
	})

	return v
}

// ValidateUsername applies the profile username rules to a bare value.
func ValidateUsername(username string) error {
	if err := validate.Var(username, "required,min=4,max=30,usernameformat"); err != nil {
		return &FieldError{Message: "username must be 4-30 characters of letters, digits, '-' or '_'"}
	}
	return nil
}

func (profile *Profile) Validate() error {
	if err := validate.Struct(profile); err != nil {
		return err
	}
	if profile.Latitude != nil && (*profile.Latitude < -90 || *profile.Latitude > 90) {
		return &FieldError{Message: "latitude must be between -90 and 90"}
	}
	if profile.Longitude != nil && (*profile.Longitude < -180 || *profile.Longitude > 180) {
		return &FieldError{Message: "longitude must be between -180 and 180"}
	}
	if (profile.Latitude == nil) != (profile.Longitude == nil) {
		return &FieldError{Message: "latitude and longitude must be supplied together"}
	}
	return nil
}

type FieldError struct {
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

func (service *Service) Validate() error {
	if err := validate.Struct(service); err != nil {
		return err
	}
	if service.Price != nil && *service.Price < 0 {
		return &FieldError{Message: "price cannot be negative"}
	}
	return nil
}

func (review *Review) Validate() error {
	return validate.Struct(review)
}

func (message *Message) Validate() error {
	return validate.Struct(message)
}

func (profile *Profile) FromJSON(reader io.Reader) error {
	d := json.NewDecoder(reader)
	return d.Decode(profile)
}

func (message *Message) FromJSON(reader io.Reader) error {
	d := json.NewDecoder(reader)
	return d.Decode(message)
}
