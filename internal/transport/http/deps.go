package http

import (
	"github.com/brokerage-api/internal/infrastructure/dynamo"
	"github.com/brokerage-api/internal/infrastructure/geocode"
	"github.com/brokerage-api/internal/infrastructure/google"
	jwtinfra "github.com/brokerage-api/internal/infrastructure/jwt"
	s3infra "github.com/brokerage-api/internal/infrastructure/s3"
	"github.com/brokerage-api/internal/infrastructure/smtp"
	"github.com/brokerage-api/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo       *dynamo.UserRepo
	SessionRepo    *dynamo.SessionRepo
	ListingRepo    *dynamo.ListingRepo
	ImageRepo      *dynamo.ListingImageRepo
	CommissionRepo *dynamo.CommissionRepo
	ActivityRepo   *dynamo.ActivityRepo
	SettingsRepo   *dynamo.SettingsRepo
	S3Store        *s3infra.Store
	Mailer         smtp.Mailer
	SMSSender      sns.SMSSender
	JWTProvider    *jwtinfra.Provider
	GoogleVerifier *google.Verifier
	Geocoder       geocode.Geocoder
}
