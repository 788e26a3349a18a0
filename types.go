package main

import (
	"net/http"
	"time"

	"gorm.io/gorm"
)

type config struct {
	HTTPListen   string
	DNSUDPListen string
	DNSTCPListen string
	DBPath       string

	ParentDomain string   `validate:"required,hostname"`
	NameServers  []string
	DefaultTTL   uint32 `validate:"gt=0"`

	LogLevel string `validate:"oneof=debug info warn error"`
	LogJSON  bool

	SessionSecret string        `validate:"required,min=10"`
	SessionTTL    time.Duration `validate:"gt=0"`

	CacheTTL     time.Duration
	CacheCleanup time.Duration

	OAuthAuthorizeURL string
	OAuthTokenURL     string
	OAuthUserInfoURL  string
	OAuthClientID     string
	OAuthClientSecret string
	OAuthRedirectURL  string
	OAuthIDField      string
	OAuthHTTPClient   *http.Client
}

// recordSet is one provider-level record set: every value published under
// a single fully-qualified name and type.
type recordSet struct {
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Data      []string  `json:"data"`
	TTL       uint32    `json:"ttl"`
	UpdatedAt time.Time `json:"updated_at"`
}

// changeBatch is applied atomically by the zone service: deletes first,
// then adds, all or nothing.
type changeBatch struct {
	Deletes []recordSet
	Adds    []recordSet
}

// apiRecord is the read-API shape: name relative to the parent domain,
// multi-value data joined with newlines.
type apiRecord struct {
	Name string `json:"name"`
	Data string `json:"data"`
	Type string `json:"type"`
}

type domainModel struct {
	ID             string    `gorm:"primaryKey;size:64"`
	CreatedBy      string    `gorm:"size:128;not null"`
	CreatedDate    time.Time `gorm:"not null"`
	SubdomainsJSON string    `gorm:"type:text;not null"`
}

type userModel struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	UtokyoID    string    `gorm:"size:128;uniqueIndex;not null"`
	CreatedDate time.Time `gorm:"not null"`
	UserSecret  string    `gorm:"size:128;not null"`
}

type recordModel struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"size:255;index:idx_records_name_type,priority:1"`
	Type      string    `gorm:"size:10;index:idx_records_name_type,priority:2"`
	DataJSON  string    `gorm:"type:text;not null"`
	TTL       uint32    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (domainModel) TableName() string {
	return "domains"
}

func (userModel) TableName() string {
	return "users"
}

func (recordModel) TableName() string {
	return "records"
}

type persistence struct {
	db *gorm.DB
}

type server struct {
	cfg      config
	persist  *persistence
	owners   *ownershipStore
	zone     *zoneService
	rec      *reconciler
	prov     *provisioner
	sessions *sessionService
	start    time.Time
}
