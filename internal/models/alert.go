package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contributor records one account's sighting of a token name.
type Contributor struct {
	Handle  string `json:"handle"`
	PostID  string `json:"post_id"`
	PostURL string `json:"post_url"`
}

// Contributors is stored as a jsonb column, ordered by first sighting.
type Contributors []Contributor

// Value implements driver.Valuer for gorm serialization.
func (c Contributors) Value() (driver.Value, error) {
	if c == nil {
		c = Contributors{}
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner.
func (c *Contributors) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	case nil:
		*c = Contributors{}
		return nil
	default:
		return fmt.Errorf("unsupported contributors column type %T", value)
	}
}

// Contains reports whether handle already contributed.
func (c Contributors) Contains(handle string) bool {
	for _, e := range c {
		if e.Handle == handle {
			return true
		}
	}
	return false
}

// NameAlert aggregates independent sightings of the same token name.
// QuorumCount always equals len(Contributors); each handle appears at
// most once.
type NameAlert struct {
	ID           string       `gorm:"primaryKey;size:36" json:"id"`
	TokenName    string       `gorm:"size:32;index;not null" json:"token_name"`
	FirstSeen    time.Time    `gorm:"index" json:"first_seen"`
	QuorumCount  int          `gorm:"default:1" json:"quorum_count"`
	Contributors Contributors `gorm:"type:jsonb" json:"accounts"`
	IsActive     bool         `gorm:"default:true;index" json:"is_active"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// BeforeCreate assigns identity and first-seen time when absent.
func (a *NameAlert) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.FirstSeen.IsZero() {
		a.FirstSeen = time.Now().UTC()
	}
	return nil
}

// CAAlert is a one-shot alert for a contract address. At most one row per
// address is ever created; the unique index backs the insert-if-absent
// admission path.
type CAAlert struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	ContractAddress string    `gorm:"size:44;uniqueIndex;not null" json:"contract_address"`
	TokenName       string    `gorm:"size:32" json:"token_name"`
	Chain           string    `gorm:"size:16;default:'Solana'" json:"chain"`
	FirstSeen       time.Time `gorm:"index" json:"first_seen"`
	FirstMarketCap  *float64  `json:"first_market_cap,omitempty"`
	MaxGain24h      *float64  `json:"max_gain_24h,omitempty"`
	ATH24h          *float64  `json:"ath_24h,omitempty"`
	SourceHandle    string    `gorm:"size:64;index" json:"account_username"`
	PostID          string    `gorm:"size:32" json:"tweet_id"`
	PostURL         string    `gorm:"size:256" json:"tweet_url"`
	LaunchURL       string    `gorm:"size:256" json:"launch_url"`
	ExplorerURL     string    `gorm:"size:256" json:"explorer_url"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// BeforeCreate assigns identity and first-seen time when absent.
func (a *CAAlert) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.FirstSeen.IsZero() {
		a.FirstSeen = time.Now().UTC()
	}
	if a.Chain == "" {
		a.Chain = "Solana"
	}
	return nil
}
