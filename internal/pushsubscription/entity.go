package pushsubscription

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Subscription is one registered browser push endpoint. The endpoint URL is
// the natural key for register and unregister; the ULID only names the
// storage document.
type Subscription struct {
	ID        string    `yaml:"id"`
	Endpoint  string    `yaml:"endpoint"`
	P256dhKey string    `yaml:"p256dh_key"`
	AuthKey   string    `yaml:"auth_key"`
	CreatedAt time.Time `yaml:"created_at"`
}

func New(endpoint, p256dhKey, authKey string) *Subscription {
	return &Subscription{
		ID:        ulid.Make().String(),
		Endpoint:  endpoint,
		P256dhKey: p256dhKey,
		AuthKey:   authKey,
		CreatedAt: time.Now(),
	}
}
