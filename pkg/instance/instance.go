package instance

import "github.com/angelmondragon/storefront-cart/pkg/env"

// GetID returns the process instance identifier or "local".
func GetID() string {
	return env.First("local", "STOREFRONT_INSTANCE_ID", "DYNO", "HOSTNAME")
}
