package commands

import (
	"fmt"
	"sync"
	"time"
)

// ConfigPersister implements the auth.ConfigPersister interface.
type ConfigPersister struct {
	mutex sync.Mutex
}

// NewConfigPersister creates a new config persister.
func NewConfigPersister() *ConfigPersister {
	return &ConfigPersister{}
}

// UpdateInstanceToken updates the access token and related metadata for an
// instance in the config file.
func (p *ConfigPersister) UpdateInstanceToken(instanceName, token string, expiresAt time.Time, refreshToken string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	config := loadConfig()

	instance, exists := config.Instances[instanceName]
	if !exists {
		return fmt.Errorf("instance configuration for '%s': %w", instanceName, ErrInstanceNotFound)
	}

	instance.Token = token
	if !expiresAt.IsZero() {
		instance.TokenExpiresAt = &expiresAt
	}

	if refreshToken != "" {
		instance.RefreshToken = refreshToken
	}

	now := time.Now()
	instance.LastRefreshed = &now

	return saveConfigStruct(config)
}
