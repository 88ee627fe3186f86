package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMongoConfig_Defaults(t *testing.T) {
	cfg := MongoConfig{URI: "mongodb://localhost:27017", Database: "carts"}.withDefaults()

	assert.Equal(t, uint64(100), cfg.MaxPoolSize)
	assert.Equal(t, uint64(10), cfg.MinPoolSize)
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 5*time.Second, cfg.ServerSelectionTimeout)
}

func TestMongoConfig_Overrides(t *testing.T) {
	cfg := MongoConfig{
		MaxPoolSize:            25,
		MinPoolSize:            2,
		ConnectTimeout:         time.Second,
		ServerSelectionTimeout: 2 * time.Second,
	}.withDefaults()

	assert.Equal(t, uint64(25), cfg.MaxPoolSize)
	assert.Equal(t, uint64(2), cfg.MinPoolSize)
	assert.Equal(t, time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 2*time.Second, cfg.ServerSelectionTimeout)
}
