package main

import (
	"fmt"
	"time"

	"github.com/dmitrymomot/mailrelay/pkg/email"
	"github.com/dmitrymomot/mailrelay/pkg/httpserver"
	"github.com/dmitrymomot/mailrelay/pkg/mongo"
	"github.com/dmitrymomot/mailrelay/pkg/redis"
)

// Delivery log backends.
const (
	storeAuto   = "auto"
	storeMongo  = "mongo"
	storeRedis  = "redis"
	storeMemory = "memory"
)

type appConfig struct {
	Email email.Config
	Mongo mongo.Config
	Redis redis.Config
	HTTP  httpserver.Config

	// LogStore selects the delivery log backend. auto prefers MongoDB, then Redis, then memory.
	LogStore      string        `env:"DELIVERY_LOG_STORE" envDefault:"auto"`
	LogCollection string        `env:"DELIVERY_LOG_COLLECTION" envDefault:"email_logs"`
	LogTTL        time.Duration `env:"DELIVERY_LOG_TTL" envDefault:"720h"`
	ReadyTimeout  time.Duration `env:"READY_CHECK_TIMEOUT" envDefault:"3s"`

	// SubmitLimit submissions per SubmitWindow are accepted from one client address.
	SubmitLimit  int           `env:"SUBMISSION_RATE_LIMIT" envDefault:"5"`
	SubmitWindow time.Duration `env:"SUBMISSION_RATE_WINDOW" envDefault:"1m"`
}

// logStore resolves auto against the configured connections.
func (c appConfig) logStore() (string, error) {
	switch c.LogStore {
	case storeAuto, "":
		switch {
		case c.Mongo.Enabled():
			return storeMongo, nil
		case c.Redis.Enabled():
			return storeRedis, nil
		default:
			return storeMemory, nil
		}
	case storeMongo:
		if !c.Mongo.Enabled() {
			return "", fmt.Errorf("DELIVERY_LOG_STORE=mongo requires MONGODB_URL")
		}
		return storeMongo, nil
	case storeRedis:
		if !c.Redis.Enabled() {
			return "", fmt.Errorf("DELIVERY_LOG_STORE=redis requires REDIS_URL")
		}
		return storeRedis, nil
	case storeMemory:
		return storeMemory, nil
	default:
		return "", fmt.Errorf("unknown DELIVERY_LOG_STORE %q", c.LogStore)
	}
}
