package rediscache

import "time"

// Config holds the Redis connection settings for the lookup cache.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL,required"`                     // ConnectionURL is the redis connection string.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"5s"`  // ConnectTimeout bounds the initial connection.
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`    // RetryAttempts is the number of connection attempts.
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`   // RetryInterval is the interval between attempts.
	LookupTTL      time.Duration `env:"REDIS_LOOKUP_TTL" envDefault:"24h"`      // LookupTTL is how long code lookup results stay cached.
	KeyPrefix      string        `env:"REDIS_KEY_PREFIX" envDefault:"formqc:"`  // KeyPrefix namespaces cache keys.
}
