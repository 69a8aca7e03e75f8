package services

import (
	"testing"
	"time"

	"dutchthrift_server/database"
	"dutchthrift_server/database/memstore"
	"dutchthrift_server/structs"

	"github.com/MonkyMars/gecho"
)

func testLogger() *gecho.Logger {
	return gecho.NewLogger(gecho.NewConfig(gecho.WithShowCaller(false), gecho.WithLogLevel(gecho.ParseLogLevel("error"))))
}

func testConfig() *structs.Config {
	return &structs.Config{
		Server:    &structs.ServerConfig{AppName: "Dutch Thrift", Environment: "test", MaxBodyBytes: 1 << 20},
		Cors:      &structs.CorsConfig{},
		Database:  &structs.DatabaseConfig{},
		Cache:     &structs.CacheConfig{Enabled: false, TrackingTTL: time.Minute},
		RateLimit: &structs.RateLimitConfig{},
		Auth: &structs.AuthConfig{
			AccessTokenSecret: "test-secret",
			AccessTokenExpiry: time.Hour,
			PasswordTokenTTL:  time.Hour,
			Argon:             structs.ArgonParams{Memory: 1024, Time: 1, Threads: 1, KeyLen: 32, SaltLen: 16},
		},
		Email:    &structs.EmailConfig{},
		Analysis: &structs.AnalysisConfig{},
		Jobs:     &structs.JobsConfig{},
	}
}

func newTestServices(t *testing.T, store database.Storage, analyzer Analyzer) *ServiceManager {
	t.Helper()
	if store == nil {
		store = memstore.New()
	}
	return NewServiceManagerWith(testLogger(), testConfig(), store, analyzer)
}

func intakeRequest(email string, titles ...string) *structs.IntakeRequest {
	items := make([]structs.IntakeItem, len(titles))
	for i, title := range titles {
		items[i] = structs.IntakeItem{Title: title}
	}
	return &structs.IntakeRequest{
		Customer: structs.IntakeCustomer{Name: "Jane", Email: email},
		Items:    items,
	}
}

// sequence returns a generator that yields values in order and then
// repeats the last one.
func sequence(values ...string) func(time.Time) string {
	i := 0
	return func(time.Time) string {
		v := values[min(i, len(values)-1)]
		i++
		return v
	}
}
