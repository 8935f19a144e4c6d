package internal_test

import (
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/qnxg/yqwork/internal"
)

func TestInternal(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Internal Suite")
}

func validConfig() *internal.Config {
	return &internal.Config{
		Env: "development",
		Server: internal.ServerConfig{
			Port:              8080,
			AllowedOrigins:    "https://yq.example.edu, *",
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
		},
		Database: internal.DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			Source:          "postgres://localhost/yqwork",
		},
		Redis: internal.RedisConfig{Addr: "localhost:6379"},
		Security: internal.SecurityConfig{
			JWTAccessSecret:      "access-secret-access-secret-access-secret",
			JWTRefreshSecret:     "refresh-secret-refresh-secret-refresh-secret",
			AccessTokenDuration:  30 * time.Minute,
			RefreshTokenDuration: 24 * time.Hour,
			BCryptCost:           10,
		},
		RateLimit: internal.RateLimitConfig{LoginRequestsPerMinute: 10},
		Observability: internal.ObservabilityConfig{
			Metrics: internal.MetricsConfig{Enabled: true, Path: "/metrics"},
			Logging: internal.LoggingConfig{Level: "info", Format: "json"},
		},
	}
}

var _ = Describe("Config", func() {
	It("accepts a complete configuration", func() {
		Expect(validConfig().Validate()).To(Succeed())
	})

	It("splits allowed origins", func() {
		cfg := validConfig()
		Expect(cfg.Server.Origins()).To(Equal([]string{"https://yq.example.edu", "*"}))
	})

	It("aggregates errors from every section", func() {
		cfg := validConfig()
		cfg.Database.MaxIdleConns = 50
		cfg.Security.JWTRefreshSecret = cfg.Security.JWTAccessSecret
		cfg.Observability.Logging.Level = "verbose"

		err := cfg.Validate()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("max_idle_conns"))
		Expect(err.Error()).To(ContainSubstring("secrets must differ"))
		Expect(err.Error()).To(ContainSubstring("Level"))
	})

	It("rejects short jwt secrets", func() {
		cfg := validConfig()
		cfg.Security.JWTAccessSecret = "short"
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("JWTAccessSecret")))
	})

	It("requires refresh tokens to outlive access tokens", func() {
		cfg := validConfig()
		cfg.Security.RefreshTokenDuration = 10 * time.Minute
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("refresh_token_duration")))
	})

	Context("from the environment", func() {
		setenv := func(key, value string) {
			prev, had := os.LookupEnv(key)
			Expect(os.Setenv(key, value)).To(Succeed())
			DeferCleanup(func() {
				if had {
					_ = os.Setenv(key, prev)
				} else {
					_ = os.Unsetenv(key)
				}
			})
		}

		It("fills defaults and reads nested sections", func() {
			setenv("DATABASE_SOURCE", "postgres://db/yqwork")
			setenv("SECURITY_JWT_ACCESS_SECRET", "access-secret-access-secret-access-secret")
			setenv("SECURITY_JWT_REFRESH_SECRET", "refresh-secret-refresh-secret-refresh-secret")
			setenv("RATE_LIMIT_LOGIN_RPM", "3")

			cfg, err := internal.LoadConfigFromEnv()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Database.Source).To(Equal("postgres://db/yqwork"))
			Expect(cfg.Server.Port).To(Equal(8080))
			Expect(cfg.Security.AccessTokenDuration).To(Equal(30 * time.Minute))
			Expect(cfg.RateLimit.LoginRequestsPerMinute).To(Equal(3))
			Expect(cfg.Observability.Metrics.Path).To(Equal("/metrics"))
			Expect(cfg.Validate()).To(Succeed())
		})
	})
})
