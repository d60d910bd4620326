package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/rrtrack/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":5000")
			convey.So(cfg.Timezone, convey.ShouldEqual, "Local")
			convey.So(cfg.UnknownMapFallback, convey.ShouldBeFalse)
			convey.So(cfg.RatePerSecond, convey.ShouldEqual, 2)
			convey.So(cfg.RatePerMinute, convey.ShouldEqual, 15)
			convey.So(cfg.RatePerHour, convey.ShouldEqual, 30)
			convey.So(cfg.RiotMatchCount, convey.ShouldEqual, 20)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("And the durations should be derived from milliseconds", func() {
			convey.So(cfg.RiotTimeout(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.RiotBreakerTimeout(), convey.ShouldEqual, 30*time.Second)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a valid config", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("When the timezone is unknown", func() {
			cfg.Timezone = "Mars/Olympus_Mons"

			convey.Convey("Then validation should fail", func() {
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "timezone")
			})
		})

		convey.Convey("When a named timezone is set", func() {
			cfg.Timezone = "UTC"

			convey.Convey("Then it should load", func() {
				loc, err := cfg.Location()
				convey.So(err, convey.ShouldBeNil)
				convey.So(loc, convey.ShouldEqual, time.UTC)
			})
		})

		convey.Convey("When a rate limit is zero", func() {
			cfg.RatePerMinute = 0

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When retries are negative", func() {
			cfg.RiotMaxRetries = -1

			convey.Convey("Then validation should fail", func() {
				convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the metrics refresh interval is zero", func() {
			cfg.MetricsRefreshMS = 0

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the metrics namespace is empty", func() {
			cfg.MetricsNamespace = ""

			convey.Convey("Then validation should fail", func() {
				convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the worker count is zero", func() {
			cfg.NormalizeWorkers = 0

			convey.Convey("Then validation should fail", func() {
				convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			})
		})
	})
}
