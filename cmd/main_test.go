package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/rrtrack/internal/config"
	"github.com/okian/rrtrack/internal/fakeriot"
	"github.com/okian/rrtrack/pkg/logger"
	"github.com/okian/rrtrack/pkg/metrics"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestBuildRouter(t *testing.T) {
	convey.Convey("Given a config pointed at a fake game service", t, func() {
		fake := httptest.NewServer(fakeriot.NewServer(fakeriot.Config{Seed: 5, MatchCount: 8, UnknownEvery: 3}))
		defer fake.Close()

		ctx := context.Background()
		cfg := config.New(ctx)
		cfg.Timezone = "UTC"
		cfg.RiotAuthURL = fake.URL
		cfg.RiotEntitlementsURL = fake.URL
		cfg.RiotPDURLTemplate = fake.URL
		cfg.RiotMatchCount = 8
		cfg.UnknownMapFallback = true

		router, limiter, err := buildRouter(ctx, cfg)
		convey.So(err, convey.ShouldBeNil)
		convey.So(limiter, convey.ShouldNotBeNil)

		convey.Convey("When looking up matches through the router", func() {
			req := httptest.NewRequest(http.MethodPost, "/matches",
				strings.NewReader(`{"username":"player","password":"pw","region":"na"}`))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			convey.Convey("Then the resolved records should be returned", func() {
				var body struct {
					Success bool              `json:"success"`
					Message []json.RawMessage `json:"message"`
				}
				convey.So(json.Unmarshal(w.Body.Bytes(), &body), convey.ShouldBeNil)
				convey.So(body.Success, convey.ShouldBeTrue)
				convey.So(len(body.Message), convey.ShouldEqual, 6)
			})
		})

		convey.Convey("When requesting the docs", func() {
			req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			convey.Convey("Then they should be served", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			})
		})
	})

	convey.Convey("Given a config with an unknown timezone", t, func() {
		cfg := config.New(context.Background())
		cfg.Timezone = "Nowhere/Special"

		convey.Convey("Then the router should not be built", func() {
			_, _, err := buildRouter(context.Background(), cfg)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When the system metrics updater's context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			convey.Convey("Then it should return", func() {
				done := make(chan struct{})
				go func() {
					startSystemMetricsUpdater(ctx)
					close(done)
				}()
				select {
				case <-done:
				case <-time.After(2 * time.Second):
					t.Fatal("system metrics updater did not stop")
				}
			})
		})

		convey.Convey("When testing system metrics update", func() {
			convey.Convey("Then it should update metrics without panicking", func() {
				convey.So(func() {
					updateSystemMetrics()
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When metrics settings are applied", func() {
			defer metrics.Configure()
			cfg := config.New(context.Background())
			cfg.MetricsNamespace = "cmdtest"
			cfg.MetricsRefreshMS = 1500
			applyMetrics(cfg)
			metrics.RecordFailure("fetch")

			convey.Convey("Then the global registry should use them", func() {
				convey.So(metrics.RefreshInterval(), convey.ShouldEqual, 1500*time.Millisecond)
				families, err := metrics.GetRegistry().Gather()
				convey.So(err, convey.ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				convey.So(names, convey.ShouldContain, "cmdtest_matches_failures_total")
			})
		})

		convey.Convey("When logging settings are invalid", func() {
			cfg := config.New(context.Background())
			cfg.LogFormat = "xml"
			cfg.LogLevel = "loud"

			convey.Convey("Then applying them should fall back without panicking", func() {
				convey.So(func() {
					applyLogging(context.Background(), cfg)
				}, convey.ShouldNotPanic)
			})
		})
	})
}
