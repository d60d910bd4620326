package smoke_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/rrtrack/internal/adapters/http/api"
	"github.com/okian/rrtrack/internal/adapters/riot"
	service "github.com/okian/rrtrack/internal/app"
	"github.com/okian/rrtrack/internal/domain/history"
	"github.com/okian/rrtrack/internal/domain/normalize"
	"github.com/okian/rrtrack/internal/fakeriot"
	"github.com/okian/rrtrack/internal/smoke"
	"github.com/okian/rrtrack/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newStack() (*httptest.Server, *httptest.Server) {
	fake := httptest.NewServer(fakeriot.NewServer(fakeriot.Config{Seed: 9, MatchCount: 10, UnknownEvery: 4}))
	client := riot.NewClient(
		riot.WithAuthURL(fake.URL),
		riot.WithEntitlementsURL(fake.URL),
		riot.WithPDURLTemplate(fake.URL),
		riot.WithMatchCount(10),
	)
	svc := service.New(
		service.WithFetcher(client),
		service.WithBuilder(history.NewBuilder(normalize.New(normalize.WithLocation(time.UTC)), history.WithWorkers(2))),
	)
	app := httptest.NewServer(api.NewServer(svc).Router())
	return fake, app
}

func TestRun(t *testing.T) {
	Convey("Given a running service backed by a fake game service", t, func() {
		fake, app := newStack()
		defer fake.Close()
		defer app.Close()

		Convey("When a smoke run looks up several accounts", func() {
			stats, err := smoke.Run(context.Background(), &smoke.Config{
				BaseURL:  app.URL,
				Accounts: 6,
				Workers:  3,
				Timeout:  5 * time.Second,
				Region:   "na",
				Seed:     1,
			})

			Convey("Then every lookup should succeed with verified records", func() {
				So(err, ShouldBeNil)
				So(stats.Lookups, ShouldEqual, 6)
				So(stats.Successful, ShouldEqual, 6)
				So(stats.Failed, ShouldEqual, 0)
				So(stats.Records, ShouldEqual, 6*8)
			})
		})
	})

	Convey("Given a paced smoke run", t, func() {
		fake, app := newStack()
		defer fake.Close()
		defer app.Close()

		stats, err := smoke.Run(context.Background(), &smoke.Config{
			BaseURL:  app.URL,
			Accounts: 3,
			Workers:  3,
			Rate:     50,
			Timeout:  5 * time.Second,
			Region:   "na",
			Seed:     2,
		})

		Convey("Then lookups should be spread out and still succeed", func() {
			So(err, ShouldBeNil)
			So(stats.Successful, ShouldEqual, 3)
			So(stats.Duration, ShouldBeGreaterThanOrEqualTo, 30*time.Millisecond)
		})
	})

	Convey("Given no service at the base URL", t, func() {
		Convey("When running", func() {
			_, err := smoke.Run(context.Background(), &smoke.Config{
				BaseURL:  "http://127.0.0.1:1",
				Accounts: 1,
				Timeout:  time.Second,
				Region:   "na",
			})

			Convey("Then the health check should fail", func() {
				So(errors.Is(err, smoke.ErrUnhealthy), ShouldBeTrue)
			})
		})
	})
}

func TestVerifyRecords(t *testing.T) {
	Convey("Given records", t, func() {
		ok := smoke.Record{PointChange: "+12", GameOutcome: "Victory", Movement: "Increase", Date: "07-15-2020", GameMap: "bind", Tier: 10}

		Convey("When they are newest first", func() {
			older := ok
			older.Date = "07-14-2020"
			older.PointChange = "-8"
			So(smoke.VerifyRecords([]smoke.Record{ok, older}), ShouldBeNil)
		})

		Convey("When an older record comes first", func() {
			newer := ok
			newer.Date = "07-16-2020"
			err := smoke.VerifyRecords([]smoke.Record{ok, newer})
			So(errors.Is(err, smoke.ErrBadResponse), ShouldBeTrue)
		})

		Convey("When a point change is malformed", func() {
			bad := ok
			bad.PointChange = "+-5"
			So(smoke.VerifyRecords([]smoke.Record{bad}), ShouldNotBeNil)
		})

		Convey("When the outcome is unknown", func() {
			bad := ok
			bad.GameOutcome = "Win"
			So(smoke.VerifyRecords([]smoke.Record{bad}), ShouldNotBeNil)
		})
	})
}
