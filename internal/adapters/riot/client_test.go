package riot_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/rrtrack/internal/adapters/riot"
	"github.com/okian/rrtrack/internal/domain/failure"
	"github.com/okian/rrtrack/internal/domain/model"
	"github.com/okian/rrtrack/internal/fakeriot"
	"github.com/okian/rrtrack/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func newClient(baseURL string, opts ...riot.Option) *riot.Client {
	base := []riot.Option{
		riot.WithAuthURL(baseURL),
		riot.WithEntitlementsURL(baseURL),
		riot.WithPDURLTemplate(baseURL),
		riot.WithRetries(2, time.Millisecond),
		riot.WithTimeout(2 * time.Second),
	}
	return riot.NewClient(append(base, opts...)...)
}

func TestClient_FetchMatchHistory(t *testing.T) {
	_ = logger.Init()

	Convey("Given a client pointed at a fake game service", t, func() {
		cfg := fakeriot.Config{
			Seed:         3,
			MatchCount:   20,
			UnknownEvery: 4,
			Now:          func() time.Time { return time.Date(2020, 7, 15, 0, 0, 0, 0, time.UTC) },
		}
		fake := fakeriot.NewServer(cfg)
		srv := httptest.NewServer(fake)
		defer srv.Close()
		ctx := context.Background()

		Convey("When the credentials are valid", func() {
			c := newClient(srv.URL, riot.WithMatchCount(10))
			events, err := c.FetchMatchHistory(ctx, model.Credentials{Username: "player", Password: "hunter2", Region: "NA"}, "203.0.113.9")

			Convey("Then the requested number of updates should come back", func() {
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 10)
				So(events, ShouldResemble, fakeriot.NewGenerator(cfg).History(fakeriot.Subject("player"), 10))
			})

			Convey("And the client address should be forwarded upstream", func() {
				So(fake.LastForwardedFor(), ShouldEqual, "203.0.113.9")
			})
		})

		Convey("When the password is rejected", func() {
			c := newClient(srv.URL)
			_, err := c.FetchMatchHistory(ctx, model.Credentials{Username: "player", Password: fakeriot.RejectedPassword, Region: "eu"}, "")

			Convey("Then it should be an authentication failure", func() {
				So(errors.Is(err, failure.ErrAuthentication), ShouldBeTrue)
				So(errors.Is(err, riot.ErrInvalidCredentials), ShouldBeTrue)
				So(failure.Message(err), ShouldEqual, "Login Error")
			})
		})

		Convey("When the region is not served", func() {
			c := newClient(srv.URL)
			_, err := c.FetchMatchHistory(ctx, model.Credentials{Username: "player", Password: "pw", Region: "moon"}, "")

			Convey("Then login should fail before any request", func() {
				So(errors.Is(err, failure.ErrAuthentication), ShouldBeTrue)
				So(errors.Is(err, riot.ErrUnsupportedRegion), ShouldBeTrue)
			})
		})
	})

	Convey("Given a game service whose history endpoint is briefly down", t, func() {
		srv := httptest.NewServer(fakeriot.NewServer(fakeriot.Config{Seed: 1, MatchCount: 5, FailFetches: 2}))
		defer srv.Close()

		Convey("When the retry budget covers the outage", func() {
			c := newClient(srv.URL)
			events, err := c.FetchMatchHistory(context.Background(), model.Credentials{Username: "p", Password: "pw", Region: "ap"}, "")

			Convey("Then the fetch should succeed after retrying", func() {
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 5)
			})
		})
	})

	Convey("Given a game service whose history endpoint stays down", t, func() {
		srv := httptest.NewServer(fakeriot.NewServer(fakeriot.Config{Seed: 1, MatchCount: 5, FailFetches: 1000}))
		defer srv.Close()
		c := newClient(srv.URL, riot.WithRetries(0, time.Millisecond), riot.WithBreaker(2, time.Minute))
		creds := model.Credentials{Username: "p", Password: "pw", Region: "kr"}

		Convey("When fetching repeatedly", func() {
			var errs []error
			for i := 0; i < 3; i++ {
				_, err := c.FetchMatchHistory(context.Background(), creds, "")
				errs = append(errs, err)
			}

			Convey("Then each attempt should be a fetch failure", func() {
				for _, err := range errs {
					So(errors.Is(err, failure.ErrFetch), ShouldBeTrue)
					So(failure.Message(err), ShouldEqual, "Cannot get matches")
				}
			})

			Convey("And the breaker should open after the threshold", func() {
				So(errors.Is(errs[0], riot.ErrUnexpectedStatus), ShouldBeTrue)
				So(errors.Is(errs[2], riot.ErrUnexpectedStatus), ShouldBeFalse)
				So(errs[2].Error(), ShouldContainSubstring, "circuit breaker is open")
			})
		})
	})

	Convey("Given a game service that returns a non-retryable error", t, func() {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		Convey("When logging in", func() {
			c := newClient(srv.URL)
			_, err := c.FetchMatchHistory(context.Background(), model.Credentials{Username: "p", Password: "pw", Region: "na"}, "")

			Convey("Then it should fail without retrying", func() {
				So(errors.Is(err, failure.ErrAuthentication), ShouldBeTrue)
				So(errors.Is(err, riot.ErrUnexpectedStatus), ShouldBeTrue)
				So(calls.Load(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a game service that answers slowly", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(150 * time.Millisecond):
			}
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()
		hc := srv.Client()
		hc.Timeout = 30 * time.Millisecond
		creds := model.Credentials{Username: "p", Password: "pw", Region: "na"}
		base := []riot.Option{
			riot.WithAuthURL(srv.URL),
			riot.WithEntitlementsURL(srv.URL),
			riot.WithPDURLTemplate(srv.URL),
			riot.WithRetries(0, time.Millisecond),
		}

		Convey("When the base HTTP client carries its own timeout", func() {
			c := riot.NewClient(append(base, riot.WithHTTPClient(hc))...)
			start := time.Now()
			_, err := c.FetchMatchHistory(context.Background(), creds, "")

			Convey("Then that timeout should cut the request short", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, riot.ErrUnexpectedStatus), ShouldBeFalse)
				So(time.Since(start), ShouldBeLessThan, 140*time.Millisecond)
			})
		})

		Convey("When an explicit timeout is also given", func() {
			c := riot.NewClient(append(base, riot.WithTimeout(2*time.Second), riot.WithHTTPClient(hc))...)
			_, err := c.FetchMatchHistory(context.Background(), creds, "")

			Convey("Then the explicit timeout should win", func() {
				So(errors.Is(err, failure.ErrAuthentication), ShouldBeTrue)
				So(errors.Is(err, riot.ErrUnexpectedStatus), ShouldBeTrue)
			})
		})
	})

	Convey("Given a cancelled context", t, func() {
		srv := httptest.NewServer(fakeriot.NewServer(fakeriot.DefaultConfig()))
		defer srv.Close()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("When fetching", func() {
			_, err := newClient(srv.URL).FetchMatchHistory(ctx, model.Credentials{Username: "p", Password: "pw", Region: "na"}, "")

			Convey("Then the cancellation should surface", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}
