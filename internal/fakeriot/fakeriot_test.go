package fakeriot_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/rrtrack/internal/domain/lookup"
	"github.com/okian/rrtrack/internal/domain/model"
	"github.com/okian/rrtrack/internal/fakeriot"
	. "github.com/smartystreets/goconvey/convey"
)

var fixedNow = func() time.Time { return time.Date(2020, 7, 15, 12, 0, 0, 0, time.UTC) }

func TestGenerator_History(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		cfg := fakeriot.Config{Seed: 7, MatchCount: 20, UnknownEvery: 5, Now: fixedNow}
		gen := fakeriot.NewGenerator(cfg)
		subject := fakeriot.Subject("player")

		Convey("When generating the same subject twice", func() {
			a := gen.History(subject, 20)
			b := fakeriot.NewGenerator(cfg).History(subject, 20)

			Convey("Then the histories should be identical", func() {
				So(a, ShouldResemble, b)
			})
		})

		Convey("When generating a full history", func() {
			h := gen.History(subject, -1)

			Convey("Then it should be newest first", func() {
				So(len(h), ShouldEqual, 20)
				for i := 1; i < len(h); i++ {
					So(h[i-1].MatchStartTime, ShouldBeGreaterThan, h[i].MatchStartTime)
				}
			})

			Convey("And every fifth match should be unresolved", func() {
				unknown := 0
				for _, ev := range h {
					if ev.CompetitiveMovement == model.MovementUnknown {
						unknown++
					}
				}
				So(unknown, ShouldEqual, 4)
			})

			Convey("And every map and resolved movement should be a known one", func() {
				known := lookup.Movements()
				for _, ev := range h {
					_, err := lookup.MapName(ev.MapID)
					So(err, ShouldBeNil)
					if ev.CompetitiveMovement == model.MovementUnknown {
						continue
					}
					So(known, ShouldContainKey, ev.CompetitiveMovement)
				}
			})

			Convey("And progress should stay within a tier", func() {
				for _, ev := range h {
					if ev.CompetitiveMovement == model.MovementUnknown {
						continue
					}
					So(ev.TierProgressAfterUpdate, ShouldBeBetweenOrEqual, 0, 99)
					So(ev.TierProgressBeforeUpdate, ShouldBeBetweenOrEqual, 0, 99)
				}
			})
		})

		Convey("When a limit is given", func() {
			Convey("Then at most that many matches should be returned", func() {
				So(len(gen.History(subject, 3)), ShouldEqual, 3)
				So(len(gen.History(subject, 0)), ShouldEqual, 0)
			})
		})
	})
}

func TestServer_Login(t *testing.T) {
	Convey("Given a fake game service", t, func() {
		srv := httptest.NewServer(fakeriot.NewServer(fakeriot.Config{Seed: 1, MatchCount: 5, Now: fixedNow}))
		defer srv.Close()

		Convey("When credentials are sent without a session cookie", func() {
			req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/v1/authorization",
				strings.NewReader(`{"type":"auth","username":"u","password":"p"}`))
			resp, err := http.DefaultClient.Do(req)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the request should be rejected", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When user info is requested without a token", func() {
			resp, err := http.Post(srv.URL+"/userinfo", "application/json", nil)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should be unauthorized", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusUnauthorized)
			})
		})

		Convey("When updates are requested with a token for another player", func() {
			req, _ := http.NewRequest(http.MethodGet,
				srv.URL+"/mmr/v1/players/"+fakeriot.Subject("a")+"/competitiveupdates", nil)
			req.Header.Set("Authorization", "Bearer at-"+fakeriot.Subject("b"))
			resp, err := http.DefaultClient.Do(req)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the claims should be refused", func() {
				var body map[string]string
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(body["errorCode"], ShouldEqual, "BAD_CLAIMS")
			})
		})
	})
}

func TestSubject(t *testing.T) {
	Convey("Given usernames differing only in case", t, func() {
		Convey("Then they should share a subject", func() {
			So(fakeriot.Subject("Player"), ShouldEqual, fakeriot.Subject("player"))
			So(fakeriot.Subject("player"), ShouldNotEqual, fakeriot.Subject("other"))
		})
	})
}
