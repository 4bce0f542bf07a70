package analytics

import (
	"context"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"go.uber.org/zap"

	"bokfor/internal/database/dbtest"
	"bokfor/internal/models"
	"bokfor/internal/services"
)

func TestTrackRejectsBadInput(t *testing.T) {
	c := qt.New(t)
	s := New(nil, zap.NewNop().Sugar())
	ctx := context.Background()

	for _, name := range []string{"", "Page View", "x" + strings.Repeat("y", 100), "ok;drop"} {
		_, ok := services.AsValidation(s.Track(ctx, nil, name, nil))
		c.Assert(ok, qt.IsTrue, qt.Commentf("event %q", name))
	}
	big := map[string]any{"blob": strings.Repeat("a", maxPropertiesBytes)}
	_, ok := services.AsValidation(s.Track(ctx, nil, "page_view", big))
	c.Assert(ok, qt.IsTrue)
}

func TestTrackAndQuery(t *testing.T) {
	c := qt.New(t)
	db := dbtest.New(t)
	s := New(db, zap.NewNop().Sugar())
	ctx := context.Background()

	u := models.User{Email: "olle@example.se", PasswordHash: "x"}
	c.Assert(db.Create(&u).Error, qt.IsNil)

	c.Assert(s.Track(ctx, &u.ID, "invoice_created", map[string]any{"rader": 3}), qt.IsNil)
	c.Assert(s.Track(ctx, &u.ID, "invoice_created", nil), qt.IsNil)
	c.Assert(s.Track(ctx, nil, "page_view", map[string]any{"path": "/"}), qt.IsNil)

	all, err := s.Query(ctx, Filter{})
	c.Assert(err, qt.IsNil)
	c.Assert(all.Events, qt.HasLen, 3)
	c.Assert(all.PerDag, qt.HasLen, 1)
	c.Assert(all.PerDag[0].Antal, qt.Equals, int64(3))
	c.Assert(all.PerUser, qt.DeepEquals, []UserCount{{UserID: u.ID, Email: u.Email, Antal: 2}})
	c.Assert(all.PerEvent[0], qt.DeepEquals, EventCount{Event: "invoice_created", Antal: 2})

	one, err := s.Query(ctx, Filter{Event: "page_view"})
	c.Assert(err, qt.IsNil)
	c.Assert(one.Events, qt.HasLen, 1)
	c.Assert(one.Events[0].UserID, qt.IsNil)
}
