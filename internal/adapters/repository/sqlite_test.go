package repository_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/gwrank/internal/adapters/repository"
	"github.com/okian/gwrank/internal/domain/model"
	"github.com/okian/gwrank/internal/domain/pattern"
	"github.com/okian/gwrank/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func openTemp(t *testing.T) (*repository.SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gw.sqlite")
	s, err := repository.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func entry(num int, id int64, name string, rank int, points int64, seed bool) model.Entry {
	return model.Entry{EventNum: num, GuildID: id, Name: name, Rank: rank, Points: model.Int64Ptr(points), IsSeed: seed}
}

func load(ctx context.Context, s repository.Store, entries ...model.Entry) error {
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := tx.Upsert(ctx, e); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func TestSQLiteStore_Empty(t *testing.T) {
	Convey("Given a freshly created store", t, func() {
		ctx := context.Background()
		s, _ := openTemp(t)

		Convey("EventRange reports no data", func() {
			_, err := s.EventRange(ctx)
			So(err, ShouldEqual, repository.ErrNoData)
		})

		Convey("Stats reports an empty dataset", func() {
			st, err := s.Stats(ctx)
			So(err, ShouldBeNil)
			So(st.HasData, ShouldBeFalse)
			So(st.Rows, ShouldEqual, 0)
			So(st.Participants, ShouldEqual, 0)
		})

		Convey("Reads return no rows", func() {
			rows, err := s.Event(ctx, 1)
			So(err, ShouldBeNil)
			So(rows, ShouldBeEmpty)

			rows, err = s.SearchByName(ctx, pattern.Escape("a"))
			So(err, ShouldBeNil)
			So(rows, ShouldBeEmpty)
		})
	})
}

func TestSQLiteStore_ReadWrite(t *testing.T) {
	Convey("Given a store with two events", t, func() {
		ctx := context.Background()
		s, _ := openTemp(t)

		So(load(ctx, s,
			entry(1, 10, "Alpha", 2, 900, false),
			entry(1, 20, "Beta", 1, 1000, false),
			entry(1, 30, "Gamma", 3, 800, false),
		), ShouldBeNil)
		So(load(ctx, s,
			entry(2, 10, "Alpha Prime", 1, 0, true),
			entry(2, 20, "Beta", 2, 500, false),
			model.Entry{EventNum: 2, GuildID: 40, Name: "Delta", Rank: 1},
		), ShouldBeNil)

		Convey("EventRange spans both events", func() {
			r, err := s.EventRange(ctx)
			So(err, ShouldBeNil)
			So(r, ShouldResemble, model.EventRange{Min: 1, Max: 2})
		})

		Convey("Event lists seed rows first, then by rank", func() {
			rows, err := s.Event(ctx, 2)
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 3)
			So(rows[0].GuildID, ShouldEqual, 10)
			So(rows[0].IsSeed, ShouldBeTrue)
			So(rows[1].GuildID, ShouldEqual, 40)
			So(rows[2].GuildID, ShouldEqual, 20)
		})

		Convey("Missing points come back as nil", func() {
			rows, err := s.History(ctx, 40)
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 1)
			So(rows[0].Points, ShouldBeNil)
		})

		Convey("History is newest first", func() {
			rows, err := s.History(ctx, 10)
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 2)
			So(rows[0].EventNum, ShouldEqual, 2)
			So(rows[0].Name, ShouldEqual, "Alpha Prime")
			So(rows[1].EventNum, ShouldEqual, 1)
			So(*rows[1].Points, ShouldEqual, 900)
		})

		Convey("Search matches any historical name of current participants", func() {
			rows, err := s.SearchByName(ctx, pattern.Escape("alpha"))
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 2)
			So(rows[0].EventNum, ShouldEqual, 2)
			So(rows[1].EventNum, ShouldEqual, 1)
		})

		Convey("Search skips guilds absent from the latest event", func() {
			rows, err := s.SearchByName(ctx, pattern.Escape("gamma"))
			So(err, ShouldBeNil)
			So(rows, ShouldBeEmpty)
		})

		Convey("Search orders by guild id then newest event", func() {
			rows, err := s.SearchByName(ctx, pattern.Escape("a"))
			So(err, ShouldBeNil)
			var ids []int64
			for _, r := range rows {
				ids = append(ids, r.GuildID)
			}
			So(ids, ShouldResemble, []int64{10, 10, 20, 20, 40})
		})

		Convey("Upserting an existing key overwrites it", func() {
			So(load(ctx, s, entry(2, 20, "Beta Renamed", 5, 42, false)), ShouldBeNil)
			rows, err := s.History(ctx, 20)
			So(err, ShouldBeNil)
			So(rows[0].Name, ShouldEqual, "Beta Renamed")
			So(rows[0].Rank, ShouldEqual, 5)

			st, err := s.Stats(ctx)
			So(err, ShouldBeNil)
			So(st.Rows, ShouldEqual, 6)
			So(st.Participants, ShouldEqual, 3)
			So(st.Range, ShouldResemble, model.EventRange{Min: 1, Max: 2})
		})

		Convey("A rolled back transaction leaves no trace", func() {
			tx, err := s.Begin(ctx)
			So(err, ShouldBeNil)
			So(tx.Upsert(ctx, entry(3, 10, "Alpha", 1, 1, false)), ShouldBeNil)
			So(tx.Rollback(), ShouldBeNil)

			r, err := s.EventRange(ctx)
			So(err, ShouldBeNil)
			So(r.Max, ShouldEqual, 2)
		})
	})
}

func TestSQLiteStore_LiteralWildcards(t *testing.T) {
	Convey("Given names containing LIKE metacharacters", t, func() {
		ctx := context.Background()
		s, _ := openTemp(t)
		So(load(ctx, s,
			entry(1, 1, "100% Club", 1, 10, false),
			entry(1, 2, "1000 Club", 2, 9, false),
			entry(1, 3, "under_score", 3, 8, false),
			entry(1, 4, "underXscore", 4, 7, false),
		), ShouldBeNil)

		Convey("Percent is matched literally", func() {
			rows, err := s.SearchByName(ctx, pattern.Escape("0%"))
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 1)
			So(rows[0].GuildID, ShouldEqual, 1)
		})

		Convey("Underscore is matched literally", func() {
			rows, err := s.SearchByName(ctx, pattern.Escape("r_s"))
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 1)
			So(rows[0].GuildID, ShouldEqual, 3)
		})
	})
}

func TestSQLiteStore_Backup(t *testing.T) {
	Convey("Given a store with one committed event", t, func() {
		ctx := context.Background()
		s, path := openTemp(t)
		So(load(ctx, s, entry(1, 10, "Alpha", 1, 100, false)), ShouldBeNil)

		Convey("A backup taken during an open write holds only committed rows", func() {
			tx, err := s.Begin(ctx)
			So(err, ShouldBeNil)
			So(tx.Upsert(ctx, entry(2, 10, "Alpha", 1, 200, false)), ShouldBeNil)

			dest := path + ".backup"
			So(s.Backup(ctx, dest), ShouldBeNil)
			So(tx.Commit(), ShouldBeNil)

			_, err = os.Stat(dest)
			So(err, ShouldBeNil)

			copyStore, err := repository.Open(ctx, dest)
			So(err, ShouldBeNil)
			defer copyStore.Close()

			r, err := copyStore.EventRange(ctx)
			So(err, ShouldBeNil)
			So(r, ShouldResemble, model.EventRange{Min: 1, Max: 1})

			r, err = s.EventRange(ctx)
			So(err, ShouldBeNil)
			So(r.Max, ShouldEqual, 2)
		})

		Convey("Backing up onto an existing file fails", func() {
			dest := filepath.Join(filepath.Dir(path), "taken")
			So(os.WriteFile(dest, []byte("x"), 0o600), ShouldBeNil)
			So(errors.Is(s.Backup(ctx, dest), fs.ErrExist), ShouldBeTrue)

			content, err := os.ReadFile(dest)
			So(err, ShouldBeNil)
			So(string(content), ShouldEqual, "x")
		})

		Convey("Backing up twice onto the same name keeps the first copy", func() {
			dest := filepath.Join(filepath.Dir(path), "snap")
			So(s.Backup(ctx, dest), ShouldBeNil)
			before, err := os.ReadFile(dest)
			So(err, ShouldBeNil)

			So(errors.Is(s.Backup(ctx, dest), fs.ErrExist), ShouldBeTrue)
			after, err := os.ReadFile(dest)
			So(err, ShouldBeNil)
			So(after, ShouldResemble, before)
		})
	})
}

func TestSQLiteStore_Close(t *testing.T) {
	Convey("Given a closed store", t, func() {
		ctx := context.Background()
		s, _ := openTemp(t)
		So(s.Close(), ShouldBeNil)

		Convey("Operations report ErrClosed", func() {
			_, err := s.EventRange(ctx)
			So(err, ShouldEqual, repository.ErrClosed)
			_, err = s.Begin(ctx)
			So(err, ShouldEqual, repository.ErrClosed)
			So(s.Backup(ctx, "x"), ShouldEqual, repository.ErrClosed)
		})

		Convey("Closing again is a no-op", func() {
			So(s.Close(), ShouldBeNil)
		})
	})
}
