package batch_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/okian/gwrank/internal/domain/batch"
	"github.com/okian/gwrank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Given a well-formed batch", t, func() {
		text := "1, Foo , 5000, 7, 0\n2,Bar,4000,8,1\r\n3,\"Baz, Inc\",,9,false\n"

		Convey("When parsing", func() {
			entries, err := batch.Parse(text)

			Convey("Then every record becomes an entry", func() {
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 3)
			})

			Convey("And fields are trimmed and typed", func() {
				So(entries[0], ShouldResemble, model.Entry{GuildID: 7, Name: "Foo", Rank: 1, Points: model.Int64Ptr(5000)})
				So(entries[1].IsSeed, ShouldBeTrue)
			})

			Convey("And quoted names and empty points are accepted", func() {
				So(entries[2].Name, ShouldEqual, "Baz, Inc")
				So(entries[2].Points, ShouldBeNil)
				So(entries[2].IsSeed, ShouldBeFalse)
			})
		})
	})

	Convey("Given a batch with one short record among valid ones", t, func() {
		lines := []string{}
		for i := 1; i <= 9; i++ {
			lines = append(lines, "1,Foo,10,"+string(rune('0'+i))+",0")
		}
		lines = append(lines, "10,Broken,10,99")
		_, err := batch.Parse(strings.Join(lines, "\n"))

		Convey("Then the whole batch fails with a field count error", func() {
			So(errors.Is(err, batch.ErrFieldCount), ShouldBeTrue)
			var le *batch.LineError
			So(errors.As(err, &le), ShouldBeTrue)
			So(le.Line, ShouldEqual, 10)
		})
	})

	Convey("Given records with too many fields", t, func() {
		_, err := batch.Parse("1,Foo,10,7,0,extra")
		So(errors.Is(err, batch.ErrFieldCount), ShouldBeTrue)
	})

	Convey("Given records with bad values", t, func() {
		cases := map[string]string{
			"rank":     "x,Foo,10,7,0",
			"name":     "1, ,10,7,0",
			"points":   "1,Foo,ten,7,0",
			"guild_id": "1,Foo,10,abc,0",
			"is_seed":  "1,Foo,10,7,maybe",
		}
		for field, text := range cases {
			_, err := batch.Parse(text)
			So(errors.Is(err, batch.ErrInvalidField), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "line 1: "+field)
		}

		_, err := batch.Parse("0,Foo,10,7,0")
		So(err.Error(), ShouldContainSubstring, "rank")
	})

	Convey("Given an empty batch", t, func() {
		_, err := batch.Parse("\n\n")
		So(err, ShouldEqual, batch.ErrEmpty)
	})

	Convey("Given a name with quotes inside an unquoted field", t, func() {
		entries, err := batch.Parse("1,The \"Best\" Guild,100,7,0\n")
		So(err, ShouldBeNil)
		So(len(entries), ShouldEqual, 1)
		So(entries[0].Name, ShouldEqual, `The "Best" Guild`)
		So(entries[0].GuildID, ShouldEqual, 7)
	})

	Convey("Given a blank line between records", t, func() {
		_, err := batch.Parse("1,Alpha,10,1,0\n\n2,Beta,9,2,0")

		Convey("Then the whole batch fails at that line", func() {
			So(errors.Is(err, batch.ErrFieldCount), ShouldBeTrue)
			var le *batch.LineError
			So(errors.As(err, &le), ShouldBeTrue)
			So(le.Line, ShouldEqual, 2)
		})
	})

	Convey("Given a trailing blank line", t, func() {
		_, err := batch.Parse("1,Alpha,10,1,0\r\n\r\n")
		So(errors.Is(err, batch.ErrFieldCount), ShouldBeTrue)
	})
}

func TestFormat(t *testing.T) {
	Convey("Given entries of an event", t, func() {
		entries := []model.Entry{
			{EventNum: 4, GuildID: 7, Name: "Foo", Rank: 1, Points: model.Int64Ptr(5000), IsSeed: true},
			{EventNum: 4, GuildID: 8, Name: "Bar, the second", Rank: 2},
		}

		Convey("When formatting", func() {
			out, err := batch.Format(entries)
			So(err, ShouldBeNil)

			Convey("Then there is no header line", func() {
				So(string(out), ShouldStartWith, "1,Foo,5000,7,true\n")
			})

			Convey("And the output parses back to the same rows", func() {
				back, err := batch.Parse(string(out))
				So(err, ShouldBeNil)
				So(len(back), ShouldEqual, 2)
				for i := range back {
					back[i].EventNum = 4
				}
				So(back, ShouldResemble, entries)
			})
		})
	})

	Convey("Given no entries", t, func() {
		out, err := batch.Format(nil)
		So(err, ShouldBeNil)
		So(out, ShouldBeEmpty)
	})
}
