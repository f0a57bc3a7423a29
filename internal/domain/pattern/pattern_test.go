package pattern_test

import (
	"strings"
	"testing"

	"github.com/okian/gwrank/internal/domain/pattern"
	. "github.com/smartystreets/goconvey/convey"
)

var samples = []string{
	"",
	"Foo",
	"100%",
	"a_b",
	"!",
	"!!%__!%",
	"%_!",
	"騎空団_!",
	"plain name with spaces",
}

func TestEscape(t *testing.T) {
	Convey("Given the pattern escaper", t, func() {
		Convey("When escaping plain text", func() {
			So(pattern.Escape("Foo"), ShouldEqual, "%Foo%")
		})

		Convey("When escaping wildcards", func() {
			So(pattern.Escape("100%"), ShouldEqual, "%100!%%")
			So(pattern.Escape("a_b"), ShouldEqual, "%a!_b%")
		})

		Convey("When escaping the escape character", func() {
			So(pattern.Escape("!"), ShouldEqual, "%!!%")
			So(pattern.Escape("!%"), ShouldEqual, "%!!!%%")
		})

		Convey("When escaping the empty string", func() {
			So(pattern.Escape(""), ShouldEqual, "%%")
		})
	})
}

func TestEscapeRoundTrip(t *testing.T) {
	Convey("Given arbitrary terms", t, func() {
		for _, s := range samples {
			got, err := pattern.Unescape(pattern.Escape(s))
			So(err, ShouldBeNil)
			So(got, ShouldEqual, s)
		}
	})
}

func TestEscapeHasNoBareWildcards(t *testing.T) {
	Convey("Given escaped terms", t, func() {
		for _, s := range samples {
			p := pattern.Escape(s)

			Convey("Then "+p+" is wrapped and has no bare wildcard inside", func() {
				So(strings.HasPrefix(p, "%"), ShouldBeTrue)
				So(strings.HasSuffix(p, "%"), ShouldBeTrue)
				So(bareWildcards(p[1:len(p)-1]), ShouldEqual, 0)
			})
		}
	})
}

func bareWildcards(payload string) int {
	n := 0
	for i := 0; i < len(payload); i++ {
		switch payload[i] {
		case '!':
			i++
		case '%', '_':
			n++
		}
	}
	return n
}

func TestUnescapeErrors(t *testing.T) {
	Convey("Given malformed patterns", t, func() {
		_, err := pattern.Unescape("Foo")
		So(err, ShouldEqual, pattern.ErrNotWrapped)

		_, err = pattern.Unescape("%Foo!%")
		So(err, ShouldEqual, pattern.ErrBadEscape)

		_, err = pattern.Unescape("%a!bc%")
		So(err, ShouldEqual, pattern.ErrBadEscape)

		_, err = pattern.Unescape("%a_b%")
		So(err, ShouldEqual, pattern.ErrBareWildcard)
	})
}
