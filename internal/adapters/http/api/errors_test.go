package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestKindError(t *testing.T) {
	Convey("Given a wrapped error", t, func() {
		cause := errors.New("line 3: bad rank")
		err := WrapKind("api.post_upload", ErrBadFormat, cause)

		Convey("It matches both the kind and the cause", func() {
			So(errors.Is(err, ErrBadFormat), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
		})

		Convey("Its message names the operation", func() {
			So(err.Error(), ShouldEqual, "api.post_upload: Invalid data format.: line 3: bad rank")
		})
	})

	Convey("Given a kind without a cause", t, func() {
		err := NewKind("api.get_range", ErrNotFound)
		So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "api.get_range: not found")
	})

	Convey("Given an internal wrap", t, func() {
		err := Wrap("api.get_full", errors.New("boom"))
		So(errors.Is(err, ErrInternal), ShouldBeTrue)
	})
}

func TestWriteError(t *testing.T) {
	Convey("Given client and server errors", t, func() {
		read := func(w *httptest.ResponseRecorder) errorResponse {
			var resp errorResponse
			_ = json.Unmarshal(w.Body.Bytes(), &resp)
			return resp
		}

		Convey("Client errors carry kind and detail", func() {
			w := httptest.NewRecorder()
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind("op", ErrBadRequest, errors.New("missing x")))
			So(read(w), ShouldResemble, errorResponse{Code: "bad_request", Message: "bad request", Detail: "missing x"})
		})

		Convey("Server errors hide the cause", func() {
			w := httptest.NewRecorder()
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap("op", errors.New("secret path")))
			So(read(w), ShouldResemble, errorResponse{Code: "internal_error", Message: "internal error"})
		})

		Convey("A nil error uses the status text", func() {
			w := httptest.NewRecorder()
			writeError(w, http.StatusNotFound, "not_found", nil)
			So(read(w).Message, ShouldEqual, "Not Found")
		})
	})
}

func TestErrorClassification(t *testing.T) {
	Convey("Given status codes", t, func() {
		So(getErrorType(500), ShouldEqual, "server_error")
		So(getErrorType(413), ShouldEqual, "too_large")
		So(getErrorType(404), ShouldEqual, "not_found")
		So(getErrorType(400), ShouldEqual, "client_error")
		So(getErrorSeverity(503), ShouldEqual, "high")
		So(getErrorSeverity(400), ShouldEqual, "medium")
	})
}
