package log

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWithFields(t *testing.T) {
	Convey("Given logging is disabled", t, func() {
		enabled = false

		Convey("WithFields should return a silent entry", func() {
			entry := WithFields(logrus.Fields{"provider": "vidsrc"})
			So(entry, ShouldNotBeNil)
			So(entry.Data["provider"], ShouldEqual, "vidsrc")
			So(func() { entry.Info("dropped") }, ShouldNotPanic)
		})
	})

	Convey("Given logging is redirected to a buffer", t, func() {
		var buf bytes.Buffer
		SetOutput(&buf, logrus.DebugLevel)
		defer func() { enabled = false }()

		Convey("Entries should carry their fields", func() {
			WithField("hoster", "dood").Debug("resolved")
			So(buf.String(), ShouldContainSubstring, "hoster=dood")
			So(buf.String(), ShouldContainSubstring, "resolved")
		})
	})
}
