package where

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/streamscout/streamscout/filesystem"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestPaths(t *testing.T) {
	Convey("Path functions", t, func() {
		Convey("Config() should create the directory", func() {
			path := Config()
			So(path, ShouldNotBeEmpty)
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("Config() should honor the override variable", func() {
			custom := filepath.Join(os.TempDir(), "streamscout-where-test")
			t.Setenv(EnvConfigPath, custom)
			So(Config(), ShouldEqual, custom)
			So(Logs(), ShouldEqual, filepath.Join(custom, "logs"))
		})

		Convey("Results() should live inside the cache directory", func() {
			So(filepath.Dir(Results()), ShouldEqual, Cache())
			So(lo.Must(filesystem.API().IsDir(Cache())), ShouldBeTrue)
		})
	})
}
