package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/gwrank/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.DBPath, convey.ShouldEqual, "gbf-gw.sqlite")
			convey.So(cfg.SearchCacheSize, convey.ShouldEqual, 1024)
			convey.So(cfg.SearchCacheTTL(), convey.ShouldEqual, 5*time.Minute)
			convey.So(cfg.StatsSchedule, convey.ShouldEqual, "@every 15s")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with invalid values", t, func() {
		mutations := map[string]func(*config.Config){
			"addr":              func(c *config.Config) { c.Addr = "" },
			"db_path":           func(c *config.Config) { c.DBPath = "" },
			"busy_timeout_ms":   func(c *config.Config) { c.BusyTimeoutMS = -1 },
			"search_cache_size": func(c *config.Config) { c.SearchCacheSize = -1 },
			"search_cache_ttl":  func(c *config.Config) { c.SearchCacheTTLSeconds = -1 },
			"max_upload_bytes":  func(c *config.Config) { c.MaxUploadBytes = 0 },
			"snapshot_s3_access_key_id": func(c *config.Config) {
				c.SnapshotS3AccessKeyID = "id"
			},
		}

		for field, mutate := range mutations {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()

			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, field)
		}
	})
}
