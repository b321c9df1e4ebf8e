package config_test

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/okian/topsis/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.MaxUploadBytes, convey.ShouldEqual, 10<<20)
			convey.So(cfg.CSVDelimiter, convey.ShouldEqual, ",")
			convey.So(cfg.DeliveryQueueSize, convey.ShouldEqual, 1_000)
			convey.So(cfg.DeliveryWorkers, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.DeliveryMaxAttempts, convey.ShouldEqual, 3)
			convey.So(cfg.DeliveryDedupeWindowSec, convey.ShouldEqual, 600)
			convey.So(cfg.SMTPPort, convey.ShouldEqual, 465)
			convey.So(cfg.DeliveryEnabled(), convey.ShouldBeFalse)
			convey.So(cfg.Delimiter(), convey.ShouldEqual, ',')
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a valid default config", t, func() {
		cfg := config.New(context.Background())

		cases := []struct {
			name   string
			mutate func(*config.Config)
			want   string
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }, "addr must not be empty"},
			{"unknown log format", func(c *config.Config) { c.LogFormat = "xml" }, "log_format"},
			{"zero upload limit", func(c *config.Config) { c.MaxUploadBytes = 0 }, "max_upload_bytes"},
			{"multi-character delimiter", func(c *config.Config) { c.CSVDelimiter = ";;" }, "csv_delimiter"},
			{"quote delimiter", func(c *config.Config) { c.CSVDelimiter = `"` }, "not allowed"},
			{"zero queue", func(c *config.Config) { c.DeliveryQueueSize = 0 }, "delivery_queue_size"},
			{"zero workers", func(c *config.Config) { c.DeliveryWorkers = 0 }, "delivery_workers"},
			{"zero attempts", func(c *config.Config) { c.DeliveryMaxAttempts = 0 }, "delivery_max_attempts"},
			{"negative dedupe window", func(c *config.Config) { c.DeliveryDedupeWindowSec = -1 }, "delivery_dedupe_window_sec"},
			{"smtp without sender", func(c *config.Config) { c.SMTPHost = "smtp.example.com" }, "mail_from"},
			{"smtp port out of range", func(c *config.Config) {
				c.SMTPHost = "smtp.example.com"
				c.MailFrom = "noreply@example.com"
				c.SMTPPort = 70000
			}, "smtp_port"},
		}

		for _, tc := range cases {
			convey.Convey("When the config has "+tc.name, func() {
				tc.mutate(cfg)
				err := cfg.Validate()

				convey.Convey("Then it should be rejected as invalid", func() {
					convey.So(err, convey.ShouldNotBeNil)
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
					convey.So(err.Error(), convey.ShouldContainSubstring, tc.want)
				})
			})
		}

		convey.Convey("When SMTP is fully configured", func() {
			cfg.SMTPHost = "smtp.example.com"
			cfg.MailFrom = "noreply@example.com"

			convey.Convey("Then delivery should be enabled and valid", func() {
				convey.So(cfg.DeliveryEnabled(), convey.ShouldBeTrue)
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When a tab delimiter is configured", func() {
			cfg.CSVDelimiter = "\t"

			convey.Convey("Then it should be accepted", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
				convey.So(cfg.Delimiter(), convey.ShouldEqual, '\t')
			})
		})
	})
}
