package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/topsis/internal/domain/model"
	"github.com/okian/topsis/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const phones = "Model,Price,Storage,Camera\nM1,250,16,12\nM2,200,16,8\nM3,300,32,16\nM4,275,32,8\n"

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigValidate(t *testing.T) {
	Convey("Given a command-line configuration", t, func() {
		cfg := &Config{
			Input:     "data.csv",
			Weights:   "1,1",
			Impacts:   "+,-",
			Output:    "out.csv",
			Delimiter: DefaultDelimiter,
			Timeout:   DefaultTimeout,
		}

		Convey("When every required flag is set", func() {
			Convey("Then it should be valid", func() {
				So(cfg.Validate(), ShouldBeNil)
			})
		})

		Convey("When a required flag is missing", func() {
			for _, unset := range []func(){
				func() { cfg.Input = "" },
				func() { cfg.Weights = "" },
				func() { cfg.Impacts = "" },
				func() { cfg.Output = "" },
			} {
				c := *cfg
				unset()
				So(errors.Is(cfg.Validate(), ErrUsage), ShouldBeTrue)
				*cfg = c
			}
		})

		Convey("When the delimiter is not a single character", func() {
			cfg.Delimiter = ";;"
			So(errors.Is(cfg.Validate(), ErrUsage), ShouldBeTrue)

			Convey("Then it should be ignored for remote runs", func() {
				cfg.URL = "http://localhost:9080"
				So(cfg.Validate(), ShouldBeNil)
			})
		})

		Convey("When -top is negative", func() {
			cfg.Top = -1
			So(errors.Is(cfg.Validate(), ErrUsage), ShouldBeTrue)
		})
	})
}

func TestRunLocal(t *testing.T) {
	Convey("Given a CSV input file", t, func() {
		in := writeInput(t, "phones.csv", phones)
		var stdout, stderr bytes.Buffer

		Convey("When the result is written to a file", func() {
			out := filepath.Join(t.TempDir(), "result.csv")
			err := Run(context.Background(), &Config{
				Input: in, Weights: "1,1,1", Impacts: "-,+,+", Output: out, Delimiter: ",", Top: 2,
			}, &stdout, &stderr)

			Convey("Then the file should hold the ranked table", func() {
				So(err, ShouldBeNil)
				data, readErr := os.ReadFile(out)
				So(readErr, ShouldBeNil)
				lines := strings.Split(strings.TrimSpace(string(data)), "\n")
				So(lines, ShouldHaveLength, 5)
				So(lines[0], ShouldEqual, "Model,Price,Storage,Camera,Topsis Score,Rank")
				So(stdout.Len(), ShouldEqual, 0)
			})

			Convey("And the top entries should go to stderr", func() {
				So(stderr.String(), ShouldStartWith, "Top 2 of 4:")
				So(stderr.String(), ShouldContainSubstring, "  1. ")
				So(stderr.String(), ShouldNotContainSubstring, "  3. ")
			})
		})

		Convey("When the output is -", func() {
			err := Run(context.Background(), &Config{
				Input: in, Weights: "1,1,1", Impacts: "-,+,+", Output: StdoutPath, Delimiter: ",",
			}, &stdout, &stderr)

			Convey("Then the table should be written to stdout", func() {
				So(err, ShouldBeNil)
				So(stdout.String(), ShouldStartWith, "Model,Price,Storage,Camera,Topsis Score,Rank\n")
				So(stderr.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the input uses another delimiter", func() {
			semi := writeInput(t, "semi.csv", strings.ReplaceAll(phones, ",", ";"))
			err := Run(context.Background(), &Config{
				Input: semi, Weights: "1,1,1", Impacts: "-,+,+", Output: StdoutPath, Delimiter: ";",
			}, &stdout, &stderr)

			Convey("Then it should still be ranked", func() {
				So(err, ShouldBeNil)
				So(strings.Count(stdout.String(), "\n"), ShouldEqual, 5)
			})
		})

		Convey("When the weights do not parse", func() {
			out := filepath.Join(t.TempDir(), "result.csv")
			err := Run(context.Background(), &Config{
				Input: in, Weights: "1,x,1", Impacts: "-,+,+", Output: out, Delimiter: ",",
			}, &stdout, &stderr)

			Convey("Then the run should fail without creating the output", func() {
				So(errors.Is(err, model.ErrWeightParse), ShouldBeTrue)
				So(ExitCode(err), ShouldEqual, 1)
				_, statErr := os.Stat(out)
				So(os.IsNotExist(statErr), ShouldBeTrue)
			})
		})

		Convey("When the input does not exist", func() {
			err := Run(context.Background(), &Config{
				Input: filepath.Join(t.TempDir(), "missing.csv"), Weights: "1,1,1", Impacts: "-,+,+",
				Output: StdoutPath, Delimiter: ",",
			}, &stdout, &stderr)

			Convey("Then it should report the missing source", func() {
				So(errors.Is(err, model.ErrSourceNotFound), ShouldBeTrue)
			})
		})

		Convey("When a required flag is missing", func() {
			err := Run(context.Background(), &Config{Input: in, Output: StdoutPath, Delimiter: ","}, &stdout, &stderr)

			Convey("Then it should be a usage error", func() {
				So(ExitCode(err), ShouldEqual, 2)
			})
		})
	})
}

func TestRunRemote(t *testing.T) {
	Convey("Given a running service", t, func() {
		var gotWeights, gotImpacts, gotFile string
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		mux.HandleFunc("/process", func(w http.ResponseWriter, r *http.Request) {
			f, hdr, err := r.FormFile("file")
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			defer f.Close()
			gotFile = hdr.Filename
			gotWeights = r.FormValue("weights")
			gotImpacts = r.FormValue("impacts")
			if gotWeights == "0,0,0" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"code":"weight_parse_error","message":"weights must be positive"}`))
				return
			}
			w.Header().Set("Content-Type", "text/csv")
			_, _ = w.Write([]byte("Model,Price,Topsis Score,Rank\nM1,250,0.25,2\nM2,200,0.75,1\n"))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		in := writeInput(t, "phones.csv", phones)
		var stdout, stderr bytes.Buffer

		Convey("When the table is forwarded", func() {
			err := Run(context.Background(), &Config{
				Input: in, Weights: "1,1,1", Impacts: "-,+,+", Output: StdoutPath,
				URL: srv.URL + "/", Timeout: DefaultTimeout, Top: 1,
			}, &stdout, &stderr)

			Convey("Then the service result should be written", func() {
				So(err, ShouldBeNil)
				So(gotFile, ShouldEqual, "phones.csv")
				So(gotWeights, ShouldEqual, "1,1,1")
				So(gotImpacts, ShouldEqual, "-,+,+")
				So(stdout.String(), ShouldStartWith, "Model,Price,Topsis Score,Rank\n")
				So(stderr.String(), ShouldContainSubstring, "1. M2 - Score: 0.7500")
			})
		})

		Convey("When the service rejects the input", func() {
			err := Run(context.Background(), &Config{
				Input: in, Weights: "0,0,0", Impacts: "-,+,+", Output: StdoutPath,
				URL: srv.URL, Timeout: DefaultTimeout,
			}, &stdout, &stderr)

			Convey("Then the remote error should be returned", func() {
				var re *RemoteError
				So(errors.As(err, &re), ShouldBeTrue)
				So(re.Status, ShouldEqual, http.StatusBadRequest)
				So(re.Code, ShouldEqual, "weight_parse_error")
				So(stdout.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the service is unreachable", func() {
			url := srv.URL
			srv.Close()
			err := Run(context.Background(), &Config{
				Input: in, Weights: "1,1,1", Impacts: "-,+,+", Output: StdoutPath,
				URL: url, Timeout: DefaultTimeout,
			}, &stdout, &stderr)

			Convey("Then the health check should fail", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "service health check failed")
			})
		})
	})
}

func TestShowHelp(t *testing.T) {
	Convey("Given the help text", t, func() {
		var buf bytes.Buffer
		ShowHelp(&buf)

		Convey("Then it should document every flag", func() {
			for _, flag := range []string{"-in", "-weights", "-impacts", "-out", "-delimiter", "-url", "-timeout", "-top", "-verbose", "-help"} {
				So(buf.String(), ShouldContainSubstring, "\n  "+flag)
			}
		})
	})
}

func TestExitCode(t *testing.T) {
	Convey("Given run errors", t, func() {
		So(ExitCode(nil), ShouldEqual, 0)
		So(ExitCode(ErrUsage), ShouldEqual, 2)
		So(ExitCode(model.ErrDegenerateColumn), ShouldEqual, 1)
	})
}
