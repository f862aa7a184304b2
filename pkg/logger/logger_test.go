package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vmentor/vmentor/pkg/logger"
)

func decodeLine(buf *bytes.Buffer) map[string]any {
	var parsed map[string]any
	Expect(json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &parsed)).To(Succeed())
	return parsed
}

var _ = Describe("Logger", func() {
	Describe("New", func() {
		It("writes text records by default", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf))
			l.Info("relay started", "upstream", "https://example.test")

			Expect(buf.String()).To(ContainSubstring("relay started"))
			Expect(buf.String()).To(ContainSubstring("upstream=https://example.test"))
		})

		It("filters debug records unless enabled", func() {
			var buf bytes.Buffer
			logger.New(logger.WithWriter(&buf)).Debug("hidden")
			Expect(buf.String()).To(BeEmpty())

			logger.New(logger.WithWriter(&buf), logger.WithDebug(true)).Debug("shown")
			Expect(buf.String()).To(ContainSubstring("shown"))
		})

		It("honors an explicit level", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithLevel(slog.LevelWarn))
			l.Info("quiet")
			l.Warn("loud")

			Expect(buf.String()).NotTo(ContainSubstring("quiet"))
			Expect(buf.String()).To(ContainSubstring("loud"))
		})

		It("writes JSON records", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
			l.Info("transcript stored", "bytes", 42)

			parsed := decodeLine(&buf)
			Expect(parsed["msg"]).To(Equal("transcript stored"))
			Expect(parsed["bytes"]).To(BeNumerically("==", 42))
		})

		It("writes pretty records", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithPretty(true))
			l.Info("pretty output")

			Expect(buf.String()).To(ContainSubstring("pretty output"))
		})

		It("follows a level var changed after construction", func() {
			var buf bytes.Buffer
			level := new(slog.LevelVar)
			level.Set(slog.LevelWarn)

			l := logger.New(logger.WithWriter(&buf), logger.WithLevelVar(level)).With("component", "api")
			l.Info("before")
			Expect(buf.String()).To(BeEmpty())

			level.Set(slog.LevelDebug)
			l.Debug("after")
			Expect(buf.String()).To(ContainSubstring("after"))
			Expect(buf.String()).To(ContainSubstring("component=api"))
		})

		It("writes to every writer", func() {
			var a, b bytes.Buffer
			logger.New(logger.WithWriters(&a, &b)).Info("both")

			Expect(a.String()).To(ContainSubstring("both"))
			Expect(b.String()).To(ContainSubstring("both"))
		})
	})

	Describe("Nop", func() {
		It("is disabled at every level", func() {
			l := logger.Nop()
			Expect(l.Handler().Enabled(context.Background(), slog.LevelError)).To(BeFalse())
			Expect(func() { l.With("k", "v").WithGroup("g").Info("msg") }).NotTo(Panic())
		})
	})

	Describe("Multi", func() {
		It("dispatches to all loggers by their own levels", func() {
			var info, debug bytes.Buffer
			multi := logger.Multi(
				logger.New(logger.WithWriter(&info)),
				logger.New(logger.WithWriter(&debug), logger.WithDebug(true)),
			)

			multi.Debug("detail")
			multi.Info("summary")

			Expect(info.String()).NotTo(ContainSubstring("detail"))
			Expect(info.String()).To(ContainSubstring("summary"))
			Expect(debug.String()).To(ContainSubstring("detail"))
		})

		It("carries attributes and groups to every handler", func() {
			var buf bytes.Buffer
			multi := logger.Multi(logger.New(logger.WithWriter(&buf), logger.WithJSON(true)))

			multi.With("component", "proxy").WithGroup("request").Info("relayed", "path", "/api/chat/completions")

			parsed := decodeLine(&buf)
			Expect(parsed["component"]).To(Equal("proxy"))
			group, ok := parsed["request"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(group["path"]).To(Equal("/api/chat/completions"))
		})
	})

	Describe("ParseLevel", func() {
		DescribeTable("levels",
			func(in string, expected slog.Level) {
				level, err := logger.ParseLevel(in)
				Expect(err).NotTo(HaveOccurred())
				Expect(level).To(Equal(expected))
			},
			Entry("empty", "", slog.LevelInfo),
			Entry("debug", "DEBUG", slog.LevelDebug),
			Entry("warn", "warn", slog.LevelWarn),
			Entry("warning", "warning", slog.LevelWarn),
			Entry("error", " error ", slog.LevelError),
		)

		It("rejects unknown levels", func() {
			_, err := logger.ParseLevel("loud")
			Expect(err).To(HaveOccurred())
		})
	})
})
