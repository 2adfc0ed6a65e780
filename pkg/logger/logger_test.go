package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cards/pkg/logger"
)

// brokenHandler accepts every record and fails to write it.
type brokenHandler struct{}

func (brokenHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (brokenHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }
func (h brokenHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h brokenHandler) WithGroup(string) slog.Handler           { return h }

func decodeLine(buf *bytes.Buffer) map[string]any {
	var parsed map[string]any
	Expect(json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &parsed)).To(Succeed())
	return parsed
}

var _ = Describe("New", func() {
	var buf *bytes.Buffer

	BeforeEach(func() {
		buf = &bytes.Buffer{}
	})

	It("writes text records by default", func() {
		logger.New(logger.WithWriter(buf)).Info("card stored", "card_id", "abc")

		Expect(buf.String()).To(ContainSubstring("card stored"))
		Expect(buf.String()).To(ContainSubstring("card_id=abc"))
	})

	It("hides debug records unless debug is on", func() {
		logger.New(logger.WithWriter(buf)).Debug("hidden")
		Expect(buf.String()).To(BeEmpty())

		logger.New(logger.WithWriter(buf), logger.WithDebug(true)).Debug("shown")
		Expect(buf.String()).To(ContainSubstring("shown"))
	})

	It("writes JSON records", func() {
		logger.New(logger.WithWriter(buf), logger.WithJSON(true)).Info("search", "results", 25)

		parsed := decodeLine(buf)
		Expect(parsed["msg"]).To(Equal("search"))
		Expect(parsed["results"]).To(BeNumerically("==", 25))
	})

	It("prefers JSON over pretty output", func() {
		logger.New(logger.WithWriter(buf), logger.WithPretty(true), logger.WithJSON(true)).Info("both")
		Expect(decodeLine(buf)["msg"]).To(Equal("both"))
	})

	It("writes pretty console records", func() {
		logger.New(logger.WithWriter(buf), logger.WithPretty(true)).Info("pretty output")
		Expect(buf.String()).To(ContainSubstring("pretty output"))
	})

	It("copies records to every writer", func() {
		other := &bytes.Buffer{}
		logger.New(logger.WithWriters(buf, other)).Info("twice")

		Expect(buf.String()).To(ContainSubstring("twice"))
		Expect(other.String()).To(ContainSubstring("twice"))
	})

	It("binds attributes to every record", func() {
		l := logger.New(logger.WithWriter(buf), logger.WithJSON(true), logger.WithAttrs("component", "api"))
		l.Info("listening")

		Expect(decodeLine(buf)["component"]).To(Equal("api"))
	})
})

var _ = Describe("Nop", func() {
	It("is disabled at every level", func() {
		l := logger.Nop()
		Expect(l.Handler().Enabled(context.Background(), slog.LevelError)).To(BeFalse())
		Expect(func() { l.With("k", "v").WithGroup("g").Error("msg") }).NotTo(Panic())
	})
})

var _ = Describe("Multi", func() {
	It("dispatches to all loggers and skips nil ones", func() {
		var a, b bytes.Buffer
		multi := logger.Multi(logger.New(logger.WithWriter(&a)), nil, logger.New(logger.WithWriter(&b)))

		multi.Info("broadcast", "key", "val")

		Expect(a.String()).To(ContainSubstring("broadcast"))
		Expect(b.String()).To(ContainSubstring("broadcast"))
	})

	It("respects each child's level", func() {
		var info, debug bytes.Buffer
		multi := logger.Multi(
			logger.New(logger.WithWriter(&info)),
			logger.New(logger.WithWriter(&debug), logger.WithDebug(true)),
		)

		multi.Debug("details")

		Expect(info.String()).To(BeEmpty())
		Expect(debug.String()).To(ContainSubstring("details"))
	})

	It("carries With and WithGroup to children", func() {
		var buf bytes.Buffer
		multi := logger.Multi(logger.New(logger.WithWriter(&buf), logger.WithJSON(true)))

		multi.With("component", "repository").WithGroup("request").Info("processed", "method", "POST")

		parsed := decodeLine(&buf)
		Expect(parsed["component"]).To(Equal("repository"))
		group, ok := parsed["request"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(group["method"]).To(Equal("POST"))
	})

	It("keeps writing when one child fails", func() {
		var buf bytes.Buffer
		multi := logger.Multi(slog.New(brokenHandler{}), logger.New(logger.WithWriter(&buf)))

		err := multi.Handler().Handle(context.Background(), slog.NewRecord(
			time.Now(), slog.LevelInfo, "still here", 0,
		))

		Expect(err).To(MatchError(ContainSubstring("disk full")))
		Expect(buf.String()).To(ContainSubstring("still here"))
	})
})
