// Package storagetest holds the behavior every storage.Driver must share.
// Driver packages call DriverSpecs from their own ginkgo suites.
package storagetest

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vmentor/vmentor/pkg/storage"
)

var base = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

// NewTranscript returns a transcript created n minutes after a fixed base time.
func NewTranscript(id, userID string, n int) *storage.Transcript {
	return &storage.Transcript{
		ID:           id,
		UserID:       userID,
		AIID:         "ai-1",
		CollectionID: "col-1",
		Prompt:       "what is " + id,
		Reply:        "**" + id + "** is a test",
		Streaming:    n%2 == 0,
		HTTPStatus:   200,
		CreatedAt:    base.Add(time.Duration(n) * time.Minute),
		DurationMs:   int64(100 + n),
	}
}

// DriverSpecs registers the shared driver specs. newDriver is called before
// every spec and must return an empty store; the driver is closed after it.
func DriverSpecs(newDriver func() storage.Driver) {
	var (
		ctx    context.Context
		driver storage.Driver
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = nil
		driver = newDriver()
	})

	AfterEach(func() {
		if driver != nil {
			Expect(driver.Close()).To(Succeed())
		}
	})

	Describe("Put and Get", func() {
		It("round-trips every field", func() {
			t := NewTranscript("t-1", "u-1", 0)
			Expect(driver.Put(ctx, t)).To(Succeed())

			got, err := driver.Get(ctx, "t-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(t.ID))
			Expect(got.UserID).To(Equal(t.UserID))
			Expect(got.AIID).To(Equal(t.AIID))
			Expect(got.CollectionID).To(Equal(t.CollectionID))
			Expect(got.Prompt).To(Equal(t.Prompt))
			Expect(got.Reply).To(Equal(t.Reply))
			Expect(got.Streaming).To(Equal(t.Streaming))
			Expect(got.HTTPStatus).To(Equal(t.HTTPStatus))
			Expect(got.CreatedAt.Equal(t.CreatedAt)).To(BeTrue())
			Expect(got.DurationMs).To(Equal(t.DurationMs))
		})

		It("replaces a transcript stored twice", func() {
			t := NewTranscript("t-1", "u-1", 0)
			Expect(driver.Put(ctx, t)).To(Succeed())

			t.Reply = "updated"
			Expect(driver.Put(ctx, t)).To(Succeed())

			got, err := driver.Get(ctx, "t-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Reply).To(Equal("updated"))

			all, err := driver.List(ctx, storage.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(1))
		})

		It("returns NotFoundError for unknown ids", func() {
			_, err := driver.Get(ctx, "missing")
			Expect(storage.IsNotFound(err)).To(BeTrue())
			Expect(err).To(MatchError(storage.NotFoundError{ID: "missing"}))
		})

		It("rejects nil transcripts", func() {
			Expect(driver.Put(ctx, nil)).To(MatchError(storage.ErrNilTranscript))
		})
	})

	Describe("Delete", func() {
		It("removes a transcript", func() {
			Expect(driver.Put(ctx, NewTranscript("t-1", "u-1", 0))).To(Succeed())
			Expect(driver.Delete(ctx, "t-1")).To(Succeed())

			_, err := driver.Get(ctx, "t-1")
			Expect(storage.IsNotFound(err)).To(BeTrue())
		})

		It("returns NotFoundError for unknown ids", func() {
			Expect(storage.IsNotFound(driver.Delete(ctx, "missing"))).To(BeTrue())
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			Expect(driver.Put(ctx, NewTranscript("a", "u-1", 1))).To(Succeed())
			Expect(driver.Put(ctx, NewTranscript("b", "u-2", 2))).To(Succeed())
			Expect(driver.Put(ctx, NewTranscript("c", "u-1", 3))).To(Succeed())
		})

		ids := func(ts []*storage.Transcript) []string {
			out := make([]string, 0, len(ts))
			for _, t := range ts {
				out = append(out, t.ID)
			}
			return out
		}

		It("returns newest first", func() {
			all, err := driver.List(ctx, storage.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(all)).To(Equal([]string{"c", "b", "a"}))
		})

		It("filters by user", func() {
			mine, err := driver.List(ctx, storage.Filter{UserID: "u-1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(mine)).To(Equal([]string{"c", "a"}))
		})

		It("applies the limit", func() {
			latest, err := driver.List(ctx, storage.Filter{Limit: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(latest)).To(Equal([]string{"c", "b"}))
		})

		It("returns an empty result for unknown users", func() {
			none, err := driver.List(ctx, storage.Filter{UserID: "nobody"})
			Expect(err).NotTo(HaveOccurred())
			Expect(none).To(BeEmpty())
		})
	})
}
