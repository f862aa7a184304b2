package postgres_test

import (
	"context"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vmentor/vmentor/pkg/storage"
	"github.com/vmentor/vmentor/pkg/storage/postgres"
	"github.com/vmentor/vmentor/pkg/storage/storagetest"
)

// connStr returns the PostgreSQL connection string from environment or skips the test.
func connStr() string {
	dsn := os.Getenv("VMENTOR_TEST_POSTGRES_DSN")
	if dsn == "" {
		Skip("VMENTOR_TEST_POSTGRES_DSN not set, skipping PostgreSQL tests")
	}
	return dsn
}

var _ = Describe("Driver", func() {
	storagetest.DriverSpecs(func() storage.Driver {
		ctx := context.Background()

		d, err := postgres.NewDriver(ctx, connStr())
		Expect(err).NotTo(HaveOccurred())

		// Clean all transcripts before each test for isolation.
		for {
			all, err := d.List(ctx, storage.Filter{})
			Expect(err).NotTo(HaveOccurred())
			if len(all) == 0 {
				break
			}
			Expect(d.Delete(ctx, all[0].ID)).To(Succeed())
		}
		return d
	})
})
