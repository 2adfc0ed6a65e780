package pgvector_test

import (
	"context"
	"database/sql"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cards/pkg/logger"
	"github.com/papercomputeco/cards/pkg/vector"
	"github.com/papercomputeco/cards/pkg/vector/pgvector"
)

const testTable = "debate_cards_test"

// connStr returns the PostgreSQL connection string from environment or skips the test.
func connStr() string {
	dsn := os.Getenv("CARDS_TEST_POSTGRES_DSN")
	if dsn == "" {
		Skip("CARDS_TEST_POSTGRES_DSN not set, skipping pgvector tests")
	}
	return dsn
}

var _ = Describe("Driver", func() {
	It("should require a connection string", func() {
		_, err := pgvector.NewDriver(context.Background(), pgvector.Config{Dimensions: 3}, logger.Nop())
		Expect(err).To(HaveOccurred())
	})

	It("should require dimensions", func() {
		_, err := pgvector.NewDriver(context.Background(), pgvector.Config{ConnString: "postgres://localhost"}, logger.Nop())
		Expect(err).To(HaveOccurred())
	})

	Context("against a live database", func() {
		var (
			driver *pgvector.Driver
			ctx    context.Context
		)

		BeforeEach(func() {
			ctx = context.Background()
			dsn := connStr()

			var err error
			driver, err = pgvector.NewDriver(ctx, pgvector.Config{
				ConnString: dsn,
				TableName:  testTable,
				Dimensions: 3,
			}, logger.Nop())
			Expect(err).NotTo(HaveOccurred())

			DeferCleanup(func() {
				db, err := sql.Open("pgx", dsn)
				Expect(err).NotTo(HaveOccurred())
				defer db.Close()
				_, err = db.ExecContext(context.Background(), "DROP TABLE IF EXISTS "+testTable)
				Expect(err).NotTo(HaveOccurred())
				Expect(driver.Close()).To(Succeed())
			})
		})

		It("stores and retrieves a point", func() {
			Expect(driver.Upsert(ctx, []vector.Point{{
				ID:        "0b7f1c5e-41b3-4c38-9c1e-3d7f8a2f5e10",
				Embedding: []float32{1, 0, 0},
				Payload: vector.Payload{
					"content": vector.StringValue("nuclear power is safe"),
					"upvotes": vector.IntegerValue(0),
				},
			}})).To(Succeed())

			p, err := driver.Get(ctx, "0b7f1c5e-41b3-4c38-9c1e-3d7f8a2f5e10", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Embedding).To(Equal([]float32{1, 0, 0}))

			upvotes, ok := p.Payload["upvotes"].AsInteger()
			Expect(ok).To(BeTrue())
			Expect(upvotes).To(Equal(int64(0)))
		})

		It("returns ErrNotFound for missing points", func() {
			_, err := driver.Get(ctx, "missing", nil)
			Expect(err).To(MatchError(vector.ErrNotFound))
		})

		It("ranks by cosine similarity and paginates", func() {
			Expect(driver.Upsert(ctx, []vector.Point{
				{ID: "east", Embedding: []float32{1, 0, 0}},
				{ID: "northeast", Embedding: []float32{1, 1, 0}},
				{ID: "north", Embedding: []float32{0, 1, 0}},
			})).To(Succeed())

			first, err := driver.Search(ctx, vector.SearchQuery{Vector: []float32{1, 0.1, 0}, Limit: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(first).To(HaveLen(2))
			Expect(first[0].ID).To(Equal("east"))
			Expect(first[1].ID).To(Equal("northeast"))

			second, err := driver.Search(ctx, vector.SearchQuery{Vector: []float32{1, 0.1, 0}, Limit: 2, Offset: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(HaveLen(1))
			Expect(second[0].ID).To(Equal("north"))
		})
	})
})
