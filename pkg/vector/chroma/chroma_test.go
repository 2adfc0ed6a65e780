package chroma_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cards/pkg/logger"
	"github.com/papercomputeco/cards/pkg/vector"
	"github.com/papercomputeco/cards/pkg/vector/chroma"
)

// fakeChroma keeps upserted records in insertion order and answers queries
// with that order at increasing distances.
type fakeChroma struct {
	mu       sync.Mutex
	ids      []string
	records  map[string]json.RawMessage
	vectors  map[string][]float32
	lastNRes int
	collMeta map[string]any
}

func newFakeChroma() *fakeChroma {
	return &fakeChroma{
		records: make(map[string]json.RawMessage),
		vectors: make(map[string][]float32),
	}
}

func (f *fakeChroma) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/collections"):
		var body struct {
			Metadata map[string]any `json:"metadata"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.collMeta = body.Metadata
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "coll-1", "name": "debate_cards"})

	case strings.HasSuffix(r.URL.Path, "/coll-1/upsert"):
		var body struct {
			IDs        []string          `json:"ids"`
			Embeddings [][]float32       `json:"embeddings"`
			Metadatas  []json.RawMessage `json:"metadatas"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for i, id := range body.IDs {
			if _, ok := f.records[id]; !ok {
				f.ids = append(f.ids, id)
			}
			f.records[id] = body.Metadatas[i]
			f.vectors[id] = body.Embeddings[i]
		}
		_, _ = w.Write([]byte("true"))

	case strings.HasSuffix(r.URL.Path, "/coll-1/get"):
		var body struct {
			IDs []string `json:"ids"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		resp := map[string]any{"ids": []string{}, "metadatas": []json.RawMessage{}, "embeddings": [][]float32{}}
		for _, id := range body.IDs {
			if meta, ok := f.records[id]; ok {
				resp = map[string]any{
					"ids":        []string{id},
					"metadatas":  []json.RawMessage{meta},
					"embeddings": [][]float32{f.vectors[id]},
				}
			}
		}
		_ = json.NewEncoder(w).Encode(resp)

	case strings.HasSuffix(r.URL.Path, "/coll-1/query"):
		var body struct {
			NResults int `json:"n_results"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.lastNRes = body.NResults

		ids := []string{}
		distances := []float64{}
		metas := []json.RawMessage{}
		for i, id := range f.ids {
			if i >= body.NResults {
				break
			}
			ids = append(ids, id)
			distances = append(distances, 0.1*float64(i))
			metas = append(metas, f.records[id])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ids":       [][]string{ids},
			"distances": [][]float64{distances},
			"metadatas": [][]json.RawMessage{metas},
		})

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeChroma) nResults() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastNRes
}

func (f *fakeChroma) collectionMetadata() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.collMeta
}

var _ = Describe("Driver", func() {
	var (
		log *slog.Logger
		ctx context.Context
	)

	BeforeEach(func() {
		log = logger.Nop()
		ctx = context.Background()
	})

	Describe("NewDriver", func() {
		It("returns an error when URL is empty", func() {
			_, err := chroma.NewDriver(ctx, chroma.Config{URL: ""}, log)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("chroma URL is required"))
		})

		It("creates the collection with cosine distance", func() {
			fake := newFakeChroma()
			server := httptest.NewServer(fake)
			defer server.Close()

			driver, err := chroma.NewDriver(ctx, chroma.Config{URL: server.URL}, log)
			Expect(err).NotTo(HaveOccurred())
			defer driver.Close()

			Expect(fake.collectionMetadata()).To(HaveKeyWithValue("hnsw:space", "cosine"))
		})

		It("succeeds after retrying when Chroma becomes available", func() {
			var attempts atomic.Int32
			fake := newFakeChroma()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if attempts.Add(1) <= 2 {
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
					return
				}
				fake.ServeHTTP(w, r)
			}))
			defer server.Close()

			driver, err := chroma.NewDriver(ctx, chroma.Config{
				URL:           server.URL,
				MaxRetries:    5,
				RetryDelay:    10 * time.Millisecond,
				MaxRetryDelay: 50 * time.Millisecond,
			}, log)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver).NotTo(BeNil())
			Expect(attempts.Load()).To(Equal(int32(3)))
		})

		It("returns a connection error after exhausting all retries", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			}))
			defer server.Close()

			_, err := chroma.NewDriver(ctx, chroma.Config{
				URL:           server.URL,
				MaxRetries:    3,
				RetryDelay:    10 * time.Millisecond,
				MaxRetryDelay: 50 * time.Millisecond,
			}, log)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("after 3 attempts"))
			Expect(errors.Is(err, vector.ErrConnection)).To(BeTrue())
		})
	})

	Describe("points", func() {
		var (
			fake   *fakeChroma
			server *httptest.Server
			driver *chroma.Driver
		)

		BeforeEach(func() {
			fake = newFakeChroma()
			server = httptest.NewServer(fake)

			var err error
			driver, err = chroma.NewDriver(ctx, chroma.Config{URL: server.URL}, log)
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			driver.Close()
			server.Close()
		})

		point := func(id string, up int64) vector.Point {
			return vector.Point{
				ID:        id,
				Embedding: []float32{1, 0, 0},
				Payload: vector.Payload{
					"content": vector.StringValue("evidence " + id),
					"link":    vector.NullValue(),
					"upvotes": vector.IntegerValue(up),
				},
			}
		}

		It("round-trips a point and leaves nulls out", func() {
			Expect(driver.Upsert(ctx, []vector.Point{point("a", 3)})).To(Succeed())

			got, err := driver.Get(ctx, "a", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal("a"))
			Expect(got.Embedding).To(Equal([]float32{1, 0, 0}))
			Expect(got.Payload).NotTo(HaveKey("link"))

			up, ok := got.Payload["upvotes"].AsInteger()
			Expect(ok).To(BeTrue())
			Expect(up).To(Equal(int64(3)))
		})

		It("projects requested fields", func() {
			Expect(driver.Upsert(ctx, []vector.Point{point("a", 0)})).To(Succeed())

			got, err := driver.Get(ctx, "a", []string{"upvotes"})
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Payload).To(HaveLen(1))
			Expect(got.Payload).To(HaveKey("upvotes"))
		})

		It("reports missing points", func() {
			_, err := driver.Get(ctx, "missing", nil)
			Expect(err).To(MatchError(vector.ErrNotFound))
		})

		It("rejects nested payload values", func() {
			p := point("a", 0)
			p.Payload["tags"] = vector.ListValue(vector.StringValue("x"))

			err := driver.Upsert(ctx, []vector.Point{p})
			Expect(errors.Is(err, vector.ErrWrite)).To(BeTrue())
		})

		It("pages by fetching offset plus limit and skipping the offset", func() {
			Expect(driver.Upsert(ctx, []vector.Point{
				point("a", 0), point("b", 0), point("c", 0), point("d", 0),
			})).To(Succeed())

			results, err := driver.Search(ctx, vector.SearchQuery{
				Vector: []float32{1, 0, 0},
				Limit:  2,
				Offset: 2,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(fake.nResults()).To(Equal(4))
			Expect(results).To(HaveLen(2))
			Expect(results[0].ID).To(Equal("c"))
			Expect(results[1].ID).To(Equal("d"))
			Expect(results[0].Score).To(BeNumerically("~", 0.8, 1e-6))
			Expect(results[0].Score).To(BeNumerically(">", results[1].Score))
		})

		It("returns an empty page past the end", func() {
			Expect(driver.Upsert(ctx, []vector.Point{point("a", 0)})).To(Succeed())

			results, err := driver.Search(ctx, vector.SearchQuery{
				Vector: []float32{1, 0, 0},
				Limit:  25,
				Offset: 25,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})
	})

	It("implements vector.Driver", func() {
		var _ vector.Driver = (*chroma.Driver)(nil)
	})
})
