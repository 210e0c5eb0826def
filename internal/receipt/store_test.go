package receipt

import (
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// sequenceGenerator returns the configured IDs in order, then numbered IDs
type sequenceGenerator struct {
	mu  sync.Mutex
	ids []string
	n   int
}

func (g *sequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.ids) > 0 {
		id := g.ids[0]
		g.ids = g.ids[1:]
		return id
	}
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

var _ = Describe("MemoryStore", func() {
	var store *MemoryStore

	BeforeEach(func() {
		store = NewMemoryStore()
	})

	Describe("Put", func() {
		var (
			record *ScoreRecord
			err    error
		)

		JustBeforeEach(func() {
			record, err = store.Put(28, []RuleScore{{Rule: RuleRetailer, Points: 28}})
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should assign a UUID", func() {
			Expect(record.ID).To(MatchRegexp(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`))
		})

		It("should keep the points and rules", func() {
			Expect(record.Points).To(Equal(28))
			Expect(record.Rules).To(Equal([]RuleScore{{Rule: RuleRetailer, Points: 28}}))
		})

		It("should make the record retrievable", func() {
			saved, getErr := store.Get(record.ID)
			Expect(getErr).NotTo(HaveOccurred())
			Expect(saved.Points).To(Equal(28))
		})

		When("points are negative", func() {
			It("should refuse to store them", func() {
				_, err := store.Put(-1, nil)
				Expect(err).To(HaveOccurred())
				Expect(store.Len()).To(Equal(1))
			})
		})

		When("the generator repeats a live ID", func() {
			BeforeEach(func() {
				store = NewMemoryStoreWithGenerator(&sequenceGenerator{ids: []string{"dup", "dup", "", "fresh"}})
			})

			It("should skip taken and empty IDs", func() {
				second, err := store.Put(5, nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(record.ID).To(Equal("dup"))
				Expect(second.ID).To(Equal("fresh"))
			})
		})

		When("the generator never produces a free ID", func() {
			BeforeEach(func() {
				store = NewMemoryStoreWithGenerator(&mockIDGenerator{id: "same"})
			})

			It("should give up with an error", func() {
				_, err := store.Put(5, nil)
				Expect(err).To(MatchError(ContainSubstring("generating unique id")))
			})
		})
	})

	Describe("Get", func() {
		When("the ID was never issued", func() {
			It("should return ErrNotFound", func() {
				_, err := store.Get("nonexistent")
				Expect(err).To(MatchError(ErrNotFound))
			})
		})

		It("should return copies that cannot change the stored record", func() {
			record, err := store.Put(10, []RuleScore{{Rule: RuleItemPairs, Points: 10}})
			Expect(err).NotTo(HaveOccurred())

			got, err := store.Get(record.ID)
			Expect(err).NotTo(HaveOccurred())
			got.Points = 99
			got.Rules[0].Points = 99

			again, err := store.Get(record.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Points).To(Equal(10))
			Expect(again.Rules[0].Points).To(Equal(10))
		})
	})

	It("should round-trip any non-negative score", func() {
		for _, points := range []int{0, 1, 12, 28, 109, 1 << 30} {
			record, err := store.Put(points, nil)
			Expect(err).NotTo(HaveOccurred())
			got, err := store.Get(record.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Points).To(Equal(points))
		}
	})

	It("should hand out distinct IDs to concurrent callers", func() {
		const workers = 50
		var wg sync.WaitGroup
		ids := make(chan string, workers)

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(points int) {
				defer GinkgoRecover()
				defer wg.Done()
				record, err := store.Put(points, nil)
				Expect(err).NotTo(HaveOccurred())
				ids <- record.ID
			}(i)
		}
		wg.Wait()
		close(ids)

		seen := make(map[string]bool)
		for id := range ids {
			Expect(seen).NotTo(HaveKey(id))
			seen[id] = true
		}
		Expect(seen).To(HaveLen(workers))
		Expect(store.Len()).To(Equal(workers))
	})
})
