package vector_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/cards/pkg/vector"
)

var _ = Describe("Value", func() {
	It("defaults to null", func() {
		var v vector.Value
		Expect(v.IsNull()).To(BeTrue())
		Expect(v.Kind()).To(Equal(vector.KindNull))
	})

	It("only yields the variant it holds", func() {
		v := vector.IntegerValue(5)

		i, ok := v.AsInteger()
		Expect(ok).To(BeTrue())
		Expect(i).To(Equal(int64(5)))

		_, ok = v.AsString()
		Expect(ok).To(BeFalse())
		_, ok = v.AsDouble()
		Expect(ok).To(BeFalse())
	})

	It("compares nested values structurally", func() {
		a := vector.StructValue(map[string]vector.Value{
			"list": vector.ListValue(vector.IntegerValue(1), vector.StringValue("x")),
		})
		b := vector.StructValue(map[string]vector.Value{
			"list": vector.ListValue(vector.IntegerValue(1), vector.StringValue("x")),
		})
		c := vector.StructValue(map[string]vector.Value{
			"list": vector.ListValue(vector.DoubleValue(1), vector.StringValue("x")),
		})

		Expect(a.Equal(b)).To(BeTrue())
		Expect(a.Equal(c)).To(BeFalse())
	})

	Describe("JSON", func() {
		It("round-trips a payload without changing kinds", func() {
			payload := vector.Payload{
				"content":   vector.StringValue("hello"),
				"upvotes":   vector.IntegerValue(2),
				"ratio":     vector.DoubleValue(1),
				"flag":      vector.BoolValue(false),
				"link":      vector.NullValue(),
				"tags":      vector.ListValue(vector.StringValue("a")),
				"nested":    vector.StructValue(map[string]vector.Value{"n": vector.IntegerValue(-3)}),
				"exponents": vector.DoubleValue(1e21),
			}

			data, err := json.Marshal(payload)
			Expect(err).NotTo(HaveOccurred())

			var back vector.Payload
			Expect(json.Unmarshal(data, &back)).To(Succeed())
			Expect(back).To(HaveLen(len(payload)))
			for k, v := range payload {
				Expect(back[k].Equal(v)).To(BeTrue(), "key %s", k)
			}
		})

		It("refuses to encode non-finite doubles", func() {
			_, err := json.Marshal(vector.Payload{"bad": vector.DoubleValue(posInf())})
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("Payload", func() {
	payload := vector.Payload{
		"content": vector.StringValue("c"),
		"topic":   vector.StringValue("t"),
	}

	It("selects only the requested fields", func() {
		sel := payload.Select([]string{"content", "missing"})
		Expect(sel).To(HaveLen(1))
		Expect(sel).To(HaveKey("content"))
	})

	It("selects everything for nil fields", func() {
		Expect(payload.Select(nil)).To(HaveLen(2))
	})

	It("clones independently", func() {
		c := payload.Clone()
		c["topic"] = vector.StringValue("changed")

		topic, _ := payload["topic"].AsString()
		Expect(topic).To(Equal("t"))
	})
})

func posInf() float64 {
	zero := 0.0
	return 1 / zero
}
