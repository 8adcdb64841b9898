package pattern_test

import (
	"encoding/json"
	"fmt"

	"github.com/bft-labs/batchby/pkg/batch"
	"github.com/bft-labs/batchby/pkg/pattern"
)

func ExampleByProp() {
	lines := []map[string]any{
		{"sku": "a", "order_id": 1},
		{"sku": "b", "order_id": 1},
		{"sku": "c", "order_id": 2},
	}

	for b, err := range pattern.ByProp[map[string]any]("order_id")(batch.Slice(lines)) {
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		out, _ := json.Marshal(b)
		fmt.Println(string(out))
	}
	// Output:
	// {"accumulate_pattern":1,"items":[{"order_id":1,"sku":"a"},{"order_id":1,"sku":"b"}]}
	// {"accumulate_pattern":2,"items":[{"order_id":2,"sku":"c"}]}
}

func ExampleSamePattern() {
	// Group words by their first letter, case-insensitively.
	words := []string{"apple", "Avocado", "banana", "blueberry", "cherry"}

	policy := pattern.SamePattern(pattern.Config[string, byte]{
		Extract: func(w string, _ *byte) (byte, error) {
			c := w[0]
			if c >= 'A' && c <= 'Z' {
				c += 'a' - 'A'
			}
			return c, nil
		},
		Same: func(a, b byte) bool { return a == b },
	})

	batches, err := batch.Collect(batch.By[pattern.State[byte, string], string, pattern.Batch[byte, string]](policy)(batch.Slice(words)))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, b := range batches {
		fmt.Printf("%c %v\n", *b.Pattern, b.Items)
	}
	// Output:
	// a [apple Avocado]
	// b [banana blueberry]
	// c [cherry]
}
