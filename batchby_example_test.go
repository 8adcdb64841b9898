package batchby_test

import (
	"fmt"

	"github.com/bft-labs/batchby"
)

type order struct {
	OrderID int    `json:"order_id"`
	SKU     string `json:"sku"`
}

func Example() {
	orders := []order{
		{1, "a"}, {1, "b"}, {2, "c"}, {1, "d"},
	}

	for b, err := range batchby.ByProp[order]("order_id")(batchby.Slice(orders)) {
		if err != nil {
			fmt.Println(err)
			return
		}
		fmt.Println(*b.Pattern, len(b.Items))
	}
	// Output:
	// 1 2
	// 2 1
	// 1 1
}

func ExampleFuncs() {
	// Pairs entries, flushing a trailing odd one at the end.
	pairs := batchby.Funcs[[]int, int, []int]{
		EntryFn: func(acc []int, n int) (batchby.Step[[]int, []int], error) {
			acc = append(acc, n)
			if len(acc) == 2 {
				return batchby.Push[[]int, []int](nil, acc), nil
			}
			return batchby.Keep[[]int, []int](acc), nil
		},
		EndFn: func(last []int) ([][]int, error) {
			if len(last) == 0 {
				return nil, nil
			}
			return [][]int{last}, nil
		},
	}

	out, err := batchby.Collect(batchby.By[[]int, int, []int](pairs)(batchby.Slice([]int{1, 2, 3, 4, 5})))
	fmt.Println(out, err)
	// Output: [[1 2] [3 4] [5]] <nil>
}
