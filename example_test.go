package purple_test

import (
	"context"
	"fmt"

	"github.com/aretw0/purple"
)

func Example() {
	ctx := context.Background()

	app, err := purple.New("", purple.WithAdapter("memory"))
	if err != nil {
		panic(err)
	}
	defer app.Close(ctx)

	for _, text := range []string{"a", "b", "c", "d"} {
		if _, err := app.Tasks.Create(ctx, text); err != nil {
			panic(err)
		}
	}
	if err := app.Tasks.Reorder(ctx, 0, 2); err != nil {
		panic(err)
	}

	for _, t := range app.Tasks.All(ctx) {
		fmt.Print(t.Text, " ")
	}
	fmt.Println()
	// Output: b c a d
}
