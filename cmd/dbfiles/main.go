// Command dbfiles administers a dbfiles record store and mirror.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/dbfiles/internal/cli"
)

func main() {
	if err := cli.NewApp().Execute(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
