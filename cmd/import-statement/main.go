// Command import-statement parses a bank or credit card statement workbook
// and prints the import result as JSON, without touching the ledger. Useful
// for checking a file before uploading it through the API.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"homeledger/internal/importer"
)

func main() {
	var (
		filePath = flag.String("file", "", "path to the .xlsx statement file")
		format   = flag.String("format", string(importer.SourceCreditCard), "statement format: credit_card or bank_account")
	)
	flag.Parse()

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "usage: import-statement -file statement.xlsx [-format credit_card]")
		os.Exit(2)
	}

	f, err := os.Open(*filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open statement: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := importer.Import(ctx, f, importer.SourceFormat(*format))
	if err != nil {
		fmt.Fprintf(os.Stderr, "import statement: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
		os.Exit(1)
	}

	if !result.Success {
		os.Exit(1)
	}
}
