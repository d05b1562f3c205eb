package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/angas/nmcweather-go/nmc"
)

// Lists provinces, or the stations of -province, to find a station code.
func main() {
	province := flag.String("province", "", "province code, e.g. ASH")
	baseURL := flag.String("base-url", nmc.DefaultBaseURL, "NMC base url")
	flag.Parse()

	client, err := nmc.New(*baseURL, "")
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *province == "" {
		res, err := client.Provinces(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		for _, p := range res {
			fmt.Printf("%s\t%s\n", p.Code, p.Name)
		}
		return
	}

	res, err := client.Stations(ctx, *province)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for _, s := range res {
		fmt.Printf("%s\t%s\t%s\n", s.Code, s.Province, s.City)
	}
}
