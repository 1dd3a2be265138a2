// Command pricecrypt is the operator tool for the price encoding service.
// It truncates, encodes and decodes single prices, renders creatives
// offline, and mints service tokens.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"github.com/adscale/pricecrypt/api/internal/config"
	"github.com/adscale/pricecrypt/api/internal/core/domain"
	"github.com/adscale/pricecrypt/api/internal/core/services"
	"github.com/adscale/pricecrypt/api/internal/db/postgres"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type command struct {
	summary string
	run     func(args []string, stdin io.Reader, stdout, stderr io.Writer) error
}

var commands = map[string]command{
	"truncate": {"fit a price into 8 bytes", runTruncate},
	"encode":   {"encode a price under one key pair", runEncode},
	"decode":   {"decode an encoded price", runDecode},
	"render":   {"replace price macros in creative markup", runRender},
	"token":    {"mint a service token", runToken},
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(stderr)
		return nil
	}

	cmd, ok := commands[args[0]]
	if !ok {
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
	return cmd.run(args[1:], stdin, stdout, stderr)
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `pricecrypt: operator tool for encoded auction prices.

Usage:
  pricecrypt <command> [flags] [args]

Commands:
`)
	for _, name := range []string{"truncate", "encode", "decode", "render", "token"} {
		fmt.Fprintf(w, "  %-10s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(w, `
Keys and the token secret are read from the environment (or .env) exactly
as the API server reads them.
`)
}

func newFlagSet(name string, stderr io.Writer) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	return flagSet
}

func loadKeys() (domain.PriceKeyring, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return cfg.Keyring()
}

func cliLogger(stderr io.Writer, verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(stderr, nil))
}

// ==============================================================================
// Commands
// ==============================================================================

func runTruncate(args []string, _ io.Reader, stdout, stderr io.Writer) error {
	flagSet := newFlagSet("truncate", stderr)
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return errors.New("usage: pricecrypt truncate PRICE")
	}

	price := domain.Price(flagSet.Arg(0))
	if err := price.Validate(); err != nil {
		return err
	}
	truncated, err := services.TruncatePrice(price)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, truncated)
	return nil
}

func runEncode(args []string, _ io.Reader, stdout, stderr io.Writer) error {
	flagSet := newFlagSet("encode", stderr)
	key := flagSet.StringP("key", "k", string(domain.KeyExternal), "key pair: external or internal")
	seed := flagSet.StringP("seed", "s", "", "nonce seed, normally the ad ID")
	verbose := flagSet.BoolP("verbose", "v", false, "log truncation to stderr")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 || *seed == "" {
		return errors.New("usage: pricecrypt encode --seed AD_ID [--key external|internal] PRICE")
	}

	kc, err := domain.ParseKeyContext(*key)
	if err != nil {
		return err
	}
	keys, err := loadKeys()
	if err != nil {
		return err
	}

	svc := services.NewPriceService(keys, cliLogger(stderr, *verbose))
	encoded, _, err := svc.Encode(kc, *seed, domain.Price(flagSet.Arg(0)))
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, encoded)
	return nil
}

func runDecode(args []string, _ io.Reader, stdout, stderr io.Writer) error {
	flagSet := newFlagSet("decode", stderr)
	key := flagSet.StringP("key", "k", string(domain.KeyExternal), "key pair: external or internal")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return errors.New("usage: pricecrypt decode [--key external|internal] ENCODED")
	}

	kc, err := domain.ParseKeyContext(*key)
	if err != nil {
		return err
	}
	keys, err := loadKeys()
	if err != nil {
		return err
	}

	price, err := services.NewPriceService(keys, cliLogger(stderr, false)).Decode(kc, flagSet.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, price)
	return nil
}

func runRender(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var in domain.CreativeInput
	bids := []struct {
		flag string
		dst  **domain.Price
	}{
		{"first-bid", &in.FirstBid},
		{"second-bid", &in.SecondBid},
		{"third-bid", &in.ThirdBid},
	}

	flagSet := newFlagSet("render", stderr)
	flagSet.StringVar(&in.AdID, "ad-id", "", "ad ID, used as nonce seed")
	price := flagSet.String("price", "", "clearing price")
	rate := flagSet.String("exchange-rate", "", "currency exchange rate for the external price")
	file := flagSet.StringP("file", "f", "-", "markup file, - for stdin")
	for _, b := range bids {
		flagSet.String(b.flag, "", "competing bid, encoded under the internal key pair")
	}
	verbose := flagSet.BoolP("verbose", "v", false, "log truncation to stderr")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if in.AdID == "" {
		return errors.New("usage: pricecrypt render --ad-id AD_ID --price PRICE [--file FILE]")
	}

	in.AuctionPrice = domain.Price(*price)
	if err := in.AuctionPrice.Validate(); err != nil {
		return err
	}
	if *rate != "" {
		d, err := decimal.NewFromString(*rate)
		if err != nil {
			return fmt.Errorf("invalid exchange rate %q: %w", *rate, err)
		}
		in.ExchangeRate = &d
	}
	for _, b := range bids {
		if !flagSet.Changed(b.flag) {
			continue
		}
		value, _ := flagSet.GetString(b.flag)
		p := domain.Price(value)
		if err := p.Validate(); err != nil {
			return err
		}
		*b.dst = &p
	}

	markup, err := readMarkup(*file, stdin)
	if err != nil {
		return err
	}
	in.Markup = markup

	keys, err := loadKeys()
	if err != nil {
		return err
	}

	logger := cliLogger(stderr, *verbose)
	svc := services.NewCreativeService(keys, postgres.NewLogAlertRecorder(logger), logger)
	out, err := svc.Render(context.Background(), in)
	if err != nil {
		return err
	}
	fmt.Fprint(stdout, out)
	return nil
}

func readMarkup(file string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("read markup: %w", err)
	}
	return string(data), nil
}

func runToken(args []string, _ io.Reader, stdout, stderr io.Writer) error {
	flagSet := newFlagSet("token", stderr)
	subject := flagSet.String("subject", "", "caller identity, e.g. settlement-backend")
	scopes := flagSet.StringSlice("scope", nil, "granted scopes (repeatable or comma separated)")
	ttl := flagSet.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if *subject == "" || len(*scopes) == 0 {
		return fmt.Errorf("usage: pricecrypt token --subject NAME --scope %s[,%s]",
			services.ScopePricesDecode, strings.Join([]string{services.ScopeAlertsRead, services.ScopeAlertsWrite}, ","))
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	token, err := services.NewTokenService(cfg.JWTSecret).Issue(*subject, *scopes, *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, token)
	return nil
}
