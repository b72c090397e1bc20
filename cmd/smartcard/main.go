// smartcard drives the gift card and deals pages against a running backend
// and prints the rendered HTML fragments.
//
// Usage:
//
//	smartcard register --name NAME            Create the account
//	smartcard giftcards list                  Render the gift card list
//	smartcard giftcards add --brand B --balance N [--notes T]
//	smartcard deals find [--lat X --lng Y]    Render deals near a point
//	smartcard logout                          End the session
//
// SMARTCARD_URL, SMARTCARD_EMAIL and SMARTCARD_PASSWORD configure the
// backend and the account; a .env file is honoured.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/hongminglow/smartcard/internal/client"
	"github.com/hongminglow/smartcard/internal/models"
	"github.com/hongminglow/smartcard/internal/ui/dealsfinder"
	"github.com/hongminglow/smartcard/internal/ui/giftpanel"
)

const defaultURL = "http://localhost:8000"

type account struct {
	url      string
	email    string
	password string
}

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd, args := os.Args[1], os.Args[2:]

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	acct := account{
		url:      envOr("SMARTCARD_URL", defaultURL),
		email:    os.Getenv("SMARTCARD_EMAIL"),
		password: os.Getenv("SMARTCARD_PASSWORD"),
	}

	var err error
	switch cmd {
	case "help", "--help", "-h":
		printUsage()
		return
	case "register":
		err = cmdRegister(ctx, acct, args)
	case "giftcards":
		err = cmdGiftCards(ctx, acct, args)
	case "deals":
		err = cmdDeals(ctx, acct, args)
	case "logout":
		err = cmdLogout(ctx, acct)
	default:
		fmt.Fprintf(os.Stderr, "smartcard: unknown command %q\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "smartcard: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: smartcard <command> [flags]

commands:
  register --name NAME
  giftcards list
  giftcards add --brand BRAND --balance AMOUNT [--notes TEXT]
  deals find [--lat LAT --lng LNG]
  logout`)
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func signIn(ctx context.Context, acct account) (*client.Client, error) {
	if acct.email == "" || acct.password == "" {
		return nil, errors.New("SMARTCARD_EMAIL and SMARTCARD_PASSWORD are required")
	}
	c, err := client.New(acct.url)
	if err != nil {
		return nil, err
	}
	if err := c.Login(ctx, acct.email, acct.password); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return c, nil
}

func cmdRegister(ctx context.Context, acct account, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	name := fs.String("name", "", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || acct.email == "" || acct.password == "" {
		return errors.New("--name, SMARTCARD_EMAIL and SMARTCARD_PASSWORD are required")
	}
	c, err := client.New(acct.url)
	if err != nil {
		return err
	}
	if err := c.Register(ctx, *name, acct.email, acct.password); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	fmt.Printf("registered %s\n", acct.email)
	return nil
}

func cmdGiftCards(ctx context.Context, acct account, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: smartcard giftcards <list|add>")
	}
	c, err := signIn(ctx, acct)
	if err != nil {
		return err
	}
	page := &giftpanel.Page{}
	panel := giftpanel.New(c, page)

	switch args[0] {
	case "list":
		if err := panel.Load(ctx); err != nil {
			return fmt.Errorf("load gift cards: %w", err)
		}
	case "add":
		fs := flag.NewFlagSet("giftcards add", flag.ContinueOnError)
		brand := fs.String("brand", "", "card brand")
		balance := fs.String("balance", "", "card balance")
		notes := fs.String("notes", "", "optional notes")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		panel.OpenModal()
		if err := panel.Submit(ctx, *brand, *balance, *notes); err != nil {
			for _, alert := range page.Alerts() {
				fmt.Fprintln(os.Stderr, alert)
			}
			return err
		}
	default:
		return fmt.Errorf("unknown giftcards subcommand %q (expected list or add)", args[0])
	}
	return page.Write(os.Stdout)
}

func cmdDeals(ctx context.Context, acct account, args []string) error {
	if len(args) == 0 || args[0] != "find" {
		return errors.New("usage: smartcard deals find [--lat LAT --lng LNG]")
	}
	fs := flag.NewFlagSet("deals find", flag.ContinueOnError)
	lat := fs.Float64("lat", 0, "latitude")
	lng := fs.Float64("lng", 0, "longitude")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	var latSet, lngSet bool
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lat":
			latSet = true
		case "lng":
			lngSet = true
		}
	})
	locator, err := locatorFromFlags(latSet, lngSet, *lat, *lng)
	if err != nil {
		return err
	}

	c, err := signIn(ctx, acct)
	if err != nil {
		return err
	}
	page := &dealsfinder.Page{}
	finder := dealsfinder.New(c, page, locator, nil)
	finder.CheckLocationStatus(ctx)
	text, _ := page.LocationStatus()
	fmt.Fprintln(os.Stderr, text)

	if err := finder.FindDeals(ctx); err != nil {
		for _, alert := range page.Alerts() {
			fmt.Fprintln(os.Stderr, alert)
		}
		return err
	}
	return page.Write(os.Stdout)
}

// locatorFromFlags needs both coordinates or neither. With neither, the
// finder reports that no location is available.
func locatorFromFlags(latSet, lngSet bool, lat, lng float64) (dealsfinder.Locator, error) {
	switch {
	case latSet && lngSet:
		return dealsfinder.StaticLocator{Point: models.Coordinates{Latitude: lat, Longitude: lng}}, nil
	case latSet || lngSet:
		return nil, errors.New("--lat and --lng must be given together")
	default:
		return dealsfinder.NoLocator{}, nil
	}
}

func cmdLogout(ctx context.Context, acct account) error {
	c, err := signIn(ctx, acct)
	if err != nil {
		return err
	}
	dest, err := c.Logout(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logout: %v\n", err)
	}
	fmt.Println(dest)
	return nil
}
