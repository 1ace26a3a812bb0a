// Command storefront is the interactive client for the 3D-print storefront:
// it browses the catalog, manages a locally persisted cart that stays in
// sync across concurrently running instances, and performs password and
// passkey authentication against the remote API.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/printforge/storefront/internal/api"
	"github.com/printforge/storefront/internal/broadcast"
	"github.com/printforge/storefront/internal/cart"
	"github.com/printforge/storefront/internal/cart/store"
	"github.com/printforge/storefront/internal/config"
	"github.com/printforge/storefront/internal/logger"
	"github.com/printforge/storefront/internal/models"
	"github.com/printforge/storefront/internal/webauthn"
)

var (
	version   string
	buildDate string
)

func main() {
	options := config.Parse()

	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Log.Sync() }()
	zapLogger := log.Log

	if version != "" {
		fmt.Printf("Storefront Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
	}

	st, err := newStore(options)
	if err != nil {
		zapLogger.Fatal("cannot init cart store", zap.Error(err))
	}
	bus, err := newBus(options)
	if err != nil {
		zapLogger.Fatal("cannot init sync bus", zap.Error(err))
	}

	coordinator := cart.NewCoordinator(st, bus, zapLogger)
	coordinator.Init()
	defer coordinator.Dispose()

	httpClient, err := api.NewHTTPClient()
	if err != nil {
		zapLogger.Fatal("cannot init http client", zap.Error(err))
	}
	apiClient := api.New(options.BaseURL, httpClient)
	ceremonies := webauthn.NewClient(options.BaseURL, httpClient, newPromptAuthenticator(), zapLogger)

	repl(apiClient, ceremonies, coordinator)
}

// newStore picks the cart store backend from configuration.
func newStore(options *config.Options) (store.Store, error) {
	switch options.Store {
	case "sqlite":
		return store.OpenSQLite(filepath.Join(options.StateDir, "storefront.db"))
	default:
		return store.NewFileStore(options.StateDir)
	}
}

// newBus picks the sync transport. "none" returns nil, which makes the
// coordinator fall back to storage polling.
func newBus(options *config.Options) (broadcast.Bus, error) {
	switch options.Bus {
	case "none":
		return nil, nil
	case "memory":
		return broadcast.NewMemoryBus(), nil
	default:
		return broadcast.NewSpoolBus(filepath.Join(options.StateDir, "spool"))
	}
}

// repl runs the interactive shell loop.
func repl(apiClient *api.Client, ceremonies *webauthn.Client, coordinator *cart.Coordinator) {
	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("storefront> ")
		if !scanner.Scan() {
			break
		}
		args := strings.Fields(strings.TrimSpace(scanner.Text()))
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			fmt.Println("Commands: help, product <id>, list [page], search <q>, colors <filament>,")
			fmt.Println("  add <productId> <qty> <color> <filament>, cart, remove <productId> <color> <filament>,")
			fmt.Println("  qty <productId> <color> <filament> <n>, clear, summary, checkout <cartId>,")
			fmt.Println("  signup <email> <password>, signin <email> <password>, passkey-register <email>,")
			fmt.Println("  passkey-login <email>, profile, passkeys, resync, exit")
		case "product":
			if len(args) < 2 {
				fmt.Println("Usage: product <id>")
				continue
			}
			id, _ := strconv.Atoi(args[1])
			p, err := apiClient.Product(ctx, id)
			if err != nil {
				fmt.Println("Error:", err)
				continue
			}
			fmt.Printf("%d  %s  $%.2f  %s %s\n", p.ID, p.Name, p.Price, p.FilamentType, p.Color)
		case "list":
			page := 1
			if len(args) > 1 {
				page, _ = strconv.Atoi(args[1])
			}
			list, err := apiClient.Products(ctx, page, 20)
			if err != nil {
				fmt.Println("Error:", err)
				continue
			}
			for _, p := range list.Products {
				fmt.Printf("%d  %s  $%.2f\n", p.ID, p.Name, p.Price)
			}
			fmt.Printf("page %d/%d\n", list.Pagination.Page, list.Pagination.TotalPages)
		case "search":
			if len(args) < 2 {
				fmt.Println("Usage: search <query>")
				continue
			}
			list, err := apiClient.Search(ctx, strings.Join(args[1:], " "))
			if err != nil {
				fmt.Println("Error:", err)
				continue
			}
			for _, p := range list.Products {
				fmt.Printf("%d  %s  $%.2f\n", p.ID, p.Name, p.Price)
			}
		case "colors":
			if len(args) < 2 {
				fmt.Println("Usage: colors <filament>")
				continue
			}
			colors, err := apiClient.Colors(ctx, args[1])
			if err != nil {
				fmt.Println("Error:", err)
				continue
			}
			for _, c := range colors {
				fmt.Printf("%s  #%s  %s\n", c.Filament, c.HexColor, c.ColorTag)
			}
		case "add":
			if len(args) < 5 {
				fmt.Println("Usage: add <productId> <qty> <color> <filament>")
				continue
			}
			addCommand(ctx, apiClient, coordinator, args[1:])
		case "cart":
			printCart(coordinator)
		case "remove":
			if len(args) < 4 {
				fmt.Println("Usage: remove <productId> <color> <filament>")
				continue
			}
			id, _ := strconv.Atoi(args[1])
			coordinator.RemoveFromCart(lineKey(id, args[2], args[3]))
			printCart(coordinator)
		case "qty":
			if len(args) < 5 {
				fmt.Println("Usage: qty <productId> <color> <filament> <n>")
				continue
			}
			id, _ := strconv.Atoi(args[1])
			n, _ := strconv.Atoi(args[4])
			coordinator.UpdateQuantity(lineKey(id, args[2], args[3]), n)
			printCart(coordinator)
		case "clear":
			coordinator.ClearCart()
			fmt.Println("Cart cleared")
		case "summary":
			s := cart.Summarize(coordinator.Cart())
			fmt.Printf("Subtotal: $%.2f\nShipping: $%.2f\nTaxes: $%.2f\nTotal: $%.2f\n",
				s.Subtotal, s.Shipping, s.Taxes, s.Total)
		case "checkout":
			if len(args) < 2 {
				fmt.Println("Usage: checkout <cartId>")
				continue
			}
			secret, err := apiClient.Checkout(ctx, args[1])
			if err != nil {
				fmt.Println("Error:", err)
				continue
			}
			fmt.Println("Payment client secret:", secret)
		case "signup":
			if len(args) < 3 {
				fmt.Println("Usage: signup <email> <password>")
				continue
			}
			if err := apiClient.SignUp(ctx, args[1], args[2]); err != nil {
				fmt.Println("Signup failed:", err)
				continue
			}
			fmt.Println("Signup successful")
		case "signin":
			if len(args) < 3 {
				fmt.Println("Usage: signin <email> <password>")
				continue
			}
			if err := apiClient.SignIn(ctx, args[1], args[2]); err != nil {
				fmt.Println("Password sign-in failed:", err)
				continue
			}
			fmt.Println("Signed in with password")
		case "passkey-register":
			if len(args) < 2 {
				fmt.Println("Usage: passkey-register <email>")
				continue
			}
			result := ceremonies.Register(ctx, args[1])
			fmt.Println(result.Message)
		case "passkey-login":
			if len(args) < 2 {
				fmt.Println("Usage: passkey-login <email>")
				continue
			}
			result := ceremonies.Authenticate(ctx, args[1])
			fmt.Println(result.Message)
		case "profile":
			p, err := apiClient.Profile(ctx)
			if err != nil {
				fmt.Println("Error:", err)
				continue
			}
			fmt.Printf("%s %s <%s>\n%s, %s %s %s, %s\n",
				p.FirstName, p.LastName, p.Email,
				p.ShippingAddress, p.City, p.State, p.ZipCode, p.Country)
		case "passkeys":
			auths, err := apiClient.Authenticators(ctx)
			if err != nil {
				fmt.Println("Error:", err)
				continue
			}
			if len(auths) == 0 {
				fmt.Println("No passkeys registered")
			}
			for _, a := range auths {
				fmt.Println(a.CredentialID)
			}
		case "resync":
			coordinator.HandleFocus()
			printCart(coordinator)
		case "exit":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Unknown command. Type 'help' for a list of commands.")
		}
	}
}

// addCommand fetches the product so the line carries a name and a price
// snapshot, then merges it into the cart.
func addCommand(ctx context.Context, apiClient *api.Client, coordinator *cart.Coordinator, args []string) {
	id, _ := strconv.Atoi(args[0])
	qty, _ := strconv.Atoi(args[1])
	if qty < 1 {
		qty = 1
	}
	p, err := apiClient.Product(ctx, id)
	if err != nil {
		fmt.Println("Error fetching product:", err)
		return
	}
	line := lineKey(id, args[2], args[3])
	line.Name = p.Name
	line.UnitPrice = p.Price
	line.Image = p.Image
	line.Quantity = qty
	coordinator.AddToCart(line)
	printCart(coordinator)
}

func lineKey(id int, color, filament string) (l models.CartLine) {
	l.ProductID = id
	l.Color = color
	l.FilamentType = filament
	return l
}

func printCart(coordinator *cart.Coordinator) {
	lines := coordinator.Cart()
	if len(lines) == 0 {
		fmt.Println("Your cart is empty")
		return
	}
	for _, l := range lines {
		fmt.Printf("%d x %s (%s %s)  $%.2f\n", l.Quantity, l.Name, l.FilamentType, l.Color, l.UnitPrice)
	}
}
